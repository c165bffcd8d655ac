package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/texopt-project/texopt/internal/config"
)

func writeTree(t *testing.T, files []string) string {
	t.Helper()
	root := t.TempDir()
	for _, f := range files {
		p := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}
	return root
}

func TestShouldProcess(t *testing.T) {
	cfg := config.Default()
	s := New(cfg)

	assert.True(t, s.ShouldProcess("Textures/rock.dds"))
	assert.True(t, s.ShouldProcess("Data Files/Textures/rock.dds"))
	// Whitelist requires a textures component.
	assert.False(t, s.ShouldProcess("Meshes/rock.dds"))
	// Blacklisted folders and prefixes.
	assert.False(t, s.ShouldProcess("Textures/Icons/sword.dds"))
	assert.False(t, s.ShouldProcess("Textures/menu_button.dds"))
	assert.False(t, s.ShouldProcess("Textures/bookart/page.dds"))
}

func TestFind_RegularMode(t *testing.T) {
	root := writeTree(t, []string{
		"Textures/rock.dds",
		"Textures/rock_n.dds",
		"Textures/rock_nh.dds",
		"Textures/banner.tga",
		"Textures/icons/sword.dds",
		"Meshes/rock.dds",
		"Textures/readme.txt",
	})

	cfg := config.Default()
	files, stats, err := Find(root, cfg)
	require.NoError(t, err)

	assert.Equal(t, []string{"Textures/banner.tga", "Textures/rock.dds"}, files)
	assert.Equal(t, 6, stats.Found)
	assert.Equal(t, 1, stats.Blacklist)
	assert.Equal(t, 1, stats.Whitelist)
	assert.Equal(t, 2, stats.Suffix)
	assert.Equal(t, 2, stats.Accepted)
}

func TestFind_RegularModeWithNormalMaps(t *testing.T) {
	root := writeTree(t, []string{"Textures/rock.dds", "Textures/rock_n.dds"})
	cfg := config.Default()
	cfg.Filter.ExcludeNormalMaps = false

	files, _, err := Find(root, cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"Textures/rock.dds", "Textures/rock_n.dds"}, files)
}

func TestFind_NormalMode(t *testing.T) {
	root := writeTree(t, []string{
		"Textures/rock.dds",
		"Textures/rock_n.dds",
		"Textures/rock_NH.dds",
		"Textures/banner.tga",
	})

	cfg := config.Default()
	cfg.Mode = config.ModeNormal
	files, stats, err := Find(root, cfg)
	require.NoError(t, err)

	assert.Equal(t, []string{"Textures/rock_NH.dds", "Textures/rock_n.dds"}, files)
	assert.Equal(t, 2, stats.Accepted)
	// TGA is never a normal map candidate.
	assert.Equal(t, 3, stats.Found)
}

func TestFind_TGASupersedesDDS(t *testing.T) {
	root := writeTree(t, []string{
		"Textures/rock.dds",
		"Textures/rock.tga",
		"Textures/Banner.DDS",
		"Textures/banner.tga",
		"Textures/wall.dds",
		"Textures/other/rock.dds",
	})

	cfg := config.Default()
	files, stats, err := Find(root, cfg)
	require.NoError(t, err)

	// The TGA is the lossless source; a DDS with the same stem in the
	// same directory is dropped, regardless of case. The same stem in
	// another directory is unaffected.
	assert.Equal(t, []string{
		"Textures/banner.tga",
		"Textures/other/rock.dds",
		"Textures/rock.tga",
		"Textures/wall.dds",
	}, files)
	assert.Equal(t, 6, stats.Found)
	assert.Equal(t, 2, stats.TGADuplicates)
	assert.Equal(t, 4, stats.Accepted)
}

func TestFind_NoDedupWithoutTGASupport(t *testing.T) {
	root := writeTree(t, []string{"Textures/rock.dds", "Textures/rock.tga"})
	cfg := config.Default()
	cfg.Filter.TGASupport = false

	files, stats, err := Find(root, cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"Textures/rock.dds"}, files)
	assert.Equal(t, 0, stats.TGADuplicates)
}

func TestFind_NoTGASupport(t *testing.T) {
	root := writeTree(t, []string{"Textures/banner.tga", "Textures/rock.dds"})
	cfg := config.Default()
	cfg.Filter.TGASupport = false

	files, _, err := Find(root, cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"Textures/rock.dds"}, files)
}

func TestMatchesPattern(t *testing.T) {
	patterns := config.DefaultNoMipmapPaths // birthsigns, levelup, splash, scroll.*, tx_scroll.*

	assert.True(t, MatchesPattern("Textures/birthsigns/tower.dds", patterns))
	assert.True(t, MatchesPattern("Textures/Splash/loading01.dds", patterns))
	assert.True(t, MatchesPattern("Textures/scroll.dds", patterns))
	assert.True(t, MatchesPattern("Textures/tx_scroll.tga", patterns))
	assert.False(t, MatchesPattern("Textures/rock.dds", patterns))
	assert.False(t, MatchesPattern("Textures/scrollwork_trim.dds", patterns))
	assert.False(t, MatchesPattern("Textures/rock.dds", nil))
}
