// Package scanner discovers texture files under a source tree and applies
// the path and suffix filters that decide what an optimization run covers.
package scanner

import (
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/texopt-project/texopt/internal/config"
)

// Stats reports why discovered files were kept or dropped.
type Stats struct {
	Found         int // files matching the extension patterns
	TGADuplicates int // DDS superseded by a same-stem TGA
	Whitelist     int // rejected by the whitelist
	Blacklist     int // rejected by the blacklist
	Suffix        int // rejected by the _n/_nh suffix filter
	Accepted      int
}

// Scanner filters candidate paths against a whitelist and blacklist of
// path components. Matching is case-insensitive substring per component,
// mirroring how texture packs nest arbitrarily cased folders.
type Scanner struct {
	whitelist []string
	blacklist []string
}

// New builds a Scanner from the filter settings.
func New(cfg *config.Settings) *Scanner {
	return &Scanner{
		whitelist: lowerAll(cfg.Filter.Whitelist),
		blacklist: lowerAll(cfg.Filter.CustomBlacklist, cfg.Filter.Blacklist...),
	}
}

func lowerAll(a []string, extra ...string) []string {
	out := make([]string, 0, len(a)+len(extra))
	for _, s := range append(extra, a...) {
		out = append(out, strings.ToLower(s))
	}
	return out
}

// ShouldProcess reports whether a relative path passes both filters.
// Every whitelist entry must appear in some path component; no blacklist
// entry may.
func (s *Scanner) ShouldProcess(rel string) bool {
	parts := strings.Split(strings.ToLower(filepath.ToSlash(rel)), "/")

	for _, required := range s.whitelist {
		found := false
		for _, part := range parts {
			if strings.Contains(part, required) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	for _, blocked := range s.blacklist {
		for _, part := range parts {
			if strings.Contains(part, blocked) {
				return false
			}
		}
	}
	return true
}

// blockedBy names the first blacklist hit, for stats classification.
func (s *Scanner) blockedBy(rel string) bool {
	parts := strings.Split(strings.ToLower(filepath.ToSlash(rel)), "/")
	for _, blocked := range s.blacklist {
		for _, part := range parts {
			if strings.Contains(part, blocked) {
				return true
			}
		}
	}
	return false
}

// Find walks root and returns the relative slash-separated paths of all
// textures the current mode should process, sorted, plus filter stats.
//
// Normal mode keeps only *_n / *_nh DDS files. Regular mode keeps
// everything else, dropping normal maps when exclude_normal_maps is set
// and including TGA when tga_support is on. When a DDS and a TGA share a
// stem in the same directory, the TGA wins: it is the lossless source,
// and keeping both would have them race for one output path.
func Find(root string, cfg *config.Settings) ([]string, Stats, error) {
	s := New(cfg)
	var stats Stats
	var candidates []string
	tgaStems := make(map[string]bool)

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(p))
		switch ext {
		case ".dds":
		case ".tga":
			if cfg.Mode != config.ModeRegular || !cfg.Filter.TGASupport {
				return nil
			}
		default:
			return nil
		}
		stats.Found++

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if ext == ".tga" {
			tgaStems[stemKey(rel)] = true
		}
		candidates = append(candidates, rel)
		return nil
	})
	if err != nil {
		return nil, stats, err
	}

	var files []string
	for _, rel := range candidates {
		if strings.EqualFold(path.Ext(rel), ".dds") && tgaStems[stemKey(rel)] {
			stats.TGADuplicates++
			continue
		}

		if !s.ShouldProcess(rel) {
			if s.blockedBy(rel) {
				stats.Blacklist++
			} else {
				stats.Whitelist++
			}
			continue
		}

		isNormalMap := hasNormalSuffix(rel)
		if cfg.Mode == config.ModeNormal {
			if !isNormalMap || !strings.EqualFold(path.Ext(rel), ".dds") {
				stats.Suffix++
				continue
			}
		} else if cfg.Filter.ExcludeNormalMaps && isNormalMap {
			stats.Suffix++
			continue
		}

		stats.Accepted++
		files = append(files, rel)
	}

	sort.Strings(files)
	return files, stats, nil
}

// stemKey identifies a texture by directory and lowercase stem, so that
// rock.dds and rock.tga in the same folder collapse to one key.
func stemKey(rel string) string {
	stem := strings.ToLower(path.Base(rel))
	if i := strings.LastIndexByte(stem, '.'); i >= 0 {
		stem = stem[:i]
	}
	return path.Dir(rel) + "/" + stem
}

func hasNormalSuffix(rel string) bool {
	stem := strings.ToLower(path.Base(rel))
	if i := strings.LastIndexByte(stem, '.'); i >= 0 {
		stem = stem[:i]
	}
	return strings.HasSuffix(stem, "_n") || strings.HasSuffix(stem, "_nh")
}

// MatchesPattern reports whether a relative path matches any entry in
// patterns. Wildcard entries match the filename or its stem; plain
// entries match a whole path component or a filename prefix.
func MatchesPattern(rel string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}

	rel = strings.ToLower(filepath.ToSlash(rel))
	parts := strings.Split(rel, "/")
	filename := parts[len(parts)-1]
	stem := filename
	if i := strings.LastIndexByte(stem, '.'); i >= 0 {
		stem = stem[:i]
	}

	for _, pattern := range patterns {
		pattern = strings.ToLower(pattern)
		if strings.ContainsAny(pattern, "*?") {
			if ok, _ := path.Match(pattern, filename); ok {
				return true
			}
			if ok, _ := path.Match(pattern, stem); ok {
				return true
			}
		} else {
			for _, part := range parts {
				if part == pattern {
					return true
				}
			}
			if strings.HasPrefix(filename, pattern) {
				return true
			}
		}
	}
	return false
}
