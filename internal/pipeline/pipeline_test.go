package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/texopt-project/texopt/internal/config"
	"github.com/texopt-project/texopt/internal/encoder"
	"github.com/texopt-project/texopt/internal/texture"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// writeDDS writes a synthetic DDS with a zeroed payload large enough for
// the alpha scanner to accept.
func writeDDS(t *testing.T, path string, spec texture.DDSSpec) {
	t.Helper()
	data := texture.MakeDDS(spec)
	blocks := ((spec.Width + 3) / 4) * ((spec.Height + 3) / 4)
	blockSize := 16
	if spec.FourCC == texture.TestFourCCDXT1 {
		blockSize = 8
	}
	if spec.FourCC != 0 {
		data = append(data, make([]byte, blocks*blockSize)...)
	} else if spec.BitCount != 0 {
		data = append(data, make([]byte, spec.Width*spec.Height*int(spec.BitCount)/8)...)
	}
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

// fakeEncoder emulates the external encoder: it parses the argv the
// client built and writes a plausible DDS into the output directory.
type fakeEncoder struct {
	mu    sync.Mutex
	calls [][]string
	fail  map[string]bool // inputs to fail on
}

func (f *fakeEncoder) RunWithOutput(_ context.Context, _ string, args []string) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, args)
	f.mu.Unlock()

	var format, outDir, input string
	width, height := 0, 0
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-f":
			format = args[i+1]
		case "-o":
			outDir = args[i+1]
		case "-y":
			input = args[i+1]
		case "-w":
			width, _ = strconv.Atoi(args[i+1])
		case "-h":
			height, _ = strconv.Atoi(args[i+1])
		}
	}

	if f.fail[filepath.Base(input)] {
		return nil, fmt.Errorf("exit status 1: simulated encoder crash")
	}

	if width == 0 {
		src := texture.ParseFile(input)
		width, height = src.Width, src.Height
	}

	spec := texture.DDSSpec{Width: width, Height: height, MipCount: texture.ExpectedMipCount(width, height)}
	switch format {
	case "BC1_UNORM":
		spec.FourCC = texture.TestFourCCDXT1
	case "BC2_UNORM":
		spec.FourCC = texture.TestFourCCDXT3
	case "BC3_UNORM":
		spec.FourCC = texture.TestFourCCDXT5
	case "BC5_UNORM":
		spec.FourCC = texture.TestFourCCATI2
	case "B8G8R8A8_UNORM":
		spec.BitCount = 32
		spec.AMask = 0xFF000000
	case "B8G8R8X8_UNORM":
		spec.BitCount = 32
	}

	name := filepath.Base(input)
	name = name[:len(name)-len(filepath.Ext(name))] + ".dds"

	data := texture.MakeDDS(spec)
	if spec.BitCount == 32 {
		// Full mip chain payload so the BGR24 repack has real bytes.
		w, h := width, height
		for level := 0; level < spec.MipCount; level++ {
			data = append(data, make([]byte, w*h*4)...)
			w, h = max(1, w/2), max(1, h/2)
		}
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, err
	}
	return nil, os.WriteFile(filepath.Join(outDir, name), data, 0o644)
}

func seedSourceTree(t *testing.T, root string) {
	writeDDS(t, filepath.Join(root, "Textures/good.dds"),
		texture.DDSSpec{Width: 64, Height: 64, MipCount: 7, FourCC: texture.TestFourCCDXT5})
	writeDDS(t, filepath.Join(root, "Textures/flat.dds"),
		texture.DDSSpec{Width: 64, Height: 64, MipCount: 7, FourCC: texture.TestFourCCDXT1})
	writeDDS(t, filepath.Join(root, "Textures/nomips.dds"),
		texture.DDSSpec{Width: 64, Height: 64, MipCount: 1, FourCC: texture.TestFourCCDXT1})
	require.NoError(t, os.WriteFile(filepath.Join(root, "Textures/broken.dds"), []byte("not a texture"), 0o644))
}

func TestAnalyze(t *testing.T) {
	src := t.TempDir()
	seedSourceTree(t, src)

	cfg := config.Default()
	o := New(cfg, testLogger(), false)

	results, stats, err := o.Analyze(context.Background(), src, nil)
	require.NoError(t, err)
	require.Len(t, results, 4)
	assert.Equal(t, 4, stats.Accepted)

	byPath := map[string]AnalysisResult{}
	for _, r := range results {
		byPath[r.RelativePath] = r
	}

	good := byPath["Textures/good.dds"]
	assert.True(t, good.OK())
	assert.True(t, good.Passthrough)
	assert.Equal(t, texture.FormatBC3, good.TargetFormat)
	assert.Equal(t, good.FileSize, good.ProjectedSize)

	flat := byPath["Textures/flat.dds"]
	assert.True(t, flat.Passthrough)
	assert.False(t, flat.PunchThrough)

	nomips := byPath["Textures/nomips.dds"]
	assert.True(t, nomips.OK())
	assert.False(t, nomips.Passthrough)
	assert.Equal(t, texture.FormatBC1, nomips.TargetFormat)

	broken := byPath["Textures/broken.dds"]
	assert.False(t, broken.OK())
	assert.Contains(t, broken.Error, "could not parse header")

	assert.Equal(t, 3, o.Stats.FastParses)
	assert.Equal(t, 1, o.Stats.Fallbacks)
	assert.Equal(t, 4, o.CacheLen())
}

func TestAnalyze_ParallelMatchesSequential(t *testing.T) {
	src := t.TempDir()
	seedSourceTree(t, src)

	cfg := config.Default()
	sequential, _, err := New(cfg, testLogger(), false).Analyze(context.Background(), src, nil)
	require.NoError(t, err)

	cfg2 := config.Default()
	cfg2.Parallel.AnalyzeThreshold = 0 // force the pool even for 4 files
	cfg2.Parallel.Jobs = 4
	parallel, _, err := New(cfg2, testLogger(), false).Analyze(context.Background(), src, nil)
	require.NoError(t, err)

	assert.ElementsMatch(t, sequential, parallel)
}

func TestProcess_RequiresAnalyze(t *testing.T) {
	cfg := config.Default()
	o := New(cfg, testLogger(), false)

	_, err := o.Process(context.Background(), t.TempDir(), t.TempDir(), nil)
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, cfgErr.Error(), "no analysis")
}

func TestProcess_SettingsChangeInvalidates(t *testing.T) {
	src := t.TempDir()
	seedSourceTree(t, src)

	cfg := config.Default()
	o := New(cfg, testLogger(), false)
	_, _, err := o.Analyze(context.Background(), src, nil)
	require.NoError(t, err)

	changed := config.Default()
	changed.Resize.MaxResolution = 1024
	o.UpdateSettings(changed)

	_, err = o.Process(context.Background(), src, t.TempDir(), nil)
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}

func TestProcess_EndToEnd(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	seedSourceTree(t, src)

	cfg := config.Default()
	o := New(cfg, testLogger(), false)
	fake := &fakeEncoder{}
	o.client = encoder.NewClientWithExecutor(cfg, fake, testLogger())

	_, _, err := o.Analyze(context.Background(), src, nil)
	require.NoError(t, err)

	results, err := o.Process(context.Background(), src, dst, nil)
	require.NoError(t, err)
	require.Len(t, results, 4)

	byPath := map[string]ProcessingResult{}
	for _, r := range results {
		byPath[r.RelativePath] = r
	}

	// Passthrough without copying: success, skipped, no output file.
	good := byPath["Textures/good.dds"]
	assert.True(t, good.Success)
	assert.True(t, good.Skipped)
	assert.NoFileExists(t, filepath.Join(dst, "Textures/good.dds"))

	// Re-encoded file exists and parses to the predicted format.
	nomips := byPath["Textures/nomips.dds"]
	assert.True(t, nomips.Success)
	out := texture.ParseFile(filepath.Join(dst, "Textures/nomips.dds"))
	assert.Equal(t, texture.FormatBC1, out.Format)
	assert.Equal(t, 64, out.Width)

	// The failed analysis propagates as a per-file failure.
	broken := byPath["Textures/broken.dds"]
	assert.False(t, broken.Success)
	assert.NotEmpty(t, broken.Error)
}

func TestProcess_CopyPassthrough(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeDDS(t, filepath.Join(src, "Textures/good.dds"),
		texture.DDSSpec{Width: 64, Height: 64, MipCount: 7, FourCC: texture.TestFourCCDXT5})

	cfg := config.Default()
	cfg.Regular.CopyPassthrough = true
	o := New(cfg, testLogger(), false)
	o.client = encoder.NewClientWithExecutor(cfg, &fakeEncoder{}, testLogger())

	_, _, err := o.Analyze(context.Background(), src, nil)
	require.NoError(t, err)
	results, err := o.Process(context.Background(), src, dst, nil)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
	assert.False(t, results[0].Skipped)
	assert.FileExists(t, filepath.Join(dst, "Textures/good.dds"))
}

func TestProcess_FailureIsolation(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeDDS(t, filepath.Join(src, "Textures/a.dds"),
		texture.DDSSpec{Width: 32, Height: 32, MipCount: 1, FourCC: texture.TestFourCCDXT1})
	writeDDS(t, filepath.Join(src, "Textures/b.dds"),
		texture.DDSSpec{Width: 32, Height: 32, MipCount: 1, FourCC: texture.TestFourCCDXT1})

	cfg := config.Default()
	o := New(cfg, testLogger(), false)
	o.client = encoder.NewClientWithExecutor(cfg, &fakeEncoder{fail: map[string]bool{"a.dds": true}}, testLogger())

	_, _, err := o.Analyze(context.Background(), src, nil)
	require.NoError(t, err)
	results, err := o.Process(context.Background(), src, dst, nil)
	require.NoError(t, err)

	byPath := map[string]ProcessingResult{}
	for _, r := range results {
		byPath[r.RelativePath] = r
	}
	assert.False(t, byPath["Textures/a.dds"].Success)
	assert.Contains(t, byPath["Textures/a.dds"].Error, "simulated encoder crash")
	assert.True(t, byPath["Textures/b.dds"].Success)
}

func TestProgressCallback(t *testing.T) {
	src := t.TempDir()
	seedSourceTree(t, src)

	cfg := config.Default()
	o := New(cfg, testLogger(), false)

	var mu sync.Mutex
	var seen []int
	_, _, err := o.Analyze(context.Background(), src, func(done, total int, rel string) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, 4, total)
		assert.True(t, strings.HasPrefix(rel, "Textures/"))
		seen = append(seen, done)
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4}, seen)
}

func TestCache(t *testing.T) {
	c := NewCache()
	require.Error(t, c.Check("fp"))

	c.Replace("fp", []AnalysisResult{{RelativePath: "a.dds"}, {RelativePath: "b.dds"}})
	require.NoError(t, c.Check("fp"))
	assert.Equal(t, []string{"a.dds", "b.dds"}, c.Paths())

	r, ok := c.Get("a.dds")
	assert.True(t, ok)
	assert.Equal(t, "a.dds", r.RelativePath)

	require.Error(t, c.Check("other"))

	c.Invalidate()
	assert.Equal(t, 0, c.Len())
	var cfgErr *ConfigurationError
	require.ErrorAs(t, c.Check("fp"), &cfgErr)
}

func TestRunAll_PoolMatchesSequential(t *testing.T) {
	items := make([]string, 200)
	for i := range items {
		items[i] = fmt.Sprintf("item-%03d", i)
	}
	fn := func(_ context.Context, s string) string { return strings.ToUpper(s) }

	seq := runAll(context.Background(), items, false, 1, nil, fn)
	par := runAll(context.Background(), items, true, 8, nil, fn)

	// Results are positional, so pooled execution is byte-identical.
	assert.Equal(t, seq, par)
}

func TestReportAggregation(t *testing.T) {
	cfg := config.Default()
	o := New(cfg, testLogger(), false)

	results := []AnalysisResult{
		{RelativePath: "a.dds", FileSize: 100, ProjectedSize: 50},
		{RelativePath: "b.dds", FileSize: 200, ProjectedSize: 200, Passthrough: true},
		{RelativePath: "c.dds", Error: "boom"},
	}
	report := o.BuildAnalysisReport(results)

	assert.Equal(t, o.RunID(), report.RunID)
	assert.Equal(t, 3, report.TotalFiles)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Passthrough)
	assert.Equal(t, int64(300), report.CurrentSize)
	assert.Equal(t, int64(250), report.ProjectedSize)
	assert.Equal(t, cfg.Fingerprint(), report.Fingerprint)

	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, report.WriteJSON(path))
	assert.FileExists(t, path)
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "512.00 B", FormatSize(512))
	assert.Equal(t, "1.00 KB", FormatSize(1024))
	assert.Equal(t, "1.50 MB", FormatSize(1572864))
	assert.Equal(t, "2.00s", FormatDuration(2*1000*1000*1000))
}
