package pipeline

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/texopt-project/texopt/internal/config"
	"github.com/texopt-project/texopt/internal/encoder"
	"github.com/texopt-project/texopt/internal/plan"
	"github.com/texopt-project/texopt/internal/texture"
)

// processor runs the process phase against cached analysis results.
// Workers share it read-only.
type processor struct {
	cfg     *config.Settings
	client  *encoder.Client
	cache   *Cache
	srcRoot string
	dstRoot string
}

func (p *processor) processOne(ctx context.Context, rel string) ProcessingResult {
	result := ProcessingResult{RelativePath: rel}

	analysis, ok := p.cache.Get(rel)
	if !ok {
		result.Error = "no cached analysis for file"
		return result
	}
	if !analysis.OK() {
		result.Error = analysis.Error
		return result
	}

	result.InputSize = analysis.FileSize
	result.OrigWidth = analysis.Width
	result.OrigHeight = analysis.Height
	result.OrigFormat = analysis.Format
	result.NewWidth = analysis.NewWidth
	result.NewHeight = analysis.NewHeight
	result.NewFormat = analysis.TargetFormat

	src := filepath.Join(p.srcRoot, filepath.FromSlash(rel))
	dst := filepath.Join(p.dstRoot, filepath.FromSlash(rel))

	if analysis.Passthrough {
		return p.passthrough(analysis, src, dst, result)
	}

	job := encoder.Job{
		Input:       src,
		OutputDir:   filepath.Dir(dst),
		Target:      analysis.TargetFormat,
		SkipMipmaps: analysis.SkipMipmaps,
		NormalMap:   p.cfg.Mode == config.ModeNormal,
	}
	if analysis.WillResize() {
		job.Width = analysis.NewWidth
		job.Height = analysis.NewHeight
	}

	if err := p.client.Encode(ctx, job); err != nil {
		result.Error = err.Error()
		return result
	}

	out := encoder.OutputPath(job)
	want := dst
	if !strings.EqualFold(filepath.Ext(want), ".dds") {
		// TGA input converts to DDS output.
		want = want[:len(want)-len(filepath.Ext(want))] + ".dds"
	}
	if analysis.Rename {
		want = plan.RenameHeightToNormal(want)
	}
	if out != want {
		if err := os.Rename(out, want); err != nil {
			result.Error = "renaming encoder output: " + err.Error()
			return result
		}
	}

	if err := p.postProcess(want, analysis.TargetFormat); err != nil {
		result.Error = err.Error()
		return result
	}

	if fi, err := os.Stat(want); err == nil {
		result.OutputSize = fi.Size()
	}
	result.Success = true
	return result
}

// postProcess applies the in-place byte transforms the encoder cannot be
// asked for: stripping stray DX10 extensions from legacy-target outputs
// and repacking padded 32-bit BGRX into true 24-bit BGR.
func (p *processor) postProcess(path string, target texture.Format) error {
	switch target {
	case texture.FormatBC1, texture.FormatBC2, texture.FormatBC3:
		_, err := texture.StripDX10File(path)
		return err
	case texture.FormatBGR:
		return texture.ConvertBGRXToBGR24File(path)
	}
	return nil
}

func (p *processor) passthrough(analysis AnalysisResult, src, dst string, result ProcessingResult) ProcessingResult {
	copyFiles := p.cfg.Regular.CopyPassthrough
	if p.cfg.Mode == config.ModeNormal {
		copyFiles = p.cfg.Normal.CopyPassthrough
	}

	if !copyFiles {
		// Passthrough means no processing needed; without copying there
		// is simply no output to produce.
		result.Success = true
		result.Skipped = true
		return result
	}

	if analysis.Rename {
		dst = plan.RenameHeightToNormal(dst)
	}
	if err := copyFile(src, dst); err != nil {
		result.Error = "copying passthrough file: " + err.Error()
		return result
	}
	result.Success = true
	result.OutputSize = analysis.FileSize
	return result
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
