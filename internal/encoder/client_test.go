package encoder

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"testing"

	"github.com/texopt-project/texopt/internal/config"
	"github.com/texopt-project/texopt/internal/texture"
)

type recordingExecutor struct {
	cmd  string
	args []string
	err  error
}

func (r *recordingExecutor) RunWithOutput(_ context.Context, cmd string, args []string) ([]byte, error) {
	r.cmd = cmd
	r.args = args
	return nil, r.err
}

func TestArgs_NormalMapBC5(t *testing.T) {
	cfg := config.Default()
	cfg.Mode = config.ModeNormal
	client := NewClientWithExecutor(cfg, &recordingExecutor{}, slog.Default())

	args := client.Args(Job{
		Input: "in/rock_n.dds", OutputDir: "out",
		Target: texture.FormatBC5, NormalMap: true,
	})

	want := []string{
		"-nologo", "-f", "BC5_UNORM", "-m", "0", "-alpha", "-sepalpha", "-dx9",
		"-pow2", "-o", "out", "-y", "in/rock_n.dds",
	}
	if !slices.Equal(args, want) {
		t.Errorf("args mismatch:\n got  %v\n want %v", args, want)
	}
}

func TestArgs_NormalMapFlagCombinations(t *testing.T) {
	cfg := config.Default()
	cfg.Normal.InvertY = true
	client := NewClientWithExecutor(cfg, &recordingExecutor{}, slog.Default())

	// BC1 normal map: inverty, reconstructz, opaque mode, uniform BC.
	args := client.Args(Job{Input: "a.dds", OutputDir: "o", Target: texture.FormatBC1, NormalMap: true})
	joined := strings.Join(args, " ")
	for _, want := range []string{"-inverty", "-reconstructz", "-at 0", "-bc u"} {
		if !strings.Contains(joined, want) {
			t.Errorf("expected %q in %q", want, joined)
		}
	}

	// BC5 never gets -reconstructz; z is implicit in the two channels.
	args = client.Args(Job{Input: "a.dds", OutputDir: "o", Target: texture.FormatBC5, NormalMap: true})
	if strings.Contains(strings.Join(args, " "), "-reconstructz") {
		t.Error("BC5 target must not get -reconstructz")
	}
}

func TestArgs_RegularBCOptions(t *testing.T) {
	// Regular mode defaults: no uniform weighting, no dithering, so no -bc.
	cfg := config.Default()
	client := NewClientWithExecutor(cfg, &recordingExecutor{}, slog.Default())

	args := client.Args(Job{Input: "a.dds", OutputDir: "o", Target: texture.FormatBC3})
	if strings.Contains(strings.Join(args, " "), "-bc") {
		t.Errorf("unexpected -bc in %v", args)
	}

	cfg.Regular.Dithering = true
	args = client.Args(Job{Input: "a.dds", OutputDir: "o", Target: texture.FormatBC3})
	if !strings.Contains(strings.Join(args, " "), "-bc d") {
		t.Errorf("expected -bc d in %v", args)
	}
}

func TestArgs_ResizeAndMipmaps(t *testing.T) {
	cfg := config.Default()
	client := NewClientWithExecutor(cfg, &recordingExecutor{}, slog.Default())

	args := client.Args(Job{
		Input: "a.tga", OutputDir: "o",
		Target: texture.FormatBC1, Width: 512, Height: 256, SkipMipmaps: true,
	})
	joined := strings.Join(args, " ")
	for _, want := range []string{"-m 1", "-w 512", "-h 256", "-if CUBIC"} {
		if !strings.Contains(joined, want) {
			t.Errorf("expected %q in %q", want, joined)
		}
	}

	cfg.Resize.EnforcePowerOfTwo = false
	args = client.Args(Job{Input: "a.tga", OutputDir: "o", Target: texture.FormatBC1})
	if strings.Contains(strings.Join(args, " "), "-pow2") {
		t.Error("unexpected -pow2 with enforcement disabled")
	}
}

func TestEncode_UsesConfiguredBinary(t *testing.T) {
	cfg := config.Default()
	cfg.Encoder.Binary = "/opt/tools/texconv"
	rec := &recordingExecutor{}
	client := NewClientWithExecutor(cfg, rec, slog.Default())

	err := client.Encode(context.Background(), Job{
		Input: "a.dds", OutputDir: t.TempDir(), Target: texture.FormatBC1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.cmd != "/opt/tools/texconv" {
		t.Errorf("expected configured binary, got %q", rec.cmd)
	}
}

func TestEncode_WrapsFailure(t *testing.T) {
	cfg := config.Default()
	rec := &recordingExecutor{err: context.Canceled}
	client := NewClientWithExecutor(cfg, rec, slog.Default())

	err := client.Encode(context.Background(), Job{
		Input: "a.dds", OutputDir: t.TempDir(), Target: texture.FormatBC1,
	})
	if err == nil {
		t.Fatal("expected failure")
	}
	var failure *Failure
	if !errors.As(err, &failure) {
		t.Fatalf("expected *Failure, got %T", err)
	}
	if failure.Input != "a.dds" {
		t.Errorf("failure input = %q", failure.Input)
	}
	if IsTimeout(err) {
		t.Error("non-timeout failure reported as timeout")
	}
}

func TestOutputPath(t *testing.T) {
	got := OutputPath(Job{Input: "src/banner.tga", OutputDir: "out/Textures"})
	if got != "out/Textures/banner.dds" {
		t.Errorf("OutputPath = %q", got)
	}
}
