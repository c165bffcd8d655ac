package encoder

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/texopt-project/texopt/internal/config"
	"github.com/texopt-project/texopt/internal/texture"
)

// Job describes one encoder invocation.
type Job struct {
	Input     string
	OutputDir string
	Target    texture.Format
	// Width/Height request a resize; both zero means keep the source
	// dimensions.
	Width  int
	Height int
	// SkipMipmaps limits output to the base level (-m 1).
	SkipMipmaps bool
	// NormalMap enables the normal-map-only flags (-inverty,
	// -reconstructz) and selects the normal-mode BC options.
	NormalMap bool
}

// Client assembles encoder command lines from settings and jobs.
type Client struct {
	cfg      *config.Settings
	executor Executor
	logger   *slog.Logger
}

// NewClient creates an encoder client
func NewClient(cfg *config.Settings, logger *slog.Logger, dryRun bool) *Client {
	return &Client{
		cfg:      cfg,
		executor: NewExecutor(logger, dryRun),
		logger:   logger,
	}
}

// NewClientWithExecutor creates a client over a custom executor.
func NewClientWithExecutor(cfg *config.Settings, executor Executor, logger *slog.Logger) *Client {
	return &Client{cfg: cfg, executor: executor, logger: logger}
}

// Args builds the encoder argv for a job, binary name excluded.
func (c *Client) Args(job Job) []string {
	args := []string{
		"-nologo",
		"-f", job.Target.WireName(),
	}

	if job.SkipMipmaps {
		args = append(args, "-m", "1")
	} else {
		args = append(args, "-m", "0")
	}

	// Straight alpha, processed separately during mipmap generation.
	args = append(args, "-alpha", "-sepalpha", "-dx9")

	if job.NormalMap {
		if c.cfg.Normal.InvertY {
			args = append(args, "-inverty")
		}
		if job.Target != texture.FormatBC5 && c.cfg.Normal.ReconstructZ {
			args = append(args, "-reconstructz")
		}
	}

	// Force BC1 to fully opaque mode so stray alpha data cannot trigger
	// punch-through transparency in the output.
	if job.Target == texture.FormatBC1 {
		args = append(args, "-at", "0")
	}

	if job.Target == texture.FormatBC1 || job.Target == texture.FormatBC3 {
		bc := ""
		if c.uniformWeighting(job) {
			bc += "u"
		}
		if c.dithering(job) {
			bc += "d"
		}
		if bc != "" {
			args = append(args, "-bc", bc)
		}
	}

	if job.Width > 0 && job.Height > 0 {
		args = append(args,
			"-w", strconv.Itoa(job.Width),
			"-h", strconv.Itoa(job.Height),
			"-if", c.cfg.Resize.Method,
		)
	}

	if c.cfg.Resize.EnforcePowerOfTwo {
		args = append(args, "-pow2")
	}

	args = append(args, "-o", job.OutputDir, "-y", job.Input)
	return args
}

func (c *Client) uniformWeighting(job Job) bool {
	if job.NormalMap {
		return c.cfg.Normal.UniformWeighting
	}
	return c.cfg.Regular.UniformWeighting
}

func (c *Client) dithering(job Job) bool {
	if job.NormalMap {
		return c.cfg.Normal.Dithering
	}
	return c.cfg.Regular.Dithering
}

// Encode runs the encoder for one job under the configured per-file
// timeout. The encoder writes into job.OutputDir using the input's
// filename; the caller handles any rename.
func (c *Client) Encode(ctx context.Context, job Job) error {
	if err := os.MkdirAll(job.OutputDir, 0o755); err != nil {
		return &Failure{Input: job.Input, Err: err}
	}

	timeout := time.Duration(c.cfg.Encoder.TimeoutSeconds) * time.Second
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	_, err := c.executor.RunWithOutput(ctx, c.cfg.Encoder.Binary, c.Args(job))
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return &Failure{Input: job.Input, Timeout: true, Err: err}
		}
		return &Failure{Input: job.Input, Err: err}
	}
	return nil
}

// OutputPath returns where the encoder leaves its result for a job: the
// output directory plus the input filename with a .dds extension.
func OutputPath(job Job) string {
	name := filepath.Base(job.Input)
	ext := filepath.Ext(name)
	return filepath.Join(job.OutputDir, name[:len(name)-len(ext)]+".dds")
}
