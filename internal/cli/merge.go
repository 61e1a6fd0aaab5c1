package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/lherron/hofmerge/internal/archive"
	"github.com/lherron/hofmerge/internal/merge"
)

type mergeOptions struct {
	SourcePath      string
	EnrichPath      string
	TargetPath      string
	DryRun          bool
	ContinueOnError bool
	Overwrite       bool
}

// mergeArchives seeds the target from the source archive and merges the
// enrich archive into it. A dry run seeds a scratch copy that is removed
// afterwards, so the target path is never written.
func mergeArchives(ctx context.Context, opts mergeOptions, log *zap.Logger) (*merge.Report, error) {
	if err := checkDistinct(opts); err != nil {
		return nil, err
	}

	if err := verifyReadOnly(ctx, "source", opts.SourcePath); err != nil {
		return nil, err
	}
	enrich, err := archive.OpenReadOnly(opts.EnrichPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open enrich archive: %w", err)
	}
	defer enrich.Close()
	if err := enrich.VerifySchema(ctx); err != nil {
		return nil, err
	}

	seedPath := opts.TargetPath
	if opts.DryRun {
		if !opts.Overwrite {
			if _, err := os.Stat(opts.TargetPath); err == nil {
				return nil, fmt.Errorf("%w: %s", archive.ErrTargetExists, opts.TargetPath)
			}
		}
		scratch, err := os.MkdirTemp("", "hofmerge-dry-run-")
		if err != nil {
			return nil, fmt.Errorf("failed to create scratch directory: %w", err)
		}
		defer os.RemoveAll(scratch)
		seedPath = filepath.Join(scratch, filepath.Base(opts.TargetPath))
	}

	seed, err := archive.Seed(opts.SourcePath, seedPath, opts.Overwrite)
	if err != nil {
		return nil, err
	}
	seed.Target = opts.TargetPath
	log.Info("seeded target archive",
		zap.String("source", seed.Source),
		zap.String("target", seedPath),
		zap.Int64("bytes", seed.Bytes),
		zap.String("sha256", seed.Checksum))

	target, err := archive.Open(seedPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open target archive: %w", err)
	}
	defer target.Close()
	if err := target.VerifySchema(ctx); err != nil {
		return nil, err
	}

	driver := merge.NewDriver(enrich, target, merge.Options{
		DryRun:          opts.DryRun,
		ContinueOnError: opts.ContinueOnError,
	}, log)
	report, err := driver.Run(ctx)
	if report != nil {
		report.Seed = seed
		report.Target = opts.TargetPath
	}
	return report, err
}

func checkDistinct(opts mergeOptions) error {
	target, err := filepath.Abs(opts.TargetPath)
	if err != nil {
		return fmt.Errorf("failed to resolve target path: %w", err)
	}
	for _, p := range []string{opts.SourcePath, opts.EnrichPath} {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", p, err)
		}
		if abs == target {
			return fmt.Errorf("target archive %s must differ from both inputs", opts.TargetPath)
		}
	}
	return nil
}

// verifyReadOnly opens an archive without write access and checks its schema.
func verifyReadOnly(ctx context.Context, role, path string) error {
	a, err := archive.OpenReadOnly(path)
	if err != nil {
		return fmt.Errorf("failed to open %s archive: %w", role, err)
	}
	defer a.Close()

	if err := a.VerifySchema(ctx); err != nil {
		return fmt.Errorf("%s archive: %w", role, err)
	}
	return nil
}
