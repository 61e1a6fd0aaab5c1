package archive

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrTargetExists is returned by Seed when the target file already exists and
// overwriting was not requested.
var ErrTargetExists = errors.New("target archive already exists")

// SeedResult describes a completed seed copy.
type SeedResult struct {
	Source   string `json:"source" yaml:"source"`
	Target   string `json:"target" yaml:"target"`
	Bytes    int64  `json:"bytes" yaml:"bytes"`
	Checksum string `json:"checksum" yaml:"checksum"`
}

// Seed makes a byte-identical copy of the archive at src as the starting point
// for the target archive at dst.
func Seed(src, dst string, overwrite bool) (*SeedResult, error) {
	srcAbs, err := filepath.Abs(src)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve source path: %w", err)
	}
	dstAbs, err := filepath.Abs(dst)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve target path: %w", err)
	}
	if srcAbs == dstAbs {
		return nil, fmt.Errorf("source and target archive are the same file: %s", src)
	}

	srcFile, err := os.Open(src)
	if err != nil {
		return nil, fmt.Errorf("failed to open source: %w", err)
	}
	defer srcFile.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return nil, fmt.Errorf("failed to create target directory: %w", err)
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	dstFile, err := os.OpenFile(dst, flags, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("%w: %s", ErrTargetExists, dst)
		}
		return nil, fmt.Errorf("failed to create target: %w", err)
	}

	hasher := sha256.New()
	size, err := io.Copy(io.MultiWriter(dstFile, hasher), srcFile)
	if err != nil {
		dstFile.Close()
		return nil, fmt.Errorf("failed to copy archive: %w", err)
	}
	if err := dstFile.Sync(); err != nil {
		dstFile.Close()
		return nil, fmt.Errorf("failed to flush target: %w", err)
	}
	if err := dstFile.Close(); err != nil {
		return nil, fmt.Errorf("failed to close target: %w", err)
	}

	return &SeedResult{
		Source:   src,
		Target:   dst,
		Bytes:    size,
		Checksum: hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}
