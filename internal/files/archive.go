package files

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrInvalidArchive means the upload is not a readable zip file.
	ErrInvalidArchive = errors.New("invalid zip archive")
	// ErrUnsafePath means an entry would be written outside the destination.
	ErrUnsafePath = errors.New("archive entry escapes extraction directory")
	// ErrArchiveTooLarge means the archive exceeds ExtractLimits.
	ErrArchiveTooLarge = errors.New("archive exceeds extraction limits")
)

// ExtractLimits bounds a single extraction. Zero values mean no limit.
type ExtractLimits struct {
	MaxEntries int
	MaxBytes   int64
}

// ExtractResult summarizes an extraction.
type ExtractResult struct {
	Files   int
	Bytes   int64
	Skipped int
}

// ExtractZip unpacks archivePath into dest. Symlinks are skipped, and any
// entry whose cleaned path leaves dest fails the whole extraction.
func ExtractZip(ctx context.Context, archivePath, dest string, limits ExtractLimits) (ExtractResult, error) {
	var result ExtractResult

	zr, err := zip.OpenReader(archivePath)
	if errors.Is(err, zip.ErrInsecurePath) {
		zr.Close()
		return result, ErrUnsafePath
	}
	if err != nil {
		return result, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}
	defer zr.Close()

	if limits.MaxEntries > 0 && len(zr.File) > limits.MaxEntries {
		return result, fmt.Errorf("%w: %d entries, limit %d", ErrArchiveTooLarge, len(zr.File), limits.MaxEntries)
	}

	if err := os.MkdirAll(dest, 0755); err != nil {
		return result, fmt.Errorf("failed to create extraction directory: %w", err)
	}

	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		target, err := entryTarget(dest, f.Name)
		if err != nil {
			return result, err
		}

		mode := f.Mode()
		switch {
		case mode.IsDir():
			if err := os.MkdirAll(target, 0755); err != nil {
				return result, fmt.Errorf("failed to create directory %s: %w", f.Name, err)
			}
			continue
		case !mode.IsRegular():
			// symlinks, devices and the like never leave the archive
			result.Skipped++
			continue
		}

		budget := int64(-1)
		if limits.MaxBytes > 0 {
			budget = limits.MaxBytes - result.Bytes
			if f.UncompressedSize64 > uint64(budget) {
				return result, fmt.Errorf("%w: more than %d bytes uncompressed", ErrArchiveTooLarge, limits.MaxBytes)
			}
		}

		n, err := extractFile(f, target, budget)
		result.Bytes += n
		if err != nil {
			return result, err
		}
		result.Files++
	}

	return result, nil
}

// entryTarget maps an entry name to a path inside dest.
func entryTarget(dest, name string) (string, error) {
	clean := filepath.FromSlash(strings.ReplaceAll(name, `\`, "/"))
	if filepath.IsAbs(clean) || filepath.VolumeName(clean) != "" {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}

	target := filepath.Join(dest, clean)
	rel, err := filepath.Rel(dest, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	return target, nil
}

// extractFile copies one entry to target, reading at most budget bytes
// (unlimited when budget is negative). The header's declared size is not
// trusted.
func extractFile(f *zip.File, target string, budget int64) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return 0, fmt.Errorf("failed to create directory for %s: %w", f.Name, err)
	}

	rc, err := f.Open()
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidArchive, f.Name, err)
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", target, err)
	}
	defer out.Close()

	var src io.Reader = rc
	if budget >= 0 {
		src = io.LimitReader(rc, budget+1)
	}

	n, err := io.Copy(out, src)
	if err != nil {
		return n, fmt.Errorf("%w: %s: %v", ErrInvalidArchive, f.Name, err)
	}
	if budget >= 0 && n > budget {
		return n, fmt.Errorf("%w: entry %s expands past the size limit", ErrArchiveTooLarge, f.Name)
	}
	return n, nil
}
