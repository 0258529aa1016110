package files

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrOutputNotFound is returned for unknown, expired or malformed job files.
var ErrOutputNotFound = errors.New("output not found")

// OutputStore keeps cleaned reports in one directory per job.
type OutputStore struct {
	root   string
	logger *slog.Logger
	now    func() time.Time
}

// NewOutputStore creates the store root if needed.
func NewOutputStore(root string, logger *slog.Logger) (*OutputStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", root, err)
	}
	return &OutputStore{
		root:   root,
		logger: logger.With(slog.String("component", "output_store")),
		now:    time.Now,
	}, nil
}

// Root returns the store directory.
func (s *OutputStore) Root() string {
	return s.root
}

// NewJobID returns an identifier for a new output directory.
func NewJobID() string {
	return uuid.NewString()
}

// Create opens a new file for jobID. The caller closes it.
func (s *OutputStore) Create(jobID, filename string) (*os.File, error) {
	dir, err := s.jobDir(jobID)
	if err != nil {
		return nil, err
	}
	if !isPlainName(filename) {
		return nil, fmt.Errorf("invalid output file name %q", filename)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create job directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, filename), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}

// Resolve returns the path of a stored file. Any job ID that is not a UUID
// and any file name with a path component is reported as ErrOutputNotFound.
func (s *OutputStore) Resolve(jobID, filename string) (string, error) {
	dir, err := s.jobDir(jobID)
	if err != nil || !isPlainName(filename) {
		return "", ErrOutputNotFound
	}

	path := filepath.Join(dir, filename)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", ErrOutputNotFound
	}
	return path, nil
}

// Remove deletes a job directory.
func (s *OutputStore) Remove(jobID string) error {
	dir, err := s.jobDir(jobID)
	if err != nil {
		return err
	}
	return os.RemoveAll(dir)
}

// Reap removes job directories last modified more than olderThan ago and
// returns how many were removed.
func (s *OutputStore) Reap(ctx context.Context, olderThan time.Duration) (int, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return 0, fmt.Errorf("failed to list outputs: %w", err)
	}

	cutoff := s.now().Add(-olderThan)
	removed := 0
	var errs []error

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if !entry.IsDir() {
			continue
		}
		if _, err := uuid.Parse(entry.Name()); err != nil {
			continue
		}

		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}

		if err := os.RemoveAll(filepath.Join(s.root, entry.Name())); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}

	if removed > 0 {
		s.logger.InfoContext(ctx, "Expired outputs removed",
			slog.Int("count", removed),
			slog.Duration("retention", olderThan))
	}
	return removed, errors.Join(errs...)
}

func (s *OutputStore) jobDir(jobID string) (string, error) {
	id, err := uuid.Parse(jobID)
	if err != nil {
		return "", fmt.Errorf("invalid job id %q", jobID)
	}
	return filepath.Join(s.root, id.String()), nil
}

func isPlainName(name string) bool {
	return name != "" && name != "." && name != ".." &&
		!strings.ContainsAny(name, `/\`) && filepath.Base(name) == name
}
