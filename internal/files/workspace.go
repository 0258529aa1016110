package files

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Workspace is a request-scoped temporary directory. Nothing in it
// survives Close.
type Workspace struct {
	dir    string
	logger *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

// NewWorkspace creates a fresh directory under root.
func NewWorkspace(root string, logger *slog.Logger) (*Workspace, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create work root %s: %w", root, err)
	}

	dir, err := os.MkdirTemp(root, "ws-")
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}

	logger.Debug("Workspace created", slog.String("dir", dir))
	return &Workspace{dir: dir, logger: logger}, nil
}

// Dir returns the workspace directory.
func (w *Workspace) Dir() string {
	return w.dir
}

// Path joins elem onto the workspace directory.
func (w *Workspace) Path(elem ...string) string {
	return filepath.Join(append([]string{w.dir}, elem...)...)
}

// WriteFile copies r into the workspace under name and returns the path
// and the number of bytes written.
func (w *Workspace) WriteFile(name string, r io.Reader) (string, int64, error) {
	path := w.Path(filepath.Base(name))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create %s: %w", path, err)
	}

	n, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", n, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, n, nil
}

// Close removes the workspace and everything in it. It is safe to call
// more than once.
func (w *Workspace) Close() error {
	w.closeOnce.Do(func() {
		w.closeErr = os.RemoveAll(w.dir)
		if w.closeErr != nil {
			w.logger.Error("Failed to remove workspace",
				slog.String("dir", w.dir),
				slog.String("error", w.closeErr.Error()))
			return
		}
		w.logger.Debug("Workspace removed", slog.String("dir", w.dir))
	})
	return w.closeErr
}
