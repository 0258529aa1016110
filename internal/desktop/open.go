// Package desktop opens files with the operating system's default
// application.
package desktop

import (
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
)

// method is one way of asking the platform to open a file
type method struct {
	name string
	cmd  string
	args []string
}

// Opener launches files in the desktop's default handler
type Opener struct {
	goos   string
	start  func(name string, args ...string) error
	logger *slog.Logger
}

// NewOpener creates an opener for the running platform
func NewOpener(logger *slog.Logger) *Opener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Opener{
		goos:   runtime.GOOS,
		start:  startDetached,
		logger: logger.With(slog.String("component", "desktop_opener")),
	}
}

// Open tries each platform method in turn and returns once one of them has
// started. It does not wait for the launched application.
func (o *Opener) Open(path string) error {
	var errs []error
	for _, m := range openMethods(o.goos, path) {
		if err := o.start(m.cmd, m.args...); err != nil {
			o.logger.Debug("Open method failed",
				slog.String("method", m.name),
				slog.String("error", err.Error()))
			errs = append(errs, fmt.Errorf("%s: %w", m.name, err))
			continue
		}

		o.logger.Info("Opened file",
			slog.String("method", m.name),
			slog.String("path", path))
		return nil
	}
	return fmt.Errorf("failed to open %s: %w", path, errors.Join(errs...))
}

func startDetached(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	return cmd.Process.Release()
}

// openMethods returns platform-specific ways to open path
func openMethods(goos, path string) []method {
	switch goos {
	case "windows":
		return []method{
			{name: "start_command", cmd: "cmd", args: []string{"/c", "start", "", path}},
			{name: "rundll32", cmd: "rundll32", args: []string{"url.dll,FileProtocolHandler", path}},
			{name: "explorer", cmd: "explorer", args: []string{path}},
		}
	case "darwin":
		return []method{
			{name: "open", cmd: "open", args: []string{path}},
		}
	default: // Linux and others
		return []method{
			{name: "xdg-open", cmd: "xdg-open", args: []string{path}},
			{name: "gio", cmd: "gio", args: []string{"open", path}},
		}
	}
}
