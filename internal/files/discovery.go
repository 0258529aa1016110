package files

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"
)

// ReportNameMarker identifies the specialization report among the CSV
// files of an export. Matching is case-insensitive.
const ReportNameMarker = "specialization-report"

// ErrReportNotFound is returned when no CSV in the tree matches.
var ErrReportNotFound = errors.New("specialization report CSV not found in archive")

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	RelPath string
	Name    string
	Size    int64
	ModTime time.Time
}

// errStopWalk ends a WalkDir early once the report is found.
var errStopWalk = errors.New("stop walk")

// FindReport walks root in lexical order and returns the first regular
// .csv file whose base name contains ReportNameMarker. macOS resource
// forks (__MACOSX/, ._*) are ignored.
func FindReport(root string) (FileInfo, error) {
	var found FileInfo

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		name := d.Name()
		if d.IsDir() {
			if name == "__MACOSX" {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || strings.HasPrefix(name, "._") {
			return nil
		}
		if !IsReportName(name) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		found = FileInfo{
			Path:    path,
			RelPath: filepath.ToSlash(rel),
			Name:    name,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		}
		return errStopWalk
	})

	switch {
	case errors.Is(err, errStopWalk):
		return found, nil
	case err != nil:
		return FileInfo{}, fmt.Errorf("failed to search %s: %w", root, err)
	default:
		return FileInfo{}, ErrReportNotFound
	}
}

// IsReportName reports whether a base file name looks like the report.
func IsReportName(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".csv") && strings.Contains(lower, ReportNameMarker)
}
