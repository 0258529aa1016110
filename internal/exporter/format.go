package exporter

import (
	"errors"
	"fmt"
	"strings"

	"reportclean/internal/cleaner"
)

// Format is an output file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"

	DefaultFormat = FormatCSV
)

// ErrInvalidFormat is returned by ParseFormat for unknown formats.
var ErrInvalidFormat = errors.New("format must be 'csv' or 'xlsx'")

// ParseFormat normalizes s. An empty value selects DefaultFormat.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return DefaultFormat, nil
	case FormatCSV, FormatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("%w: got %q", ErrInvalidFormat, s)
	}
}

// Extension returns the file extension without the dot.
func (f Format) Extension() string {
	return string(f)
}

// ContentType returns the MIME type served for the format.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// FileName returns the output name for a cleaning run, e.g.
// specialization-report-cleaned-yes.csv.
func FileName(mode cleaner.Mode, f Format) string {
	return fmt.Sprintf("specialization-report-cleaned-%s.%s", mode, f.Extension())
}
