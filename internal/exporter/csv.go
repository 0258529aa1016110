package exporter

import (
	"fmt"
	"io"

	"reportclean/internal/dataset"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Options configures export behavior.
type Options struct {
	// BOM prefixes CSV output with a UTF-8 byte order mark for Excel.
	BOM bool
	// SheetName names the XLSX worksheet. Defaults to "Report".
	SheetName string
}

// Write encodes ds to w in the given format.
func Write(w io.Writer, ds dataset.Dataset, f Format, opts Options) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, ds, opts.BOM)
	case FormatXLSX:
		return WriteXLSX(w, ds, opts.SheetName)
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidFormat, string(f))
	}
}

// WriteCSV writes ds as CSV, optionally preceded by a byte order mark.
func WriteCSV(w io.Writer, ds dataset.Dataset, bom bool) error {
	// Write BOM if requested (helps Excel recognize UTF-8)
	if bom {
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}
	return dataset.WriteCSV(w, ds)
}
