package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrNoHeader is returned when the CSV input has no header row.
var ErrNoHeader = errors.New("csv input has no header row")

// RowLengthError reports a data row with more cells than the header.
type RowLengthError struct {
	Line int
	Got  int
	Want int
}

func (e *RowLengthError) Error() string {
	return fmt.Sprintf("line %d: row has %d fields, header has %d", e.Line, e.Got, e.Want)
}

// ReadCSV decodes a CSV stream into a Dataset. A leading byte order mark is
// removed before parsing (UTF-16 input with a BOM is transcoded to UTF-8).
// Short rows are padded with empty cells; long rows fail with *RowLengthError.
// Stray quotes are kept as literal characters.
func ReadCSV(r io.Reader) (Dataset, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	reader := csv.NewReader(decoded)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return Dataset{}, ErrNoHeader
	}
	if err != nil {
		return Dataset{}, fmt.Errorf("failed to read header: %w", err)
	}

	ds := Dataset{Header: header}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Dataset{}, fmt.Errorf("failed to read row: %w", err)
		}

		switch {
		case len(record) > len(header):
			line, _ := reader.FieldPos(0)
			return Dataset{}, &RowLengthError{Line: line, Got: len(record), Want: len(header)}
		case len(record) < len(header):
			padded := make([]string, len(header))
			copy(padded, record)
			record = padded
		}
		ds.Rows = append(ds.Rows, record)
	}

	return ds, nil
}

// WriteCSV encodes the Dataset as CSV with a header row and "\n" line endings.
func WriteCSV(w io.Writer, ds Dataset) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(ds.Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := writer.WriteAll(ds.Rows); err != nil {
		return fmt.Errorf("failed to write rows: %w", err)
	}
	return nil
}
