package dataset

// Dataset is an ordered collection of rows sharing one header.
type Dataset struct {
	Header []string
	Rows   [][]string
}

// New returns a Dataset with copies of header and rows.
func New(header []string, rows [][]string) Dataset {
	ds := Dataset{Header: append([]string(nil), header...)}
	ds.Rows = make([][]string, len(rows))
	for i, row := range rows {
		ds.Rows[i] = append([]string(nil), row...)
	}
	return ds
}

// Len returns the number of data rows.
func (d Dataset) Len() int {
	return len(d.Rows)
}

// ColumnIndex returns the position of the named column, or -1.
// Names are matched exactly.
func (d Dataset) ColumnIndex(name string) int {
	for i, h := range d.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the named column is present.
func (d Dataset) HasColumn(name string) bool {
	return d.ColumnIndex(name) >= 0
}

// Filter returns a new Dataset holding the rows for which keep returns true.
// Row order is preserved. The header is copied.
func (d Dataset) Filter(keep func(row []string) bool) Dataset {
	out := Dataset{
		Header: append([]string(nil), d.Header...),
		Rows:   make([][]string, 0, len(d.Rows)),
	}
	for _, row := range d.Rows {
		if keep(row) {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

// DropColumns returns a new Dataset without the named columns. Names that
// are not present are ignored and the order of remaining columns is kept.
func (d Dataset) DropColumns(names ...string) Dataset {
	drop := make(map[string]struct{}, len(names))
	for _, n := range names {
		drop[n] = struct{}{}
	}

	keepIdx := make([]int, 0, len(d.Header))
	header := make([]string, 0, len(d.Header))
	for i, h := range d.Header {
		if _, ok := drop[h]; ok {
			continue
		}
		keepIdx = append(keepIdx, i)
		header = append(header, h)
	}

	rows := make([][]string, len(d.Rows))
	for r, row := range d.Rows {
		cells := make([]string, len(keepIdx))
		for c, idx := range keepIdx {
			cells[c] = row[idx]
		}
		rows[r] = cells
	}
	return Dataset{Header: header, Rows: rows}
}

// Column returns the values of the named column in row order.
// The second return value is false when the column is absent.
func (d Dataset) Column(name string) ([]string, bool) {
	idx := d.ColumnIndex(name)
	if idx < 0 {
		return nil, false
	}
	values := make([]string, len(d.Rows))
	for i, row := range d.Rows {
		values[i] = row[idx]
	}
	return values, true
}
