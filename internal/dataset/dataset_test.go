package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sample() Dataset {
	return New(
		[]string{"A", "B", "C"},
		[][]string{{"1", "2", "3"}, {"4", "5", "6"}},
	)
}

func TestDropColumns(t *testing.T) {
	ds := sample()

	out := ds.DropColumns("B", "Missing")

	assert.Equal(t, []string{"A", "C"}, out.Header)
	assert.Equal(t, [][]string{{"1", "3"}, {"4", "6"}}, out.Rows)
	// source untouched
	assert.Equal(t, []string{"A", "B", "C"}, ds.Header)
	assert.Equal(t, []string{"1", "2", "3"}, ds.Rows[0])
}

func TestDropColumns_NoneListed(t *testing.T) {
	ds := sample()
	out := ds.DropColumns()
	assert.Equal(t, ds, out)

	out.Rows[0][0] = "changed"
	assert.Equal(t, "1", ds.Rows[0][0])
}

func TestFilter(t *testing.T) {
	ds := sample()

	out := ds.Filter(func(row []string) bool { return row[0] == "4" })

	assert.Equal(t, ds.Header, out.Header)
	assert.Equal(t, [][]string{{"4", "5", "6"}}, out.Rows)
	assert.Equal(t, 2, ds.Len())
}

func TestColumn(t *testing.T) {
	ds := sample()

	values, ok := ds.Column("C")
	assert.True(t, ok)
	assert.Equal(t, []string{"3", "6"}, values)

	_, ok = ds.Column("Z")
	assert.False(t, ok)
	assert.False(t, ds.HasColumn("Z"))
	assert.Equal(t, 1, ds.ColumnIndex("B"))
}

func TestNew_CopiesInput(t *testing.T) {
	header := []string{"A"}
	rows := [][]string{{"x"}}

	ds := New(header, rows)
	header[0] = "changed"
	rows[0][0] = "changed"

	assert.Equal(t, []string{"A"}, ds.Header)
	assert.Equal(t, "x", ds.Rows[0][0])
}
