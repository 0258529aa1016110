// Package dataset holds the tabular value passed between the report
// pipeline stages: a header plus rows of string cells.
//
// Every row of a Dataset has exactly len(Header) cells. ReadCSV pads short
// rows with empty cells and rejects rows that are longer than the header.
//
// Example usage:
//
//	ds, err := dataset.ReadCSV(file)
//	if err != nil {
//	    return err
//	}
//	idx := ds.ColumnIndex("Completed")
package dataset
