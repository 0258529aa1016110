// Package exporter writes cleaned reports.
//
// Two formats are supported:
//
// CSV: header row followed by the data rows, "\n" line endings and minimal
// quoting. An optional UTF-8 byte order mark helps Excel detect the encoding.
//
// XLSX: a single worksheet named after the report, every cell written as a
// string so values such as leading-zero IDs survive unchanged.
//
// Example usage:
//
//	format, err := exporter.ParseFormat("xlsx")
//	name := exporter.FileName(cleaner.ModeCompleted, format)
//	err = exporter.Write(w, result.Dataset, format, exporter.Options{})
package exporter
