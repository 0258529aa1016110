// Package cleaner implements the specialization report cleaning pipeline.
//
// Clean runs four stages in a fixed order over a dataset.Dataset:
//
//  1. rows flagged in "Removed From Program" are dropped
//  2. administrative columns are pruned
//  3. rows are split on "Completed" and duplicate emails are resolved
//  4. completions are counted per gender, inferred from "Program Name"
//
// The pipeline is pure. Inputs are never modified and every stage returns a
// new Dataset. The only failure is a missing "Completed" column, reported as
// *ValidationError.
//
// Example usage:
//
//	mode, err := cleaner.ParseMode(form.Get("completed_filter"))
//	if err != nil {
//	    return err
//	}
//	result, err := cleaner.Clean(ds, mode)
package cleaner
