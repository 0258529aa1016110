package cleaner

import (
	"fmt"

	"reportclean/internal/dataset"
)

// ValidationError is returned when a column the pipeline depends on is absent.
type ValidationError struct {
	Column string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("required column %q is missing", e.Column)
}

// Exclusions counts the rows each stage removed.
type Exclusions struct {
	RemovedFromProgram int `json:"removed_from_program,omitempty"`
	// NotCompleted rows are dropped in mode yes.
	NotCompleted int `json:"not_completed,omitempty"`
	// Completed rows are left out of the result in mode no.
	Completed int `json:"completed,omitempty"`
	// CompletedElsewhere counts not-completed rows whose email also
	// appears on a completed row (mode no).
	CompletedElsewhere int `json:"completed_elsewhere,omitempty"`
	DuplicateEmail     int `json:"duplicate_email,omitempty"`
}

// Total returns the number of excluded rows.
func (e Exclusions) Total() int {
	return e.RemovedFromProgram + e.NotCompleted + e.Completed + e.CompletedElsewhere + e.DuplicateEmail
}

// Result is the output of Clean.
type Result struct {
	Dataset   dataset.Dataset
	Mode      Mode
	InputRows int

	// MaleCompleted and FemaleCompleted are only computed in ModeCompleted.
	MaleCompleted   int
	FemaleCompleted int

	Exclusions Exclusions
}

// OutputRows returns the number of rows in the cleaned dataset.
func (r Result) OutputRows() int {
	return r.Dataset.Len()
}
