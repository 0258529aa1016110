package cleaner

import (
	"fmt"
	"strings"

	"reportclean/internal/dataset"
)

// Column names the pipeline reads.
const (
	ColumnRemovedFromProgram = "Removed From Program"
	ColumnCompleted          = "Completed"
	ColumnEmail              = "Email"
	ColumnProgramName        = "Program Name"
)

// PrunedColumns are removed from every cleaned report when present.
var PrunedColumns = []string{
	"External Id",
	"Specialization Slug",
	"University",
	"Enrollment Time",
	"Last Specialization Activity Time",
	"# Completed Courses",
	"# Courses in Specialization",
	"Removed From Program",
	"Program Slug",
	"Enrollment Source",
	"Specialization Completion Time",
	"Specialization Certificate URL",
}

// Clean runs the full pipeline over ds. It fails only when the Completed
// column is absent, in which case no partial result is returned.
func Clean(ds dataset.Dataset, mode Mode) (Result, error) {
	if !mode.Valid() {
		return Result{}, fmt.Errorf("%w: got %q", ErrInvalidMode, mode)
	}
	result := Result{Mode: mode, InputRows: ds.Len()}

	filtered, removed := FilterRemoved(ds)
	result.Exclusions.RemovedFromProgram = removed

	pruned := PruneColumns(filtered)

	split, err := SplitByCompletion(pruned, mode)
	if err != nil {
		return Result{}, err
	}
	result.Dataset = split.Dataset
	result.Exclusions.NotCompleted = split.NotCompleted
	result.Exclusions.Completed = split.Completed
	result.Exclusions.CompletedElsewhere = split.CompletedElsewhere
	result.Exclusions.DuplicateEmail = split.DuplicateEmail

	if mode.ReportsCounts() {
		result.MaleCompleted, result.FemaleCompleted = CountCompletions(result.Dataset)
	}

	return result, nil
}

// FilterRemoved drops rows whose "Removed From Program" value is "yes"
// (trimmed, case-insensitive) and returns the number dropped. Without the
// column the dataset is returned unchanged.
func FilterRemoved(ds dataset.Dataset) (dataset.Dataset, int) {
	if !ds.HasColumn(ColumnRemovedFromProgram) {
		return ds.Filter(keepAll), 0
	}

	idx := ds.ColumnIndex(ColumnRemovedFromProgram)
	out := ds.Filter(func(row []string) bool {
		return !isYes(row[idx])
	})
	return out, ds.Len() - out.Len()
}

// PruneColumns drops PrunedColumns. It never fails.
func PruneColumns(ds dataset.Dataset) dataset.Dataset {
	return ds.DropColumns(PrunedColumns...)
}

// Split is the outcome of SplitByCompletion.
type Split struct {
	Dataset            dataset.Dataset
	NotCompleted       int
	Completed          int
	CompletedElsewhere int
	DuplicateEmail     int
}

// SplitByCompletion keeps one side of the Completed column according to
// mode and resolves duplicate emails, first occurrence wins. In ModeNotCompleted
// any row whose email also appears on a completed row is dropped before
// deduplication. Empty emails never match anything.
func SplitByCompletion(ds dataset.Dataset, mode Mode) (Split, error) {
	completedIdx := ds.ColumnIndex(ColumnCompleted)
	if completedIdx < 0 {
		return Split{}, &ValidationError{Column: ColumnCompleted}
	}
	emailIdx := ds.ColumnIndex(ColumnEmail)

	var completed, notCompleted [][]string
	for _, row := range ds.Rows {
		if isYes(row[completedIdx]) {
			completed = append(completed, row)
		} else {
			notCompleted = append(notCompleted, row)
		}
	}

	var split Split
	var kept [][]string
	switch mode {
	case ModeNotCompleted:
		split.Completed = len(completed)
		kept = notCompleted
		if emailIdx >= 0 {
			seen := make(map[string]struct{}, len(completed))
			for _, row := range completed {
				if key, ok := emailKey(row[emailIdx]); ok {
					seen[key] = struct{}{}
				}
			}
			kept = make([][]string, 0, len(notCompleted))
			for _, row := range notCompleted {
				if key, ok := emailKey(row[emailIdx]); ok {
					if _, found := seen[key]; found {
						split.CompletedElsewhere++
						continue
					}
				}
				kept = append(kept, row)
			}
		}
	default:
		split.NotCompleted = len(notCompleted)
		kept = completed
	}

	if emailIdx >= 0 {
		var dropped int
		kept, dropped = dedupeByEmail(kept, emailIdx)
		split.DuplicateEmail = dropped
	}

	split.Dataset = dataset.New(ds.Header, kept)
	return split, nil
}

// CountCompletions counts rows whose lower-cased "Program Name" contains
// "female" or, failing that, "male". Without the column both counts are 0.
func CountCompletions(ds dataset.Dataset) (male, female int) {
	names, ok := ds.Column(ColumnProgramName)
	if !ok {
		return 0, 0
	}
	for _, name := range names {
		name = strings.ToLower(name)
		switch {
		case strings.Contains(name, "female"):
			female++
		case strings.Contains(name, "male"):
			male++
		}
	}
	return male, female
}

func dedupeByEmail(rows [][]string, emailIdx int) ([][]string, int) {
	seen := make(map[string]struct{}, len(rows))
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		key, ok := emailKey(row[emailIdx])
		if ok {
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
		}
		out = append(out, row)
	}
	return out, len(rows) - len(out)
}

// emailKey returns the dedup key for an Email cell. Blank cells have no key.
func emailKey(v string) (string, bool) {
	if strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

func isYes(v string) bool {
	return strings.ToLower(strings.TrimSpace(v)) == "yes"
}

func keepAll([]string) bool { return true }
