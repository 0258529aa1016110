package cleaner

import (
	"errors"
	"fmt"
	"strings"
)

// Mode selects which side of the completion split is kept.
type Mode string

const (
	// ModeCompleted keeps rows whose Completed value is "yes".
	ModeCompleted Mode = "yes"
	// ModeNotCompleted keeps rows that did not complete and whose email
	// never appears on a completed row.
	ModeNotCompleted Mode = "no"

	// DefaultMode is used when the caller does not supply a mode.
	DefaultMode = ModeCompleted
)

// ErrInvalidMode is returned by ParseMode for values other than yes or no.
var ErrInvalidMode = errors.New("completed_filter must be 'yes' or 'no'")

// ParseMode normalizes s (trimmed, case-insensitive) into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeCompleted:
		return ModeCompleted, nil
	case ModeNotCompleted:
		return ModeNotCompleted, nil
	default:
		return "", fmt.Errorf("%w: got %q", ErrInvalidMode, s)
	}
}

// String implements fmt.Stringer.
func (m Mode) String() string {
	return string(m)
}

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	return m == ModeCompleted || m == ModeNotCompleted
}

// ReportsCounts reports whether gender completion counts are computed
// for this mode.
func (m Mode) ReportsCounts() bool {
	return m == ModeCompleted
}
