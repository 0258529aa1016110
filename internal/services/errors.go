package services

import "errors"

// Cleaning service errors
var (
	// Input errors
	ErrNoInput          = errors.New("no input provided")
	ErrUnsupportedInput = errors.New("input must be a .zip archive or a .csv report")

	// Output errors
	ErrOutputNotFound = errors.New("cleaned report not found or expired")
)
