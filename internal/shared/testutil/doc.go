// Package testutil holds helpers shared by package tests: a buffered slog
// handler for asserting on log output and in-memory zip fixtures.
package testutil
