// Package shared holds helpers used across contestlens packages.
//
// The testutil subpackage provides a capturing slog handler and contest
// history fixtures for tests. Nothing under shared may import other
// internal packages.
package shared
