// Package logging builds the slog loggers used across bindery and provides
// typed attribute helpers so call sites stay terse and consistent.
package logging
