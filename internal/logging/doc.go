// Package logging assembles the slog loggers used by kfntool.
//
// It owns level parsing and the console/JSON handler choice, and attaches a
// per-invocation run id so every line from one command can be correlated.
// Library packages never build loggers themselves; they accept one through
// their options and default to discarding output.
package logging
