package application

import "log/slog"

const ModuleName = "creative-review/approval-workflow"

// ResolveLogger returns slog.Default when the wiring left the logger unset.
func ResolveLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
