package observability

import (
	"log/slog"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

const serviceName = "disaster-events"

// NewLogger builds the process logger and installs it as the slog default.
// format is "text" or JSON; unknown levels fall back to info.
func NewLogger(level, format string) *slog.Logger {
	logger := sharedobs.NewLogger(level, format).With("service", serviceName)
	slog.SetDefault(logger)
	return logger
}
