package retire

import (
	"log/slog"

	"github.com/gogpu/retire/internal/logging"
)

// SetLogger configures the logger for retire and its sub-packages (fence,
// disposal). By default nothing is logged. Call SetLogger to enable logging.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by retire:
//   - [slog.LevelDebug]: per-fence and per-batch diagnostics (fence created, batch retired)
//   - [slog.LevelInfo]: lifecycle events (reaper started and stopped)
//   - [slog.LevelWarn]: non-fatal issues (stalled flush, pool destroyed with fences in flight)
//
// Example:
//
//	// Enable debug-level logging for full diagnostics:
//	retire.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	logging.Set(l)
}

// Logger returns the current logger used by retire.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return logging.Logger()
}
