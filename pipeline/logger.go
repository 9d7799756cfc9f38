package pipeline

import (
	"log/slog"

	"github.com/user-none/framepipe/gpu"
)

// SetLogger configures the logger used by the pipeline, its kernels and
// the device backends. By default nothing is logged. Pass nil to restore
// silence.
func SetLogger(l *slog.Logger) {
	gpu.SetLogger(l)
}

func logger() *slog.Logger {
	return gpu.Logger()
}
