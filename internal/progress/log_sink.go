package progress

import (
	"context"
	"log/slog"
	"math"

	"collectsync/internal/logging"
)

// LogSink returns a reporter that records sampled progress in the run log.
// A line is written when the phase changes or overall progress crosses a 5%
// boundary; failures are always written.
func LogSink(ctx context.Context, logger *slog.Logger) Reporter {
	if logger == nil {
		return Discard
	}
	sampler := logging.NewProgressSampler(5)
	logger = logging.NewComponentLogger(logger, "progress")
	return ReporterFunc(func(event Event) {
		percent := event.Percent()
		if event.Err == nil && !sampler.ShouldLog(percent, string(event.Phase)) {
			return
		}
		attrs := []logging.Attr{
			logging.String(logging.FieldProgressPhase, event.Phase.Label()),
			logging.Float64(logging.FieldProgressPercent, math.Round(percent*10)/10),
		}
		if event.Message != "" {
			attrs = append(attrs, logging.String(logging.FieldProgressMessage, event.Message))
		}
		if event.Total > 0 {
			attrs = append(attrs, logging.Int("current", event.Current), logging.Int("total", event.Total))
		}
		if event.Err != nil {
			attrs = append(attrs, logging.Error(event.Err))
			logger.ErrorContext(ctx, "phase failed", logging.Args(attrs...)...)
			return
		}
		logger.DebugContext(ctx, "progress", logging.Args(attrs...)...)
	})
}
