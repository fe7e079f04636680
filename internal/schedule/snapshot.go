package schedule

import (
	"context"

	"deskcal/internal/capture"
	appLog "deskcal/internal/log"
)

// Snapshot captures the month page to a PNG.
type Snapshot struct {
	Options capture.Options
	// Capture defaults to capture.CalendarPNG.
	Capture func(ctx context.Context, opts capture.Options) error
}

// Run performs one capture.
func (s *Snapshot) Run(ctx context.Context) error {
	fn := s.Capture
	if fn == nil {
		fn = capture.CalendarPNG
	}
	if err := fn(ctx, s.Options); err != nil {
		return err
	}
	appLog.Info("snapshot written", "path", s.Options.OutputPath, "url", s.Options.URL)
	return nil
}

// Job adapts Run to the scheduler.
func (s *Snapshot) Job() Job {
	return s.Run
}
