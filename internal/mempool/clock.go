package mempool

import "time"

// Clock is the time source of the pipeline.
type Clock interface {
	// Now returns the current time, monotonic reading included.
	Now() time.Time

	// Since returns the time elapsed since t.
	Since(t time.Time) time.Duration
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) Since(t time.Time) time.Duration {
	return time.Since(t)
}

// SystemClock reads the host clock.
var SystemClock Clock = systemClock{}

// Epoch is the start instant of a pipeline run. It is captured once and
// shared by value between the capture and resolution stages.
type Epoch struct {
	clock Clock
	start time.Time
}

// StartEpoch records the start of a run. time.Now reads the wall clock and
// the monotonic clock together, so both views of the start are consistent.
// A nil clock means SystemClock.
func StartEpoch(clock Clock) Epoch {
	if clock == nil {
		clock = SystemClock
	}

	return Epoch{
		clock: clock,
		start: clock.Now(),
	}
}

// StartTime returns the wall-clock start of the run.
func (e Epoch) StartTime() time.Time {
	return e.start.Round(0)
}

// Elapsed returns the monotonic time elapsed since the start of the run.
func (e Epoch) Elapsed() time.Duration {
	return e.clock.Since(e.start)
}

// At converts an elapsed duration into an absolute wall-clock time.
func (e Epoch) At(elapsed time.Duration) time.Time {
	return e.StartTime().Add(elapsed)
}
