package ramp

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/oszuidwest/zwfm-paging/internal/types"
)

// StepInterval is the spacing between ramp volume updates.
const StepInterval = 500 * time.Millisecond

// VolumeSetter applies a volume percentage to a set of speakers.
type VolumeSetter interface {
	SetVolume(ctx context.Context, speakers []types.SpeakerEndpoint, percent int) error
}

// Engine ramps speaker volume linearly toward a target. At most one ramp
// runs at a time; starting a new ramp replaces the running one and
// continues from the volume it had reached rather than from silence.
type Engine struct {
	clock  clockwork.Clock
	setter VolumeSetter

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	current int
}

// NewEngine returns an engine that applies volume through setter and
// schedules steps on clock.
func NewEngine(setter VolumeSetter, clock clockwork.Clock) *Engine {
	return &Engine{clock: clock, setter: setter}
}

// CurrentPercent returns the most recently applied volume percentage.
func (e *Engine) CurrentPercent() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// Start ramps the given speakers from the current volume to target over
// duration. A non-positive duration applies the target in a single step.
// Steps that would repeat the previous value are skipped, except the final
// step, which always applies the exact target.
func (e *Engine) Start(speakers []types.SpeakerEndpoint, target int, duration time.Duration) {
	e.interrupt()

	e.mu.Lock()
	start := e.current
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	e.cancel = cancel
	e.done = done
	e.mu.Unlock()

	go e.run(ctx, done, speakers, start, target, duration)
}

// Stop cancels any running ramp and forces the speakers to silence.
func (e *Engine) Stop(speakers []types.SpeakerEndpoint) {
	e.interrupt()
	e.apply(context.Background(), speakers, 0)
}

// interrupt cancels the running ramp, if any, and waits for its goroutine
// to exit so no stale volume step lands after a restart.
func (e *Engine) interrupt() {
	e.mu.Lock()
	cancel, done := e.cancel, e.done
	e.cancel, e.done = nil, nil
	e.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

func (e *Engine) run(ctx context.Context, done chan struct{}, speakers []types.SpeakerEndpoint, start, target int, duration time.Duration) {
	defer close(done)

	if duration <= 0 {
		e.apply(ctx, speakers, target)
		return
	}

	steps := int((duration + StepInterval - 1) / StepInterval)
	began := e.clock.Now()
	last := start
	for step := 1; step <= steps; step++ {
		// Deadlines are absolute so slow gateway calls do not stretch
		// the ramp; overdue steps fire back to back.
		due := began.Add(time.Duration(step) * StepInterval)
		if wait := due.Sub(e.clock.Now()); wait > 0 {
			timer := e.clock.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.Chan():
			}
		}

		percent := target
		if step < steps {
			percent = start + int(math.Round(float64(target-start)*float64(step)/float64(steps)))
			if percent == last {
				continue
			}
		}
		e.apply(ctx, speakers, percent)
		last = percent
	}
}

// apply records the new volume before the gateway round trip so a restart
// continues from the intended value even if the call fails.
func (e *Engine) apply(ctx context.Context, speakers []types.SpeakerEndpoint, percent int) {
	e.mu.Lock()
	e.current = percent
	e.mu.Unlock()

	if err := e.setter.SetVolume(ctx, speakers, percent); err != nil {
		slog.Warn("volume ramp step failed", "percent", percent, "error", err)
	}
}
