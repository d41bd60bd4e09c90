package preview

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"curator/internal/logging"
)

// DefaultStep is the number of frames the cursor advances per tick.
const DefaultStep = 3

// TickInterval is the wall-clock period for a given step: one tick shows step
// frames' worth of 60 fps time, 50ms at the default step.
func TickInterval(step int) time.Duration {
	if step < 1 {
		step = 1
	}
	return time.Duration(step) * time.Second / 60
}

// Animator cycles the thumbnail through the highlight range.
type Animator struct {
	session *Session
	step    int
	logger  *slog.Logger

	mu      sync.Mutex
	enabled bool
	start   int
	end     int
	cursor  int

	rendered atomic.Int64
	skipped  atomic.Int64
}

// NewAnimator returns a disabled animator advancing step frames per tick.
func NewAnimator(session *Session, step int, logger *slog.Logger) *Animator {
	if step < 1 {
		step = DefaultStep
	}
	return &Animator{
		session: session,
		step:    step,
		logger:  logging.NewComponentLogger(logger, "animator"),
	}
}

// Step returns the cursor advance per tick.
func (a *Animator) Step() int {
	return a.step
}

// Enable starts cycling frames [start, end] on subsequent ticks. The
// thumbnail region stops following the static thumbnail control.
func (a *Animator) Enable(start, end int) {
	a.mu.Lock()
	a.enabled = true
	a.start = start
	a.end = end
	a.mu.Unlock()
	a.session.setAnimating(true)
}

// Disable stops the animation and synchronously repaints the static previews.
// A frame read still running for the animation is dropped when it finishes.
func (a *Animator) Disable(ctx context.Context) error {
	a.mu.Lock()
	a.enabled = false
	a.mu.Unlock()
	a.session.setAnimating(false)
	return a.session.Refresh(ctx)
}

// Enabled reports whether ticks currently render frames.
func (a *Animator) Enabled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.enabled
}

// Cursor returns the frame the next tick will show, before wraparound.
func (a *Animator) Cursor() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cursor
}

// Rendered counts ticks that issued a frame read.
func (a *Animator) Rendered() int64 {
	return a.rendered.Load()
}

// Skipped counts ticks dropped because the previous read was still running.
func (a *Animator) Skipped() int64 {
	return a.skipped.Load()
}

// next returns the frame for this tick and advances the cursor. A cursor
// outside [start, end] restarts at start.
func (a *Animator) next() (int, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.enabled {
		return 0, false
	}
	if a.cursor > a.end || a.cursor < a.start {
		a.cursor = a.start
	}
	index := a.cursor
	a.cursor += a.step
	return index, true
}

// Tick renders one animation frame synchronously.
func (a *Animator) Tick(ctx context.Context) error {
	index, ok := a.next()
	if !ok {
		return nil
	}
	a.rendered.Add(1)
	return a.session.renderAnimated(ctx, index)
}

// Run consumes ticks until ctx is done or ticks is closed. At most one frame
// read is in flight; a tick arriving while it runs is skipped, not queued.
// Render failures are logged and the loop keeps going.
func (a *Animator) Run(ctx context.Context, ticks <-chan time.Time) error {
	var inflight chan error
	for {
		select {
		case <-ctx.Done():
			if inflight != nil {
				<-inflight
			}
			return ctx.Err()
		case err := <-inflight:
			inflight = nil
			a.report(err)
		case _, ok := <-ticks:
			if !ok {
				if inflight != nil {
					a.report(<-inflight)
				}
				return nil
			}
			if inflight != nil {
				a.skipped.Add(1)
				continue
			}
			index, enabled := a.next()
			if !enabled {
				continue
			}
			a.rendered.Add(1)
			done := make(chan error, 1)
			inflight = done
			go func() {
				done <- a.session.renderAnimated(ctx, index)
			}()
		}
	}
}

// RunTicker drives Run from a ticker at TickInterval(step).
func (a *Animator) RunTicker(ctx context.Context) error {
	ticker := time.NewTicker(TickInterval(a.step))
	defer ticker.Stop()
	return a.Run(ctx, ticker.C)
}

func (a *Animator) report(err error) {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, ErrNoCapture) {
		return
	}
	logging.WarnWithContext(a.logger, "animation frame failed", "animation_frame_failed",
		logging.Error(err),
		logging.String(logging.FieldImpact, "thumbnail animation skipped a frame"),
		logging.String(logging.FieldErrorHint, "check the highlight range against the capture length"),
	)
}
