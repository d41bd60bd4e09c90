package preview

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"curator/internal/avi"
	"curator/internal/frames"
	"curator/internal/logging"
)

// ErrNoCapture is returned by operations that need a loaded capture.
var ErrNoCapture = errors.New("no capture loaded")

// Region names a preview surface.
type Region int

const (
	RegionThumbnail Region = iota
	RegionHighlightStart
	RegionHighlightEnd
)

func (r Region) String() string {
	switch r {
	case RegionThumbnail:
		return "thumbnail"
	case RegionHighlightStart:
		return "highlight-start"
	case RegionHighlightEnd:
		return "highlight-end"
	default:
		return fmt.Sprintf("Region(%d)", int(r))
	}
}

// Renderer receives finished crops. Render is never called concurrently.
type Renderer interface {
	Render(region Region, frame int, img *image.RGBA) error
}

// Session holds the current capture and paints preview regions from it.
type Session struct {
	parser   *avi.Parser
	accessor *frames.Accessor
	renderer Renderer
	defaults Controls
	logger   *slog.Logger

	mu         sync.Mutex
	result     *avi.Result
	generation uint64
	controls   Controls
	animating  bool
	// epoch changes whenever the animation starts or stops; animation paints
	// from an earlier epoch are dropped.
	epoch uint64

	stale atomic.Int64
}

// NewSession wires a session. defaults seed the controls after every load.
func NewSession(parser *avi.Parser, accessor *frames.Accessor, renderer Renderer, defaults Controls, logger *slog.Logger) *Session {
	return &Session{
		parser:   parser,
		accessor: accessor,
		renderer: renderer,
		defaults: defaults,
		logger:   logging.NewComponentLogger(logger, "preview"),
		controls: defaults,
	}
}

// Load parses sources and installs the resulting table, invalidating reads
// still running against the previous one. A failed load leaves the session
// empty.
func (s *Session) Load(ctx context.Context, sources []avi.Source) (*avi.Result, error) {
	result, err := s.parser.Parse(ctx, sources)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	if err != nil {
		s.result = nil
		s.controls = s.defaults
		return nil, err
	}
	s.result = result
	s.controls = s.defaults.Clamp(result.Geometry, result.Table.Len())
	s.logger.Info("capture installed",
		logging.Int("frames", result.Table.Len()),
		logging.Uint64("generation", s.generation),
	)
	return result, nil
}

// Reset discards the current table.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.result = nil
	s.controls = s.defaults
}

// Result returns the installed parse result, or nil.
func (s *Session) Result() *avi.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Table returns the installed frame table, or nil.
func (s *Session) Table() *avi.FrameTable {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return nil
	}
	return s.result.Table
}

// Generation increments on every load or reset.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Controls returns the current controls.
func (s *Session) Controls() Controls {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.controls
}

// SetControls clamps c to the loaded capture, stores it and returns the stored value.
func (s *Session) SetControls(c Controls) Controls {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result != nil {
		c = c.Clamp(s.result.Geometry, s.result.Table.Len())
	}
	s.controls = c
	return c
}

// StaleDiscards counts frame reads whose result was dropped because a newer
// capture was installed while they ran.
func (s *Session) StaleDiscards() int64 {
	return s.stale.Load()
}

func (s *Session) setAnimating(on bool) {
	s.mu.Lock()
	s.animating = on
	s.epoch++
	s.mu.Unlock()
}

type snapshot struct {
	table      *avi.FrameTable
	generation uint64
	controls   Controls
	animating  bool
	epoch      uint64
}

func (s *Session) snapshot() (snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return snapshot{}, false
	}
	return snapshot{
		table:      s.result.Table,
		generation: s.generation,
		controls:   s.controls,
		animating:  s.animating,
		epoch:      s.epoch,
	}, true
}

// Refresh re-renders the highlight regions and, unless the animation owns it,
// the thumbnail. Regions are read concurrently and painted independently.
func (s *Session) Refresh(ctx context.Context) error {
	snap, ok := s.snapshot()
	if !ok {
		return nil
	}
	type job struct {
		region Region
		index  int
	}
	jobs := []job{
		{RegionHighlightStart, snap.controls.HighlightStart},
		{RegionHighlightEnd, snap.controls.HighlightEnd},
	}
	if !snap.animating {
		jobs = append([]job{{RegionThumbnail, snap.controls.Thumbnail}}, jobs...)
	}

	var g errgroup.Group
	for _, j := range jobs {
		g.Go(func() error {
			return s.paint(ctx, snap, j.region, j.index, false)
		})
	}
	return g.Wait()
}

// RenderFrame paints one frame into region using the current controls.
func (s *Session) RenderFrame(ctx context.Context, region Region, index int) error {
	snap, ok := s.snapshot()
	if !ok {
		return ErrNoCapture
	}
	return s.paint(ctx, snap, region, index, false)
}

// renderAnimated paints an animation frame into the thumbnail unless the
// animation has stopped by the time the frame is ready.
func (s *Session) renderAnimated(ctx context.Context, index int) error {
	snap, ok := s.snapshot()
	if !ok {
		return ErrNoCapture
	}
	if !snap.animating {
		return nil
	}
	return s.paint(ctx, snap, RegionThumbnail, index, true)
}

func (s *Session) paint(ctx context.Context, snap snapshot, region Region, index int, animated bool) error {
	frame, err := s.accessor.GetFrame(ctx, snap.table, index)
	if err != nil {
		if s.isStale(snap.generation) {
			s.discard(region, index, snap.generation)
			return nil
		}
		return fmt.Errorf("%s frame %d: %w", region, index, err)
	}
	c := snap.controls
	img, err := frames.RenderCrop(frame, c.CropSize, c.CenterX, c.CenterY)
	if err != nil {
		return fmt.Errorf("%s frame %d: %w", region, index, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != snap.generation {
		s.discardLocked(region, index, snap.generation)
		return nil
	}
	if animated && (!s.animating || s.epoch != snap.epoch) {
		s.logger.Debug("animation frame dropped after animation stopped",
			logging.Int("frame", index),
			logging.Uint64("read_epoch", snap.epoch),
			logging.Uint64("current_epoch", s.epoch),
		)
		return nil
	}
	if s.renderer == nil {
		return nil
	}
	return s.renderer.Render(region, index, img)
}

func (s *Session) isStale(generation uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation != generation
}

func (s *Session) discard(region Region, index int, generation uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.discardLocked(region, index, generation)
}

func (s *Session) discardLocked(region Region, index int, generation uint64) {
	s.stale.Add(1)
	s.logger.Debug("stale frame discarded",
		logging.Region(region.String()),
		logging.Int("frame", index),
		logging.Uint64("read_generation", generation),
		logging.Uint64("current_generation", s.generation),
	)
}
