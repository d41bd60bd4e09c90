package frames

import (
	"context"
	"fmt"
	"log/slog"

	"curator/internal/avi"
	"curator/internal/logging"
)

// RawFrame is one frame exactly as stored: Width*Height*3 bytes, bottom row first.
type RawFrame struct {
	Index  int
	Width  int
	Height int
	Pix    []byte
}

// Accessor performs uncached frame reads against a frame table.
type Accessor struct {
	logger *slog.Logger
}

// NewAccessor returns an accessor logging through logger.
func NewAccessor(logger *slog.Logger) *Accessor {
	return &Accessor{logger: logging.NewComponentLogger(logger, "frames")}
}

// GetFrame reads frame index from table. An index outside the table fails with
// avi.ErrRange before any read is issued.
func (a *Accessor) GetFrame(ctx context.Context, table *avi.FrameTable, index int) (*RawFrame, error) {
	entry, ok := table.Entry(index)
	if !ok {
		return nil, avi.RangeError("frame index %d outside [0,%d)", index, table.Len())
	}
	geometry := table.Geometry()
	size := geometry.FrameBytes()
	pix, err := entry.Source.ReadRange(ctx, int64(entry.Offset), size)
	if err != nil {
		return nil, fmt.Errorf("read frame %d from %s: %w", index, entry.Source.Name(), err)
	}
	a.logger.Debug("frame read",
		logging.Int("index", index),
		logging.String(logging.FieldCapture, entry.Source.Name()),
		logging.Uint64("offset", entry.Offset),
	)
	return &RawFrame{
		Index:  index,
		Width:  int(geometry.Width),
		Height: int(geometry.Height),
		Pix:    pix,
	}, nil
}
