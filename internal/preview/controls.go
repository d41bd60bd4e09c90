package preview

import (
	"curator/internal/avi"
	"curator/internal/config"
	"curator/internal/frames"
)

// MinCropSize is the smallest crop window accepted for submission.
const MinCropSize = 16

// Controls are the user-chosen crop window and frame selections.
type Controls struct {
	CropSize       int
	CenterX        int
	CenterY        int
	Thumbnail      int
	HighlightStart int
	HighlightEnd   int
}

// DefaultControls returns the built-in crop and frame defaults.
func DefaultControls() Controls {
	return ControlsFromConfig(config.Default().Preview)
}

// ControlsFromConfig maps the preview config section onto Controls.
func ControlsFromConfig(p config.Preview) Controls {
	return Controls{
		CropSize:       p.CropSize,
		CenterX:        p.CenterX,
		CenterY:        p.CenterY,
		Thumbnail:      p.ThumbnailFrame,
		HighlightStart: p.HighlightStart,
		HighlightEnd:   p.HighlightEnd,
	}
}

// Clamp pulls every value into range for a capture of the given geometry and
// frame count: frame indices to [0, frames-1], the crop size to the frame and
// the centre so the window stays inside the frame.
func (c Controls) Clamp(g avi.Geometry, frameCount int) Controls {
	width, height := int(g.Width), int(g.Height)
	if limit := min(width, height); c.CropSize > limit {
		c.CropSize = limit
	}
	if c.CropSize < 1 {
		c.CropSize = 1
	}
	c.CenterX, c.CenterY = frames.ClampCenter(width, height, c.CropSize, c.CenterX, c.CenterY)

	last := max(frameCount-1, 0)
	c.Thumbnail = clampIndex(c.Thumbnail, last)
	c.HighlightStart = clampIndex(c.HighlightStart, last)
	c.HighlightEnd = clampIndex(c.HighlightEnd, last)
	return c
}

func clampIndex(v, last int) int {
	if v > last {
		return last
	}
	if v < 0 {
		return 0
	}
	return v
}

// Validate checks the controls against a loaded capture before submission.
// Failures wrap avi.ErrRange.
func (c Controls) Validate(g avi.Geometry, frameCount int) error {
	if frameCount <= 0 {
		return avi.RangeError("no frames loaded")
	}
	if c.CropSize < MinCropSize {
		return avi.RangeError("crop size %d below minimum %d", c.CropSize, MinCropSize)
	}
	if err := frames.ValidateCrop(int(g.Width), int(g.Height), c.CropSize, c.CenterX, c.CenterY); err != nil {
		return err
	}
	if c.Thumbnail < 0 || c.Thumbnail >= frameCount {
		return avi.RangeError("thumbnail frame %d outside [0,%d)", c.Thumbnail, frameCount)
	}
	if c.HighlightStart < 0 || c.HighlightStart >= frameCount {
		return avi.RangeError("highlight start %d outside [0,%d)", c.HighlightStart, frameCount)
	}
	if c.HighlightEnd <= c.HighlightStart || c.HighlightEnd >= frameCount {
		return avi.RangeError("highlight end %d outside (%d,%d)", c.HighlightEnd, c.HighlightStart, frameCount)
	}
	return nil
}
