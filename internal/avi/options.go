package avi

import (
	"fmt"
	"strings"

	"curator/internal/config"
)

// FrameTagFilter selects which idx1 records count as video frames.
type FrameTagFilter int

const (
	// DIBOrCompressed accepts both 00db and 00dc records.
	DIBOrCompressed FrameTagFilter = iota
	// DIBOnly accepts only uncompressed 00db records.
	DIBOnly
)

func (f FrameTagFilter) String() string {
	switch f {
	case DIBOnly:
		return "dib"
	case DIBOrCompressed:
		return "dib_or_compressed"
	default:
		return fmt.Sprintf("FrameTagFilter(%d)", int(f))
	}
}

// ParseFrameTagFilter maps a configuration value onto a filter.
func ParseFrameTagFilter(value string) (FrameTagFilter, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "dib_or_compressed", "lenient":
		return DIBOrCompressed, nil
	case "dib", "dib_only", "strict":
		return DIBOnly, nil
	default:
		return 0, fmt.Errorf("frame tag filter: unsupported value %q", value)
	}
}

func (f FrameTagFilter) accepts(tag FourCC) bool {
	if tag == FourCCDIB {
		return true
	}
	return f == DIBOrCompressed && tag == FourCCCompressed
}

const (
	// DefaultWidth is the only frame width produced by the supported capture tool.
	DefaultWidth = 256
	// DefaultHeight is the only frame height produced by the supported capture tool.
	DefaultHeight = 224
	// BytesPerPixel is fixed by the 24-bit uncompressed requirement.
	BytesPerPixel = 3
	// MaxCountTolerance bounds CountTolerance; multi-part artifacts never exceed one frame.
	MaxCountTolerance = 1
	// MinPixelHeaderSkip reaches the payload of a frame chunk from the movi
	// LIST start: the LIST header plus the chunk's own tag and size.
	MinPixelHeaderSkip = 2 * chunkHeaderSize
	// MaxPixelHeaderSkip keeps the pixel start inside the first B,G,R triple.
	MaxPixelHeaderSkip = MinPixelHeaderSkip + BytesPerPixel - 1
	// DefaultPixelHeaderSkip is the capture tool's alignment. Pixel reads start
	// one byte into the payload, which the crop renderer's channel order expects.
	DefaultPixelHeaderSkip = MinPixelHeaderSkip + 1
)

// Options configures parser strictness.
type Options struct {
	// FrameTags selects qualifying idx1 records.
	FrameTags FrameTagFilter
	// PixelHeaderSkip is added to the movi LIST start plus an index record's
	// offset to locate the first pixel byte.
	PixelHeaderSkip int
	// CountTolerance is the accepted |declared - indexed| frame difference (0 or 1).
	CountTolerance int
	// SkipLeadingJunk tolerates any run of unrecognized chunks between the header
	// list and movi. When false only a single JUNK chunk may intervene.
	SkipLeadingJunk bool
	// RequiredWidth and RequiredHeight pin the accepted frame size.
	RequiredWidth  uint32
	RequiredHeight uint32
}

// DefaultOptions returns the lenient, multi-part tolerant configuration.
func DefaultOptions() Options {
	return Options{
		FrameTags:       DIBOrCompressed,
		PixelHeaderSkip: DefaultPixelHeaderSkip,
		CountTolerance:  MaxCountTolerance,
		SkipLeadingJunk: true,
		RequiredWidth:   DefaultWidth,
		RequiredHeight:  DefaultHeight,
	}
}

// StrictOptions returns the exact-count, DIB-only configuration.
func StrictOptions() Options {
	opts := DefaultOptions()
	opts.FrameTags = DIBOnly
	opts.CountTolerance = 0
	opts.SkipLeadingJunk = false
	return opts
}

// Validate rejects option values the parser cannot honour.
func (o Options) Validate() error {
	if o.CountTolerance < 0 || o.CountTolerance > MaxCountTolerance {
		return fmt.Errorf("count tolerance must be 0 or %d, got %d", MaxCountTolerance, o.CountTolerance)
	}
	if o.PixelHeaderSkip < MinPixelHeaderSkip || o.PixelHeaderSkip > MaxPixelHeaderSkip {
		return fmt.Errorf("pixel header skip must be between %d and %d bytes, got %d",
			MinPixelHeaderSkip, MaxPixelHeaderSkip, o.PixelHeaderSkip)
	}
	if o.RequiredWidth == 0 || o.RequiredHeight == 0 {
		return fmt.Errorf("required frame size must be non-zero, got %dx%d", o.RequiredWidth, o.RequiredHeight)
	}
	if o.FrameTags != DIBOnly && o.FrameTags != DIBOrCompressed {
		return fmt.Errorf("unknown frame tag filter %d", int(o.FrameTags))
	}
	return nil
}

// OptionsFromConfig maps the parser config section onto Options.
func OptionsFromConfig(p config.Parser) (Options, error) {
	filter, err := ParseFrameTagFilter(p.FrameTags)
	if err != nil {
		return Options{}, err
	}
	opts := Options{
		FrameTags:       filter,
		PixelHeaderSkip: p.PixelHeaderSkip,
		CountTolerance:  p.CountTolerance,
		SkipLeadingJunk: p.SkipLeadingJunk,
		RequiredWidth:   p.Width,
		RequiredHeight:  p.Height,
	}
	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}
