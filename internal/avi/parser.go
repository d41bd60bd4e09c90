package avi

import (
	"context"
	"fmt"
	"log/slog"

	"curator/internal/logging"
)

// Offsets within the fixed 24-byte file prologue.
const (
	prologueSize      = 24
	offRIFF           = 0
	offAVI            = 8
	offHeaderList     = 12
	offHeaderListSize = 16
	offHdrl           = 20
)

// Offsets within the avih, strh and strf payloads.
const (
	avihTotalFrames = 16
	avihWidth       = 32
	avihHeight      = 36
	avihMinSize     = 40

	strhRate    = 24
	strhMinSize = 28

	strfWidth       = 4
	strfHeight      = 8
	strfBitCount    = 14
	strfCompression = 16
	strfMinSize     = 20
)

// frameRateScale is the fixed divisor the capture tool uses for the strh rate field.
const frameRateScale = 1_000_000

// requiredBitCount is the only accepted strf bit depth.
const requiredBitCount = 24

// maxSkippedChunks bounds the scan for movi so a corrupt size cannot spin forever.
const maxSkippedChunks = 4096

// Result is the outcome of a successful parse.
type Result struct {
	Geometry Geometry
	Table    *FrameTable
	Parts    []PartInfo
	Warnings []string
}

// Parser validates captures and builds frame tables.
type Parser struct {
	opts   Options
	logger *slog.Logger
}

// NewParser validates opts and returns a parser logging through logger.
func NewParser(opts Options, logger *slog.Logger) (*Parser, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("parser options: %w", err)
	}
	return &Parser{opts: opts, logger: logging.NewComponentLogger(logger, "avi")}, nil
}

// Parse is a convenience wrapper around NewParser and Parser.Parse.
func Parse(ctx context.Context, sources []Source, opts Options, logger *slog.Logger) (*Result, error) {
	parser, err := NewParser(opts, logger)
	if err != nil {
		return nil, err
	}
	return parser.Parse(ctx, sources)
}

// Options returns the parser configuration.
func (p *Parser) Options() Options {
	return p.opts
}

// Parse processes the parts in the given order and concatenates their frames
// into one table. Any failing part aborts the whole batch.
func (p *Parser) Parse(ctx context.Context, sources []Source) (*Result, error) {
	if len(sources) == 0 {
		return nil, newError(ErrStructural, "", "no capture files supplied")
	}

	result := &Result{}
	var entries []FrameOffsetEntry
	for i, src := range sources {
		part, err := p.parsePart(ctx, src)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			result.Geometry = part.geometry
		} else {
			if part.geometry.Width != result.Geometry.Width || part.geometry.Height != result.Geometry.Height {
				return nil, newError(ErrConsistency, src.Name(),
					"frame size %dx%d differs from first part %dx%d",
					part.geometry.Width, part.geometry.Height, result.Geometry.Width, result.Geometry.Height)
			}
			result.Geometry.TotalFrames += part.geometry.TotalFrames
		}
		result.Parts = append(result.Parts, PartInfo{
			Name:         src.Name(),
			Geometry:     part.geometry,
			IndexedCount: len(part.entries),
			FirstFrame:   len(entries),
		})
		result.Warnings = append(result.Warnings, part.warnings...)
		entries = append(entries, part.entries...)
	}
	result.Table = NewFrameTable(result.Geometry, entries)

	p.logger.Info("capture parsed",
		logging.Int("parts", len(sources)),
		logging.Int("frames", result.Table.Len()),
		logging.Int("width", int(result.Geometry.Width)),
		logging.Int("height", int(result.Geometry.Height)),
		logging.Float64("fps", result.Geometry.FrameRate),
	)
	return result, nil
}

// ParseFile parses a single part.
func (p *Parser) ParseFile(ctx context.Context, src Source) (*Result, error) {
	return p.Parse(ctx, []Source{src})
}

type partResult struct {
	geometry Geometry
	entries  []FrameOffsetEntry
	warnings []string
}

func (p *Parser) parsePart(ctx context.Context, src Source) (*partResult, error) {
	name := src.Name()

	prologue, err := src.ReadRange(ctx, 0, prologueSize)
	if err != nil {
		return nil, readError(ctx, name, "file header", err)
	}
	top := byteView(prologue)
	for _, check := range []struct {
		off  int
		want FourCC
		tag  string
	}{
		{offRIFF, fccRIFF, "RIFF"},
		{offAVI, fccAVI, "AVI"},
		{offHeaderList, fccLIST, "LIST"},
		{offHdrl, fccHdrl, "hdrl"},
	} {
		if top.fourCC(check.off) != check.want {
			return nil, newError(ErrStructural, name, "bad header: %s", check.tag)
		}
	}

	headerListSize := int64(top.u32(offHeaderListSize)) - 4
	if headerListSize <= 0 {
		return nil, newError(ErrStructural, name, "bad header: hdrl size %d", headerListSize+4)
	}
	headerListStart := int64(prologueSize)
	headerData, err := src.ReadRange(ctx, headerListStart, int(headerListSize))
	if err != nil {
		return nil, readError(ctx, name, "header list", err)
	}

	geometry, err := p.parseHeaderList(name, byteView(headerData))
	if err != nil {
		return nil, err
	}

	moviListStart, moviSize, err := p.findMovi(ctx, src, headerListStart+headerListSize)
	if err != nil {
		return nil, err
	}
	moviPayloadStart := moviListStart + chunkHeaderSize

	idxStart := moviPayloadStart + moviSize
	idxHeader, err := src.ReadRange(ctx, idxStart, chunkHeaderSize)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, newError(ErrStructural, name, "missing index: idx1")
	}
	if byteView(idxHeader).fourCC(0) != fccIdx1 {
		return nil, newError(ErrStructural, name, "missing index: idx1")
	}
	idxSize := int(byteView(idxHeader).u32(4))
	idxData, err := src.ReadRange(ctx, idxStart+chunkHeaderSize, idxSize)
	if err != nil {
		return nil, readError(ctx, name, "index idx1", err)
	}

	entries, err := p.walkIndex(src, geometry, moviListStart, byteView(idxData))
	if err != nil {
		return nil, err
	}

	part := &partResult{geometry: geometry, entries: entries}
	declared := int64(geometry.TotalFrames)
	found := int64(len(entries))
	if declared != found {
		diff := declared - found
		if diff < 0 {
			diff = -diff
		}
		if diff > int64(p.opts.CountTolerance) {
			return nil, newError(ErrCountMismatch, name,
				"index video frame count %d does not match total frame count %d", found, declared)
		}
		warning := fmt.Sprintf("%s: index video frame count %d does not match total frame count %d", name, found, declared)
		part.warnings = append(part.warnings, warning)
		logging.WarnWithContext(p.logger, "frame count mismatch within tolerance", "frame_count_mismatch",
			logging.PartFile(name),
			logging.Int64("indexed", found),
			logging.Int64("declared", declared),
			logging.String(logging.FieldImpact, "timeline is one frame shorter or longer than declared"),
			logging.String(logging.FieldErrorHint, "expected for some multi-part captures"),
		)
	}

	p.logger.Debug("capture part parsed",
		logging.PartFile(name),
		logging.Int64("frames", found),
		logging.Int64("movi_start", moviPayloadStart),
		logging.Float64("fps", geometry.FrameRate),
	)
	return part, nil
}

// parseHeaderList validates avih, strl/strh and strf inside the hdrl payload.
func (p *Parser) parseHeaderList(name string, header byteView) (Geometry, error) {
	if !header.has(0, chunkHeaderSize) || header.fourCC(0) != fccAvih {
		return Geometry{}, newError(ErrStructural, name, "bad header: avih")
	}
	avihSize := int(header.u32(4))
	avihStart := chunkHeaderSize
	if avihSize < avihMinSize || !header.has(avihStart, avihSize) {
		return Geometry{}, newError(ErrStructural, name, "bad header: avih truncated (size %d)", avihSize)
	}
	totalFrames := header.u32(avihStart + avihTotalFrames)
	width := header.u32(avihStart + avihWidth)
	height := header.u32(avihStart + avihHeight)

	strlStart := avihStart + avihSize
	if !header.has(strlStart, 12) || header.fourCC(strlStart) != fccLIST {
		return Geometry{}, newError(ErrStructural, name, "bad header: strl LIST")
	}
	if header.fourCC(strlStart+8) != fccStrl {
		return Geometry{}, newError(ErrStructural, name, "bad header: strl")
	}

	strhTag := strlStart + 12
	if !header.has(strhTag, chunkHeaderSize) || header.fourCC(strhTag) != fccStrh {
		return Geometry{}, newError(ErrStructural, name, "bad header: strh")
	}
	strhSize := int(header.u32(strhTag + 4))
	strhStart := strhTag + chunkHeaderSize
	if strhSize < strhMinSize || !header.has(strhStart, strhSize) {
		return Geometry{}, newError(ErrStructural, name, "bad header: strh truncated (size %d)", strhSize)
	}
	if header.fourCC(strhStart) != fccVids {
		return Geometry{}, newError(ErrStructural, name, "bad header: vids (stream type %q)", header.fourCC(strhStart).String())
	}
	rate := header.u32(strhStart + strhRate)
	fps := float64(rate) / frameRateScale

	strfTag := strhStart + strhSize
	if !header.has(strfTag, chunkHeaderSize) || header.fourCC(strfTag) != fccStrf {
		return Geometry{}, newError(ErrStructural, name, "bad header: strf")
	}
	strfSize := int(header.u32(strfTag + 4))
	strfStart := strfTag + chunkHeaderSize
	if strfSize < strfMinSize || !header.has(strfStart, strfMinSize) {
		return Geometry{}, newError(ErrStructural, name, "bad header: strf truncated (size %d)", strfSize)
	}
	strfWidthValue := header.u32(strfStart + strfWidth)
	strfHeightValue := header.u32(strfStart + strfHeight)
	bitCount := header.u16(strfStart + strfBitCount)
	compression := header.u32(strfStart + strfCompression)

	if strfWidthValue != width {
		return Geometry{}, newError(ErrConsistency, name, "inconsistent width in strf: %d vs %d", strfWidthValue, width)
	}
	if strfHeightValue != height {
		return Geometry{}, newError(ErrConsistency, name, "inconsistent height in strf: %d vs %d", strfHeightValue, height)
	}
	if bitCount != requiredBitCount {
		return Geometry{}, newError(ErrUnsupportedFormat, name, "unexpected bitcount (not %d): %d", requiredBitCount, bitCount)
	}
	if compression != 0 {
		return Geometry{}, newError(ErrUnsupportedFormat, name, "unexpected compression: %d", compression)
	}
	if width != p.opts.RequiredWidth || height != p.opts.RequiredHeight {
		return Geometry{}, newError(ErrUnsupportedFormat, name,
			"unsupported frame size %dx%d (want %dx%d)", width, height, p.opts.RequiredWidth, p.opts.RequiredHeight)
	}

	return Geometry{
		Width:       width,
		Height:      height,
		FrameRate:   fps,
		TotalFrames: totalFrames,
	}, nil
}

// findMovi skips chunks after the header list until LIST/movi and returns the
// list start and its declared size.
func (p *Parser) findMovi(ctx context.Context, src Source, start int64) (int64, int64, error) {
	name := src.Name()
	pos := start
	skipped := 0
	for {
		head, err := src.ReadRange(ctx, pos, 12)
		if err != nil {
			if ctx.Err() != nil {
				return 0, 0, ctx.Err()
			}
			return 0, 0, newError(ErrStructural, name, "missing movi list")
		}
		view := byteView(head)
		tag := view.fourCC(0)
		size := int64(view.u32(4))
		if tag == fccLIST && view.fourCC(8) == fccMovi {
			return pos, size, nil
		}

		if !p.opts.SkipLeadingJunk && (tag != fccJunk || skipped > 0) {
			return 0, 0, newError(ErrStructural, name, "missing movi list (found %q)", tag.String())
		}
		skipped++
		if skipped > maxSkippedChunks {
			return 0, 0, newError(ErrStructural, name, "missing movi list (gave up after %d chunks)", maxSkippedChunks)
		}
		p.logger.Debug("skipping chunk before movi",
			logging.PartFile(name),
			logging.String("tag", tag.String()),
			logging.Int64("size", size),
		)
		pos += chunkHeaderSize + size
		if size%2 == 1 {
			// Writers disagree on padding odd chunks. A pad byte is zero; a chunk
			// tag never starts with one.
			pad, err := src.ReadRange(ctx, pos, 1)
			if err == nil && pad[0] == 0 {
				pos++
			}
		}
	}
}

// walkIndex turns qualifying idx1 records into absolute pixel offsets.
// Record offsets are relative to the movi fourcc, eight bytes past moviListStart;
// PixelHeaderSkip is measured from moviListStart.
func (p *Parser) walkIndex(src Source, geometry Geometry, moviListStart int64, index byteView) ([]FrameOffsetEntry, error) {
	name := src.Name()
	frameBytes := int64(geometry.FrameBytes())
	skip := int64(p.opts.PixelHeaderSkip)

	entries := make([]FrameOffsetEntry, 0, len(index)/indexRecordSize)
	checked := false
	for pos := 0; pos+indexRecordSize <= len(index); pos += indexRecordSize {
		chunkID := index.fourCC(pos)
		offset := int64(index.u32(pos + 8))
		size := int64(index.u32(pos + 12))
		if !p.opts.FrameTags.accepts(chunkID) || size == 0 {
			continue
		}
		if !checked {
			if size != frameBytes {
				return nil, newError(ErrConsistency, name,
					"first frame chunk holds %d bytes, expected %d (%dx%d at %d bytes per pixel, pixel header skip %d)",
					size, frameBytes, geometry.Width, geometry.Height, BytesPerPixel, skip)
			}
			checked = true
		}
		entries = append(entries, FrameOffsetEntry{
			Source: src,
			Offset: uint64(moviListStart + offset + skip),
		})
	}
	return entries, nil
}

func readError(ctx context.Context, name, what string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return &Error{Kind: ErrStructural, Part: name, Reason: fmt.Sprintf("truncated %s: %v", what, err)}
}
