package avi

// Geometry describes the fixed frame format of a capture.
type Geometry struct {
	Width       uint32
	Height      uint32
	FrameRate   float64
	TotalFrames uint32
}

// FrameBytes is the size of one raw frame.
func (g Geometry) FrameBytes() int {
	return int(g.Width) * int(g.Height) * BytesPerPixel
}

// FrameOffsetEntry locates one frame's first pixel byte within its part.
type FrameOffsetEntry struct {
	Source Source
	Offset uint64
}

// FrameTable maps logical frame numbers to their location. It is immutable
// once built; loading another capture builds a new table.
type FrameTable struct {
	geometry Geometry
	entries  []FrameOffsetEntry
}

// NewFrameTable copies entries into a table for the given geometry.
func NewFrameTable(geometry Geometry, entries []FrameOffsetEntry) *FrameTable {
	cp := make([]FrameOffsetEntry, len(entries))
	copy(cp, entries)
	return &FrameTable{geometry: geometry, entries: cp}
}

// Len returns the number of frames; a nil table is empty.
func (t *FrameTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Entry returns the i-th entry and whether i was in range.
func (t *FrameTable) Entry(i int) (FrameOffsetEntry, bool) {
	if t == nil || i < 0 || i >= len(t.entries) {
		return FrameOffsetEntry{}, false
	}
	return t.entries[i], true
}

// Geometry returns the geometry the table was built for.
func (t *FrameTable) Geometry() Geometry {
	if t == nil {
		return Geometry{}
	}
	return t.geometry
}

// PartInfo summarizes one parsed part.
type PartInfo struct {
	Name         string
	Geometry     Geometry
	IndexedCount int
	FirstFrame   int
}
