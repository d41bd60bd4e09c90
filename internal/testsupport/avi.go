package testsupport

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// AVIFixture describes a synthetic uncompressed capture. Zero values select
// the supported 256x224 24-bit format.
type AVIFixture struct {
	Width  uint32
	Height uint32
	// Frames is the number of video frame chunks written to movi.
	Frames int
	// DeclaredFrames overrides the avih total frame count when non-nil.
	DeclaredFrames *uint32
	// StrfWidth and StrfHeight override the strf dimensions when non-zero.
	StrfWidth  uint32
	StrfHeight uint32
	BitCount   uint16
	// Compression is written to strf verbatim.
	Compression uint32
	// RateNumerator is the strh rate field; the capture tool divides it by 1e6.
	RateNumerator uint32
	// JunkChunks inserts that many JUNK chunks between hdrl and movi.
	JunkChunks int
	// JunkSize is the payload size of each JUNK chunk (odd sizes get padded).
	JunkSize int
	// UnpaddedJunk writes odd-sized JUNK chunks without the RIFF pad byte.
	UnpaddedJunk bool
	// UnknownChunk inserts one chunk with this tag before any JUNK chunks.
	UnknownChunk string
	// AudioChunks interleaves a 01wb chunk and index record after every frame.
	AudioChunks bool
	// EmptyFrames lists frame numbers indexed with size zero (dropped frames).
	EmptyFrames []int
	// FrameTag overrides the video chunk tag ("00db" by default).
	FrameTag string
	// StreamType overrides the strh stream type ("vids" by default).
	StreamType string
	// OmitIndex leaves out the idx1 chunk.
	OmitIndex bool
	// ExtraFrameBytes appends that many bytes to every non-empty frame chunk.
	ExtraFrameBytes int
	// IndexSize overrides the declared idx1 size when non-zero.
	IndexSize uint32
	// Pixel returns the on-disk B, G, R bytes of one pixel. Rows are bottom-up.
	Pixel func(frame, row, col int) (b, g, r byte)
}

// DeclaredCount returns a pointer suitable for AVIFixture.DeclaredFrames.
func DeclaredCount(n uint32) *uint32 {
	return &n
}

// DefaultPixel stores the column in B, the frame number in G and the row in R.
// Frame reads start one byte into the chunk payload, so the first byte of a
// read frame is the frame number.
func DefaultPixel(frame, row, col int) (byte, byte, byte) {
	return byte(col), byte(frame), byte(row)
}

// SolidPixel returns a Pixel function painting every pixel with one colour.
func SolidPixel(r, g, b byte) func(frame, row, col int) (byte, byte, byte) {
	return func(int, int, int) (byte, byte, byte) {
		return b, g, r
	}
}

type riffWriter struct {
	buf bytes.Buffer
}

func (w *riffWriter) tag(s string) {
	var b [4]byte
	copy(b[:], s)
	w.buf.Write(b[:])
}

func (w *riffWriter) u32(v uint32) {
	_ = binary.Write(&w.buf, binary.LittleEndian, v)
}

func (w *riffWriter) u16(v uint16) {
	_ = binary.Write(&w.buf, binary.LittleEndian, v)
}

func (w *riffWriter) zeros(n int) {
	w.buf.Write(make([]byte, n))
}

func (w *riffWriter) len() int {
	return w.buf.Len()
}

func (w *riffWriter) patchU32(at int, v uint32) {
	binary.LittleEndian.PutUint32(w.buf.Bytes()[at:at+4], v)
}

type indexRecord struct {
	tag    string
	offset uint32
	size   uint32
}

// BuildAVI renders the fixture into a complete AVI byte stream.
func BuildAVI(f AVIFixture) []byte {
	if f.Width == 0 {
		f.Width = 256
	}
	if f.Height == 0 {
		f.Height = 224
	}
	if f.StrfWidth == 0 {
		f.StrfWidth = f.Width
	}
	if f.StrfHeight == 0 {
		f.StrfHeight = f.Height
	}
	if f.BitCount == 0 {
		f.BitCount = 24
	}
	if f.RateNumerator == 0 {
		f.RateNumerator = 60_000_000
	}
	if f.FrameTag == "" {
		f.FrameTag = "00db"
	}
	if f.StreamType == "" {
		f.StreamType = "vids"
	}
	if f.Pixel == nil {
		f.Pixel = DefaultPixel
	}
	declared := uint32(f.Frames)
	if f.DeclaredFrames != nil {
		declared = *f.DeclaredFrames
	}
	empty := make(map[int]bool, len(f.EmptyFrames))
	for _, n := range f.EmptyFrames {
		empty[n] = true
	}

	w := &riffWriter{}
	w.tag("RIFF")
	riffSizeAt := w.len()
	w.u32(0)
	w.tag("AVI ")

	// hdrl
	w.tag("LIST")
	hdrlSizeAt := w.len()
	w.u32(0)
	w.tag("hdrl")

	w.tag("avih")
	w.u32(56)
	w.u32(1_000_000 / 60) // microseconds per frame
	w.u32(0)              // max bytes per second
	w.u32(0)              // padding granularity
	w.u32(0x10)           // flags: has index
	w.u32(declared)
	w.u32(0) // initial frames
	w.u32(1) // streams
	w.u32(f.Width * f.Height * 3)
	w.u32(f.Width)
	w.u32(f.Height)
	w.zeros(16)

	w.tag("LIST")
	strlSizeAt := w.len()
	w.u32(0)
	w.tag("strl")

	w.tag("strh")
	w.u32(56)
	w.tag(f.StreamType)
	w.tag("DIB ")
	w.u32(0)         // flags
	w.u32(0)         // priority + language
	w.u32(0)         // initial frames
	w.u32(1_000_000) // scale
	w.u32(f.RateNumerator)
	w.u32(0)        // start
	w.u32(declared) // length
	w.u32(f.Width * f.Height * 3)
	w.u32(0xFFFFFFFF) // quality
	w.u32(0)          // sample size
	w.zeros(8)        // rcFrame

	w.tag("strf")
	w.u32(40)
	w.u32(40)
	w.u32(f.StrfWidth)
	w.u32(f.StrfHeight)
	w.u16(1)
	w.u16(f.BitCount)
	w.u32(f.Compression)
	w.u32(f.Width * f.Height * 3)
	w.zeros(16)

	w.patchU32(strlSizeAt, uint32(w.len()-strlSizeAt-4))
	w.patchU32(hdrlSizeAt, uint32(w.len()-hdrlSizeAt-4))

	if f.UnknownChunk != "" {
		w.tag(f.UnknownChunk)
		w.u32(6)
		w.zeros(6)
	}
	for i := 0; i < f.JunkChunks; i++ {
		size := f.JunkSize
		if size == 0 {
			size = 12
		}
		w.tag("JUNK")
		w.u32(uint32(size))
		w.zeros(size)
		if size%2 == 1 && !f.UnpaddedJunk {
			w.zeros(1)
		}
	}

	// movi
	w.tag("LIST")
	moviSizeAt := w.len()
	w.u32(0)
	moviTagAt := w.len()
	w.tag("movi")

	frameBytes := int(f.Width * f.Height * 3)
	chunkBytes := frameBytes + f.ExtraFrameBytes
	var index []indexRecord
	pix := make([]byte, chunkBytes)
	for frame := 0; frame < f.Frames; frame++ {
		chunkAt := w.len()
		if empty[frame] {
			w.tag(f.FrameTag)
			w.u32(0)
			index = append(index, indexRecord{tag: f.FrameTag, offset: uint32(chunkAt - moviTagAt)})
		} else {
			for row := 0; row < int(f.Height); row++ {
				for col := 0; col < int(f.Width); col++ {
					i := (row*int(f.Width) + col) * 3
					pix[i], pix[i+1], pix[i+2] = f.Pixel(frame, row, col)
				}
			}
			w.tag(f.FrameTag)
			w.u32(uint32(chunkBytes))
			w.buf.Write(pix)
			if chunkBytes%2 == 1 {
				w.zeros(1)
			}
			index = append(index, indexRecord{tag: f.FrameTag, offset: uint32(chunkAt - moviTagAt), size: uint32(chunkBytes)})
		}
		if f.AudioChunks {
			audioAt := w.len()
			w.tag("01wb")
			w.u32(4)
			w.zeros(4)
			index = append(index, indexRecord{tag: "01wb", offset: uint32(audioAt - moviTagAt), size: 4})
		}
	}
	w.patchU32(moviSizeAt, uint32(w.len()-moviSizeAt-4))

	if !f.OmitIndex {
		w.tag("idx1")
		indexSize := uint32(len(index) * 16)
		if f.IndexSize != 0 {
			indexSize = f.IndexSize
		}
		w.u32(indexSize)
		for _, rec := range index {
			w.tag(rec.tag)
			w.u32(0x10)
			w.u32(rec.offset)
			w.u32(rec.size)
		}
	}

	w.patchU32(riffSizeAt, uint32(w.len()-8))
	return w.buf.Bytes()
}

// WriteAVI builds the fixture into dir/name and returns the path.
func WriteAVI(t testing.TB, dir, name string, f AVIFixture) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, BuildAVI(f), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
