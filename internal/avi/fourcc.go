package avi

import "encoding/binary"

// FourCC is a RIFF four-character code stored little-endian.
type FourCC uint32

// MakeFourCC packs a four-byte ASCII tag.
func MakeFourCC(tag string) FourCC {
	var b [4]byte
	copy(b[:], tag)
	return FourCC(binary.LittleEndian.Uint32(b[:]))
}

func (f FourCC) String() string {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(f))
	return string(b[:])
}

var (
	fccRIFF = MakeFourCC("RIFF")
	fccAVI  = MakeFourCC("AVI ")
	fccLIST = MakeFourCC("LIST")
	fccHdrl = MakeFourCC("hdrl")
	fccAvih = MakeFourCC("avih")
	fccStrl = MakeFourCC("strl")
	fccStrh = MakeFourCC("strh")
	fccStrf = MakeFourCC("strf")
	fccVids = MakeFourCC("vids")
	fccMovi = MakeFourCC("movi")
	fccIdx1 = MakeFourCC("idx1")
	fccJunk = MakeFourCC("JUNK")

	// FourCCDIB tags uncompressed video frame chunks of stream 0.
	FourCCDIB = MakeFourCC("00db")
	// FourCCCompressed tags compressed video frame chunks of stream 0.
	FourCCCompressed = MakeFourCC("00dc")
)

// chunkHeaderSize is the tag plus little-endian size preceding every chunk payload.
const chunkHeaderSize = 8

// indexRecordSize is the width of one idx1 record.
const indexRecordSize = 16

type byteView []byte

func (b byteView) has(off, n int) bool {
	return off >= 0 && n >= 0 && off+n <= len(b)
}

func (b byteView) u16(off int) uint16 {
	return binary.LittleEndian.Uint16(b[off : off+2])
}

func (b byteView) u32(off int) uint32 {
	return binary.LittleEndian.Uint32(b[off : off+4])
}

func (b byteView) fourCC(off int) FourCC {
	return FourCC(b.u32(off))
}
