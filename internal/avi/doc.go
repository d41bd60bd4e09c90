// Package avi locates raw video frames inside fixed-format AVI captures.
//
// The parser validates the RIFF/AVI header list, extracts stream geometry,
// finds the movi list and walks the idx1 index to build a FrameTable: an
// ordered mapping from logical frame number to the part and absolute byte
// offset holding that frame's pixels. Only the ranges it needs are read, so
// multi-gigabyte captures are never loaded whole.
//
// Multi-part captures are parsed in caller order and concatenated into one
// timeline. Every failure carries one of the sentinel kinds (ErrStructural,
// ErrConsistency, ErrUnsupportedFormat, ErrCountMismatch, ErrRange) so callers
// can classify it with errors.Is.
package avi
