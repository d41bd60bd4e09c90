package avi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"
)

// Source is a byte-addressable capture part. ReadRange returns exactly length
// bytes starting at offset or an error; it never reads the whole part.
type Source interface {
	Name() string
	ReadRange(ctx context.Context, offset int64, length int) ([]byte, error)
}

// FileSource serves ranges from an open file.
type FileSource struct {
	path string
	file *os.File
	size int64
}

// OpenFile opens path for random-access range reads.
func OpenFile(path string) (*FileSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open capture: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("stat capture: %w", err)
	}
	if info.IsDir() {
		_ = file.Close()
		return nil, fmt.Errorf("open capture: %s is a directory", path)
	}
	adviseRandomAccess(file)
	return &FileSource{path: path, file: file, size: info.Size()}, nil
}

// OpenFiles opens every path, closing the already opened ones on failure.
func OpenFiles(paths []string) ([]*FileSource, error) {
	sources := make([]*FileSource, 0, len(paths))
	for _, path := range paths {
		src, err := OpenFile(path)
		if err != nil {
			for _, opened := range sources {
				_ = opened.Close()
			}
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, nil
}

func (s *FileSource) Name() string {
	return filepath.Base(s.path)
}

// Path returns the path the source was opened from.
func (s *FileSource) Path() string {
	return s.path
}

// Size returns the file size observed at open time.
func (s *FileSource) Size() int64 {
	return s.size
}

func (s *FileSource) ReadRange(ctx context.Context, offset int64, length int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset < 0 || length < 0 {
		return nil, fmt.Errorf("read %s: invalid range offset=%d length=%d", s.Name(), offset, length)
	}
	// Sizes come from the file itself; a corrupt one must not drive the allocation.
	if offset+int64(length) > s.size {
		return nil, fmt.Errorf("read %s [%d,+%d) past end of %d byte file: %w", s.Name(), offset, length, s.size, io.ErrUnexpectedEOF)
	}
	buf := make([]byte, length)
	n, err := s.file.ReadAt(buf, offset)
	if n == length {
		return buf, nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return nil, fmt.Errorf("read %s [%d,+%d): %w", s.Name(), offset, length, err)
}

// Close releases the underlying file.
func (s *FileSource) Close() error {
	if s == nil || s.file == nil {
		return nil
	}
	return s.file.Close()
}

// BytesSource serves ranges from memory.
type BytesSource struct {
	name  string
	data  []byte
	reads atomic.Int64
}

// NewBytesSource wraps data as a named source.
func NewBytesSource(name string, data []byte) *BytesSource {
	return &BytesSource{name: name, data: data}
}

func (s *BytesSource) Name() string {
	return s.name
}

func (s *BytesSource) ReadRange(ctx context.Context, offset int64, length int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.reads.Add(1)
	if offset < 0 || length < 0 || offset+int64(length) > int64(len(s.data)) {
		return nil, fmt.Errorf("read %s [%d,+%d): %w", s.name, offset, length, io.ErrUnexpectedEOF)
	}
	out := make([]byte, length)
	copy(out, s.data[offset:offset+int64(length)])
	return out, nil
}

// Reads reports how many ReadRange calls the source has served.
func (s *BytesSource) Reads() int {
	return int(s.reads.Load())
}

// SortByName orders sources lexicographically by name, the conventional part
// order of split captures.
func SortByName[S Source](sources []S) {
	sort.SliceStable(sources, func(i, j int) bool {
		return sources[i].Name() < sources[j].Name()
	})
}
