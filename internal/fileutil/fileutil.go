package fileutil

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
)

// HashFile streams path through SHA256 and returns the hex digest and size.
func HashFile(path string) (string, int64, error) {
	in, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer in.Close()

	hasher := sha256.New()
	n, err := io.Copy(hasher, in)
	if err != nil {
		return "", 0, fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), n, nil
}

// HashingWriter forwards writes to an underlying writer while counting bytes
// and computing their SHA256.
type HashingWriter struct {
	w       io.Writer
	hasher  hash.Hash
	written int64
}

// NewHashingWriter wraps w. A nil w only hashes.
func NewHashingWriter(w io.Writer) *HashingWriter {
	if w == nil {
		w = io.Discard
	}
	return &HashingWriter{w: w, hasher: sha256.New()}
}

func (h *HashingWriter) Write(p []byte) (int, error) {
	n, err := h.w.Write(p)
	h.hasher.Write(p[:n])
	h.written += int64(n)
	return n, err
}

// Sum returns the hex SHA256 of everything written so far.
func (h *HashingWriter) Sum() string {
	return hex.EncodeToString(h.hasher.Sum(nil))
}

// Written returns the number of bytes written so far.
func (h *HashingWriter) Written() int64 {
	return h.written
}

// WriteFileAtomic writes path through a temp file in the same directory and
// renames it into place, so readers never observe a partial file. The temp
// file is removed on any failure.
func WriteFileAtomic(path string, mode os.FileMode, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	if err := write(tmp); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Chmod(mode); err != nil {
		cleanup()
		return fmt.Errorf("chmod %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
