package fileutil

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

// SHA256("hello world")
const helloSum = "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"

func TestHashFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "capture.avi")
	if err := os.WriteFile(path, []byte("hello world"), 0o644); err != nil {
		t.Fatal(err)
	}

	sum, size, err := HashFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if sum != helloSum {
		t.Fatalf("unexpected digest: got %q want %q", sum, helloSum)
	}
	if size != 11 {
		t.Fatalf("unexpected size: %d", size)
	}
}

func TestHashFile_MissingSource(t *testing.T) {
	if _, _, err := HashFile(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected error for missing source")
	}
}

func TestHashingWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewHashingWriter(&buf)
	if _, err := io.WriteString(w, "hello "); err != nil {
		t.Fatal(err)
	}
	if _, err := io.WriteString(w, "world"); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "hello world" {
		t.Fatalf("content mismatch: got %q", buf.String())
	}
	if w.Sum() != helloSum {
		t.Fatalf("unexpected digest: %q", w.Sum())
	}
	if w.Written() != 11 {
		t.Fatalf("unexpected byte count: %d", w.Written())
	}

	discard := NewHashingWriter(nil)
	_, _ = io.WriteString(discard, "hello world")
	if discard.Sum() != helloSum {
		t.Fatalf("nil writer should still hash, got %q", discard.Sum())
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "thumb.png")

	if err := WriteFileAtomic(path, 0o644, func(w io.Writer) error {
		_, err := io.WriteString(w, "first")
		return err
	}); err != nil {
		t.Fatal(err)
	}
	if err := WriteFileAtomic(path, 0o644, func(w io.Writer) error {
		_, err := io.WriteString(w, "second")
		return err
	}); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "second" {
		t.Fatalf("content mismatch: got %q", got)
	}
}

func TestWriteFileAtomic_FailureKeepsOriginal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "thumb.png")
	if err := os.WriteFile(path, []byte("original"), 0o644); err != nil {
		t.Fatal(err)
	}

	boom := errors.New("encode failed")
	err := WriteFileAtomic(path, 0o644, func(w io.Writer) error {
		_, _ = io.WriteString(w, "partial")
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected write error, got %v", err)
	}
	got, _ := os.ReadFile(path)
	if string(got) != "original" {
		t.Fatalf("original should survive, got %q", got)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("temp file left behind: %d entries", len(entries))
	}
}
