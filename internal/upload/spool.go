package upload

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"

	"curator/internal/fileutil"
)

// spooled is a compressed part ready to send.
type spooled struct {
	path            string
	sha256          string
	rawBytes        int64
	compressedBytes int64
}

// compressPart gzips src into dst, hashing the raw capture on the way in and
// counting compressed bytes on the way out.
func compressPart(src, dst string, level int) (spooled, error) {
	in, err := os.Open(src)
	if err != nil {
		return spooled{}, fmt.Errorf("open capture: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return spooled{}, fmt.Errorf("create spool file: %w", err)
	}
	defer func() {
		_ = out.Close()
	}()

	compressed := fileutil.NewHashingWriter(out)
	zw, err := gzip.NewWriterLevel(compressed, level)
	if err != nil {
		return spooled{}, fmt.Errorf("gzip writer: %w", err)
	}
	raw := fileutil.NewHashingWriter(nil)
	if _, err := io.Copy(zw, io.TeeReader(in, raw)); err != nil {
		return spooled{}, fmt.Errorf("compress %s: %w", src, err)
	}
	if err := zw.Close(); err != nil {
		return spooled{}, fmt.Errorf("finish gzip stream: %w", err)
	}
	if err := out.Close(); err != nil {
		return spooled{}, fmt.Errorf("close spool file: %w", err)
	}
	return spooled{
		path:            dst,
		sha256:          raw.Sum(),
		rawBytes:        raw.Written(),
		compressedBytes: compressed.Written(),
	}, nil
}
