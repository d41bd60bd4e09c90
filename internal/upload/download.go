package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"curator/internal/fileutil"
	"curator/internal/logging"
)

// PartDownloader fetches the stored parts of a video as raw AVI bytes.
type PartDownloader interface {
	DownloadPart(ctx context.Context, videoID, partNum int, w io.Writer) (int64, error)
}

// DownloadOptions controls DownloadVideo.
type DownloadOptions struct {
	Dir string
	// Refresh downloads parts again even when a copy is already on disk.
	Refresh bool
}

// DownloadVideo unpacks every part of videoID into opts.Dir as
// <video>-<part>.avi and returns the paths in part order. Part numbers are
// zero-padded so the names sort in part order. Parts are written atomically,
// so a complete file on disk is reused unless opts.Refresh is set.
func DownloadVideo(ctx context.Context, client PartDownloader, videoID, numParts int, opts DownloadOptions, logger *slog.Logger) ([]string, error) {
	if client == nil {
		return nil, errors.New("download: backend client is required")
	}
	if videoID <= 0 || numParts < 1 {
		return nil, fmt.Errorf("download: video %d has %d parts", videoID, numParts)
	}
	if opts.Dir == "" {
		return nil, errors.New("download: directory is required")
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("download: create %s: %w", opts.Dir, err)
	}
	logger = logging.NewComponentLogger(logger, "download")

	paths := make([]string, numParts)
	for part := 0; part < numParts; part++ {
		path := filepath.Join(opts.Dir, fmt.Sprintf("%d-%03d.avi", videoID, part))
		paths[part] = path
		if !opts.Refresh {
			if info, err := os.Stat(path); err == nil && info.Size() > 0 {
				logger.Debug("reusing downloaded part", logging.Int("video_id", videoID), logging.Part(part))
				continue
			}
		}
		var written int64
		err := fileutil.WriteFileAtomic(path, 0o644, func(w io.Writer) error {
			n, err := client.DownloadPart(ctx, videoID, part, w)
			written = n
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("download part %d of video %d: %w", part, videoID, err)
		}
		logger.Info("part downloaded",
			logging.Int("video_id", videoID),
			logging.Part(part),
			logging.Int("num_parts", numParts),
			logging.Int64("bytes", written),
		)
	}
	return paths, nil
}
