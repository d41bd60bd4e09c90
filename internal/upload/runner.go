package upload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"curator/internal/backend"
	"curator/internal/config"
	"curator/internal/journal"
	"curator/internal/logging"
)

// ErrBusy is returned when another process holds the upload lock.
var ErrBusy = errors.New("another upload is in progress")

// ErrIncomplete is returned when submitting an upload with unsent parts.
var ErrIncomplete = errors.New("upload has unsent parts")

const defaultInitialBackoff = 2 * time.Second

// Backend is the subset of the backend client the runner drives.
type Backend interface {
	UploadPart(ctx context.Context, part backend.PartUpload) (int, error)
	SubmitVideo(ctx context.Context, req backend.SubmitRequest) error
}

// Options tune a Runner.
type Options struct {
	CompressionLevel  int
	MaxBytesPerSecond int64
	// Retries is the number of extra attempts for a part after a transient
	// failure.
	Retries        int
	InitialBackoff time.Duration
	SpoolDir       string
	LockPath       string
}

// OptionsFromConfig maps the upload config section and state paths.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		CompressionLevel:  cfg.Upload.CompressionLevel,
		MaxBytesPerSecond: cfg.Upload.MaxBytesPerSecond,
		Retries:           cfg.Upload.Retries,
		InitialBackoff:    defaultInitialBackoff,
		SpoolDir:          filepath.Join(cfg.Paths.StateDir, "spool"),
		LockPath:          cfg.LockPath(),
	}
}

// Runner uploads captures and records progress in the journal.
type Runner struct {
	client  Backend
	store   *journal.Store
	opts    Options
	limiter *rate.Limiter
	logger  *slog.Logger
	sleep   func(context.Context, time.Duration) error
}

// NewRunner validates opts and returns a runner.
func NewRunner(client Backend, store *journal.Store, opts Options, logger *slog.Logger) (*Runner, error) {
	if client == nil {
		return nil, errors.New("upload: backend client is required")
	}
	if store == nil {
		return nil, errors.New("upload: journal is required")
	}
	if opts.SpoolDir == "" || opts.LockPath == "" {
		return nil, errors.New("upload: spool dir and lock path are required")
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = defaultInitialBackoff
	}
	return &Runner{
		client:  client,
		store:   store,
		opts:    opts,
		limiter: newLimiter(opts.MaxBytesPerSecond),
		logger:  logging.NewComponentLogger(logger, "upload"),
		sleep:   backend.SleepWithContext,
	}, nil
}

// Start journals a new upload of paths under a fresh key and sends every
// part. Parts are ordered by file name.
func (r *Runner) Start(ctx context.Context, paths []string) (*journal.Upload, error) {
	if len(paths) == 0 {
		return nil, errors.New("upload: no captures given")
	}
	ordered := make([]string, 0, len(paths))
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", path, err)
		}
		if _, err := os.Stat(abs); err != nil {
			return nil, fmt.Errorf("capture %s: %w", path, err)
		}
		ordered = append(ordered, abs)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return filepath.Base(ordered[i]) < filepath.Base(ordered[j])
	})

	upload, err := r.store.CreateUpload(ctx, uuid.NewString(), ordered)
	if err != nil {
		return nil, err
	}
	return r.send(ctx, upload)
}

// Resume continues the upload identified by key, skipping acknowledged parts.
func (r *Runner) Resume(ctx context.Context, key string) (*journal.Upload, error) {
	upload, err := r.store.GetByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	switch upload.Status {
	case journal.StatusSubmitted:
		return upload, fmt.Errorf("upload %s already submitted", key)
	case journal.StatusUploaded:
		return upload, nil
	}
	return r.send(ctx, upload)
}

// Submit finalizes a fully uploaded video with the given metadata. The video
// id comes from the journal.
func (r *Runner) Submit(ctx context.Context, key string, req backend.SubmitRequest) (*journal.Upload, error) {
	upload, err := r.store.GetByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if !upload.Complete() || upload.VideoID == 0 {
		return upload, fmt.Errorf("upload %s: %d of %d parts sent: %w", key, upload.PartsSent, upload.NumParts, ErrIncomplete)
	}
	req.VideoID = int(upload.VideoID)
	if err := r.client.SubmitVideo(ctx, req); err != nil {
		return upload, err
	}
	if err := r.store.MarkSubmitted(ctx, upload.ID); err != nil {
		return upload, err
	}
	return r.store.GetByID(ctx, upload.ID)
}

func (r *Runner) send(ctx context.Context, upload *journal.Upload) (*journal.Upload, error) {
	lock := flock.New(r.opts.LockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return upload, fmt.Errorf("acquire upload lock: %w", err)
	}
	if !ok {
		return upload, ErrBusy
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			r.logger.Warn("failed to release upload lock", logging.Error(err))
		}
	}()
	if err := os.MkdirAll(r.opts.SpoolDir, 0o755); err != nil {
		return upload, fmt.Errorf("create spool dir: %w", err)
	}

	ctx = logging.WithUploadKey(ctx, upload.Key)
	logger := logging.WithContext(ctx, r.logger)

	sent, err := r.store.Parts(ctx, upload.ID)
	if err != nil {
		return upload, err
	}
	done := make(map[int]bool, len(sent))
	for _, part := range sent {
		done[part.PartNum] = true
	}

	logger.Info("upload started",
		logging.Int("parts", upload.NumParts),
		logging.Int("already_sent", len(done)),
	)
	start := time.Now()
	videoID := int(upload.VideoID)
	for partNum, path := range upload.Captures {
		if done[partNum] {
			continue
		}
		part, id, err := r.sendPart(ctx, logger, upload, partNum, path, videoID)
		if err != nil {
			r.fail(ctx, logger, upload, err)
			return upload, fmt.Errorf("part %d (%s): %w", partNum, filepath.Base(path), err)
		}
		videoID = id
		upload, err = r.store.RecordPart(ctx, part, int64(id))
		if err != nil {
			return upload, err
		}
	}
	logger.Info("upload complete",
		logging.Int64("video_id", upload.VideoID),
		logging.Duration("elapsed", time.Since(start)),
	)
	return upload, nil
}

func (r *Runner) sendPart(ctx context.Context, logger *slog.Logger, upload *journal.Upload, partNum int, path string, videoID int) (journal.Part, int, error) {
	if partNum > 0 && videoID == 0 {
		return journal.Part{}, 0, errors.New("no video id from the first part")
	}
	spoolPath := filepath.Join(r.opts.SpoolDir, fmt.Sprintf("%s-%03d.avi.gz", upload.Key, partNum))
	defer os.Remove(spoolPath)

	spool, err := compressPart(path, spoolPath, r.opts.CompressionLevel)
	if err != nil {
		return journal.Part{}, 0, err
	}
	logger.Debug("part compressed",
		logging.Part(partNum),
		logging.Int64("raw_bytes", spool.rawBytes),
		logging.Int64("compressed_bytes", spool.compressedBytes),
	)

	backoff := r.opts.InitialBackoff
	for attempt := 0; ; attempt++ {
		id, err := r.sendSpool(ctx, upload.NumParts, partNum, videoID, spool)
		if err == nil {
			logger.Info("part sent",
				logging.Part(partNum),
				logging.Int("video_id", id),
				logging.Int("attempts", attempt+1),
			)
			return journal.Part{
				UploadID:        upload.ID,
				PartNum:         partNum,
				FileName:        filepath.Base(path),
				SHA256:          spool.sha256,
				RawBytes:        spool.rawBytes,
				CompressedBytes: spool.compressedBytes,
			}, id, nil
		}
		if attempt >= r.opts.Retries || !backend.IsRetriable(err) {
			return journal.Part{}, 0, err
		}
		logging.WarnWithContext(logger, "part upload failed; retrying", "upload_retry",
			logging.Part(partNum),
			logging.Int("attempt", attempt+1),
			logging.Duration("backoff", backoff),
			logging.Error(err),
			logging.String(logging.FieldImpact, "upload delayed"),
		)
		if err := r.sleep(ctx, backoff); err != nil {
			return journal.Part{}, 0, err
		}
		backoff *= 2
	}
}

func (r *Runner) sendSpool(ctx context.Context, numParts, partNum, videoID int, spool spooled) (int, error) {
	file, err := os.Open(spool.path)
	if err != nil {
		return 0, fmt.Errorf("open spool file: %w", err)
	}
	defer file.Close()
	return r.client.UploadPart(ctx, backend.PartUpload{
		NumParts: numParts,
		PartNum:  partNum,
		VideoID:  videoID,
		Body:     throttle(ctx, file, r.limiter),
		Size:     spool.compressedBytes,
	})
}

func (r *Runner) fail(ctx context.Context, logger *slog.Logger, upload *journal.Upload, cause error) {
	if err := r.store.MarkFailed(context.WithoutCancel(ctx), upload.ID, cause.Error()); err != nil {
		logger.Warn("failed to record upload failure", logging.Error(err))
	}
	logging.ErrorWithContext(logger, "upload failed", "upload_failed",
		logging.Error(cause),
		logging.String(logging.FieldErrorHint, "run `curator upload --resume "+upload.Key+"` once the cause is fixed"),
	)
}
