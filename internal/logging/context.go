package logging

import (
	"context"
	"log/slog"
	"strings"
)

const (
	FieldComponent = "component"
	// FieldEventType classifies warnings and errors so they can be filtered.
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to try next.
	FieldErrorHint = "error_hint"
	// FieldImpact is what the user loses because of a warning.
	FieldImpact = "impact"
	// FieldUploadKey identifies one multi-part upload across parts and retries.
	FieldUploadKey = "upload_key"
	// FieldPart is a part number, or the capture file holding a part.
	FieldPart = "part"
	// FieldRegion is a preview region: thumbnail, highlight-start or highlight-end.
	FieldRegion = "region"
	// FieldCapture names the capture file a log line is about.
	FieldCapture = "capture"
)

type contextKey struct{}

var uploadKeyContextKey contextKey

// WithUploadKey stores the upload key on ctx for later log enrichment.
func WithUploadKey(ctx context.Context, key string) context.Context {
	key = strings.TrimSpace(key)
	if ctx == nil || key == "" {
		return ctx
	}
	return context.WithValue(ctx, uploadKeyContextKey, key)
}

// UploadKeyFromContext returns the upload key stored by WithUploadKey.
func UploadKeyFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	key, ok := ctx.Value(uploadKeyContextKey).(string)
	return key, ok && key != ""
}

// WithContext returns logger tagged with the upload key carried by ctx.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if key, ok := UploadKeyFromContext(ctx); ok {
		return logger.With(String(FieldUploadKey, key))
	}
	return logger
}
