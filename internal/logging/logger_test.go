package logging_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"curator/internal/config"
	"curator/internal/logging"
)

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("capture parsed", logging.String(logging.FieldCapture, "run.avi"))

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "curator.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "capture parsed") {
		t.Fatalf("expected message in log file, got %q", content)
	}
	if !strings.Contains(string(content), "capture=run.avi") {
		t.Fatalf("expected capture attr in log file, got %q", content)
	}
}

func TestConsoleLoggerOmitsSourceForInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-info.log")

	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "info",
		OutputPaths: []string{logPath, logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message without source")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(content), ".go:") {
		t.Fatalf("expected no source information in info logs, got %q", content)
	}
}

func TestConsoleLoggerPrefixesComponent(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "component.log")

	base, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.NewComponentLogger(base, "avi").Info("movi located", logging.Int64("offset", 4096))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(content)
	if !strings.Contains(line, "INFO avi: movi located") {
		t.Fatalf("expected component prefix, got %q", line)
	}
	if !strings.Contains(line, "offset=4096") {
		t.Fatalf("expected offset attr, got %q", line)
	}
	if strings.Contains(line, "component=") {
		t.Fatalf("component should not be repeated as an attr, got %q", line)
	}
}

func TestJSONLoggerFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")

	logger, err := logging.New(logging.Options{Format: "json", Level: "debug", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("part sent", logging.Part(2), logging.Region("thumbnail"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(content))), &entry); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if entry["msg"] != "part sent" {
		t.Fatalf("unexpected msg: got %v", entry["msg"])
	}
	if entry["level"] != "debug" {
		t.Fatalf("unexpected level: got %v", entry["level"])
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatalf("expected ts key in %v", entry)
	}
	if entry["part"] != float64(2) || entry["region"] != "thumbnail" {
		t.Fatalf("unexpected subject fields: got %v", entry)
	}
	if _, ok := entry["source"]; !ok {
		t.Fatalf("expected source at debug level in %v", entry)
	}
}

func TestConsoleLoggerTagsSubject(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "subject.log")

	base, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	ctx := logging.WithUploadKey(context.Background(), "3f2a")
	uploads := logging.WithContext(ctx, logging.NewComponentLogger(base, "upload"))
	uploads.Info("part uploaded", logging.Int64("bytes", 512), logging.Part(1))
	logging.NewComponentLogger(base, "preview").Info("region rendered", logging.Region("highlight-end"), logging.Int("frame", 9))
	base.Info("capture parsed", logging.PartFile("run 2.avi"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %q", content)
	}
	want := []string{
		"INFO upload [upload_key=3f2a part=1]: part uploaded bytes=512",
		"INFO preview [region=highlight-end]: region rendered frame=9",
		`INFO [part="run 2.avi"]: capture parsed`,
	}
	for i, line := range lines {
		if !strings.HasSuffix(line, want[i]) {
			t.Fatalf("line %d: expected suffix %q, got %q", i, want[i], line)
		}
	}
}

func TestConsoleLoggerSubjectOverridesAndGroups(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "override.log")

	base, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	bound := base.With(logging.Part(0))
	bound.Info("part retried", logging.Part(3))
	bound.WithGroup("stats").Info("part timed", logging.Part(4), logging.Int("attempt", 2))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", content)
	}
	if !strings.HasSuffix(lines[0], "INFO [part=3]: part retried") {
		t.Fatalf("per-call part should win, got %q", lines[0])
	}
	// Grouped keys are dotted and no longer count as subject fields.
	if !strings.HasSuffix(lines[1], "INFO [part=0]: part timed stats.part=4 stats.attempt=2") {
		t.Fatalf("unexpected grouped line %q", lines[1])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestLevelFiltering(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "level.log")

	logger, err := logging.New(logging.Options{Format: "console", Level: "warn", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(content), "hidden") {
		t.Fatalf("info line should be filtered at warn level: %q", content)
	}
	if !strings.Contains(string(content), "shown") {
		t.Fatalf("warn line missing: %q", content)
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "warn.log")

	logger, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "frame count mismatch", "frame_count_mismatch",
		logging.String(logging.FieldImpact, "last frame may be missing"),
	)

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(content))), &entry); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if entry[logging.FieldEventType] != "frame_count_mismatch" {
		t.Fatalf("unexpected event_type: %v", entry[logging.FieldEventType])
	}
	if entry[logging.FieldImpact] != "last frame may be missing" {
		t.Fatalf("caller impact should win: %v", entry[logging.FieldImpact])
	}
	if entry[logging.FieldErrorHint] == nil {
		t.Fatalf("expected default error_hint in %v", entry)
	}
}

func TestErrorWithContextNilLogger(t *testing.T) {
	logging.ErrorWithContext(nil, "ignored", "noop", logging.Error(errors.New("boom")))
}

func TestWithContextAddsUploadKey(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "ctx.log")

	base, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	ctx := logging.WithUploadKey(context.Background(), "f1c3")
	logging.WithContext(ctx, base).Info("uploading")
	logging.WithContext(context.Background(), base).Info("untagged")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", content)
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if entry[logging.FieldUploadKey] != "f1c3" {
		t.Fatalf("unexpected upload key: %v", entry[logging.FieldUploadKey])
	}
	if strings.Contains(lines[1], logging.FieldUploadKey) {
		t.Fatalf("untagged line carries an upload key: %q", lines[1])
	}
}

func TestUploadKeyFromContextEmpty(t *testing.T) {
	ctx := logging.WithUploadKey(context.Background(), "  ")
	if _, ok := logging.UploadKeyFromContext(ctx); ok {
		t.Fatal("blank upload key should not be stored")
	}
}

func TestNewNopDiscards(t *testing.T) {
	logger := logging.NewNop()
	if logger.Enabled(context.Background(), 12) {
		t.Fatal("nop logger should not be enabled")
	}
}
