package testsupport

import (
	"path/filepath"
	"testing"

	"curator/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Server.URL = "http://127.0.0.1:0"
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithServer points the config at a test backend and sets credentials.
func WithServer(url, username, token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Server.URL = url
		b.cfg.Server.Username = username
		b.cfg.Server.Token = token
	}
}

// WithStrictParser switches the parser section to strict validation.
func WithStrictParser() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Parser.FrameTags = "dib_only"
		b.cfg.Parser.CountTolerance = 0
		b.cfg.Parser.SkipLeadingJunk = false
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
