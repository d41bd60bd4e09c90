package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"curator/internal/avi"
	"curator/internal/backend"
	"curator/internal/config"
	"curator/internal/journal"
	"curator/internal/logging"
	"curator/internal/notifications"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil {
			if level := strings.ToLower(strings.TrimSpace(*c.logLevelFlag)); level != "" {
				cfg.Logging.Level = level
				if err := cfg.Validate(); err != nil {
					c.configErr = err
					return
				}
			}
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

// loggerValue builds the process logger once. Failures fall back to a no-op
// logger so commands still run when the log directory is unwritable.
func (c *commandContext) loggerValue() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		c.logger = logger
	})
	return c.logger
}

func (c *commandContext) withJournal(fn func(*config.Config, *journal.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := journal.Open(cfg)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer store.Close()
	return fn(cfg, store)
}

func (c *commandContext) backendClient() (*backend.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return backend.NewFromConfig(cfg, c.loggerValue())
}

// notify delivers one event and logs delivery failures without failing the
// command.
func (c *commandContext) notify(ctx context.Context, send func(notifications.Service) error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return
	}
	if err := send(notifications.NewService(cfg)); err != nil {
		logging.WarnWithContext(c.loggerValue(), "notification failed", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "upload result was not announced"),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
		)
	}
}

func (c *commandContext) newParser() (*avi.Parser, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	opts, err := avi.OptionsFromConfig(cfg.Parser)
	if err != nil {
		return nil, fmt.Errorf("parser config: %w", err)
	}
	return avi.NewParser(opts, c.loggerValue())
}

// openCaptures opens paths in part order. The returned close function
// releases every file.
func openCaptures(paths []string) ([]avi.Source, func(), error) {
	files, err := avi.OpenFiles(paths)
	if err != nil {
		return nil, func() {}, err
	}
	avi.SortByName(files)
	sources := make([]avi.Source, len(files))
	for i, f := range files {
		sources[i] = f
	}
	closeAll := func() {
		for _, f := range files {
			_ = f.Close()
		}
	}
	return sources, closeAll, nil
}

// parseCaptures opens and parses paths. Callers must invoke the returned
// close function once frame reads are done.
func (c *commandContext) parseCaptures(ctx context.Context, paths []string) (*avi.Result, []avi.Source, func(), error) {
	parser, err := c.newParser()
	if err != nil {
		return nil, nil, func() {}, err
	}
	sources, closeAll, err := openCaptures(paths)
	if err != nil {
		return nil, nil, closeAll, err
	}
	result, err := parser.Parse(ctx, sources)
	if err != nil {
		closeAll()
		return nil, nil, func() {}, err
	}
	return result, sources, closeAll, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
