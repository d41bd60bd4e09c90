package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeServer()
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeParser()
	c.normalizePreview()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeServer() {
	if c.Server.URL == "" || c.Server.URL == defaultServerURL {
		if value, ok := os.LookupEnv(EnvServerURL); ok && strings.TrimSpace(value) != "" {
			c.Server.URL = value
		}
	}
	c.Server.URL = strings.TrimRight(strings.TrimSpace(c.Server.URL), "/")
	if c.Server.URL == "" {
		c.Server.URL = defaultServerURL
	}
	if c.Server.Username == "" {
		if value, ok := os.LookupEnv(EnvUsername); ok {
			c.Server.Username = value
		}
	}
	if c.Server.Token == "" {
		if value, ok := os.LookupEnv(EnvToken); ok {
			c.Server.Token = value
		}
	}
	c.Server.Username = strings.TrimSpace(c.Server.Username)
	c.Server.Token = strings.TrimSpace(c.Server.Token)
	if c.Server.TimeoutSeconds == 0 {
		c.Server.TimeoutSeconds = defaultTimeoutSeconds
	}
}

func (c *Config) normalizePaths() error {
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	var err error
	if c.Paths.StateDir, err = expandPath(strings.TrimSpace(c.Paths.StateDir)); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeParser() {
	c.Parser.FrameTags = strings.ToLower(strings.TrimSpace(c.Parser.FrameTags))
	if c.Parser.FrameTags == "" {
		c.Parser.FrameTags = defaultFrameTags
	}
	if c.Parser.PixelHeaderSkip == 0 {
		c.Parser.PixelHeaderSkip = defaultPixelSkip
	}
	if c.Parser.Width == 0 {
		c.Parser.Width = defaultWidth
	}
	if c.Parser.Height == 0 {
		c.Parser.Height = defaultHeight
	}
}

func (c *Config) normalizePreview() {
	if c.Preview.CropSize == 0 {
		c.Preview.CropSize = defaultCropSize
	}
	if c.Preview.AnimationStep == 0 {
		c.Preview.AnimationStep = defaultAnimationStep
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeoutSeconds <= 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
