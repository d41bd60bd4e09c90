package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateParser(); err != nil {
		return err
	}
	if err := c.validatePreview(); err != nil {
		return err
	}
	if err := c.validateUpload(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	parsed, err := url.Parse(c.Server.URL)
	if err != nil {
		return fmt.Errorf("server.url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("server.url must use http or https, got %q", c.Server.URL)
	}
	if parsed.Host == "" {
		return fmt.Errorf("server.url must include a host, got %q", c.Server.URL)
	}
	if c.Server.TimeoutSeconds < 0 {
		return errors.New("server.timeout_seconds must not be negative")
	}
	return nil
}

func (c *Config) validateParser() error {
	switch c.Parser.FrameTags {
	case "dib_or_compressed", "lenient", "dib_only", "dib", "strict":
	default:
		return fmt.Errorf("parser.frame_tags: unsupported value %q", c.Parser.FrameTags)
	}
	if c.Parser.PixelHeaderSkip < minPixelSkip || c.Parser.PixelHeaderSkip > maxPixelSkip {
		return fmt.Errorf("parser.pixel_header_skip must be between %d and %d", minPixelSkip, maxPixelSkip)
	}
	if c.Parser.CountTolerance < 0 || c.Parser.CountTolerance > 1 {
		return errors.New("parser.count_tolerance must be 0 or 1")
	}
	return nil
}

func (c *Config) validatePreview() error {
	p := c.Preview
	if p.CropSize < minCropSize {
		return fmt.Errorf("preview.crop_size must be at least %d", minCropSize)
	}
	if uint32(p.CropSize) > c.Parser.Width || uint32(p.CropSize) > c.Parser.Height {
		return fmt.Errorf("preview.crop_size %d exceeds frame size %dx%d", p.CropSize, c.Parser.Width, c.Parser.Height)
	}
	if p.ThumbnailFrame < 0 || p.HighlightStart < 0 || p.HighlightEnd < 0 {
		return errors.New("preview frame indices must not be negative")
	}
	if p.HighlightEnd <= p.HighlightStart {
		return errors.New("preview.highlight_end must be greater than preview.highlight_start")
	}
	if p.AnimationStep < 1 {
		return errors.New("preview.animation_step must be positive")
	}
	return nil
}

func (c *Config) validateUpload() error {
	if c.Upload.CompressionLevel < 0 || c.Upload.CompressionLevel > maxCompressionLevel {
		return fmt.Errorf("upload.compression_level must be between 0 and %d", maxCompressionLevel)
	}
	if c.Upload.MaxBytesPerSecond < 0 {
		return errors.New("upload.max_bytes_per_second must not be negative")
	}
	if c.Upload.Retries < 0 || c.Upload.Retries > maxUploadRetries {
		return fmt.Errorf("upload.retries must be between 0 and %d", maxUploadRetries)
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.NtfyTopic == "" {
		return nil
	}
	parsed, err := url.Parse(c.Notifications.NtfyTopic)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("notifications.ntfy_topic must be an http(s) URL, got %q", c.Notifications.NtfyTopic)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
