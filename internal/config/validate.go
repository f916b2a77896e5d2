package config

import (
	"errors"
	"fmt"

	"nomen/internal/metadata"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateWriter(); err != nil {
		return err
	}
	if err := c.validateSettings(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateWriter() error {
	if c.Writer.BufferSizeKiB < minBufferSizeKiB {
		return fmt.Errorf("writer.buffer_size_kib must be at least %d", minBufferSizeKiB)
	}
	return nil
}

func (c *Config) validateSettings() error {
	seen := make(map[string]struct{}, len(c.Settings.CustomFields))
	for _, f := range c.Settings.CustomFields {
		if err := metadata.ValidCustomTag(f.Tag); err != nil {
			return fmt.Errorf("settings.custom_fields: %w", err)
		}
		if _, dup := seen[f.Tag]; dup {
			return fmt.Errorf("settings.custom_fields: duplicate tag %q", f.Tag)
		}
		seen[f.Tag] = struct{}{}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return errors.New("logging.format must be console or json")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.New("logging.level must be one of debug, info, warn, error")
	}
	return nil
}
