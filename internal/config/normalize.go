package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeWriter()
	c.normalizeSettings()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DatabasePath) == "" {
		c.Paths.DatabasePath = filepath.Join(c.Paths.DataDir, defaultDatabaseName)
	}
	if c.Paths.DatabasePath, err = expandPath(c.Paths.DatabasePath); err != nil {
		return fmt.Errorf("paths.database_path: %w", err)
	}
	if strings.TrimSpace(c.Paths.LockDir) == "" {
		c.Paths.LockDir = filepath.Join(c.Paths.DataDir, defaultLockDirName)
	}
	if c.Paths.LockDir, err = expandPath(c.Paths.LockDir); err != nil {
		return fmt.Errorf("paths.lock_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeWriter() {
	if c.Writer.BufferSizeKiB == 0 {
		c.Writer.BufferSizeKiB = defaultBufferSizeKiB
	}
	c.Writer.Embedder = strings.TrimSpace(c.Writer.Embedder)
	if c.Writer.Embedder == "" {
		c.Writer.Embedder = defaultEmbedder
	}
	c.Writer.IXMLVersion = strings.TrimSpace(c.Writer.IXMLVersion)
	if c.Writer.IXMLVersion == "" {
		c.Writer.IXMLVersion = defaultIXMLVersion
	}
}

func (c *Config) normalizeSettings() {
	c.Settings.CreatorID = strings.TrimSpace(c.Settings.CreatorID)
	if c.Settings.CreatorID == "" {
		if value, ok := os.LookupEnv("NOMEN_CREATOR_ID"); ok {
			c.Settings.CreatorID = strings.TrimSpace(value)
		}
	}
	c.Settings.SourceID = strings.TrimSpace(c.Settings.SourceID)
	if c.Settings.SourceID == "" {
		if value, ok := os.LookupEnv("NOMEN_SOURCE_ID"); ok {
			c.Settings.SourceID = strings.TrimSpace(value)
		}
	}
	c.Settings.LibraryName = strings.TrimSpace(c.Settings.LibraryName)
	c.Settings.LibraryTemplate = strings.TrimSpace(c.Settings.LibraryTemplate)
	if c.Settings.LibraryTemplate == "" {
		c.Settings.LibraryTemplate = defaultLibraryTemplate
	}
	for i := range c.Settings.CustomFields {
		f := &c.Settings.CustomFields[i]
		f.Tag = strings.ToUpper(strings.TrimSpace(f.Tag))
		f.Label = strings.TrimSpace(f.Label)
		if f.Label == "" {
			f.Label = f.Tag
		}
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
