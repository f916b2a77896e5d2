package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and database locations.
type Paths struct {
	DataDir      string `toml:"data_dir"`
	LogDir       string `toml:"log_dir"`
	DatabasePath string `toml:"database_path"`
	LockDir      string `toml:"lock_dir"`
}

// Writer contains settings for the metadata rewrite.
type Writer struct {
	BufferSizeKiB    int    `toml:"buffer_size_kib"`
	VerifyAfterWrite bool   `toml:"verify_after_write"`
	Embedder         string `toml:"embedder"`
	IXMLVersion      string `toml:"ixml_version"`
}

// CustomField declares a user-defined iXML USER tag.
type CustomField struct {
	Tag   string `toml:"tag"`
	Label string `toml:"label"`
}

// Settings is the user identity and library snapshot consulted when saving.
type Settings struct {
	CreatorID       string        `toml:"creator_id"`
	SourceID        string        `toml:"source_id"`
	LibraryName     string        `toml:"library_name"`
	LibraryTemplate string        `toml:"library_template"`
	CustomFields    []CustomField `toml:"custom_fields"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for Nomen.
//
// Configuration sections by subsystem:
//   - Paths: data, log, database and lock locations
//   - Writer: rewrite buffer, verification and iXML identity
//   - Settings: creator/source identity and custom USER fields
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Writer   Writer   `toml:"writer"`
	Settings Settings `toml:"settings"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/nomen/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("nomen.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data, log and lock directories and the parent
// of the database file.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.DataDir, c.Paths.LogDir, c.Paths.LockDir, filepath.Dir(c.Paths.DatabasePath)}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// BufferSize returns the rewrite stream buffer in bytes.
func (c *Config) BufferSize() int {
	return c.Writer.BufferSizeKiB * 1024
}

// CustomTags returns the configured custom USER tags in declaration order.
func (c *Config) CustomTags() []string {
	tags := make([]string, 0, len(c.Settings.CustomFields))
	for _, f := range c.Settings.CustomFields {
		tags = append(tags, f.Tag)
	}
	return tags
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders cfg as TOML.
func Encode(cfg *Config) ([]byte, error) {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}

// RenderLibrary expands the library template with the configured source ID
// and library name. Unknown placeholders render empty and runs of spaces
// collapse.
func (s Settings) RenderLibrary() string {
	values := map[string]string{
		"source_id":    s.SourceID,
		"library_name": s.LibraryName,
	}
	var b strings.Builder
	tmpl := s.LibraryTemplate
	for {
		open := strings.IndexByte(tmpl, '{')
		if open < 0 {
			b.WriteString(tmpl)
			break
		}
		end := strings.IndexByte(tmpl[open:], '}')
		if end < 0 {
			b.WriteString(tmpl)
			break
		}
		b.WriteString(tmpl[:open])
		b.WriteString(values[tmpl[open+1:open+end]])
		tmpl = tmpl[open+end+1:]
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
