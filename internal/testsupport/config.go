package testsupport

import (
	"path/filepath"
	"testing"

	"nomen/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config whose data, log, lock and database paths live in
// a per-test temp directory.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.LockDir = filepath.Join(base, "data", "locks")
	cfgVal.Paths.DatabasePath = filepath.Join(base, "data", "nomen.db")

	builder := &configBuilder{t: t, baseDir: base, cfg: &cfgVal}
	for _, opt := range opts {
		opt(builder)
	}
	if err := builder.cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return builder.cfg
}

// WithSettings overrides the [settings] identity values.
func WithSettings(creatorID, sourceID, libraryName string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Settings.CreatorID = creatorID
		b.cfg.Settings.SourceID = sourceID
		b.cfg.Settings.LibraryName = libraryName
	}
}

// WithVerify toggles read-back verification after writes.
func WithVerify(enabled bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Writer.VerifyAfterWrite = enabled
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
