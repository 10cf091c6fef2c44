package testsupport

import (
	"path/filepath"
	"testing"

	"bindery/internal/config"
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
	cfgVal.Paths.ProfileDir = filepath.Join(base, "profile")
	cfgVal.Paths.AudioDir = filepath.Join(base, "aax")
	cfgVal.Paths.ConvertedDir = filepath.Join(base, "m4b")
	cfgVal.Paths.ImagesDir = filepath.Join(base, "images")
	cfgVal.Paths.DocumentsDir = filepath.Join(base, "documents")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Store.Path = filepath.Join(base, "profile", "library.json")
	cfgVal.History.Path = filepath.Join(base, "profile", "history.db")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}

	return builder.cfg
}

// WithAudibleBinary overrides the download tool binary on the test config.
func WithAudibleBinary(binary string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Audible.Binary = binary
	}
}

// WithHistoryEnabled switches the run ledger on for the test config.
func WithHistoryEnabled() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.History.Enabled = true
	}
}
