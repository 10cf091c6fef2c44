package main

import (
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"bindery/internal/activation"
	"bindery/internal/catalog"
	"bindery/internal/config"
	"bindery/internal/history"
	"bindery/internal/logging"
	"bindery/internal/services/audible"
	"bindery/internal/services/ffmpeg"
	"bindery/internal/status"
)

type commandContext struct {
	configFlag *string

	// tracker carries live per-item operation state; download and convert
	// feed it, status and show read it.
	tracker *status.Tracker

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	log        *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		tracker:    status.NewTracker(),
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// logger builds the shared file logger. CLI output goes to stdout via the
// commands themselves; the log file carries the structured trail.
func (c *commandContext) logger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.log, c.loggerErr = logging.New(logging.Options{
			Level:       cfg.Logging.Level,
			Format:      cfg.Logging.Format,
			OutputPaths: []string{filepath.Join(cfg.Paths.LogDir, "bindery.log")},
		})
	})
	return c.log, c.loggerErr
}

func (c *commandContext) openStore() (*catalog.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.logger()
	if err != nil {
		return nil, err
	}
	return catalog.NewStore(cfg.Store.Path, logger), nil
}

// openHistory returns the run ledger, or nil when disabled in config.
func (c *commandContext) openHistory() (*history.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.History.Enabled {
		return nil, nil
	}
	return history.Open(cfg.History.Path)
}

func (c *commandContext) newDownloader() (*audible.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return audible.New(cfg.Audible.Binary, cfg.Audible.InactivityTimeout, cfg.Audible.RecencyWindow)
}

func (c *commandContext) newTranscoder() (*ffmpeg.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return ffmpeg.New(cfg.FFmpeg.Binary)
}

func (c *commandContext) newKeySource() (*activation.Cache, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.logger()
	if err != nil {
		return nil, err
	}
	return activation.NewCache(cfg.Paths.ProfileDir, cfg.Audible.Binary, logger), nil
}
