package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Paths.ProfileDir) == "" {
		return errors.New("paths.profile_dir is required")
	}
	if strings.TrimSpace(c.Paths.AudioDir) == "" {
		return errors.New("paths.audio_dir is required")
	}
	if strings.TrimSpace(c.Paths.ConvertedDir) == "" {
		return errors.New("paths.converted_dir is required")
	}
	if strings.TrimSpace(c.Store.Path) == "" {
		return errors.New("store.path is required")
	}
	if c.Audible.Binary == "" {
		return errors.New("audible.binary is required")
	}
	if c.FFmpeg.Binary == "" {
		return errors.New("ffmpeg.binary is required")
	}
	if c.Audible.InactivityTimeout < 0 {
		return fmt.Errorf("audible.inactivity_timeout must be >= 0, got %d", c.Audible.InactivityTimeout)
	}
	if c.Audible.RecencyWindow <= 0 {
		return fmt.Errorf("audible.recency_window must be > 0, got %d", c.Audible.RecencyWindow)
	}
	if c.History.Enabled && strings.TrimSpace(c.History.Path) == "" {
		return errors.New("history.path is required when history is enabled")
	}
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	if c.Preflight.MinFreeGiB < 0 {
		return fmt.Errorf("preflight.min_free_gib must be >= 0, got %d", c.Preflight.MinFreeGiB)
	}
	return nil
}
