package config

import (
	"path/filepath"
	"strings"
)

// normalize expands every path field and derives dependent defaults.
func (c *Config) normalize() error {
	pathFields := []*string{
		&c.Paths.ProfileDir,
		&c.Paths.AudioDir,
		&c.Paths.ConvertedDir,
		&c.Paths.ImagesDir,
		&c.Paths.DocumentsDir,
		&c.Paths.LogDir,
		&c.Store.Path,
		&c.History.Path,
	}
	for _, field := range pathFields {
		trimmed := strings.TrimSpace(*field)
		if trimmed == "" {
			*field = ""
			continue
		}
		expanded, err := expandPath(trimmed)
		if err != nil {
			return err
		}
		*field = expanded
	}

	if c.Store.Path == "" && c.Paths.ProfileDir != "" {
		c.Store.Path = filepath.Join(c.Paths.ProfileDir, "library.json")
	}

	c.Audible.Binary = strings.TrimSpace(c.Audible.Binary)
	c.FFmpeg.Binary = strings.TrimSpace(c.FFmpeg.Binary)
	return nil
}
