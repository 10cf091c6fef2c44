package config

// Default returns the built-in configuration values applied before a config
// file is decoded over them.
func Default() Config {
	return Config{
		Paths: Paths{
			ProfileDir:   "~/.audible",
			AudioDir:     "~/books/aax",
			ConvertedDir: "~/books/m4b",
			ImagesDir:    "~/books/images",
			DocumentsDir: "~/books/pdfs",
			LogDir:       "~/.local/state/bindery/logs",
		},
		Audible: Audible{
			Binary:            "audible",
			InactivityTimeout: 300,
			RecencyWindow:     300,
		},
		FFmpeg: FFmpeg{
			Binary: "ffmpeg",
		},
		History: History{
			Enabled: true,
			Path:    "~/.local/state/bindery/history.db",
		},
		Logging: Logging{
			Format: "console",
			Level:  "info",
		},
		Preflight: Preflight{
			MinFreeGiB: 1,
		},
	}
}
