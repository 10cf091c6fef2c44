package catalog

import (
	"os"
	"path/filepath"
	"strings"
)

// Audio container formats the pipeline understands.
const (
	FormatAAX  = "aax"
	FormatAAXC = "aaxc"
)

// Part is one segment of a multi-file download, ordered by filename.
type Part struct {
	Path   string `json:"path"`
	Size   int64  `json:"size"`
	Format string `json:"format"`
}

// Item is one catalog entry keyed by its provider id (ASIN). Bibliographic
// fields are merged from the external catalog sync and never drive control
// flow; the pipeline owns the file-reference fields.
type Item struct {
	Title          string   `json:"amazon_title,omitempty"`
	Author         string   `json:"author,omitempty"`
	Subtitle       string   `json:"subtitle,omitempty"`
	Series         string   `json:"series,omitempty"`
	SeriesSequence string   `json:"series_sequence,omitempty"`
	Narrators      string   `json:"narrators,omitempty"`
	RuntimeMinutes string   `json:"runtime_minutes,omitempty"`
	Genres         []string `json:"genres,omitempty"`
	ReleaseDate    string   `json:"release_date,omitempty"`
	PurchaseDate   string   `json:"purchase_date,omitempty"`
	CoverURL       string   `json:"cover_url,omitempty"`

	// Accounts this item is associated with; insertion order is kept but
	// carries no meaning.
	Profiles []string `json:"profiles,omitempty"`

	// Locked means the provider denied access. Sticky until cleared.
	Locked bool `json:"locked,omitempty"`

	AudioPath   string `json:"audible_file,omitempty"`
	AudioSize   int64  `json:"audible_size,omitempty"`
	AudioFormat string `json:"audible_format,omitempty"`
	VoucherPath string `json:"voucher_file,omitempty"`

	// MultiPart downloads record every segment; AudioPath mirrors the first
	// part while AudioSize carries the aggregate of all parts.
	MultiPart bool   `json:"is_multi_part,omitempty"`
	Parts     []Part `json:"parts,omitempty"`

	ConvertedPath string `json:"m4b_file,omitempty"`
	ConvertedSize int64  `json:"m4b_size,omitempty"`

	CoverPath string `json:"cover_path,omitempty"`

	DocumentPath string `json:"pdf_file,omitempty"`
	DocumentSize int64  `json:"pdf_size,omitempty"`
	// DocumentAvailable is a tri-state: nil means unknown, false means the
	// provider has no companion document for this item.
	DocumentAvailable *bool `json:"pdf_available,omitempty"`
}

// HasAudio reports whether an audio container has been acquired.
func (i *Item) HasAudio() bool {
	return strings.TrimSpace(i.AudioPath) != ""
}

// Format returns the audio container format, inferring it from the file
// extension when not recorded. Empty when unknown.
func (i *Item) Format() string {
	if i.AudioFormat != "" {
		return i.AudioFormat
	}
	switch strings.ToLower(filepath.Ext(i.AudioPath)) {
	case ".aax":
		return FormatAAX
	case ".aaxc":
		return FormatAAXC
	default:
		return ""
	}
}

// AddProfile associates an account with the item if not already present.
func (i *Item) AddProfile(account string) {
	account = strings.TrimSpace(account)
	if account == "" {
		return
	}
	for _, existing := range i.Profiles {
		if existing == account {
			return
		}
	}
	i.Profiles = append(i.Profiles, account)
}

// ClearAudio drops the audio reference and every field that depends on it.
func (i *Item) ClearAudio() {
	i.AudioPath = ""
	i.AudioSize = 0
	i.AudioFormat = ""
	i.VoucherPath = ""
	i.MultiPart = false
	i.Parts = nil
}

// ClearConverted drops the converted-audio reference.
func (i *Item) ClearConverted() {
	i.ConvertedPath = ""
	i.ConvertedSize = 0
}

// FilePaths lists every file the item references, parts included.
func (i *Item) FilePaths() []string {
	var paths []string
	add := func(p string) {
		if strings.TrimSpace(p) != "" {
			paths = append(paths, p)
		}
	}
	add(i.AudioPath)
	for _, part := range i.Parts {
		if part.Path != i.AudioPath {
			add(part.Path)
		}
	}
	add(i.VoucherPath)
	add(i.ConvertedPath)
	add(i.CoverPath)
	add(i.DocumentPath)
	return paths
}

// RemoveFiles deletes every referenced file best-effort and returns the paths
// that could not be removed. Missing files do not count as failures.
func (i *Item) RemoveFiles() []string {
	var failed []string
	for _, path := range i.FilePaths() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			failed = append(failed, path)
		}
	}
	return failed
}
