package acquire

import (
	"path/filepath"
	"strings"

	"bindery/internal/catalog"
	"bindery/internal/services/audible"
	"bindery/internal/textutil"
)

// filterByTitle keeps files whose name stem matches the item title after
// filename sanitization, part suffixes stripped. When nothing matches the
// whole set is returned: provider titles drift from file names and dropping
// everything on a mismatch would lose real downloads.
func filterByTitle(files []audible.File, title string) []audible.File {
	want := textutil.SanitizeFileName(strings.TrimSpace(title))
	if want == "" {
		return files
	}
	var matched []audible.File
	for _, f := range files {
		stem := textutil.StripPartSuffix(stemOf(f.Path))
		if textutil.FoldHasPrefix(stem, want) || textutil.FoldHasPrefix(want, stem) {
			matched = append(matched, f)
		}
	}
	if len(matched) == 0 {
		return files
	}
	return matched
}

// buildParts converts downloaded files to catalog parts, preserving the
// client's lexical filename order so playback order survives reassembly.
func buildParts(files []audible.File) ([]catalog.Part, int64) {
	parts := make([]catalog.Part, 0, len(files))
	var total int64
	for _, f := range files {
		parts = append(parts, catalog.Part{Path: f.Path, Size: f.Size, Format: f.Format})
		total += f.Size
	}
	return parts, total
}

func stemOf(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
