package textutil

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// fileNameReplacer replaces filesystem-unsafe characters with safe
// alternatives. Mirrors what the download tool does to titles when naming
// output files, so sanitized titles can be matched against produced files.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

var foldCaser = cases.Fold()

// SanitizeFileName replaces filesystem-unsafe characters in a filename.
// Slashes, backslashes, colons, and asterisks become dashes; other unsafe
// characters are removed. The result is trimmed of surrounding whitespace.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return strings.TrimSpace(fileNameReplacer.Replace(name))
}

// TitleCase renders a value in English title casing for display.
func TitleCase(value string) string {
	return cases.Title(language.English).String(strings.TrimSpace(value))
}

// FoldEqual reports whether two strings are equal under Unicode case folding.
func FoldEqual(a, b string) bool {
	return foldCaser.String(a) == foldCaser.String(b)
}

// FoldHasPrefix reports whether s begins with prefix under case folding.
func FoldHasPrefix(s, prefix string) bool {
	folded := foldCaser.String(s)
	return strings.HasPrefix(folded, foldCaser.String(prefix))
}

// FoldContains reports whether substr occurs in s under case folding.
func FoldContains(s, substr string) bool {
	return strings.Contains(foldCaser.String(s), foldCaser.String(substr))
}
