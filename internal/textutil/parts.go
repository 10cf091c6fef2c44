package textutil

import "regexp"

// Split downloads name their segments "Title-Part_01" style; separator and
// padding vary between tool versions.
var partSuffixPattern = regexp.MustCompile(`(?i)[-_ ]part[-_ ]?\d+$`)

// StripPartSuffix removes a trailing part-sequence marker from a file stem,
// so every segment of a split download reduces to the same title stem.
func StripPartSuffix(stem string) string {
	return partSuffixPattern.ReplaceAllString(stem, "")
}
