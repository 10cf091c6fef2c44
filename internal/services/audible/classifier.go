package audible

import (
	"regexp"
	"strconv"
	"strings"
)

// markerKind classifies one line of download tool output.
type markerKind int

const (
	markerNone markerKind = iota
	// markerProgress carries a percentage from the tool's progress bar.
	markerProgress
	// markerLocked covers every phrase meaning the provider refused to
	// deliver content: not entitled, not downloadable, nothing produced.
	markerLocked
	// markerNoDocument means the item has no companion document. Distinct
	// from locked: there is nothing to fetch, access was not denied.
	markerNoDocument
	// markerSavedPath carries the authoritative path of a produced file.
	markerSavedPath
	// markerMultiPart means the tool split the download into several files.
	markerMultiPart
)

// marker is the classification of a single output line.
type marker struct {
	kind    markerKind
	percent int
	path    string
}

// The download tool reports outcomes only as human-readable messages, so
// classification is substring and pattern matching against a fixed table.
// Keeping the whole table here keeps the fragile part testable in isolation
// from process plumbing.
var (
	lockedPhrases = []string{
		"this title is not available",
		"no downloadable content found",
		"is not downloadable",
		"license request failed",
		"title not in library",
	}

	noDocumentPhrases = []string{
		"no companion pdf",
		"no pdf available",
		"does not contain a pdf",
		"has no pdf",
	}

	multiPartPhrases = []string{
		"downloaded in parts",
		"download in parts",
	}

	// "Downloaded in 3 parts" style messages.
	multiPartPattern = regexp.MustCompile(`(?i)\bdownload(?:ed)? in \d+ parts\b`)

	// "File /path/book.aax already exists." and
	// "File downloaded to /path/book.aax." style messages.
	alreadyExistsPattern = regexp.MustCompile(`(?i)\bfile\s+(.+?)\s+already exists`)
	savedToPattern       = regexp.MustCompile(`(?i)\b(?:downloaded|saved) (?:to|in)[: ]\s*(.+?)\.?\s*$`)

	// tqdm-style progress bars: "  42%|####      | ..." but accept a bare
	// percentage too.
	progressPattern = regexp.MustCompile(`(\d{1,3})%`)
)

// classify maps one output line to a marker. Unrecognized lines return
// markerNone; progress is never an error.
func classify(line string) marker {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return marker{kind: markerNone}
	}
	lowered := strings.ToLower(trimmed)

	for _, phrase := range lockedPhrases {
		if strings.Contains(lowered, phrase) {
			return marker{kind: markerLocked}
		}
	}
	for _, phrase := range noDocumentPhrases {
		if strings.Contains(lowered, phrase) {
			return marker{kind: markerNoDocument}
		}
	}
	for _, phrase := range multiPartPhrases {
		if strings.Contains(lowered, phrase) {
			return marker{kind: markerMultiPart}
		}
	}
	if multiPartPattern.MatchString(trimmed) {
		return marker{kind: markerMultiPart}
	}

	if m := alreadyExistsPattern.FindStringSubmatch(trimmed); m != nil {
		return marker{kind: markerSavedPath, path: strings.TrimSpace(m[1])}
	}
	if m := savedToPattern.FindStringSubmatch(trimmed); m != nil {
		return marker{kind: markerSavedPath, path: strings.TrimSpace(m[1])}
	}

	if m := progressPattern.FindStringSubmatch(trimmed); m != nil {
		percent, err := strconv.Atoi(m[1])
		if err == nil && percent >= 0 && percent <= 100 {
			return marker{kind: markerProgress, percent: percent}
		}
	}

	return marker{kind: markerNone}
}
