package services

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors classifying every failure the pipeline can surface.
//
//   - ErrNotFound: item unknown to the store; terminal, no retry.
//   - ErrLocked: provider denied access; sticky on the item until cleared.
//   - ErrUnavailable: the optional content does not exist; a fact, not a failure.
//   - ErrKeyUnavailable: no usable decryption key from any associated account.
//   - ErrUnsupportedFormat: audio container not aax or aaxc.
//   - ErrExternalTool: nonzero exit or unusable output from an external tool.
//   - ErrTimeout: external tool produced no output within the inactivity window.
//   - ErrIO: file system failure on read/write/delete.
var (
	ErrNotFound          = errors.New("not found")
	ErrLocked            = errors.New("locked")
	ErrUnavailable       = errors.New("unavailable")
	ErrKeyUnavailable    = errors.New("key unavailable")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrExternalTool      = errors.New("external tool error")
	ErrTimeout           = errors.New("timeout")
	ErrIO                = errors.New("io failure")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Terminal reports whether an error should never be retried by callers.
func Terminal(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrUnsupportedFormat) ||
		errors.Is(err, ErrKeyUnavailable)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
