package services

import (
	"errors"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	base := errors.New("exit status 1")
	err := Wrap(ErrExternalTool, "audible", "download", "tool failed", base)
	if !errors.Is(err, ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped base error, got %v", err)
	}
}

func TestWrapNilMarkerDefaults(t *testing.T) {
	err := Wrap(nil, "ffmpeg", "transcode", "", nil)
	if !errors.Is(err, ErrExternalTool) {
		t.Fatalf("expected default marker, got %v", err)
	}
}

func TestTerminal(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{Wrap(ErrNotFound, "store", "resolve", "", nil), true},
		{Wrap(ErrUnsupportedFormat, "convert", "infer", "", nil), true},
		{Wrap(ErrKeyUnavailable, "activation", "get", "", nil), true},
		{Wrap(ErrTimeout, "audible", "download", "", nil), false},
		{Wrap(ErrExternalTool, "audible", "download", "", nil), false},
	}
	for _, tc := range cases {
		if got := Terminal(tc.err); got != tc.want {
			t.Fatalf("Terminal(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}
