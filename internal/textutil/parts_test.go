package textutil_test

import (
	"testing"

	"bindery/internal/textutil"
)

func TestStripPartSuffix(t *testing.T) {
	cases := map[string]string{
		"Book-Part_01":   "Book",
		"Book-part 2":    "Book",
		"Book_Part12":    "Book",
		"Book":           "Book",
		"Book-license":   "Book-license",
		"Departure Time": "Departure Time",
	}
	for in, want := range cases {
		if got := textutil.StripPartSuffix(in); got != want {
			t.Errorf("StripPartSuffix(%q) = %q, want %q", in, got, want)
		}
	}
}
