// Package textutil provides filename sanitization and case-insensitive text
// matching used when pairing download tool output files with catalog items.
package textutil
