// Package activation caches per-account activation bytes, the key material
// required to decrypt legacy aax containers. Keys live one per account in a
// plain text file whose last non-blank line must be exactly 8 hex characters;
// cache misses are filled by invoking the external credential tool.
package activation
