// Package convert turns acquired audio containers into M4B audiobooks. It
// resolves decryption credentials per container format, drives the ffmpeg
// client, reassembles multi-part downloads through per-part intermediates, and
// records the converted output in the catalog store. A conversion that fails
// leaves no output reference behind.
package convert
