// Command bindery manages an audiobook library: it downloads content through
// the provider CLI, converts the encrypted containers to M4B, and keeps the
// catalog document in step with the files on disk.
package main
