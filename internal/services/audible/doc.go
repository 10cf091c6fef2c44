// Package audible wraps the external download tool. It launches one download
// per (account, item, content kind), drains both output streams concurrently,
// classifies every line against a fixed marker table, and resolves the
// produced files either from an explicit path marker or by scanning the
// output directory for recently modified files.
package audible
