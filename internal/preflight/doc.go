// Package preflight provides readiness checks for the binaries and
// filesystem paths the pipeline depends on.
//
// The CLI runs these before batch work and surfaces them in the status
// command; a failed check halts the run before hours are wasted on a doomed
// download or conversion.
package preflight
