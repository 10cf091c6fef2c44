// Package acquire orchestrates content downloads: it drives the download
// client for one catalog item at a time, classifies the run into an outcome,
// and records the resulting file references in the catalog store. Locked items
// short-circuit future attempts until explicitly forced.
package acquire
