// Package catalog defines the library item model and the JSON document store
// shared by every pipeline component.
//
// Consistency model: Load and Save operate on the whole document under
// advisory file locks (shared for read, exclusive for write) and Save is
// atomic via temp-file rename, so readers never observe a torn write. A raw
// Load/mutate/Save sequence is still a read-modify-write race between
// concurrent callers; mutations of a single item should go through
// Store.Update, which serializes the full span per item id within this
// process. Callers running multiple processes remain responsible for not
// issuing overlapping operations against the same item.
package catalog
