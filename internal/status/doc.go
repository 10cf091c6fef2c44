// Package status tracks in-flight pipeline work for display. State lives in
// memory only; nothing here survives a process restart.
package status
