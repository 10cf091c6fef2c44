// Package verify reconciles the catalog with the filesystem: references to
// files that no longer exist are dropped and recorded sizes that drifted are
// refreshed, so downstream stages never act on stale state.
package verify
