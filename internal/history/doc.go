// Package history persists a ledger of pipeline runs in SQLite. The ledger is
// append-only operational memory: the catalog document stays authoritative
// for item state, the ledger answers "what happened and when".
package history
