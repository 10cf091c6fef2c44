package main

import (
	"context"
	"fmt"
	"sort"
	"time"

	"bindery/internal/catalog"
	"bindery/internal/history"
	"bindery/internal/preflight"
)

// selectItems resolves the target item ids for a batch command: explicit args
// win, otherwise every catalog item matching the predicate, in stable order.
func selectItems(args []string, store *catalog.Store, predicate func(*catalog.Item) bool) []string {
	if len(args) > 0 {
		return args
	}
	items := store.Load()
	var ids []string
	for id, item := range items {
		if predicate == nil || predicate(item) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// reportPreflight prints failed checks and reports overall readiness.
func reportPreflight(results []preflight.Result, printf func(format string, a ...any)) bool {
	if preflight.Passed(results) {
		return true
	}
	for _, result := range results {
		if !result.Passed {
			printf("preflight failed: %s: %s\n", result.Name, result.Detail)
		}
	}
	return false
}

// recordRun appends to the ledger when it is enabled, logging nothing on a
// nil store.
func recordRun(ctx context.Context, ledger *history.Store, run history.Run) {
	if ledger == nil {
		return
	}
	run.FinishedAt = time.Now()
	_, _ = ledger.Record(ctx, run)
}

func humanSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(size)/float64(div), "KMGTPE"[exp])
}
