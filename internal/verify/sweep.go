package verify

import (
	"context"
	"log/slog"
	"os"
	"sort"

	"bindery/internal/catalog"
	"bindery/internal/logging"
)

// Report summarizes one verification sweep.
type Report struct {
	Checked  int
	Repaired int
	// Dropped lists the file references removed, for operator review.
	Dropped []string
}

// Sweeper reconciles catalog state with the filesystem.
type Sweeper struct {
	store  *catalog.Store
	logger *slog.Logger
}

// NewSweeper wires a verification sweeper.
func NewSweeper(store *catalog.Store, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Sweeper{store: store, logger: logging.NewComponentLogger(logger, "verify")}
}

// Sweep checks every item and persists all repairs in a single save. Items in
// good shape are untouched; a sweep over a clean catalog writes nothing new.
func (s *Sweeper) Sweep(ctx context.Context) (Report, error) {
	items := s.store.Load()

	report := Report{Checked: len(items)}
	dirty := false

	ids := make([]string, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		item := items[id]
		changed, dropped := repairItem(item)
		if changed {
			dirty = true
			report.Repaired++
			report.Dropped = append(report.Dropped, dropped...)
			s.logger.Info("item repaired",
				logging.String("id", id),
				logging.Int("dropped", len(dropped)))
		}
	}

	if !dirty {
		return report, nil
	}
	if err := s.store.Save(items); err != nil {
		return report, err
	}
	return report, nil
}

// repairItem fixes one item in place. It reports whether anything changed and
// which file references were dropped.
func repairItem(item *catalog.Item) (bool, []string) {
	changed := false
	var dropped []string

	if item.HasAudio() {
		size, ok := statAudio(item)
		switch {
		case !ok:
			dropped = append(dropped, item.AudioPath)
			item.ClearAudio()
			changed = true
		case size != item.AudioSize:
			item.AudioSize = size
			changed = true
		}
	}

	if item.VoucherPath != "" {
		if _, err := os.Stat(item.VoucherPath); err != nil {
			dropped = append(dropped, item.VoucherPath)
			item.VoucherPath = ""
			changed = true
		}
	}

	if item.ConvertedPath != "" {
		info, err := os.Stat(item.ConvertedPath)
		switch {
		case err != nil:
			dropped = append(dropped, item.ConvertedPath)
			item.ClearConverted()
			changed = true
		case info.Size() != item.ConvertedSize:
			item.ConvertedSize = info.Size()
			changed = true
		}
	}

	if item.CoverPath != "" {
		if _, err := os.Stat(item.CoverPath); err != nil {
			dropped = append(dropped, item.CoverPath)
			item.CoverPath = ""
			changed = true
		}
	}

	if item.DocumentPath != "" {
		info, err := os.Stat(item.DocumentPath)
		switch {
		case err != nil:
			dropped = append(dropped, item.DocumentPath)
			item.DocumentPath = ""
			item.DocumentSize = 0
			changed = true
		case info.Size() != item.DocumentSize:
			item.DocumentSize = info.Size()
			changed = true
		}
	}

	return changed, dropped
}

// statAudio sizes the audio reference. Multi-part items require every part on
// disk; one missing part invalidates the whole download.
func statAudio(item *catalog.Item) (int64, bool) {
	if item.MultiPart && len(item.Parts) > 0 {
		var total int64
		for i := range item.Parts {
			info, err := os.Stat(item.Parts[i].Path)
			if err != nil {
				return 0, false
			}
			item.Parts[i].Size = info.Size()
			total += info.Size()
		}
		return total, true
	}
	info, err := os.Stat(item.AudioPath)
	if err != nil {
		return 0, false
	}
	return info.Size(), true
}
