package acquire

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"bindery/internal/catalog"
	"bindery/internal/config"
	"bindery/internal/logging"
	"bindery/internal/services"
	"bindery/internal/services/audible"
)

// OutcomeKind classifies one acquisition attempt.
type OutcomeKind string

const (
	// OutcomeSuccess means files were downloaded and recorded.
	OutcomeSuccess OutcomeKind = "success"
	// OutcomeSkipped means the artifact was already present.
	OutcomeSkipped OutcomeKind = "skipped"
	// OutcomeLocked means the provider denied access; sticky on the item.
	OutcomeLocked OutcomeKind = "locked"
	// OutcomeUnavailable means the optional content does not exist.
	OutcomeUnavailable OutcomeKind = "unavailable"
	// OutcomeFailed means the attempt errored and may be retried.
	OutcomeFailed OutcomeKind = "failed"
)

// Outcome summarizes one acquisition attempt.
type Outcome struct {
	Kind    OutcomeKind
	Message string
	// Path of the primary recorded file, when any.
	Path string
}

// Options tune a single acquisition run.
type Options struct {
	// Force retries locked items and re-downloads existing artifacts.
	Force bool
	// Progress receives percentages parsed from the tool output.
	Progress func(int)
}

// Runner acquires content for catalog items.
type Runner struct {
	store      *catalog.Store
	downloader audible.Downloader
	cfg        *config.Config
	logger     *slog.Logger
}

// NewRunner wires an acquisition runner.
func NewRunner(store *catalog.Store, downloader audible.Downloader, cfg *config.Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{
		store:      store,
		downloader: downloader,
		cfg:        cfg,
		logger:     logging.NewComponentLogger(logger, "acquire"),
	}
}

// Acquire downloads one content kind for one item and records the result.
// Returned errors cover only attempts worth retrying; refusals and absent
// content come back as outcomes with the item updated accordingly.
func (r *Runner) Acquire(ctx context.Context, account, asin string, kind audible.ContentKind, opts Options) (Outcome, error) {
	items := r.store.Load()
	item, ok := items[asin]
	if !ok {
		return Outcome{}, services.Wrap(services.ErrNotFound, "acquire", "lookup", fmt.Sprintf("item %s", asin), nil)
	}

	if item.Locked && !opts.Force {
		return Outcome{Kind: OutcomeLocked, Message: "item is locked; use force to retry"}, nil
	}
	if !opts.Force {
		if path, done := existingArtifact(item, kind); done {
			return Outcome{Kind: OutcomeSkipped, Message: "already acquired", Path: path}, nil
		}
	}

	outputDir := r.cfg.OutputDir(string(kind))
	r.logger.Info("starting download",
		logging.String("asin", asin),
		logging.String("account", account),
		logging.String("kind", string(kind)),
		logging.String("output_dir", outputDir))

	result, err := r.downloader.Download(ctx, account, asin, kind, outputDir, opts.Progress)
	if err != nil {
		r.logger.Error("download failed", logging.String("asin", asin), logging.Error(err))
		return Outcome{Kind: OutcomeFailed, Message: err.Error()}, err
	}

	switch {
	case result.Locked:
		return r.recordLocked(asin, account)
	case result.NoDocument:
		return r.recordNoDocument(asin)
	case len(result.Files) == 0:
		return r.recordEmpty(asin, account, kind)
	default:
		return r.recordFiles(asin, account, kind, result)
	}
}

// existingArtifact reports whether the item already references a present file
// for the kind. A recorded path whose file vanished does not count.
func existingArtifact(item *catalog.Item, kind audible.ContentKind) (string, bool) {
	var path string
	switch kind {
	case audible.KindAudio:
		path = item.AudioPath
	case audible.KindCover:
		path = item.CoverPath
	case audible.KindDocument:
		if item.DocumentAvailable != nil && !*item.DocumentAvailable {
			return "", true
		}
		path = item.DocumentPath
	}
	if strings.TrimSpace(path) == "" {
		return "", false
	}
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}

func (r *Runner) recordLocked(asin, account string) (Outcome, error) {
	err := r.store.Update(asin, func(item *catalog.Item) error {
		item.Locked = true
		item.AddProfile(account)
		return nil
	})
	if err != nil {
		return Outcome{}, err
	}
	r.logger.Warn("item locked by provider", logging.String("asin", asin))
	return Outcome{Kind: OutcomeLocked, Message: "provider denied access"}, nil
}

func (r *Runner) recordNoDocument(asin string) (Outcome, error) {
	err := r.store.Update(asin, func(item *catalog.Item) error {
		unavailable := false
		item.DocumentAvailable = &unavailable
		item.DocumentPath = ""
		item.DocumentSize = 0
		return nil
	})
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Kind: OutcomeUnavailable, Message: "no companion document"}, nil
}

// recordEmpty handles a clean exit that produced nothing and said nothing. For
// audio that silence almost always means an entitlement problem, so the item
// is treated as locked; for documents it means absence; a cover that yields
// nothing is a plain failure.
func (r *Runner) recordEmpty(asin, account string, kind audible.ContentKind) (Outcome, error) {
	switch kind {
	case audible.KindDocument:
		return r.recordNoDocument(asin)
	case audible.KindCover:
		err := services.Wrap(services.ErrExternalTool, "acquire", "download", "no cover produced", nil)
		return Outcome{Kind: OutcomeFailed, Message: err.Error()}, err
	default:
		return r.recordLocked(asin, account)
	}
}

func (r *Runner) recordFiles(asin, account string, kind audible.ContentKind, result audible.Result) (Outcome, error) {
	var primary string
	err := r.store.Update(asin, func(item *catalog.Item) error {
		files := result.Files
		if kind == audible.KindAudio {
			files = filterByTitle(files, item.Title)
		}
		if len(files) == 0 {
			return services.Wrap(services.ErrExternalTool, "acquire", "record", "no matching files", nil)
		}

		switch kind {
		case audible.KindAudio:
			item.ClearAudio()
			item.ClearConverted()
			if result.MultiPart || len(files) > 1 {
				parts, total := buildParts(files)
				item.MultiPart = true
				item.Parts = parts
				item.AudioPath = parts[0].Path
				item.AudioSize = total
				item.AudioFormat = parts[0].Format
			} else {
				item.AudioPath = files[0].Path
				item.AudioSize = files[0].Size
				item.AudioFormat = files[0].Format
			}
			item.VoucherPath = result.VoucherPath
			item.Locked = false
			primary = item.AudioPath
		case audible.KindCover:
			item.CoverPath = files[0].Path
			primary = item.CoverPath
		case audible.KindDocument:
			available := true
			item.DocumentAvailable = &available
			item.DocumentPath = files[0].Path
			item.DocumentSize = files[0].Size
			primary = item.DocumentPath
		}
		item.AddProfile(account)
		return nil
	})
	if err != nil {
		return Outcome{Kind: OutcomeFailed, Message: err.Error()}, err
	}

	r.logger.Info("download recorded",
		logging.String("asin", asin),
		logging.String("kind", string(kind)),
		logging.String("path", primary))
	return Outcome{Kind: OutcomeSuccess, Path: primary}, nil
}
