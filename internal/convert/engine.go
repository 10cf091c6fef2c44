package convert

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"bindery/internal/catalog"
	"bindery/internal/config"
	"bindery/internal/logging"
	"bindery/internal/services"
	"bindery/internal/services/ffmpeg"
	"bindery/internal/textutil"
)

// Stream-copied output should weigh close to its source; anything under this
// share of the source size is a truncated earlier run and gets redone.
const completeSizeRatio = 0.9

// KeySource resolves the activation bytes for an account.
type KeySource interface {
	Get(ctx context.Context, account string) (string, error)
}

// Options tune a single conversion run.
type Options struct {
	// Force reconverts even when a complete output already exists.
	Force bool
}

// Engine converts acquired audio containers to M4B.
type Engine struct {
	store      *catalog.Store
	transcoder ffmpeg.Transcoder
	keys       KeySource
	cfg        *config.Config
	logger     *slog.Logger
}

// NewEngine wires a conversion engine.
func NewEngine(store *catalog.Store, transcoder ffmpeg.Transcoder, keys KeySource, cfg *config.Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{
		store:      store,
		transcoder: transcoder,
		keys:       keys,
		cfg:        cfg,
		logger:     logging.NewComponentLogger(logger, "convert"),
	}
}

// Convert produces the M4B for one item and records it in the catalog. An
// existing complete output is adopted without transcoding; an incomplete one
// is discarded and redone. Failures leave no output reference behind.
func (e *Engine) Convert(ctx context.Context, asin string, opts Options) (string, error) {
	items := e.store.Load()
	item, ok := items[asin]
	if !ok {
		return "", services.Wrap(services.ErrNotFound, "convert", "lookup", fmt.Sprintf("item %s", asin), nil)
	}
	if !item.HasAudio() {
		return "", services.Wrap(services.ErrNotFound, "convert", "lookup", fmt.Sprintf("item %s has no acquired audio", asin), nil)
	}

	format := item.Format()
	if format != catalog.FormatAAX && format != catalog.FormatAAXC {
		return "", services.Wrap(services.ErrUnsupportedFormat, "convert", "inspect",
			fmt.Sprintf("container %q", format), nil)
	}

	output := filepath.Join(e.cfg.Paths.ConvertedDir, outputStem(item)+".m4b")

	if !opts.Force {
		if adopted, ok := e.adoptExisting(asin, item, output); ok {
			return adopted, nil
		}
	} else {
		os.Remove(output)
	}

	if err := os.MkdirAll(e.cfg.Paths.ConvertedDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrIO, "convert", "prepare", "create output directory", err)
	}

	var err error
	switch format {
	case catalog.FormatAAXC:
		err = e.convertAAXC(ctx, item, output)
	default:
		err = e.convertAAX(ctx, item, output)
	}
	if err != nil {
		os.Remove(output)
		return "", err
	}

	info, statErr := os.Stat(output)
	if statErr != nil {
		return "", services.Wrap(services.ErrIO, "convert", "finalize", "output missing after transcode", statErr)
	}

	if err := e.store.Update(asin, func(it *catalog.Item) error {
		it.ConvertedPath = output
		it.ConvertedSize = info.Size()
		return nil
	}); err != nil {
		return "", err
	}

	e.logger.Info("conversion recorded",
		logging.String("asin", asin),
		logging.String("output", output),
		logging.Int64("size", info.Size()))
	return output, nil
}

// adoptExisting checks for a previously produced output. A file at or above
// the completeness ratio is recorded and reused; a smaller one is a truncated
// run and gets deleted so the conversion starts clean.
func (e *Engine) adoptExisting(asin string, item *catalog.Item, output string) (string, bool) {
	info, err := os.Stat(output)
	if err != nil {
		return "", false
	}
	if item.AudioSize > 0 && float64(info.Size()) < completeSizeRatio*float64(item.AudioSize) {
		e.logger.Warn("discarding incomplete output",
			logging.String("asin", asin),
			logging.Int64("size", info.Size()),
			logging.Int64("source_size", item.AudioSize))
		os.Remove(output)
		return "", false
	}
	if err := e.store.Update(asin, func(it *catalog.Item) error {
		it.ConvertedPath = output
		it.ConvertedSize = info.Size()
		return nil
	}); err != nil {
		return "", false
	}
	e.logger.Info("existing output adopted", logging.String("asin", asin), logging.String("output", output))
	return output, true
}

// convertAAX decrypts with activation bytes, trying every associated account
// in order until one key opens the container.
func (e *Engine) convertAAX(ctx context.Context, item *catalog.Item, output string) error {
	if len(item.Profiles) == 0 {
		return services.Wrap(services.ErrKeyUnavailable, "convert", "decrypt", "item has no associated accounts", nil)
	}

	var lastErr error
	for _, account := range item.Profiles {
		key, err := e.keys.Get(ctx, account)
		if err != nil {
			lastErr = err
			continue
		}
		decrypt := []string{"-activation_bytes", key}
		if err := e.transcode(ctx, item, decrypt, output); err != nil {
			if ctx.Err() != nil {
				return err
			}
			e.logger.Warn("activation bytes rejected",
				logging.String("account", account),
				logging.Error(err))
			lastErr = err
			os.Remove(output)
			continue
		}
		return nil
	}
	if lastErr == nil {
		lastErr = services.Wrap(services.ErrKeyUnavailable, "convert", "decrypt", "no usable key", nil)
	}
	return lastErr
}

// convertAAXC decrypts with the voucher's key/iv pair. No voucher means no
// key: aaxc containers cannot fall back to activation bytes.
func (e *Engine) convertAAXC(ctx context.Context, item *catalog.Item, output string) error {
	if strings.TrimSpace(item.VoucherPath) == "" {
		return services.Wrap(services.ErrKeyUnavailable, "convert", "decrypt", "aaxc item has no voucher", nil)
	}
	voucher, err := readVoucher(item.VoucherPath)
	if err != nil {
		return err
	}
	decrypt := []string{"-audible_key", voucher.Key, "-audible_iv", voucher.IV}
	return e.transcode(ctx, item, decrypt, output)
}

func (e *Engine) transcode(ctx context.Context, item *catalog.Item, decrypt []string, output string) error {
	if item.MultiPart && len(item.Parts) > 1 {
		return e.transcodeParts(ctx, item, decrypt, output)
	}
	return e.transcoder.Transcode(ctx, ffmpeg.Request{
		Input:       item.AudioPath,
		Output:      output,
		CoverPath:   item.CoverPath,
		DecryptArgs: decrypt,
	})
}

// transcodeParts decrypts every part into an intermediate and joins them in
// recorded order. Intermediates live in a temp directory under the output
// root and are removed regardless of outcome.
func (e *Engine) transcodeParts(ctx context.Context, item *catalog.Item, decrypt []string, output string) error {
	workDir, err := os.MkdirTemp(e.cfg.Paths.ConvertedDir, "parts-")
	if err != nil {
		return services.Wrap(services.ErrIO, "convert", "parts", "create working directory", err)
	}
	defer os.RemoveAll(workDir)

	intermediates := make([]string, 0, len(item.Parts))
	for i, part := range item.Parts {
		intermediate := filepath.Join(workDir, fmt.Sprintf("%03d-%s.m4b", i, stemOf(part.Path)))
		req := ffmpeg.Request{
			Input:       part.Path,
			Output:      intermediate,
			DecryptArgs: decrypt,
			AudioOnly:   true,
		}
		if err := e.transcoder.Transcode(ctx, req); err != nil {
			return err
		}
		intermediates = append(intermediates, intermediate)
	}

	return e.transcoder.Concat(ctx, intermediates, output, item.CoverPath)
}

// The joined output of a split download keeps just the title stem.
func outputStem(item *catalog.Item) string {
	stem := stemOf(item.AudioPath)
	if item.MultiPart {
		stem = textutil.StripPartSuffix(stem)
	}
	return stem
}

func stemOf(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
