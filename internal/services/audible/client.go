package audible

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"bindery/internal/services"
	"bindery/internal/textutil"
)

// Vouchers carry license metadata, not audio; an aaxc file this small cannot
// be an audiobook and is treated as a voucher.
const voucherMaxBytes = 256 * 1024

// File is one artifact produced by a download.
type File struct {
	Path   string
	Size   int64
	Format string
}

// Result summarizes one download run. Marker flags report what the tool said;
// Files holds the resolved artifacts in stable name order.
type Result struct {
	Locked      bool
	NoDocument  bool
	MultiPart   bool
	Files       []File
	VoucherPath string
}

// Downloader is the behaviour the acquisition runner needs from this client.
type Downloader interface {
	Download(ctx context.Context, account, asin string, kind ContentKind, outputDir string, progress func(int)) (Result, error)
}

// Executor abstracts command execution for testability. Implementations must
// drain both output streams concurrently and respect context cancellation.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onLine func(string)) error
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithInactivityTimeout overrides the watchdog duration.
func WithInactivityTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.inactivity = d
	}
}

// WithRecencyWindow overrides how old scanned output files may be.
func WithRecencyWindow(d time.Duration) Option {
	return func(c *Client) {
		c.recency = d
	}
}

// Client wraps download tool CLI interactions.
type Client struct {
	binary     string
	inactivity time.Duration
	recency    time.Duration
	exec       Executor
}

// New constructs a download client. inactivitySeconds bounds how long the
// tool may stay silent before being killed (0 disables the watchdog);
// recencySeconds bounds the output directory scan.
func New(binary string, inactivitySeconds, recencySeconds int, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("download tool binary required")
	}
	client := &Client{
		binary:     binary,
		inactivity: time.Duration(inactivitySeconds) * time.Second,
		recency:    time.Duration(recencySeconds) * time.Second,
		exec:       commandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.recency <= 0 {
		client.recency = 5 * time.Minute
	}
	return client, nil
}

// Download runs the tool for one (account, asin, kind) triple and classifies
// the outcome. A negative marker in the output takes precedence over the
// process exit status; silence on both streams beyond the inactivity window
// kills the process and yields ErrTimeout.
func (c *Client) Download(ctx context.Context, account, asin string, kind ContentKind, outputDir string, progress func(int)) (Result, error) {
	if strings.TrimSpace(asin) == "" {
		return Result{}, errors.New("asin required")
	}
	if !kind.Valid() {
		return Result{}, fmt.Errorf("unknown content kind %q", kind)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return Result{}, services.Wrap(services.ErrIO, "audible", "download", "create output directory", err)
	}

	var args []string
	if account = strings.TrimSpace(account); account != "" {
		args = append(args, "-P", account)
	}
	args = append(args, "download")
	args = append(args, kind.flags()...)
	args = append(args, "--asin", asin, "--output-dir", outputDir)

	runCtx := ctx
	var timedOut atomic.Bool
	var watchdog *time.Timer
	if c.inactivity > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithCancel(ctx)
		defer cancel()
		watchdog = time.AfterFunc(c.inactivity, func() {
			timedOut.Store(true)
			cancel()
		})
		defer watchdog.Stop()
	}

	started := time.Now()
	var result Result
	var markerPath string
	var mu sync.Mutex
	onLine := func(line string) {
		if watchdog != nil {
			watchdog.Reset(c.inactivity)
		}
		m := classify(line)
		mu.Lock()
		switch m.kind {
		case markerProgress:
			if progress != nil {
				progress(m.percent)
			}
		case markerLocked:
			result.Locked = true
		case markerNoDocument:
			result.NoDocument = true
		case markerMultiPart:
			result.MultiPart = true
		case markerSavedPath:
			markerPath = m.path
		}
		mu.Unlock()
	}

	runErr := c.exec.Run(runCtx, c.binary, args, onLine)

	if timedOut.Load() {
		return Result{}, services.Wrap(services.ErrTimeout, "audible", "download",
			fmt.Sprintf("no output for %s", c.inactivity), runErr)
	}
	if ctx.Err() != nil {
		return Result{}, ctx.Err()
	}
	if result.Locked || result.NoDocument {
		// The tool exits nonzero for these; the marker is the real outcome.
		return result, nil
	}
	if runErr != nil {
		return Result{}, services.Wrap(services.ErrExternalTool, "audible", "download",
			fmt.Sprintf("asin %s", asin), runErr)
	}

	files := c.resolveFiles(markerPath, kind, outputDir, started)
	result.Files, result.VoucherPath = splitVouchers(files, kind)
	return result, nil
}

// resolveFiles prefers a marker-derived path and falls back to scanning the
// output directory for files with the kind's extensions modified within the
// recency window, so stale files from unrelated prior runs are not picked up.
// A marker path anchors an existing set, so its co-located siblings
// (vouchers, further parts) are collected with no age cutoff: the marker can
// name any segment of a split download, and an "already exists" set predates
// any recency window.
func (c *Client) resolveFiles(markerPath string, kind ContentKind, outputDir string, started time.Time) []File {
	if markerPath != "" {
		if info, err := os.Stat(markerPath); err == nil && !info.IsDir() {
			files := []File{fileFor(markerPath, info.Size())}
			stem := textutil.StripPartSuffix(stemOf(markerPath))
			for _, f := range scanDir(outputDir, kind.Extensions(), time.Time{}) {
				if f.Path == markerPath {
					continue
				}
				if sameTitleStem(stemOf(f.Path), stem) {
					files = append(files, f)
				}
			}
			sortByBase(files)
			return files
		}
	}
	return scanDir(outputDir, kind.Extensions(), started.Add(-c.recency))
}

// sameTitleStem matches two file stems after part suffixes are stripped,
// prefix-wise in either direction so "Book-license" pairs with "Book".
func sameTitleStem(stem, want string) bool {
	stem = textutil.StripPartSuffix(stem)
	return textutil.FoldHasPrefix(stem, want) || textutil.FoldHasPrefix(want, stem)
}

func scanDir(dir string, extensions []string, cutoff time.Time) []File {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var files []File
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		match := false
		for _, want := range extensions {
			if ext == want {
				match = true
				break
			}
		}
		if !match {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			continue
		}
		files = append(files, fileFor(filepath.Join(dir, entry.Name()), info.Size()))
	}
	sortByBase(files)
	return files
}

// sortByBase orders files lexically by basename, the tool's part-order
// contract.
func sortByBase(files []File) {
	sort.Slice(files, func(i, j int) bool {
		return filepath.Base(files[i].Path) < filepath.Base(files[j].Path)
	})
}

// splitVouchers separates license metadata from audio for audio-kind
// downloads: .voucher files always, and aaxc files under the voucher size
// threshold when a larger same-stem aaxc audio file exists alongside.
func splitVouchers(files []File, kind ContentKind) ([]File, string) {
	if kind != KindAudio || len(files) == 0 {
		return files, ""
	}

	var audio []File
	var vouchers []File
	for _, f := range files {
		switch {
		case f.Format == "voucher":
			vouchers = append(vouchers, f)
		case f.Format == "aaxc" && f.Size > 0 && f.Size < voucherMaxBytes && hasLargerSibling(files, f):
			vouchers = append(vouchers, f)
		default:
			audio = append(audio, f)
		}
	}

	voucherPath := ""
	if len(audio) > 0 && len(vouchers) > 0 {
		stem := textutil.StripPartSuffix(stemOf(audio[0].Path))
		for _, v := range vouchers {
			if sameTitleStem(stemOf(v.Path), stem) {
				voucherPath = v.Path
				break
			}
		}
		if voucherPath == "" {
			voucherPath = vouchers[0].Path
		}
	}
	return audio, voucherPath
}

// hasLargerSibling reports whether another file shares the candidate's title
// stem and is big enough to be actual audio.
func hasLargerSibling(files []File, candidate File) bool {
	stem := textutil.StripPartSuffix(stemOf(candidate.Path))
	for _, f := range files {
		if f.Path == candidate.Path {
			continue
		}
		if f.Size >= voucherMaxBytes && sameTitleStem(stemOf(f.Path), stem) {
			return true
		}
	}
	return false
}

func fileFor(path string, size int64) File {
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	return File{Path: path, Size: size, Format: format}
}

func stemOf(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

type commandExecutor struct{}

// Run launches the binary and feeds every line from both streams into onLine.
// The two streams are drained by independent goroutines into a mutex-guarded
// sink; buffering either one to completion risks deadlock when the tool
// blocks on a full pipe.
func (commandExecutor) Run(ctx context.Context, binary string, args []string, onLine func(string)) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start command: %w", err)
	}

	var mu sync.Mutex
	forward := func(line string) {
		mu.Lock()
		defer mu.Unlock()
		if onLine != nil {
			onLine(line)
		}
	}

	var wg sync.WaitGroup
	scan := func(r io.Reader) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			forward(scanner.Text())
		}
	}
	wg.Add(2)
	go scan(stdout)
	go scan(stderr)
	wg.Wait()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("wait command: %w", err)
	}
	return nil
}

var _ Downloader = (*Client)(nil)
