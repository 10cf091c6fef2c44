package activation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"bindery/internal/logging"
	"bindery/internal/services"
)

// Executor abstracts credential tool execution for testability.
type Executor interface {
	Output(ctx context.Context, binary string, args []string) (string, error)
}

// Option configures the cache.
type Option func(*Cache)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Cache) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Cache resolves activation bytes per account, backed by files on disk.
type Cache struct {
	dir    string
	binary string
	exec   Executor
	logger *slog.Logger
}

// NewCache constructs a cache storing key files under dir and fetching
// misses with the given tool binary.
func NewCache(dir, binary string, logger *slog.Logger, opts ...Option) *Cache {
	c := &Cache{
		dir:    dir,
		binary: binary,
		exec:   commandExecutor{},
		logger: logging.NewComponentLogger(logger, "activation"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the activation bytes for an account. The on-disk file is
// trusted only when its last non-blank line validates as 8 hex characters;
// anything else counts as a miss and triggers a fetch from the external
// tool. Every failure path yields ErrKeyUnavailable so the caller can try
// the item's other accounts.
func (c *Cache) Get(ctx context.Context, account string) (string, error) {
	account = strings.TrimSpace(account)
	if account == "" {
		return "", services.Wrap(services.ErrKeyUnavailable, "activation", "get", "empty account", nil)
	}

	path := c.keyPath(account)
	if key, ok := c.readKeyFile(path); ok {
		return key, nil
	}

	c.logger.Info("fetching activation bytes", logging.String("account", account))
	output, err := c.exec.Output(ctx, c.binary, []string{"-P", account, "activation-bytes"})
	if err != nil {
		return "", services.Wrap(services.ErrKeyUnavailable, "activation", "fetch",
			fmt.Sprintf("account %s", account), err)
	}

	key := lastNonBlankLine(output)
	if !validKey(key) {
		return "", services.Wrap(services.ErrKeyUnavailable, "activation", "fetch",
			fmt.Sprintf("account %s: tool returned %q", account, key), nil)
	}

	if err := c.writeKeyFile(path, key); err != nil {
		// The key itself is usable even when persisting fails.
		c.logger.Warn("could not persist activation bytes",
			logging.String("account", account),
			logging.Error(err))
	}
	return key, nil
}

func (c *Cache) keyPath(account string) string {
	return filepath.Join(c.dir, "activation_bytes_"+account)
}

func (c *Cache) readKeyFile(path string) (string, bool) {
	lock := flock.New(path + ".lock")
	if err := lock.RLock(); err == nil {
		defer func() { _ = lock.Unlock() }()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			c.logger.Warn("key file unreadable, refetching", logging.String("path", path), logging.Error(err))
		}
		return "", false
	}
	key := lastNonBlankLine(string(data))
	if !validKey(key) {
		c.logger.Warn("invalid activation bytes on disk, refetching", logging.String("path", path))
		return "", false
	}
	return key, true
}

func (c *Cache) writeKeyFile(path, key string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return err
	}
	defer func() { _ = lock.Unlock() }()
	return os.WriteFile(path, []byte(key+"\n"), 0o600)
}

func lastNonBlankLine(output string) string {
	lines := strings.Split(output, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}

func validKey(key string) bool {
	if len(key) != 8 {
		return false
	}
	for _, r := range key {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}

type commandExecutor struct{}

func (commandExecutor) Output(ctx context.Context, binary string, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return "", fmt.Errorf("%w: %s", err, detail)
		}
		return "", err
	}
	return stdout.String(), nil
}
