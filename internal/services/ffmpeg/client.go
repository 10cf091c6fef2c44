package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"bindery/internal/services"
)

// Request describes one remux run from an encrypted container to M4B.
type Request struct {
	Input  string
	Output string
	// CoverPath embeds the image as an attached picture when set.
	CoverPath string
	// DecryptArgs are input options placed before -i, e.g. activation bytes
	// or an aaxc key/iv pair. Empty for already-decrypted intermediates.
	DecryptArgs []string
	// AudioOnly maps only the audio stream. Used for per-part intermediates
	// that are later concatenated.
	AudioOnly bool
}

// Transcoder is the behaviour the conversion engine needs from this client.
type Transcoder interface {
	Transcode(ctx context.Context, req Request) error
	Concat(ctx context.Context, inputs []string, output, coverPath string) error
}

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) (string, error)
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

// Client wraps ffmpeg CLI interactions.
type Client struct {
	binary string
	exec   Executor
}

// New constructs an ffmpeg client.
func New(binary string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("ffmpeg binary required")
	}
	client := &Client{binary: binary, exec: commandExecutor{}}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Transcode remuxes one input container into the requested output. Audio and
// subtitle streams are copied, never re-encoded; a cover image becomes an
// attached picture on the output.
func (c *Client) Transcode(ctx context.Context, req Request) error {
	if strings.TrimSpace(req.Input) == "" {
		return errors.New("input path required")
	}
	if strings.TrimSpace(req.Output) == "" {
		return errors.New("output path required")
	}

	args := []string{"-y", "-hide_banner", "-loglevel", "error"}
	args = append(args, req.DecryptArgs...)
	args = append(args, "-i", req.Input)

	withCover := !req.AudioOnly && strings.TrimSpace(req.CoverPath) != ""
	if withCover {
		args = append(args, "-i", req.CoverPath)
	}

	if req.AudioOnly {
		args = append(args, "-map", "0:a", "-c:a", "copy")
	} else {
		args = append(args, "-map", "0:a", "-map", "0:s?")
		if withCover {
			args = append(args, "-map", "1:v")
		}
		args = append(args, "-c:a", "copy", "-c:s", "copy")
		if withCover {
			args = append(args, "-c:v", "copy", "-disposition:v", "attached_pic")
		}
	}
	args = append(args, req.Output)

	return c.run(ctx, "transcode", req.Output, args)
}

// Concat joins already-decrypted inputs into one output via the concat
// demuxer, attaching the cover when provided. Input order is preserved.
func (c *Client) Concat(ctx context.Context, inputs []string, output, coverPath string) error {
	if len(inputs) == 0 {
		return errors.New("at least one input required")
	}
	if strings.TrimSpace(output) == "" {
		return errors.New("output path required")
	}

	listPath, err := writeConcatList(filepath.Dir(output), inputs)
	if err != nil {
		return services.Wrap(services.ErrIO, "ffmpeg", "concat", "write list file", err)
	}
	defer os.Remove(listPath)

	args := []string{"-y", "-hide_banner", "-loglevel", "error",
		"-f", "concat", "-safe", "0", "-i", listPath}
	withCover := strings.TrimSpace(coverPath) != ""
	if withCover {
		args = append(args, "-i", coverPath)
	}
	args = append(args, "-map", "0:a")
	if withCover {
		args = append(args, "-map", "1:v")
	}
	args = append(args, "-c:a", "copy")
	if withCover {
		args = append(args, "-c:v", "copy", "-disposition:v", "attached_pic")
	}
	args = append(args, output)

	return c.run(ctx, "concat", output, args)
}

func (c *Client) run(ctx context.Context, operation, output string, args []string) error {
	out, err := c.exec.Run(ctx, c.binary, args)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		detail := fmt.Sprintf("produce %s", filepath.Base(output))
		if tail := lastLine(out); tail != "" {
			detail = fmt.Sprintf("%s: %s", detail, tail)
		}
		return services.Wrap(services.ErrExternalTool, "ffmpeg", operation, detail, err)
	}
	return nil
}

// writeConcatList emits a concat demuxer list file next to the output. Single
// quotes in paths use the demuxer's quote-splice escape.
func writeConcatList(dir string, inputs []string) (string, error) {
	f, err := os.CreateTemp(dir, "concat-*.txt")
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, input := range inputs {
		escaped := strings.ReplaceAll(input, "'", `'\''`)
		fmt.Fprintf(&b, "file '%s'\n", escaped)
	}
	if _, err := f.WriteString(b.String()); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func lastLine(out string) string {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	out, err := cmd.CombinedOutput()
	return string(out), err
}

var _ Transcoder = (*Client)(nil)
