package operator

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"mediasort/internal/services"
)

// DefaultShowMore caps the long candidate list revealed by "?".
const DefaultShowMore = 5

// Options configures a Terminal.
type Options struct {
	In  io.Reader
	Out io.Writer

	// Interactive enables prompts. Use IsTerminal to detect it.
	Interactive bool
	// AssumeYes approves the archive plan without asking.
	AssumeYes bool
	Color     bool
	ShowMore  int
}

// Terminal implements the disambiguation, manual input, collision, and
// confirmation collaborators on a reader/writer pair. It serves one
// goroutine at a time.
type Terminal struct {
	in          *bufio.Reader
	out         io.Writer
	interactive bool
	assumeYes   bool
	colorize    bool
	showMore    int
	pending     chan lineResult
}

type lineResult struct {
	line string
	err  error
}

// New builds a Terminal. Nil streams fall back to stdin and stdout.
func New(opts Options) *Terminal {
	in := opts.In
	if in == nil {
		in = os.Stdin
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	showMore := opts.ShowMore
	if showMore <= 0 {
		showMore = DefaultShowMore
	}
	return &Terminal{
		in:          bufio.NewReader(in),
		out:         out,
		interactive: opts.Interactive,
		assumeYes:   opts.AssumeYes,
		colorize:    opts.Color,
		showMore:    showMore,
	}
}

// IsTerminal reports whether stream is a terminal or Cygwin pty.
func IsTerminal(stream any) bool {
	file, ok := stream.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (t *Terminal) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(t.out, format, args...)
}

func (t *Terminal) paint(value string, colors ...text.Color) string {
	if !t.colorize {
		return value
	}
	return text.Colors(colors).Sprint(value)
}

// prompt writes label and reads one trimmed line.
func (t *Terminal) prompt(ctx context.Context, label string) (string, error) {
	t.printf("%s", t.paint(label, text.Bold))
	return t.readLine(ctx)
}

// readLine returns the next input line. A read left pending by a cancelled
// prompt is picked up by the next call rather than started twice.
func (t *Terminal) readLine(ctx context.Context) (string, error) {
	if t.pending == nil {
		ch := make(chan lineResult, 1)
		t.pending = ch
		go func() {
			line, err := t.in.ReadString('\n')
			ch <- lineResult{line: line, err: err}
		}()
	}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-t.pending:
		t.pending = nil
		line := strings.TrimSpace(res.line)
		if res.err != nil {
			if errors.Is(res.err, io.EOF) && line != "" {
				return line, nil
			}
			return "", res.err
		}
		return line, nil
	}
}

// abort builds the error returned when the operator declines or input ends.
func abort(operation, message string, cause error) error {
	return services.Wrap(services.ErrAborted, "operator", operation, message, cause)
}

// inputAbort maps a failed read to an abort. Context errors stay visible in
// the chain so the batch stops.
func inputAbort(operation string, err error) error {
	switch {
	case errors.Is(err, io.EOF):
		return abort(operation, "end of input", nil)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return abort(operation, "cancelled", err)
	default:
		return abort(operation, "read failed", err)
	}
}

func isQuit(answer string) bool {
	switch strings.ToLower(answer) {
	case "", "q", "quit":
		return true
	default:
		return false
	}
}
