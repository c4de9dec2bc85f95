package command

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// MaxLineBytes is the longest command line Run executes. Longer lines are
// answered with the malformed-command message and skipped.
const MaxLineBytes = 64 << 10

// Run reads one command per line from r, executes each through s and
// writes its output lines to w. Blank lines are skipped. Processing stops
// after Quit, at end of input, or when ctx is cancelled. Output written
// before an error is always flushed.
func Run(ctx context.Context, s *Session, r io.Reader, w io.Writer) error {
	out := bufio.NewWriter(w)
	err := run(ctx, s, bufio.NewReader(r), out)
	if ferr := out.Flush(); ferr != nil && err == nil {
		err = fmt.Errorf("write output: %w", ferr)
	}
	return err
}

func run(ctx context.Context, s *Session, in *bufio.Reader, out io.Writer) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, tooLong, rerr := readLine(in)
		if rerr != nil && !errors.Is(rerr, io.EOF) {
			return fmt.Errorf("read commands: %w", rerr)
		}

		var quit bool
		switch line = strings.TrimSpace(line); {
		case tooLong:
			s.log.Warn().Msg("command line too long, skipped")
			if _, err := fmt.Fprintln(out, msgMalformed); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
		case line != "":
			res, err := s.Execute(ctx, line)
			if _, werr := fmt.Fprintln(out, res.Output); werr != nil {
				return fmt.Errorf("write output: %w", werr)
			}
			if err != nil {
				return err
			}
			quit = res.Quit
		}
		if quit || rerr != nil {
			return nil
		}
	}
}

// readLine returns the next line without its terminator. A line longer
// than MaxLineBytes is consumed but not kept, and tooLong is set. err is
// io.EOF on the last line of input.
func readLine(r *bufio.Reader) (line string, tooLong bool, err error) {
	var buf []byte
	for {
		chunk, err := r.ReadSlice('\n')
		if !tooLong {
			if len(buf)+len(chunk) > MaxLineBytes+1 {
				tooLong, buf = true, nil
			} else {
				buf = append(buf, chunk...)
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return strings.TrimRight(string(buf), "\r\n"), tooLong, err
	}
}
