// Package command turns text commands such as "Reserve(4, 2)" into venue
// operations and renders their results as the lines written to the
// output.
package command

import (
	"errors"
	"strconv"
	"strings"
)

// ErrMalformed is returned by Parse for a line that is not of the form
// Name(arg, ...).
var ErrMalformed = errors.New("malformed command")

// Command is one parsed input line. Args holds the raw, trimmed argument
// strings; conversion to integers happens at dispatch so that each command
// can report its own argument errors.
type Command struct {
	Name string
	Args []string
}

// String renders the command in canonical form.
func (c Command) String() string {
	return c.Name + "(" + strings.Join(c.Args, ", ") + ")"
}

// Parse splits a line into a command name and its arguments. Empty
// arguments are dropped, so "Available()" and "Available( )" both have no
// arguments.
func Parse(line string) (Command, error) {
	line = strings.TrimSpace(line)
	open := strings.IndexByte(line, '(')
	if open < 0 || !strings.HasSuffix(line, ")") || strings.Count(line, "(") != 1 {
		return Command{}, ErrMalformed
	}
	name := strings.TrimSpace(line[:open])
	if name == "" {
		return Command{}, ErrMalformed
	}
	var args []string
	for _, a := range strings.Split(line[open+1:len(line)-1], ",") {
		if a = strings.TrimSpace(a); a != "" {
			args = append(args, a)
		}
	}
	return Command{Name: name, Args: args}, nil
}

// ints converts c's arguments to integers. It fails unless there are
// exactly n arguments and all of them are integers.
func (c Command) ints(n int) ([]int, bool) {
	if len(c.Args) != n {
		return nil, false
	}
	out := make([]int, n)
	for i, a := range c.Args {
		v, err := strconv.Atoi(a)
		if err != nil {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}
