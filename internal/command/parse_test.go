package command

import (
	"errors"
	"slices"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		line string
		name string
		args []string
		err  error
	}{
		{line: "Initialize(5)", name: "Initialize", args: []string{"5"}},
		{line: "  Reserve( 4 , 2 )  ", name: "Reserve", args: []string{"4", "2"}},
		{line: "Available()", name: "Available"},
		{line: "Available( )", name: "Available"},
		{line: "ReleaseSeats(-1,x)", name: "ReleaseSeats", args: []string{"-1", "x"}},
		{line: "Quit", err: ErrMalformed},
		{line: "(3)", err: ErrMalformed},
		{line: "Reserve(1, 2", err: ErrMalformed},
		{line: "Reserve((1, 2)", err: ErrMalformed},
		{line: "", err: ErrMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			cmd, err := Parse(tt.line)
			if !errors.Is(err, tt.err) {
				t.Fatalf("Parse(%q) error = %v, want %v", tt.line, err, tt.err)
			}
			if err != nil {
				return
			}
			if cmd.Name != tt.name {
				t.Errorf("name = %q, want %q", cmd.Name, tt.name)
			}
			if !slices.Equal(cmd.Args, tt.args) {
				t.Errorf("args = %q, want %q", cmd.Args, tt.args)
			}
		})
	}
}

func TestCommandInts(t *testing.T) {
	cmd := Command{Name: "Reserve", Args: []string{"4", "-2"}}
	got, ok := cmd.ints(2)
	if !ok || !slices.Equal(got, []int{4, -2}) {
		t.Fatalf("ints(2) = %v, %v", got, ok)
	}
	if _, ok := cmd.ints(1); ok {
		t.Error("ints(1) accepted two arguments")
	}
	if _, ok := (Command{Args: []string{"4", "two"}}).ints(2); ok {
		t.Error("ints accepted a non-integer")
	}
	if s := cmd.String(); s != "Reserve(4, -2)" {
		t.Errorf("String() = %q", s)
	}
}
