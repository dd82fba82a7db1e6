package safety

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Options carries the global safety flags.
type Options struct {
	DryRun bool
	Yes    bool
	Force  bool
}

// Decision is the result of a confirmation.
type Decision int

const (
	Declined Decision = iota
	Proceed
	// Skipped means dry-run: nothing was asked and nothing may change.
	Skipped
)

func (d Decision) String() string {
	switch d {
	case Proceed:
		return "proceed"
	case Skipped:
		return "skipped (dry-run)"
	default:
		return "declined"
	}
}

// Decide asks the operator to confirm a destructive action.
// - DryRun wins over everything and yields Skipped without prompting.
// - Yes yields Proceed without prompting.
// - Otherwise question is written to out and a line read from in; only
//   "y" or "yes" (any case) proceed. A closed input declines.
func Decide(opts Options, in io.Reader, out io.Writer, question string) (Decision, error) {
	if opts.DryRun {
		return Skipped, nil
	}
	if opts.Yes {
		return Proceed, nil
	}
	if out != nil {
		fmt.Fprintf(out, "%s [y/N]: ", strings.TrimSpace(question))
	}
	if in == nil {
		return Declined, nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return Declined, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return Proceed, nil
	default:
		return Declined, nil
	}
}

// Confirm is Decide collapsed to a boolean: only Proceed is true.
func Confirm(opts Options, in io.Reader, out io.Writer, question string) (bool, error) {
	d, err := Decide(opts, in, out, question)
	return d == Proceed, err
}
