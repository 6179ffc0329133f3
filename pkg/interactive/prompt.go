// Package interactive collects run decisions the caller left
// unspecified: credentials, workflow choice, report formats, filters
// and email settings. Every prompt loops until it gets a usable answer.
package interactive

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/poreport/poreport/pkg/ui"
)

// Prompter reads answers from an input stream, os.Stdin in production.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// New returns a Prompter on stdin/stderr.
func New() *Prompter {
	return &Prompter{in: bufio.NewReader(os.Stdin), out: os.Stderr}
}

// NewWith returns a Prompter on the given streams, for tests.
func NewWith(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

func (p *Prompter) read() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// String prompts for a free-form answer; empty answers return def.
func (p *Prompter) String(label, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(p.out, "%s: ", label)
	}
	ans, err := p.read()
	if err != nil {
		return "", err
	}
	if ans == "" {
		return def, nil
	}
	return ans, nil
}

// Required prompts until a non-empty answer arrives.
func (p *Prompter) Required(label string) (string, error) {
	for {
		ans, err := p.String(label, "")
		if err != nil {
			return "", err
		}
		if ans != "" {
			return ans, nil
		}
		ui.Warnf("a value is required")
	}
}

// Password prompts without echoing when stdin is a terminal, falling
// back to a plain read otherwise (piped input in automation).
func (p *Prompter) Password(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(p.out)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}
	return p.read()
}

// YesNo prompts until it gets y/yes/n/no, any case.
func (p *Prompter) YesNo(label string) (bool, error) {
	for {
		fmt.Fprintf(p.out, "%s (y/n): ", label)
		ans, err := p.read()
		if err != nil {
			return false, err
		}
		switch strings.ToLower(ans) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		ui.Warnf("please answer 'y' or 'n'")
	}
}

// ChoiceValue prints numbered options and prompts until it gets either
// a 1-based list index or one of the raw values themselves. An answer
// valid as both is taken as an index. Returns the selected value.
func (p *Prompter) ChoiceValue(label string, options []string, values []int) (int, error) {
	fmt.Fprintf(p.out, "%s\n", label)
	for i, opt := range options {
		fmt.Fprintf(p.out, "  %d. %s\n", i+1, opt)
	}
	for {
		fmt.Fprintf(p.out, "Enter option (1-%d) or id: ", len(options))
		ans, err := p.read()
		if err != nil {
			return 0, err
		}
		n, convErr := strconv.Atoi(ans)
		if convErr == nil {
			if n >= 1 && n <= len(options) {
				return values[n-1], nil
			}
			if slices.Contains(values, n) {
				return n, nil
			}
		}
		ui.Warnf("invalid selection")
	}
}
