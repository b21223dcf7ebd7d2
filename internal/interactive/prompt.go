// Package interactive provides interactive prompts for user confirmation.
package interactive

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ErrNotInteractive is returned when a question needs an answer but stdin is not a terminal
var ErrNotInteractive = errors.New("confirmation required but stdin is not a terminal (use --yes)")

// Response represents the user's response to a prompt.
type Response int

const (
	ResponseYes  Response = iota // Proceed
	ResponseNo                   // Refuse this one
	ResponseAll                  // Approve this and every later question
	ResponseQuit                 // Abort
)

// Prompter asks yes/no questions on a terminal.
type Prompter struct {
	out         io.Writer
	scanner     *bufio.Scanner
	interactive bool
	approveAll  bool
}

// NewPrompter creates a prompter with stdin/stdout.
// Questions are refused with ErrNotInteractive when stdin is not a terminal.
func NewPrompter() *Prompter {
	p := NewPrompterWithIO(os.Stdin, os.Stdout)
	p.interactive = IsTerminal()
	return p
}

// NewPrompterWithIO creates a prompter with custom input/output (for testing).
func NewPrompterWithIO(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{
		out:         out,
		scanner:     bufio.NewScanner(in),
		interactive: true,
	}
}

// AutoApprove answers yes to every question without asking.
func (p *Prompter) AutoApprove(v bool) *Prompter {
	p.approveAll = v
	return p
}

// IsTerminal checks if stdin is a terminal (TTY).
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// prompt displays a question and reads the response.
func (p *Prompter) prompt(format string, args ...interface{}) Response {
	if p.approveAll {
		return ResponseYes
	}

	_, _ = fmt.Fprintf(p.out, format, args...)
	_, _ = fmt.Fprint(p.out, " [y/n/a/q] ")

	if !p.scanner.Scan() {
		return ResponseQuit
	}

	input := strings.ToLower(strings.TrimSpace(p.scanner.Text()))
	switch input {
	case "y", "yes":
		return ResponseYes
	case "n", "no":
		return ResponseNo
	case "a", "all":
		p.approveAll = true
		return ResponseYes
	case "q", "quit":
		return ResponseQuit
	default:
		// Default to no for invalid input
		_, _ = fmt.Fprintln(p.out, "Invalid response, skipping.")
		return ResponseNo
	}
}

// Confirm shows title and message and asks whether to proceed.
func (p *Prompter) Confirm(title, message string) (bool, error) {
	if p.approveAll {
		return true, nil
	}
	if !p.interactive {
		return false, ErrNotInteractive
	}

	_, _ = fmt.Fprintf(p.out, "\n%s\n", title)
	for _, line := range strings.Split(message, "\n") {
		if line == "" {
			continue
		}
		_, _ = fmt.Fprintf(p.out, "  %s\n", line)
	}

	switch p.prompt("Proceed?") {
	case ResponseYes:
		return true, nil
	case ResponseQuit:
		_, _ = fmt.Fprintln(p.out, "Aborted.")
		return false, nil
	default:
		return false, nil
	}
}
