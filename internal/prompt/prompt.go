package prompt

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

type Prompter interface {
	// Confirm asks a yes/no question, def is used on empty input.
	Confirm(question string, def bool) bool
	// Ask asks for free text, def is used on empty input.
	Ask(question string, def string) string
}

type TerminalCtx struct {
	in  *bufio.Reader
	out io.Writer
}

func Terminal(in io.Reader, out io.Writer) *TerminalCtx {
	return &TerminalCtx{
		in:  bufio.NewReader(in),
		out: out,
	}
}

func (t *TerminalCtx) readLine() (string, bool) {
	line, err := t.in.ReadString('\n')
	if err != nil && line == "" {
		return "", false
	}
	return strings.TrimSpace(line), true
}

func (t *TerminalCtx) Confirm(question string, def bool) bool {
	hint := "[y/N]"
	if def {
		hint = "[Y/n]"
	}

	for {
		fmt.Fprintf(t.out, "%s %s: ", question, hint)
		answer, ok := t.readLine()
		if !ok {
			fmt.Fprintln(t.out)
			return def
		}

		switch strings.ToLower(answer) {
		case "":
			return def
		case "y", "yes":
			return true
		case "n", "no":
			return false
		}
		fmt.Fprintln(t.out, "please answer yes or no")
	}
}

func (t *TerminalCtx) Ask(question string, def string) string {
	if def != "" {
		fmt.Fprintf(t.out, "%s [%s]: ", question, def)
	} else {
		fmt.Fprintf(t.out, "%s: ", question)
	}

	answer, ok := t.readLine()
	if !ok {
		fmt.Fprintln(t.out)
		return def
	}
	if answer == "" {
		return def
	}
	return answer
}

// Static answers every question with its default. Used for unattended runs.
type Static struct{}

func (Static) Confirm(question string, def bool) bool { return def }
func (Static) Ask(question string, def string) string { return def }
