// Package approval prompts the operator before a high-threat command is
// accepted. Non-interactive sessions deny automatically.
package approval

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

type Result struct {
	Approved   bool
	UserAction string
}

// Prompt describes the assessment shown to the operator.
type Prompt struct {
	Command     string
	ThreatLevel string
	Patterns    []string
	Warnings    []string
}

func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// Ask prompts on stderr and reads the decision from stdin.
func Ask(p Prompt) Result {
	if !IsInteractive() {
		return Result{Approved: false, UserAction: "auto_deny_non_interactive"}
	}
	return ask(p, os.Stdin, os.Stderr)
}

func ask(p Prompt, in io.Reader, out io.Writer) Result {
	fmt.Fprintln(out, "")
	fmt.Fprintf(out, "⚠️  Confirmation required (threat level: %s)\n", p.ThreatLevel)
	fmt.Fprintln(out, "")
	fmt.Fprintf(out, "Command: %s\n", p.Command)

	if len(p.Patterns) > 0 {
		fmt.Fprintf(out, "Patterns: %s\n", strings.Join(p.Patterns, ", "))
	}
	if len(p.Warnings) > 0 {
		fmt.Fprintln(out, "Warnings:")
		for _, w := range p.Warnings {
			fmt.Fprintf(out, "  • %s\n", w)
		}
	}

	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "  [a] Approve once - accept this command")
	fmt.Fprintln(out, "  [d] Deny - reject this command")
	fmt.Fprintln(out, "")

	reader := bufio.NewReader(in)
	for {
		fmt.Fprint(out, "Your choice [a/d]: ")
		input, err := reader.ReadString('\n')
		if err != nil {
			return Result{Approved: false, UserAction: "error_reading_input"}
		}

		switch strings.TrimSpace(strings.ToLower(input)) {
		case "a", "approve", "yes", "y":
			return Result{Approved: true, UserAction: "approve_once"}
		case "d", "deny", "no", "n":
			return Result{Approved: false, UserAction: "deny"}
		default:
			fmt.Fprintln(out, "Invalid input. Enter 'a' to approve or 'd' to deny.")
		}
	}
}
