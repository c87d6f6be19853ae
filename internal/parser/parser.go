// Package parser turns a raw input line into a Pipeline: whitespace-split
// tokens, redirection operators, the background operator, and $NAME
// resolution against the variable table. This is the external interface
// the original design describes as consumed from the parser; no quoting,
// globbing, or command substitution is implemented (see Non-goals).
package parser

import (
	"fmt"
	"strings"
)

// Command is one pipeline stage.
type Command struct {
	Argv        []string
	RedirectIn  string
	RedirectOut string
	Append      bool
}

// Pipeline is an ordered sequence of commands connected by pipes, launched
// as one process group.
type Pipeline struct {
	Commands    []Command
	Background  bool
	CommandLine string
}

// VarLookup resolves $NAME tokens against the shell's variable table.
type VarLookup interface {
	Get(name string) (string, bool)
}

// ParseError is reported to stderr; the pipeline that produced it is
// dropped and the shell continues.
type ParseError struct {
	msg string
}

func (e *ParseError) Error() string { return e.msg }

func parseError(format string, args ...any) error {
	return &ParseError{msg: fmt.Sprintf(format, args...)}
}

// Parse tokenizes line on whitespace and builds a Pipeline. An empty or
// all-whitespace line yields a nil Pipeline and nil error (nothing to run).
func Parse(line string, vars VarLookup) (*Pipeline, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return nil, nil
	}

	rawTokens := strings.Fields(line)
	tokens := make([]string, 0, len(rawTokens))
	for _, tok := range rawTokens {
		resolved, err := resolveVars(tok, vars)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, resolved)
	}

	background := false
	if len(tokens) > 0 && tokens[len(tokens)-1] == "&" {
		background = true
		tokens = tokens[:len(tokens)-1]
	} else if len(tokens) > 0 && strings.HasSuffix(tokens[len(tokens)-1], "&") {
		background = true
		tokens[len(tokens)-1] = strings.TrimSuffix(tokens[len(tokens)-1], "&")
	}

	stages := splitOnPipe(tokens)
	commands := make([]Command, 0, len(stages))
	for _, stage := range stages {
		cmd, err := parseCommand(stage)
		if err != nil {
			return nil, err
		}
		commands = append(commands, cmd)
	}

	if len(commands) == 0 {
		return nil, parseError("empty pipeline stage")
	}

	return &Pipeline{
		Commands:    commands,
		Background:  background,
		CommandLine: trimmed,
	}, nil
}

func splitOnPipe(tokens []string) [][]string {
	var stages [][]string
	var current []string
	for _, tok := range tokens {
		if tok == "|" {
			stages = append(stages, current)
			current = nil
			continue
		}
		current = append(current, tok)
	}
	stages = append(stages, current)
	return stages
}

func parseCommand(tokens []string) (Command, error) {
	var cmd Command
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		switch tok {
		case "<":
			name, err := nextFilename(tokens, i, "<")
			if err != nil {
				return Command{}, err
			}
			cmd.RedirectIn = name
			i++
		case ">":
			name, err := nextFilename(tokens, i, ">")
			if err != nil {
				return Command{}, err
			}
			cmd.RedirectOut = name
			cmd.Append = false
			i++
		case ">>":
			name, err := nextFilename(tokens, i, ">>")
			if err != nil {
				return Command{}, err
			}
			cmd.RedirectOut = name
			cmd.Append = true
			i++
		default:
			cmd.Argv = append(cmd.Argv, tok)
		}
	}
	if len(cmd.Argv) == 0 {
		return Command{}, parseError("missing command before redirection or pipe")
	}
	return cmd, nil
}

func nextFilename(tokens []string, i int, op string) (string, error) {
	if i+1 >= len(tokens) {
		return "", parseError("missing filename after %q", op)
	}
	return tokens[i+1], nil
}

func resolveVars(tok string, vars VarLookup) (string, error) {
	if !strings.Contains(tok, "$") || vars == nil {
		return tok, nil
	}

	var out strings.Builder
	i := 0
	for i < len(tok) {
		if tok[i] != '$' {
			out.WriteByte(tok[i])
			i++
			continue
		}
		j := i + 1
		for j < len(tok) && isVarNameByte(tok[j]) {
			j++
		}
		if j == i+1 {
			// bare '$' with no following name byte; pass through literally
			out.WriteByte('$')
			i++
			continue
		}
		name := tok[i+1 : j]
		value, ok := vars.Get(name)
		if !ok {
			return "", parseError("unknown variable $%s", name)
		}
		out.WriteString(value)
		i = j
	}
	return out.String(), nil
}

func isVarNameByte(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}
