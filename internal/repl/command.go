// Package repl drives the interactive chat loop.
package repl

import "strings"

// CommandKind tags the variants ParseCommand can return.
type CommandKind int

const (
	CommandNone CommandKind = iota
	CommandExit
	CommandReset
	CommandReindex
	CommandQuery
)

func (k CommandKind) String() string {
	switch k {
	case CommandNone:
		return "none"
	case CommandExit:
		return "exit"
	case CommandReset:
		return "reset"
	case CommandReindex:
		return "reindex"
	case CommandQuery:
		return "query"
	}
	return "unknown"
}

// Command is one parsed input line. Text is set only for CommandQuery.
type Command struct {
	Kind CommandKind
	Text string
}

// ParseCommand classifies one line of user input.
func ParseCommand(line string) Command {
	text := strings.TrimSpace(line)
	if text == "" {
		return Command{Kind: CommandNone}
	}

	switch strings.ToLower(text) {
	case "exit", "quit":
		return Command{Kind: CommandExit}
	case "/reset":
		return Command{Kind: CommandReset}
	case "/update":
		return Command{Kind: CommandReindex}
	}

	return Command{Kind: CommandQuery, Text: text}
}
