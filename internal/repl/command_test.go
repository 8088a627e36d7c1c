package repl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line string
		want Command
	}{
		{"", Command{Kind: CommandNone}},
		{"   \t ", Command{Kind: CommandNone}},
		{"exit", Command{Kind: CommandExit}},
		{"  QUIT  ", Command{Kind: CommandExit}},
		{"Exit", Command{Kind: CommandExit}},
		{"/reset", Command{Kind: CommandReset}},
		{"/update", Command{Kind: CommandReindex}},
		{" /UPDATE ", Command{Kind: CommandReindex}},
		{"what is alpha?", Command{Kind: CommandQuery, Text: "what is alpha?"}},
		{"  exit now ", Command{Kind: CommandQuery, Text: "exit now"}},
		{"/unknown", Command{Kind: CommandQuery, Text: "/unknown"}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCommand(tt.line))
		})
	}
}

func TestCommandKind_String(t *testing.T) {
	assert.Equal(t, "reindex", CommandReindex.String())
	assert.Equal(t, "unknown", CommandKind(99).String())
}
