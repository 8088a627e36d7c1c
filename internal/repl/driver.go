package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/cloo-solutions/stylechat/internal/domain"
	"github.com/cloo-solutions/stylechat/internal/service"
)

type TurnHandler interface {
	Turn(ctx context.Context, conv domain.Conversation, input string) (domain.Conversation, *service.TurnResult, error)
}

type Rebuilder interface {
	Rebuild(ctx context.Context) (*domain.IndexStats, error)
}

type styles struct {
	banner  lipgloss.Style
	prompt  lipgloss.Style
	bot     lipgloss.Style
	sources lipgloss.Style
	warn    lipgloss.Style
	info    lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		banner:  r.NewStyle().Bold(true),
		prompt:  r.NewStyle().Foreground(lipgloss.Color("12")).Bold(true),
		bot:     r.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		sources: r.NewStyle().Foreground(lipgloss.Color("8")),
		warn:    r.NewStyle().Foreground(lipgloss.Color("11")),
		info:    r.NewStyle().Foreground(lipgloss.Color("14")),
	}
}

// Driver reads commands line by line and threads the conversation value
// through each turn.
type Driver struct {
	in          io.Reader
	out         io.Writer
	chat        TurnHandler
	indexer     Rebuilder
	styles      styles
	interactive bool
}

type DriverOption func(*Driver)

// WithInteractive controls the banner and the "You:" prompt. Piped input
// runs non-interactive so only replies reach the output.
func WithInteractive(v bool) DriverOption {
	return func(d *Driver) { d.interactive = v }
}

// NewDriver styles output for out; a non-terminal writer gets plain text.
func NewDriver(in io.Reader, out io.Writer, chat TurnHandler, indexer Rebuilder, opts ...DriverOption) *Driver {
	d := &Driver{
		in:          in,
		out:         out,
		chat:        chat,
		indexer:     indexer,
		styles:      newStyles(lipgloss.NewRenderer(out)),
		interactive: true,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run loops until exit, EOF or context cancellation and returns the final
// conversation. Only a read failure is reported as an error.
func (d *Driver) Run(ctx context.Context, conv domain.Conversation) (domain.Conversation, error) {
	done := make(chan struct{})
	defer close(done)
	lines, readErr := d.readLines(done)

	if d.interactive {
		d.println(d.styles.banner.Render("Chat ready. Type 'exit' to quit, /reset to clear history, /update to rebuild the index."))
	}

	for {
		if ctx.Err() != nil {
			d.println("Goodbye!")
			return conv, nil
		}
		if d.interactive {
			fmt.Fprint(d.out, d.styles.prompt.Render("You:")+" ")
		}

		var line string
		select {
		case <-ctx.Done():
			d.goodbyeAfterPrompt()
			return conv, nil
		case l, ok := <-lines:
			if !ok {
				if err := <-readErr; err != nil {
					return conv, fmt.Errorf("failed to read input: %w", err)
				}
				d.goodbyeAfterPrompt()
				return conv, nil
			}
			line = l
		}

		cmd := ParseCommand(line)
		switch cmd.Kind {
		case CommandNone:
			continue
		case CommandExit:
			d.println("Goodbye!")
			return conv, nil
		case CommandReset:
			conv = conv.Reset()
			d.println(d.styles.info.Render("History cleared."))
		case CommandReindex:
			d.reindex(ctx)
		case CommandQuery:
			conv = d.query(ctx, conv, cmd.Text)
		}
	}
}

// readLines scans input on its own goroutine. The error channel receives
// exactly one value before lines is closed on EOF or read failure.
func (d *Driver) readLines(done <-chan struct{}) (<-chan string, <-chan error) {
	lines := make(chan string)
	errc := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(d.in)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
		errc <- scanner.Err()
	}()

	return lines, errc
}

func (d *Driver) goodbyeAfterPrompt() {
	if d.interactive {
		d.println("")
	}
	d.println("Goodbye!")
}

func (d *Driver) reindex(ctx context.Context) {
	if d.indexer == nil {
		d.println(d.styles.warn.Render("Reindexing is not available."))
		return
	}

	d.println(d.styles.info.Render("Rebuilding index..."))
	stats, err := d.indexer.Rebuild(ctx)
	if err != nil {
		d.println(d.styles.warn.Render(fmt.Sprintf("Reindex failed: %v", err)))
		return
	}
	d.println(d.styles.info.Render(fmt.Sprintf("Index rebuilt: %d files, %d chunks.", stats.Files, stats.Chunks)))
}

func (d *Driver) query(ctx context.Context, conv domain.Conversation, text string) domain.Conversation {
	next, result, err := d.chat.Turn(ctx, conv, text)
	if err != nil {
		d.println(d.styles.warn.Render(fmt.Sprintf("Error: %v", err)))
		return conv
	}

	d.println(d.styles.bot.Render("Bot:") + " " + result.Reply)
	if len(result.Sources) > 0 {
		d.println(d.styles.sources.Render("Sources: " + strings.Join(result.Sources, ", ")))
	} else {
		d.println(d.styles.sources.Render("Sources: none"))
	}
	d.println("")
	return next
}

func (d *Driver) println(s string) {
	fmt.Fprintln(d.out, s)
}
