package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/sandevgo/medichat/internal/core"
	"github.com/sandevgo/medichat/internal/service/assistant"
	"github.com/sandevgo/medichat/internal/service/ui"
	"github.com/sandevgo/medichat/pkg/log"
)

const SessionID = "cli-local"

type ReadLine struct {
	session *assistant.Session
	router  core.CmdRouter
	rl      *readline.Instance
}

func NewReadLine(session *assistant.Session, router core.CmdRouter, historyFile string) (*ReadLine, error) {
	if err := os.MkdirAll(filepath.Dir(historyFile), 0755); err != nil {
		return nil, fmt.Errorf("failed to create runtime directory: %w", err)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "🩺 > ",
		HistoryFile:     historyFile,
		AutoComplete:    completer(router),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, err
	}

	return &ReadLine{
		session: session,
		router:  router,
		rl:      rl,
	}, nil
}

func completer(router core.CmdRouter) *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface
	for _, cmd := range router.ListCommands() {
		items = append(items, readline.PcItem("/"+cmd.Name()))
	}
	return readline.NewPrefixCompleter(items...)
}

// Start runs the prompt loop until exit, Ctrl+C on an empty line or EOF.
func (r *ReadLine) Start(ctx context.Context) error {
	out := r.rl.Stdout()
	fmt.Fprintln(out, ui.TitleStyle.Render(fmt.Sprintf("%s: ask about your medical documents. Type /help for commands, 'exit' to quit.", core.AppName)))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := r.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				if len(line) == 0 {
					return nil
				}
				continue
			} else if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "exit" || line == "quit" {
			return nil
		}
		if line == "" {
			continue
		}

		fmt.Fprintln(out, r.respond(ctx, line))
	}
}

func (r *ReadLine) Shutdown(ctx context.Context) error {
	if r.rl != nil {
		return r.rl.Close()
	}
	return nil
}

// respond routes slash commands and answers everything else.
func (r *ReadLine) respond(ctx context.Context, line string) string {
	if out, handled := r.router.Execute(ctx, SessionID, line); handled {
		return out
	}

	outcome, err := r.session.Ask(ctx, line)
	if err != nil {
		log.FromCtx(ctx).Debug().Err(err).Msg("question failed")
		return ui.ErrorStyle.Render(assistant.FormatError(err))
	}
	return RenderOutcome(outcome)
}

func RenderOutcome(outcome core.Outcome) string {
	if outcome.Kind == core.OutcomeRefused {
		return ui.RefusalStyle.Render(outcome.Text)
	}

	var sb strings.Builder
	sb.WriteString(ui.AnswerStyle.Render(outcome.Text))
	if len(outcome.Citations) > 0 {
		sb.WriteString("\n\n")
		sb.WriteString(ui.SourceStyle.Render("Sources:"))
		for _, c := range outcome.Citations {
			sb.WriteString("\n")
			sb.WriteString(ui.SourceStyle.Render("  - " + assistant.FormatCitation(c)))
		}
	}
	return sb.String()
}
