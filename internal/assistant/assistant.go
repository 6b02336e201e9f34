package assistant

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/deskclerk/deskclerk/internal/render"
	"github.com/deskclerk/deskclerk/internal/schema"
	"github.com/deskclerk/deskclerk/internal/tools"
	"github.com/deskclerk/deskclerk/internal/view"
)

const (
	// DefaultMaxToolRounds bounds how many times one question may go back
	// to the model with tool results before the loop gives up.
	DefaultMaxToolRounds = 8

	// DefaultHistoryTurns is how many past messages are kept per session.
	DefaultHistoryTurns = 20
)

const defaultInstructions = `You are a data assistant embedded in a business application. Answer questions about the user's records and make changes on request, always through the provided tools rather than from memory. When a tool reports a problem, relay it and suggest the fix it describes. Keep answers short; the user is in the middle of work.`

// Assistant answers questions by looping between a chat model and the
// record tools until the model produces a plain-text reply.
type Assistant struct {
	client       Client
	runner       ToolRunner
	catalog      *schema.Catalog
	views        tools.ViewSource
	history      HistoryStore
	logger       *zap.Logger
	instructions string
	historyTurns int
	maxRounds    int
}

// ToolRunner is the tool surface the loop drives. *tools.Dispatcher
// satisfies it.
type ToolRunner interface {
	Definitions() []tools.Definition
	Call(ctx context.Context, name string, args map[string]any) (string, error)
}

// Option configures an Assistant.
type Option func(*Assistant)

// WithHistory replaces the in-memory history store.
func WithHistory(h HistoryStore) Option {
	return func(a *Assistant) {
		if h != nil {
			a.history = h
		}
	}
}

// WithViewSource lets the system prompt mention what the user has open.
func WithViewSource(v tools.ViewSource) Option {
	return func(a *Assistant) { a.views = v }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Assistant) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithInstructions replaces the built-in behavioral instructions.
func WithInstructions(s string) Option {
	return func(a *Assistant) {
		if s != "" {
			a.instructions = s
		}
	}
}

// WithMaxToolRounds bounds the tool loop.
func WithMaxToolRounds(n int) Option {
	return func(a *Assistant) {
		if n > 0 {
			a.maxRounds = n
		}
	}
}

// WithHistoryTurns bounds how much history is replayed per question.
func WithHistoryTurns(n int) Option {
	return func(a *Assistant) {
		if n > 0 {
			a.historyTurns = n
		}
	}
}

// New creates an Assistant over a model client, a schema catalog, and the
// record tools.
func New(client Client, catalog *schema.Catalog, runner ToolRunner, opts ...Option) *Assistant {
	a := &Assistant{
		client:       client,
		runner:       runner,
		catalog:      catalog,
		history:      NewMemoryHistory(DefaultHistoryTurns),
		logger:       zap.NewNop(),
		instructions: defaultInstructions,
		historyTurns: DefaultHistoryTurns,
		maxRounds:    DefaultMaxToolRounds,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Ask answers one user question, running tool calls as the model requests
// them. The returned string is the model's final text reply.
func (a *Assistant) Ask(ctx context.Context, sessionID, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("empty question")
	}

	system, err := a.systemPrompt()
	if err != nil {
		return "", err
	}

	past, err := a.history.Recent(ctx, sessionID, a.historyTurns)
	if err != nil {
		return "", fmt.Errorf("load history: %w", err)
	}

	messages := append(past, Message{Role: RoleUser, Text: question})
	defs := a.runner.Definitions()

	for round := 0; round < a.maxRounds; round++ {
		reply, err := a.client.Complete(ctx, system, messages, defs)
		if err != nil {
			return "", fmt.Errorf("model call: %w", err)
		}

		if len(reply.Calls) == 0 {
			a.remember(ctx, sessionID, question, reply.Text)
			return reply.Text, nil
		}

		messages = append(messages, Message{Role: RoleAssistant, Text: reply.Text, Calls: reply.Calls})

		results := make([]ToolResult, 0, len(reply.Calls))
		for _, call := range reply.Calls {
			a.logger.Debug("assistant tool call",
				zap.String("session", sessionID),
				zap.Int("round", round),
				zap.String("tool", call.Name))

			out, err := a.runner.Call(ctx, call.Name, call.Args)
			if err != nil {
				return "", fmt.Errorf("tool %s: %w", call.Name, err)
			}
			results = append(results, ToolResult{ID: call.ID, Name: call.Name, Content: out})
		}
		messages = append(messages, Message{Role: RoleTool, Results: results})
	}

	return "", fmt.Errorf("conversation did not settle after %d tool rounds", a.maxRounds)
}

// systemPrompt assembles instructions, the entity summary, and the active
// view, so the model knows what it can touch before the first tool call.
func (a *Assistant) systemPrompt() (string, error) {
	g, err := a.catalog.Graph()
	if err != nil {
		return "", fmt.Errorf("schema graph: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(a.instructions)
	sb.WriteString("\n\n")
	sb.WriteString(render.Summary(g))

	if a.views != nil {
		if vc, ok := a.views.Current(); ok && vc.Entity != "" {
			sb.WriteString("\n")
			sb.WriteString(viewHint(vc))
		}
	}
	return sb.String(), nil
}

func viewHint(vc view.Context) string {
	if vc.Kind == view.KindDetail {
		if vc.RecordLabel != "" {
			return fmt.Sprintf("The user currently has %s %q open.", vc.Entity, vc.RecordLabel)
		}
		return fmt.Sprintf("The user currently has a %s record open.", vc.Entity)
	}
	return fmt.Sprintf("The user is currently looking at the %s list.", vc.Entity)
}

func (a *Assistant) remember(ctx context.Context, sessionID, question, answer string) {
	err := a.history.Append(ctx, sessionID,
		Message{Role: RoleUser, Text: question},
		Message{Role: RoleAssistant, Text: answer},
	)
	if err != nil {
		a.logger.Warn("failed to persist conversation history",
			zap.String("session", sessionID),
			zap.Error(err))
	}
}
