package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"outreach.app/courier/common/llm"
	"outreach.app/courier/internal/followup"
	"outreach.app/courier/internal/model"
)

// Config tunes the LLM gateway.
type Config struct {
	// RPS paces outbound requests. Zero or negative disables pacing.
	RPS float64
	// Timeout bounds each model call.
	Timeout time.Duration
	// Dates overrides date resolution. Nil uses the model.
	Dates DateResolver
}

type gateway struct {
	llm     llm.Client
	limiter *rate.Limiter
	timeout time.Duration
	dates   DateResolver
}

// New returns a Classifier backed by client.
func New(client llm.Client, cfg Config) Classifier {
	limit := rate.Inf
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
	}
	g := &gateway{
		llm:     client,
		limiter: rate.NewLimiter(limit, 1),
		timeout: cfg.Timeout,
	}
	g.dates = cfg.Dates
	if g.dates == nil {
		g.dates = modelDates{g}
	}
	return g
}

func (g *gateway) chat(ctx context.Context, stage string, req llm.Request, result any) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: waiting for rate limiter: %w", stage, err)
	}
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := g.llm.Chat(ctx, req, result)
	if err != nil {
		return fmt.Errorf("%s: %w", stage, err)
	}

	attrs := []any{
		"stage", stage,
		"model", g.llm.Model(),
		"latency_ms", time.Since(start).Milliseconds(),
	}
	if resp != nil {
		attrs = append(attrs, "prompt_tokens", resp.PromptTokens, "completion_tokens", resp.CompletionTokens)
	}
	slog.DebugContext(ctx, "classifier call completed", attrs...)
	return nil
}

func (g *gateway) ClassifyState(ctx context.Context, transcript string, set model.LabelSet) (model.StateLabel, error) {
	var out labelResponse
	err := g.chat(ctx, "classify_state", llm.Request{
		SystemPrompt: classifyPrompt(set),
		UserPrompt:   transcript,
		SchemaName:   "conversation_label",
		Schema:       labelSchema(set),
		MaxTokens:    50,
		Temperature:  llm.Temp(0),
	}, &out)
	if err != nil {
		return "", err
	}

	label, ok := set.Parse(strings.TrimSpace(out.Label))
	if !ok {
		return "", fmt.Errorf("%w: label %q not in %s set", ErrUnparsable, out.Label, set.Name)
	}
	return label, nil
}

func (g *gateway) ResolveDate(ctx context.Context, transcript string, today time.Time) (*time.Time, error) {
	return g.dates.ResolveDate(ctx, transcript, today)
}

// modelDates asks the model, with the precomputed anchors in the prompt.
type modelDates struct {
	g *gateway
}

func (m modelDates) ResolveDate(ctx context.Context, transcript string, today time.Time) (*time.Time, error) {
	today = followup.Day(today)

	var out dateResponse
	err := m.g.chat(ctx, "resolve_date", llm.Request{
		SystemPrompt: resolveDatePrompt(today),
		UserPrompt:   transcript,
		SchemaName:   "follow_up_date",
		Schema:       dateSchema,
		MaxTokens:    50,
		Temperature:  llm.Temp(0),
	}, &out)
	if err != nil {
		return nil, err
	}

	if out.Date == nil {
		return nil, nil
	}
	raw := strings.TrimSpace(*out.Date)
	if raw == "" || strings.EqualFold(raw, "null") {
		return nil, nil
	}
	d, err := followup.ParseDate(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparsable, err)
	}
	return &d, nil
}

func (g *gateway) DetectEmailInvitation(ctx context.Context, message string) (Invitation, error) {
	if strings.TrimSpace(message) == "" {
		return Invitation{}, nil
	}

	var out invitationResponse
	err := g.chat(ctx, "detect_email_invitation", llm.Request{
		SystemPrompt: invitationPrompt,
		UserPrompt:   message,
		SchemaName:   "email_invitation",
		Schema:       invitationSchema,
		MaxTokens:    100,
		Temperature:  llm.Temp(0),
	}, &out)
	if err != nil {
		return Invitation{}, err
	}

	inv := Invitation{Invited: out.Invited}
	if out.Email != nil {
		inv.Email = verbatimAddress(message, *out.Email)
	}
	return inv, nil
}

// verbatimAddress keeps addr only when it is a bare, valid address copied from message.
func verbatimAddress(message, addr string) *string {
	addr = strings.TrimSpace(addr)
	if addr == "" || !strings.Contains(message, addr) {
		return nil
	}
	parsed, err := mail.ParseAddress(addr)
	if err != nil || parsed.Address != addr {
		return nil
	}
	return &addr
}

func (g *gateway) DraftPersonalizedLine(ctx context.Context, transcript string) (string, error) {
	var out lineResponse
	err := g.chat(ctx, "draft_personalized_line", llm.Request{
		SystemPrompt: personalizedLinePrompt,
		UserPrompt:   transcript,
		SchemaName:   "personalized_line",
		Schema:       lineSchema,
		MaxTokens:    120,
		Temperature:  llm.Temp(0.4),
	}, &out)
	if err != nil {
		return "", err
	}

	line, _, _ := strings.Cut(strings.TrimSpace(out.Line), "\n")
	line = strings.TrimSpace(line)
	if line == "" {
		return "", fmt.Errorf("%w: empty personalized line", ErrUnparsable)
	}
	return line, nil
}
