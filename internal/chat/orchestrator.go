// Package chat orchestrates retrieval-augmented completions with a
// deterministic fallback when the LLM backend is unavailable.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hyperjump/kotae/internal/llm"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/retrieval"
	"go.uber.org/zap"
)

// ErrEmptyMessage is returned for empty or whitespace-only messages. It is
// the only error Ask surfaces; every provider failure degrades to the
// fallback responder.
var ErrEmptyMessage = errors.New("chat: message is empty")

const defaultSystemPrompt = "You are a helpful assistant. Use the provided context to answer " +
	"when it is relevant; otherwise answer from your general knowledge. Be concise."

// Options bound the completion request and retrieval depth.
type Options struct {
	SystemPrompt string
	MaxTokens    int
	Temperature  float64
	TopK         int
}

func (o *Options) applyDefaults() {
	if o.SystemPrompt == "" {
		o.SystemPrompt = defaultSystemPrompt
	}
	if o.MaxTokens == 0 {
		o.MaxTokens = 500
	}
	if o.TopK == 0 {
		o.TopK = 3
	}
}

// Orchestrator answers user messages. completer may be nil (no API key
// configured); every message then goes straight to the fallback responder.
type Orchestrator struct {
	completer llm.Completer
	retrieval *retrieval.Service
	fallback  *Responder
	opts      Options
	logger    *zap.Logger
}

// NewOrchestrator creates an orchestrator. retrieval may be nil to disable
// context retrieval entirely.
func NewOrchestrator(completer llm.Completer, svc *retrieval.Service, opts Options, logger *zap.Logger) *Orchestrator {
	opts.applyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		completer: completer,
		retrieval: svc,
		fallback:  NewResponder(),
		opts:      opts,
		logger:    logger,
	}
}

// Ask answers message. The only error returned is ErrEmptyMessage; any
// retrieval or completion failure falls back to the keyword responder with
// empty sources.
func (o *Orchestrator) Ask(ctx context.Context, message string) (*models.ChatResponse, error) {
	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyMessage
	}
	if o.completer == nil {
		o.logger.Warn("no completion API key configured, using fallback responder")
		return o.fallbackResponse(message), nil
	}

	results, sources := o.retrieve(ctx, message)

	messages := make([]llm.Message, 0, 3)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: o.opts.SystemPrompt})
	if len(results) > 0 {
		messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: buildContext(results)})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: message})

	answer, err := o.completer.Complete(ctx, messages, &llm.Options{
		MaxTokens:   o.opts.MaxTokens,
		Temperature: o.opts.Temperature,
	})
	if err != nil {
		o.logger.Warn("completion failed, using fallback responder", zap.Error(err))
		return o.fallbackResponse(message), nil
	}
	return &models.ChatResponse{Response: answer, Sources: sources}, nil
}

// retrieve searches for context documents. Retrieval never errors; an
// unavailable store just yields no context.
func (o *Orchestrator) retrieve(ctx context.Context, message string) ([]*models.SearchResult, []*models.Source) {
	if o.retrieval == nil {
		return nil, []*models.Source{}
	}
	results := o.retrieval.Search(ctx, message, o.opts.TopK)
	sources := make([]*models.Source, len(results))
	for i, r := range results {
		sources[i] = &models.Source{
			Content:  r.Document.Content,
			Metadata: r.Document.Metadata,
			Score:    r.Score,
		}
	}
	return results, sources
}

// buildContext concatenates retrieved documents into a labelled context block.
func buildContext(results []*models.SearchResult) string {
	var b strings.Builder
	b.WriteString("Context documents:\n")
	for i, r := range results {
		fmt.Fprintf(&b, "[%d] %s\n", i+1, r.Document.Content)
	}
	return b.String()
}

func (o *Orchestrator) fallbackResponse(message string) *models.ChatResponse {
	return &models.ChatResponse{
		Response: o.fallback.Respond(message),
		Sources:  []*models.Source{},
		Fallback: true,
	}
}
