package chat

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/llm"
	"github.com/hyperjump/kotae/internal/retrieval"
	"github.com/hyperjump/kotae/internal/vectordb"
)

// stubCompleter records the messages it receives and returns a fixed answer
// or error.
type stubCompleter struct {
	answer   string
	err      error
	received []llm.Message
}

func (s *stubCompleter) Complete(ctx context.Context, messages []llm.Message, opts *llm.Options) (string, error) {
	s.received = messages
	if s.err != nil {
		return "", s.err
	}
	return s.answer, nil
}

func (s *stubCompleter) Name() string { return "stub" }

func newTestRetrieval(t *testing.T) *retrieval.Service {
	t.Helper()
	store, err := vectordb.NewLocalStore(filepath.Join(t.TempDir(), "store.json"), 8)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return retrieval.NewService(embedding.NewMockEmbedder(8), store)
}

func TestAskEmptyMessage(t *testing.T) {
	o := NewOrchestrator(&stubCompleter{answer: "x"}, newTestRetrieval(t), Options{}, nil)
	for _, msg := range []string{"", "   ", "\n\t"} {
		if _, err := o.Ask(context.Background(), msg); !errors.Is(err, ErrEmptyMessage) {
			t.Errorf("Ask(%q): got %v, want ErrEmptyMessage", msg, err)
		}
	}
}

func TestAskWithContext(t *testing.T) {
	svc := newTestRetrieval(t)
	ctx := context.Background()
	if !svc.AddDocument(ctx, "Python is a programming language", map[string]interface{}{"topic": "python"}) {
		t.Fatal("AddDocument failed")
	}

	stub := &stubCompleter{answer: "Python is a language."}
	o := NewOrchestrator(stub, svc, Options{}, nil)
	resp, err := o.Ask(ctx, "Python is a programming language")
	if err != nil {
		t.Fatal(err)
	}
	if resp.Response != "Python is a language." {
		t.Errorf("response: got %q", resp.Response)
	}
	if len(resp.Sources) != 1 {
		t.Fatalf("sources: got %d, want 1", len(resp.Sources))
	}
	if resp.Sources[0].Metadata["topic"] != "python" {
		t.Errorf("source metadata: got %v", resp.Sources[0].Metadata)
	}
	if resp.Fallback {
		t.Error("fallback flag set on successful completion")
	}

	// System prompt, context block, user message, in that order.
	if len(stub.received) != 3 {
		t.Fatalf("messages sent: got %d, want 3", len(stub.received))
	}
	if stub.received[1].Role != llm.RoleSystem || !strings.Contains(stub.received[1].Content, "[1] Python is a programming language") {
		t.Errorf("context message: got %+v", stub.received[1])
	}
	if stub.received[2].Role != llm.RoleUser {
		t.Errorf("last message role: got %s", stub.received[2].Role)
	}
}

func TestAskWithoutContextOmitsContextMessage(t *testing.T) {
	stub := &stubCompleter{answer: "answer"}
	o := NewOrchestrator(stub, newTestRetrieval(t), Options{}, nil)
	resp, err := o.Ask(context.Background(), "anything at all")
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Sources) != 0 {
		t.Errorf("sources: got %d, want 0", len(resp.Sources))
	}
	if len(stub.received) != 2 {
		t.Errorf("messages sent: got %d, want 2 (no context block)", len(stub.received))
	}
}

func TestAskCompletionFailureFallsBack(t *testing.T) {
	svc := newTestRetrieval(t)
	svc.AddDocument(context.Background(), "some document", nil)

	o := NewOrchestrator(&stubCompleter{err: errors.New("api down")}, svc, Options{}, nil)
	resp, err := o.Ask(context.Background(), "hello there")
	if err != nil {
		t.Fatalf("completion failure must not surface: %v", err)
	}
	if resp.Response == "" {
		t.Error("fallback response is empty")
	}
	if !resp.Fallback {
		t.Error("fallback flag not set")
	}
	if len(resp.Sources) != 0 {
		t.Errorf("fallback sources: got %d, want 0", len(resp.Sources))
	}
}

func TestAskNoCompleterUsesFallback(t *testing.T) {
	o := NewOrchestrator(nil, newTestRetrieval(t), Options{}, nil)
	resp, err := o.Ask(context.Background(), "hello")
	if err != nil {
		t.Fatal(err)
	}
	if !resp.Fallback || resp.Response == "" {
		t.Errorf("expected non-empty fallback response, got %+v", resp)
	}
}

func TestAskAlwaysAnswersNonEmpty(t *testing.T) {
	// Everything is down: completion fails and retrieval has a dead store.
	o := NewOrchestrator(&stubCompleter{err: errors.New("down")}, nil, Options{}, nil)
	for _, msg := range []string{"hello", "what is kubernetes", "thanks!"} {
		resp, err := o.Ask(context.Background(), msg)
		if err != nil {
			t.Fatalf("Ask(%q): %v", msg, err)
		}
		if resp.Response == "" {
			t.Errorf("Ask(%q): empty response", msg)
		}
	}
}
