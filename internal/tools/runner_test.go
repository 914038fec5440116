package tools

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"go.uber.org/goleak"

	"github.com/midday-ai/canvas/internal/artifact"
	"github.com/midday-ai/canvas/internal/conversation"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// stubTool returns a canned result, error or panic depending on its fields.
type stubTool struct {
	name     string
	result   json.RawMessage
	err      error
	panicMsg string

	mu   sync.Mutex
	runs int
}

func (s *stubTool) Name() string     { return s.name }
func (s *stubTool) Describe() string { return "stub" }

func (s *stubTool) Run(_ context.Context, _ Invocation) (json.RawMessage, error) {
	s.mu.Lock()
	s.runs++
	s.mu.Unlock()
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	return s.result, s.err
}

// recordingEmitter tracks lifecycle events in order.
type recordingEmitter struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingEmitter) record(kind, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, kind+":"+name)
}

func (r *recordingEmitter) OnToolStart(name, _ string)    { r.record("start", name) }
func (r *recordingEmitter) OnToolComplete(name, _ string) { r.record("complete", name) }
func (r *recordingEmitter) OnToolError(name, _ string)    { r.record("error", name) }

func contentsOf(snap conversation.Snapshot) []conversation.Content {
	var out []conversation.Content
	for _, m := range snap.Messages {
		out = append(out, m.Content...)
	}
	return out
}

func TestRunnerRecordsCallAndResult(t *testing.T) {
	r := NewRunner(nil)
	store := artifact.NewStore(nil)
	state := conversation.NewState(nil)
	emitter := &recordingEmitter{}
	ctx := ContextWithEmitter(context.Background(), emitter)

	tool := &stubTool{name: "burn_rate", result: json.RawMessage(`{"ok":true}`)}
	result, err := r.Run(ctx, tool, json.RawMessage(`{"months":3}`), store, state)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if string(result) != `{"ok":true}` {
		t.Errorf("result = %s", result)
	}

	items := contentsOf(state.Get())
	if len(items) != 2 {
		t.Fatalf("content items = %d, want call + result", len(items))
	}
	if items[0].Kind != conversation.ContentToolCall || items[0].ToolName != "burn_rate" {
		t.Errorf("first item = %+v, want tool-call", items[0])
	}
	if items[1].Kind != conversation.ContentToolResult || items[1].ToolCallID != items[0].ToolCallID {
		t.Errorf("second item = %+v, want result for call %s", items[1], items[0].ToolCallID)
	}

	if len(emitter.events) != 2 || emitter.events[0] != "start:burn_rate" || emitter.events[1] != "complete:burn_rate" {
		t.Errorf("events = %v", emitter.events)
	}
}

func TestRunnerRecordsErrorResult(t *testing.T) {
	r := NewRunner(nil)
	store := artifact.NewStore(nil)
	state := conversation.NewState(nil)
	emitter := &recordingEmitter{}
	ctx := ContextWithEmitter(context.Background(), emitter)

	tool := &stubTool{name: "cash_flow", err: errors.New("provider unavailable")}
	if _, err := r.Run(ctx, tool, nil, store, state); err == nil {
		t.Fatal("Run returned nil error for a failing tool")
	}

	items := contentsOf(state.Get())
	if len(items) != 2 {
		t.Fatalf("content items = %d, want call + error result", len(items))
	}
	if items[1].Kind != conversation.ContentToolResult || items[1].Error == "" {
		t.Errorf("second item = %+v, want error result", items[1])
	}
	if emitter.events[len(emitter.events)-1] != "error:cash_flow" {
		t.Errorf("events = %v, want trailing error event", emitter.events)
	}

	// The failed call is resolved: nothing dangles.
	if got := state.DanglingCalls(0); len(got) != 0 {
		t.Errorf("dangling = %v, want none", got)
	}
}

func TestRunnerRecoversPanic(t *testing.T) {
	r := NewRunner(nil)
	store := artifact.NewStore(nil)
	state := conversation.NewState(nil)

	tool := &stubTool{name: "tax_summary", panicMsg: "nil dereference in renderer"}
	_, err := r.Run(context.Background(), tool, nil, store, state)
	if err == nil || !strings.Contains(err.Error(), "panicked") {
		t.Fatalf("err = %v, want panic surfaced as error", err)
	}

	items := contentsOf(state.Get())
	if len(items) != 2 || items[1].Error == "" {
		t.Fatalf("panic did not produce an error result: %+v", items)
	}
	if got := state.DanglingCalls(0); len(got) != 0 {
		t.Errorf("dangling = %v, want none after panic", got)
	}
}

// blockingTool parks in Run until released, signalling once started.
type blockingTool struct {
	name    string
	started chan struct{}
	release chan struct{}
}

func (b *blockingTool) Name() string     { return b.name }
func (b *blockingTool) Describe() string { return "stub" }

func (b *blockingTool) Run(context.Context, Invocation) (json.RawMessage, error) {
	close(b.started)
	<-b.release
	return json.RawMessage(`{}`), nil
}

func TestRunnerResolvesCallWhenTurnEndsMidFlight(t *testing.T) {
	r := NewRunner(nil)
	state := conversation.NewState(nil)
	tool := &blockingTool{
		name:    "burn_rate",
		started: make(chan struct{}),
		release: make(chan struct{}),
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := r.Run(context.Background(), tool, nil, artifact.NewStore(nil), state); err != nil {
			t.Errorf("Run: %v", err)
		}
	}()

	// The turn finalizes while the tool is still executing.
	<-tool.started
	if _, err := state.Done(func(snap conversation.Snapshot) conversation.Snapshot { return snap }); err != nil {
		t.Fatalf("Done: %v", err)
	}
	close(tool.release)
	<-done

	if got := state.DanglingCalls(0); len(got) != 0 {
		t.Errorf("dangling = %v, want none after a mid-flight Done", got)
	}
	if !state.Get().TurnDone {
		t.Error("late result reopened the turn")
	}
}

func TestRunnerWithoutEmitter(t *testing.T) {
	r := NewRunner(nil)
	tool := &stubTool{name: "burn_rate", result: json.RawMessage(`{}`)}

	// No emitter in context: events degrade to nothing, execution works.
	if _, err := r.Run(context.Background(), tool, nil, artifact.NewStore(nil), conversation.NewState(nil)); err != nil {
		t.Fatalf("Run without emitter: %v", err)
	}
	if tool.runs != 1 {
		t.Errorf("runs = %d, want 1", tool.runs)
	}
}
