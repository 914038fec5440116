package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/midday-ai/canvas/internal/artifact"
	"github.com/midday-ai/canvas/internal/conversation"
)

// Runner executes tools under the conversation contract: the tool-call is
// appended before execution, and exactly one tool-result is appended
// afterwards no matter how the tool fails. A panicking tool produces an
// error result, not a dangling call.
type Runner struct {
	logger *slog.Logger
}

// NewRunner creates a Runner. A nil logger falls back to slog.Default.
func NewRunner(logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{logger: logger}
}

// Run invokes tool with args against the session's store and conversation.
// The returned result is whatever was recorded as the tool-result; err is
// non-nil when the tool itself failed (the result then carries the error
// payload).
func (r *Runner) Run(ctx context.Context, tool Tool, args json.RawMessage, store *artifact.Store, state *conversation.State) (json.RawMessage, error) {
	callID := uuid.NewString()

	if _, err := state.Update(func(snap conversation.Snapshot) conversation.Snapshot {
		snap.Messages = append(snap.Messages, conversation.NewMessage(conversation.RoleAssistant,
			conversation.ToolCallContent(callID, tool.Name(), args)))
		return snap
	}); err != nil {
		return nil, fmt.Errorf("failed to record tool-call %s: %w", tool.Name(), err)
	}

	emitter := EmitterFromContext(ctx)
	if emitter != nil {
		emitter.OnToolStart(tool.Name(), callID)
	}

	result, runErr := r.execute(ctx, tool, Invocation{CallID: callID, Args: args, Store: store})

	// The result content is appended even when recording races other
	// tools (Update retries internally) and even when the turn was
	// finalized mid-flight: the conversation admits a late tool-result
	// for a pending call, so the call never dangles.
	var resultContent conversation.Content
	if runErr != nil {
		resultContent = conversation.ToolErrorContent(callID, runErr.Error())
	} else {
		resultContent = conversation.ToolResultContent(callID, result)
	}
	if _, err := state.Update(func(snap conversation.Snapshot) conversation.Snapshot {
		snap.Messages = append(snap.Messages, conversation.NewMessage(conversation.RoleTool, resultContent))
		return snap
	}); err != nil {
		return nil, fmt.Errorf("failed to record tool-result %s: %w", tool.Name(), err)
	}

	if emitter != nil {
		if runErr != nil {
			emitter.OnToolError(tool.Name(), callID)
		} else {
			emitter.OnToolComplete(tool.Name(), callID)
		}
	}
	if runErr != nil {
		r.logger.Warn("tool failed", "tool", tool.Name(), "call_id", callID, "error", runErr)
		return result, runErr
	}
	r.logger.Debug("tool completed", "tool", tool.Name(), "call_id", callID)
	return result, nil
}

// execute isolates the tool run so a panic inside one tool cannot take
// down the sibling tools of the same turn.
func (r *Runner) execute(ctx context.Context, tool Tool, inv Invocation) (result json.RawMessage, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("tool panicked", "tool", tool.Name(), "call_id", inv.CallID, "panic", rec)
			result = nil
			err = fmt.Errorf("tool %s panicked: %v", tool.Name(), rec)
		}
	}()
	return tool.Run(ctx, inv)
}
