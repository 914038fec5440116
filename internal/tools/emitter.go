package tools

import (
	"context"
)

// emitterKey uses an empty struct for a zero-allocation context key.
type emitterKey struct{}

// EventEmitter receives tool lifecycle events. The interface is minimal -
// tool name and call ID only, no UI concerns; presentation lives in the
// web layer.
//
// Usage:
//  1. Handler creates an emitter bound to its SSE writer
//  2. Handler stores it in the request context via ContextWithEmitter
//  3. The Runner retrieves it via EmitterFromContext
//  4. Start/Complete/Error fire around each tool execution
type EventEmitter interface {
	OnToolStart(name, callID string)
	OnToolComplete(name, callID string)
	OnToolError(name, callID string)
}

// EmitterFromContext retrieves the EventEmitter from ctx. Returns nil when
// not set, allowing graceful degradation: no events are emitted.
func EmitterFromContext(ctx context.Context) EventEmitter {
	emitter, _ := ctx.Value(emitterKey{}).(EventEmitter)
	return emitter
}

// ContextWithEmitter stores an EventEmitter in ctx for per-request binding.
func ContextWithEmitter(ctx context.Context, emitter EventEmitter) context.Context {
	return context.WithValue(ctx, emitterKey{}, emitter)
}
