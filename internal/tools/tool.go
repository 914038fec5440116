package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/midday-ai/canvas/internal/artifact"
)

// Invocation carries everything one tool run needs. The store is the
// session's artifact registry; tools stream staged updates through it as
// they compute.
type Invocation struct {
	CallID string
	Args   json.RawMessage
	Store  *artifact.Store
}

// Tool is one assistant-invocable analysis. Run streams artifacts through
// inv.Store and returns the JSON the conversation records as the
// tool-result. Run must honor ctx cancellation between stages but never
// leaves a partially-created artifact in an invalid stage: every published
// update is a complete, renderable state.
type Tool interface {
	Name() string
	Describe() string
	Run(ctx context.Context, inv Invocation) (json.RawMessage, error)
}

// PeriodArgs is the argument shape shared by the period-based tools.
type PeriodArgs struct {
	Months   int    `json:"months"`
	Currency string `json:"currency"`
}

const (
	defaultMonths   = 6
	maxMonths       = 36
	defaultCurrency = "USD"
)

// parsePeriodArgs decodes raw tool arguments, applying defaults and
// clamping the period. Unknown fields are rejected: a mistyped argument
// must fail loudly, not silently fall back to defaults.
func parsePeriodArgs(raw json.RawMessage) (PeriodArgs, error) {
	args := PeriodArgs{Months: defaultMonths, Currency: defaultCurrency}
	if len(raw) > 0 {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&args); err != nil {
			return PeriodArgs{}, fmt.Errorf("invalid tool arguments: %w", err)
		}
	}
	if args.Months <= 0 {
		args.Months = defaultMonths
	}
	if args.Months > maxMonths {
		args.Months = maxMonths
	}
	if args.Currency == "" {
		args.Currency = defaultCurrency
	}
	return args, nil
}

// period resolves the argument months into a concrete [from, to] range
// ending at now.
func (a PeriodArgs) period(now time.Time) (time.Time, time.Time) {
	to := now.UTC()
	from := to.AddDate(0, -(a.Months - 1), 0)
	return from, to
}

// toolResult is the JSON every tool returns on success.
type toolResult struct {
	ArtifactType artifact.Type `json:"artifactType"`
	Version      int           `json:"version"`
	Currency     string        `json:"currency"`
	Months       int           `json:"months,omitempty"`
}

func marshalResult(r toolResult) (json.RawMessage, error) {
	out, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tool result: %w", err)
	}
	return out, nil
}
