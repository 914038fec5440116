package conversation

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

var (
	// ErrTurnDone rejects mutations after the assistant turn was
	// finalized, including a second finalization. The one exception is a
	// late tool-result resolving a call made before Done; see commit.
	ErrTurnDone = errors.New("conversation: turn already done")

	// ErrStaleSnapshot rejects a commit whose base revision no longer
	// matches the state. Update retries on it transparently; it only
	// escapes through the low-level Commit.
	ErrStaleSnapshot = errors.New("conversation: stale snapshot")

	// ErrHistoryRewrite rejects a commit that drops or alters messages
	// already in the log.
	ErrHistoryRewrite = errors.New("conversation: history is append-only")

	// ErrDanglingResult rejects a tool-result that references no earlier
	// tool-call.
	ErrDanglingResult = errors.New("conversation: tool-result without matching tool-call")
)

// Snapshot is an immutable view of the conversation at one revision.
// Mutators receive a snapshot, return the desired next state, and the
// commit either applies it atomically or reports why it cannot.
type Snapshot struct {
	Rev         uint64
	Messages    []Message
	Title       string
	Suggestions []string
	TurnDone    bool
}

// PendingCall describes a tool-call that has no result yet.
type PendingCall struct {
	ToolCallID string
	ToolName   string
	Since      time.Time
}

// State is the concurrency-safe holder of one session's conversation.
// Mutations go through Update or Done; both run the caller's function
// against the current snapshot and commit the returned one, retrying
// when a concurrent commit won the race.
type State struct {
	logger *slog.Logger
	now    func() time.Time

	mu   sync.Mutex
	snap Snapshot
}

// NewState creates an empty conversation. A nil logger falls back to
// slog.Default.
func NewState(logger *slog.Logger) *State {
	if logger == nil {
		logger = slog.Default()
	}
	return &State{logger: logger, now: time.Now}
}

// Get returns the current snapshot. The returned messages are deep copies;
// mutating them never affects the state.
func (s *State) Get() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.copy()
}

// Update applies fn to the current snapshot and commits the result. fn may
// run more than once when commits race, so it must be a pure function of
// its argument. Returns the committed snapshot.
func (s *State) Update(fn func(Snapshot) Snapshot) (Snapshot, error) {
	return s.mutate(fn, false, false)
}

// Done applies fn like Update and then finalizes the turn. Exactly one Done
// succeeds per turn; later mutations return ErrTurnDone, except a late
// tool-result resolving a call made before finalization.
func (s *State) Done(fn func(Snapshot) Snapshot) (Snapshot, error) {
	return s.mutate(fn, true, false)
}

// Reopen applies fn like Update, reopening a finalized turn in the same
// commit. A new user message starts its turn through Reopen so the append
// cannot race the previous turn's Done.
func (s *State) Reopen(fn func(Snapshot) Snapshot) (Snapshot, error) {
	return s.mutate(fn, false, true)
}

// BeginTurn reopens the conversation for the next assistant turn after a
// user message arrives. It is a no-op when the turn is already open.
func (s *State) BeginTurn() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap.TurnDone {
		s.snap.TurnDone = false
		s.snap.Rev++
	}
}

// DanglingCalls reports tool-calls older than stallAfter that still have no
// result. The UI renders these as permanently pending rather than spinning
// forever.
func (s *State) DanglingCalls(stallAfter time.Duration) []PendingCall {
	s.mu.Lock()
	defer s.mu.Unlock()

	resolved := make(map[string]bool)
	for _, m := range s.snap.Messages {
		for _, c := range m.Content {
			if c.Kind == ContentToolResult {
				resolved[c.ToolCallID] = true
			}
		}
	}

	cutoff := s.now().Add(-stallAfter)
	var out []PendingCall
	for _, m := range s.snap.Messages {
		for _, c := range m.Content {
			if c.Kind == ContentToolCall && !resolved[c.ToolCallID] && c.At.Before(cutoff) {
				out = append(out, PendingCall{ToolCallID: c.ToolCallID, ToolName: c.ToolName, Since: c.At})
			}
		}
	}
	return out
}

func (s *State) mutate(fn func(Snapshot) Snapshot, final, reopen bool) (Snapshot, error) {
	for {
		base := s.Get()
		next := fn(base)
		committed, err := s.commit(base.Rev, next, final, reopen)
		if errors.Is(err, ErrStaleSnapshot) {
			continue
		}
		return committed, err
	}
}

func (s *State) commit(baseRev uint64, next Snapshot, final, reopen bool) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if baseRev != s.snap.Rev {
		return Snapshot{}, ErrStaleSnapshot
	}
	// A finalized turn accepts exactly one kind of mutation: a tool-result
	// for a call that was still pending at Done. A tool outliving its
	// turn's finalization must resolve its call rather than leave it
	// dangling forever. The turn stays done.
	lateResult := false
	if s.snap.TurnDone && !reopen {
		if final || !resolvesPendingOnly(s.snap, next) {
			return Snapshot{}, ErrTurnDone
		}
		lateResult = true
	}
	if err := validateAppendOnly(s.snap.Messages, next.Messages); err != nil {
		return Snapshot{}, err
	}
	if err := validateResults(next.Messages); err != nil {
		return Snapshot{}, err
	}

	s.snap = next.copy()
	s.snap.Rev = baseRev + 1
	s.snap.TurnDone = final || lateResult
	if final {
		s.logger.Debug("turn done", "messages", len(s.snap.Messages), "rev", s.snap.Rev)
	}
	return s.snap.copy(), nil
}

// resolvesPendingOnly reports whether next only appends whole messages whose
// content is tool-results for calls that cur left unresolved, touching
// nothing else.
func resolvesPendingOnly(cur, next Snapshot) bool {
	if next.Title != cur.Title || len(next.Suggestions) != len(cur.Suggestions) {
		return false
	}
	if len(next.Messages) <= len(cur.Messages) {
		return false
	}
	for i, m := range cur.Messages {
		if len(next.Messages[i].Content) != len(m.Content) {
			return false
		}
	}

	calls := make(map[string]bool)
	resolved := make(map[string]bool)
	for _, m := range cur.Messages {
		for _, c := range m.Content {
			switch c.Kind {
			case ContentToolCall:
				calls[c.ToolCallID] = true
			case ContentToolResult:
				resolved[c.ToolCallID] = true
			}
		}
	}
	for _, m := range next.Messages[len(cur.Messages):] {
		for _, c := range m.Content {
			if c.Kind != ContentToolResult || !calls[c.ToolCallID] || resolved[c.ToolCallID] {
				return false
			}
			resolved[c.ToolCallID] = true
		}
	}
	return true
}

// validateAppendOnly checks that prev is a prefix of next: every existing
// message keeps its identity and role, and its content may only grow.
func validateAppendOnly(prev, next []Message) error {
	if len(next) < len(prev) {
		return fmt.Errorf("%w: %d messages shrank to %d", ErrHistoryRewrite, len(prev), len(next))
	}
	for i, old := range prev {
		got := next[i]
		if got.ID != old.ID || got.Role != old.Role {
			return fmt.Errorf("%w: message %d replaced", ErrHistoryRewrite, i)
		}
		if len(got.Content) < len(old.Content) {
			return fmt.Errorf("%w: message %d content shrank", ErrHistoryRewrite, i)
		}
		for j, oc := range old.Content {
			nc := got.Content[j]
			if nc.Kind != oc.Kind || nc.ToolCallID != oc.ToolCallID {
				return fmt.Errorf("%w: message %d content %d altered", ErrHistoryRewrite, i, j)
			}
		}
	}
	return nil
}

// validateResults checks every tool-result references a tool-call that
// appears strictly earlier in log order.
func validateResults(msgs []Message) error {
	calls := make(map[string]bool)
	for _, m := range msgs {
		for _, c := range m.Content {
			switch c.Kind {
			case ContentToolCall:
				calls[c.ToolCallID] = true
			case ContentToolResult:
				if !calls[c.ToolCallID] {
					return fmt.Errorf("%w: %q", ErrDanglingResult, c.ToolCallID)
				}
			}
		}
	}
	return nil
}

func (s Snapshot) copy() Snapshot {
	out := s
	out.Messages = make([]Message, len(s.Messages))
	for i, m := range s.Messages {
		out.Messages[i] = m.clone()
	}
	out.Suggestions = append([]string(nil), s.Suggestions...)
	return out
}
