package artifact

import (
	"log/slog"
	"sync"
	"time"
)

// Selection is the externally-owned display pointer resolved by Active. Type
// comes from the "artifact-type" URL query parameter; VersionIndex from the
// "version" parameter. A nil VersionIndex means the parameter was absent, in
// which case the most recently created instance wins.
type Selection struct {
	Type         Type
	VersionIndex *int
}

// instance pairs an artifact with its creation sequence so recency can be
// resolved deterministically even when versions arrive out of order.
type instance struct {
	art Artifact
	seq int
}

// Store is the session-scoped registry of artifact instances. All methods
// are safe for concurrent use. Reads return copies; payload sections are
// treated as immutable once stored (Merge replaces them wholesale).
type Store struct {
	logger *slog.Logger
	now    func() time.Time

	mu      sync.RWMutex
	byType  map[Type][]*instance // per type, in creation order
	seq     int
	subs    map[int]chan struct{}
	nextSub int
}

// NewStore creates an empty store. A nil logger falls back to slog.Default.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		logger: logger,
		now:    time.Now,
		byType: make(map[Type][]*instance),
		subs:   make(map[int]chan struct{}),
	}
}

// CreateOrUpdate applies a streamed update for (typ, version). A missing
// instance is created at the loading stage with an empty payload first; then
// the stage transition and payload merge are applied. Applying the same
// update twice is observably idempotent. Subscribers are notified after
// every call.
func (s *Store) CreateOrUpdate(typ Type, version int, stage Stage, update Payload) Artifact {
	s.mu.Lock()
	inst := s.lookupLocked(typ, version)
	if inst == nil {
		s.seq++
		inst = &instance{
			art: Artifact{
				Type:      typ,
				Version:   version,
				Stage:     StageLoading,
				CreatedAt: s.now(),
			},
			seq: s.seq,
		}
		s.byType[typ] = append(s.byType[typ], inst)
	}
	inst.art.Stage = Advance(inst.art.Stage, stage)
	inst.art.Payload = Merge(inst.art.Payload, update)
	inst.art.UpdatedAt = s.now()
	out := inst.art
	s.mu.Unlock()

	s.logger.Debug("artifact update",
		"type", typ,
		"version", version,
		"stage", out.Stage)
	s.notify()
	return out
}

// CreateVersion reserves the next free version number for typ and creates
// its instance at the loading stage with the given initial payload. Tools
// call it once per invocation so concurrent runs never collide on a
// version.
func (s *Store) CreateVersion(typ Type, initial Payload) Artifact {
	s.mu.Lock()
	version := 0
	for _, inst := range s.byType[typ] {
		if inst.art.Version >= version {
			version = inst.art.Version + 1
		}
	}
	s.seq++
	now := s.now()
	inst := &instance{
		art: Artifact{
			Type:      typ,
			Version:   version,
			Stage:     StageLoading,
			Payload:   Merge(Payload{}, initial),
			CreatedAt: now,
			UpdatedAt: now,
		},
		seq: s.seq,
	}
	s.byType[typ] = append(s.byType[typ], inst)
	out := inst.art
	s.mu.Unlock()

	s.logger.Debug("artifact created", "type", typ, "version", version)
	s.notify()
	return out
}

// Get returns the instance for (typ, version). ok is false when absent;
// absence is a normal "still loading" condition, never an error.
func (s *Store) Get(typ Type, version int) (Artifact, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if inst := s.lookupLocked(typ, version); inst != nil {
		return inst.art, true
	}
	return Artifact{}, false
}

// Versions returns all instances of typ in creation order.
func (s *Store) Versions(typ Type) []Artifact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	insts := s.byType[typ]
	out := make([]Artifact, 0, len(insts))
	for _, inst := range insts {
		out = append(out, inst.art)
	}
	return out
}

// Available lists the displayable types currently in the store, ordered by
// first creation. Synthetic types never appear here even when stored.
func (s *Store) Available() []Type {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type firstSeen struct {
		typ Type
		seq int
	}
	var seen []firstSeen
	for typ, insts := range s.byType {
		if !Displayable(typ) || len(insts) == 0 {
			continue
		}
		seen = append(seen, firstSeen{typ: typ, seq: insts[0].seq})
	}
	// Insertion sort: the set of open canvases is small.
	for i := 1; i < len(seen); i++ {
		for j := i; j > 0 && seen[j].seq < seen[j-1].seq; j-- {
			seen[j], seen[j-1] = seen[j-1], seen[j]
		}
	}
	out := make([]Type, len(seen))
	for i, fs := range seen {
		out[i] = fs.typ
	}
	return out
}

// Active resolves the artifact currently selected for display. Resolution
// order for a selection pointer naming type T:
//
//  1. an instance of exactly T, picked by version index when the pointer is
//     set (clamped), else the most recently created;
//  2. for parameterized families, the same rules across every stored member
//     of T's family;
//  3. the first instance as a last resort.
//
// An empty selection resolves to the most recently created displayable
// artifact in the session. ok=false means nothing to display; callers treat
// that as stage=loading, not as a failure.
func (s *Store) Active(sel Selection) (Artifact, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if sel.Type == "" {
		return s.latestLocked()
	}
	if !Displayable(sel.Type) {
		return Artifact{}, false
	}

	if insts := s.byType[sel.Type]; len(insts) > 0 {
		return pick(insts, sel.VersionIndex), true
	}

	// Fall back to siblings of a parameterized family: a pointer at
	// "breakdown-summary-canvas-2025-06" should still resolve when only
	// other months (or the base summary) exist, and vice versa.
	if !IsMonthlyBreakdown(sel.Type) && sel.Type != TypeBreakdownSummary {
		return Artifact{}, false
	}
	base := BaseType(sel.Type)
	var family []*instance
	for typ, insts := range s.byType {
		if BaseType(typ) == base && Displayable(typ) {
			family = append(family, insts...)
		}
	}
	if len(family) == 0 {
		return Artifact{}, false
	}
	for i := 1; i < len(family); i++ {
		for j := i; j > 0 && family[j].seq < family[j-1].seq; j-- {
			family[j], family[j-1] = family[j-1], family[j]
		}
	}
	return pick(family, sel.VersionIndex), true
}

// Dismiss removes every instance of typ from the store, e.g. when the user
// closes a canvas tab. Subscribers are notified so sibling tabs re-resolve.
func (s *Store) Dismiss(typ Type) {
	s.mu.Lock()
	_, existed := s.byType[typ]
	delete(s.byType, typ)
	s.mu.Unlock()
	if existed {
		s.notify()
	}
}

// Subscribe registers for change notifications. The channel is buffered and
// coalescing: bursts of updates collapse into one pending signal. The cancel
// func must be called to release the subscription.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	ch := make(chan struct{}, 1)
	s.subs[id] = ch
	return ch, func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) notify() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default: // a signal is already pending
		}
	}
}

func (s *Store) lookupLocked(typ Type, version int) *instance {
	for _, inst := range s.byType[typ] {
		if inst.art.Version == version {
			return inst
		}
	}
	return nil
}

func (s *Store) latestLocked() (Artifact, bool) {
	var best *instance
	for typ, insts := range s.byType {
		if !Displayable(typ) {
			continue
		}
		for _, inst := range insts {
			if best == nil || inst.seq > best.seq {
				best = inst
			}
		}
	}
	if best == nil {
		return Artifact{}, false
	}
	return best.art, true
}

// pick chooses from creation-ordered instances: an explicit version index is
// clamped into range; no index means the most recently created.
func pick(insts []*instance, versionIndex *int) Artifact {
	if versionIndex == nil {
		return insts[len(insts)-1].art
	}
	i := *versionIndex
	if i < 0 {
		i = 0
	}
	if i >= len(insts) {
		i = len(insts) - 1
	}
	return insts[i].art
}
