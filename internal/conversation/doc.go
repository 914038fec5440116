// Package conversation maintains the append-only message log for one chat
// session and the mutation contract tool executors use to record their
// invocation and result without racing each other.
//
// The log is mutated through an optimistic-concurrency discipline: read a
// snapshot, compute the next state, commit against the snapshot's revision.
// A commit against a stale revision is rejected and the caller recomputes
// against the newer snapshot, so two tools resolving around the same time
// can never lose each other's updates.
//
// Integrity is enforced at commit time: history is append-only, and every
// tool-result content item must reference a tool-call that appears earlier
// in the log. A tool-call left without a result is detectable afterwards via
// DanglingCalls and rendered by the UI as permanently pending.
package conversation
