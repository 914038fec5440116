// Package artifact implements the staged artifact pipeline that backs the
// canvas panel: typed, versioned units of AI-generated financial analysis
// that are produced incrementally by tools and consumed by the web renderer.
//
// An artifact moves through ordered readiness stages (loading, chart_ready,
// metrics_ready, analysis_ready). Stage transitions are monotonic: a
// late-arriving update can never roll a further-along artifact backward,
// which is the primary defense against out-of-order delivery on the
// streaming transport. Payload updates are additive merges - a field
// populated at an earlier stage is never cleared by a later update.
//
// The Store is the single source of truth for all artifact instances
// visible in one session. It is created per session and dependency-injected;
// there are no package-level globals.
package artifact
