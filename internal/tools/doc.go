// Package tools implements the financial analysis tools the assistant can
// invoke during a chat turn, and the Runner that holds them to the
// conversation contract.
//
// Every tool streams a staged artifact through the session's store while it
// computes: create at loading, publish the chart, then the metrics grid,
// then the narrative analysis. The Runner owns the conversation side: it
// appends the tool-call before execution and guarantees exactly one
// tool-result afterwards, error payload included, so no call is ever left
// dangling.
//
// Lifecycle events reach the streaming layer through an emitter carried in
// the context; tools and the web layer stay decoupled.
package tools
