// Package component holds the server-rendered UI building blocks for the
// canvas dashboard: the canvas frame with its chart, metrics and analysis
// regions, the skeleton placeholders drawn while a stage is pending, the
// tab strip of open canvases and the chat transcript pieces.
//
// Components are hand-written templ.ComponentFunc values. All dynamic text
// is escaped before writing; only markup produced here is emitted raw.
package component
