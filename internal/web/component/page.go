package component

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/midday-ai/canvas/internal/conversation"
)

// Page is the HTML shell for the dashboard. The SSE connection and form
// wiring are driven by htmx with its SSE extension.
func Page(title string, body ...templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w,
			`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`+
				`<meta name="viewport" content="width=device-width, initial-scale=1">`+
				`<title>%s</title>`+
				`<link rel="stylesheet" href="/static/css/canvas.css">`+
				`<script src="https://unpkg.com/htmx.org@2.0.4" defer></script>`+
				`<script src="https://unpkg.com/htmx-ext-sse@2.2.2" defer></script>`+
				`</head><body>`, esc(title)); err != nil {
			return err
		}
		for _, comp := range body {
			if err := comp.Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</body></html>`)
		return err
	})
}

// ChatTranscript renders the conversation log. Tool-calls without a result
// show as pending; failed results show the error text.
func ChatTranscript(snap conversation.Snapshot) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<div class="chat-transcript" id="transcript">`); err != nil {
			return err
		}
		resolved := make(map[string]conversation.Content)
		for _, m := range snap.Messages {
			for _, c := range m.Content {
				if c.Kind == conversation.ContentToolResult {
					resolved[c.ToolCallID] = c
				}
			}
		}
		for _, m := range snap.Messages {
			for _, c := range m.Content {
				if err := writeContent(w, m.Role, c, resolved); err != nil {
					return err
				}
			}
		}
		_, err := io.WriteString(w, `</div>`)
		return err
	})
}

// SuggestionChips renders follow-up questions as submittable chips.
func SuggestionChips(suggestions []string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if len(suggestions) == 0 {
			return nil
		}
		if _, err := io.WriteString(w, `<div class="suggestions">`); err != nil {
			return err
		}
		for _, s := range suggestions {
			if _, err := fmt.Fprintf(w,
				`<button class="chip" hx-post="/chat/send" hx-vals='{"message": %q}'>%s</button>`,
				esc(s), esc(s)); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</div>`)
		return err
	})
}

// ChatForm is the message input bound to the send endpoint.
func ChatForm() templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w,
			`<form class="chat-form" hx-post="/chat/send" hx-target="#transcript" hx-swap="outerHTML">`+
				`<input type="text" name="message" placeholder="Ask about your finances" autocomplete="off" required>`+
				`<button type="submit">Send</button></form>`)
		return err
	})
}

func writeContent(w io.Writer, role conversation.Role, c conversation.Content, resolved map[string]conversation.Content) error {
	switch c.Kind {
	case conversation.ContentText:
		_, err := fmt.Fprintf(w, `<div class="msg msg-%s"><p>%s</p></div>`, esc(string(role)), esc(c.Text))
		return err
	case conversation.ContentToolCall:
		result, ok := resolved[c.ToolCallID]
		switch {
		case !ok:
			_, err := fmt.Fprintf(w,
				`<div class="msg msg-tool msg-tool-pending" data-call-id="%s">%s…</div>`,
				esc(c.ToolCallID), esc(c.ToolName))
			return err
		case result.Error != "":
			_, err := fmt.Fprintf(w,
				`<div class="msg msg-tool msg-tool-error" data-call-id="%s">%s failed: %s</div>`,
				esc(c.ToolCallID), esc(c.ToolName), esc(result.Error))
			return err
		default:
			_, err := fmt.Fprintf(w,
				`<div class="msg msg-tool msg-tool-done" data-call-id="%s">%s</div>`,
				esc(c.ToolCallID), esc(c.ToolName))
			return err
		}
	case conversation.ContentToolResult:
		// Rendered alongside the originating call.
		return nil
	}
	return nil
}
