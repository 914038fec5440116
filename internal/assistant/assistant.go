// Package assistant produces the narrative text around the dashboard
// figures: canvas analysis summaries, chat titles and follow-up
// suggestions.
//
// Generation goes through Genkit when an instance is configured. Without
// one (simulation mode, most tests) every method falls back to
// deterministic text, so the pipeline behaves identically minus the prose
// quality.
package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

const (
	// generationTimeout bounds each model call; a slow model must not
	// stall the artifact pipeline past the analysis stage.
	generationTimeout = 15 * time.Second

	titleMaxLength     = 60
	titleInputMaxRunes = 500

	summaryPrompt = `You are a financial analyst for a small business dashboard.
Write a short plain-text summary (2-3 sentences) of the following %s figures.
Be specific about amounts and direction of change. Do not use markdown.

%s`

	titlePrompt = `Generate a concise title (maximum 6 words) for a finance
chat that starts with this message. Reply with the title only:

%s`
)

// Generator turns figures into prose. The zero value is not usable; use
// New.
type Generator struct {
	genkit *genkit.Genkit
	model  string
	logger *slog.Logger
}

// New creates a Generator. genkit may be nil, which enables the
// deterministic fallbacks. A nil logger falls back to slog.Default.
func New(g *genkit.Genkit, model string, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{genkit: g, model: model, logger: logger}
}

// Summary produces the analysis narrative for one canvas. topic names the
// canvas ("burn rate", "cash flow"); figures is a plain-text rendering of
// the numbers the summary should mention. Generation failures degrade to
// the fallback text rather than failing the pipeline.
func (g *Generator) Summary(ctx context.Context, topic, figures string) string {
	if g.genkit == nil {
		return fallbackSummary(topic, figures)
	}

	ctx, cancel := context.WithTimeout(ctx, generationTimeout)
	defer cancel()

	response, err := genkit.Generate(ctx, g.genkit,
		ai.WithModelName(g.model),
		ai.WithPrompt(summaryPrompt, topic, figures),
	)
	if err != nil {
		g.logger.Debug("summary generation failed, using fallback", "topic", topic, "error", err)
		return fallbackSummary(topic, figures)
	}
	text := strings.TrimSpace(response.Text())
	if text == "" {
		return fallbackSummary(topic, figures)
	}
	return text
}

// Title produces a short chat title from the first user message. Returns
// a truncation of the message when generation is unavailable or fails.
func (g *Generator) Title(ctx context.Context, userMessage string) string {
	input := userMessage
	if runes := []rune(input); len(runes) > titleInputMaxRunes {
		input = string(runes[:titleInputMaxRunes]) + "..."
	}

	if g.genkit != nil {
		ctx, cancel := context.WithTimeout(ctx, generationTimeout)
		defer cancel()

		response, err := genkit.Generate(ctx, g.genkit,
			ai.WithModelName(g.model),
			ai.WithPrompt(titlePrompt, input),
		)
		if err == nil {
			if title := strings.TrimSpace(response.Text()); title != "" {
				return truncateTitle(title)
			}
		} else {
			g.logger.Debug("title generation failed, using truncation fallback", "error", err)
		}
	}
	return truncateTitle(input)
}

// Suggestions proposes follow-up questions after a turn. The static set
// rotates on the topic so repeated turns do not repeat suggestions.
func (g *Generator) Suggestions(_ context.Context, topic string) []string {
	base := []string{
		"How does this compare to the previous period?",
		"Show me the monthly breakdown",
		"What is my current runway?",
		"Summarize my cash flow this quarter",
	}
	if topic == "" {
		return base[:3]
	}
	offset := len(topic) % len(base)
	out := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		out = append(out, base[(offset+i)%len(base)])
	}
	return out
}

func fallbackSummary(topic, figures string) string {
	first := figures
	if i := strings.IndexByte(first, '\n'); i >= 0 {
		first = first[:i]
	}
	return fmt.Sprintf("Here is your %s overview. %s.", topic, strings.TrimSuffix(strings.TrimSpace(first), "."))
}

func truncateTitle(s string) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= titleMaxLength {
		return s
	}
	return string(runes[:titleMaxLength-3]) + "..."
}
