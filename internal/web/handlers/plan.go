package handlers

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/midday-ai/canvas/internal/tools"
)

// intents maps message keywords to the tool answering them. Matching is
// first-hit per tool; a message touching several topics runs several tools.
var intents = []struct {
	tool     string
	keywords []string
}{
	{tools.NameBurnRate, []string{"burn"}},
	{tools.NameRunway, []string{"runway", "run out", "how long"}},
	{tools.NameRevenueSummary, []string{"revenue", "income", "sales", "invoice"}},
	{tools.NameProfit, []string{"profit", "margin"}},
	{tools.NameSpending, []string{"spending", "expense"}},
	{tools.NameGrowthRate, []string{"growth", "growing"}},
	{tools.NameStressTest, []string{"stress", "worst case", "scenario"}},
	{tools.NameCashFlow, []string{"cash flow", "cashflow", "inflow", "outflow"}},
	{tools.NameTaxSummary, []string{"tax", "vat"}},
	{tools.NameMetricsBreakdown, []string{"breakdown", "categor", "where", "month by month"}},
}

var monthsPattern = regexp.MustCompile(`(\d{1,2})\s*month`)

// planTools maps a chat message to the tools to run. A message matching no
// intent gets the cash-flow overview so every question opens a canvas.
func planTools(message string) []string {
	lower := strings.ToLower(message)

	var names []string
	for _, intent := range intents {
		for _, kw := range intent.keywords {
			if strings.Contains(lower, kw) {
				names = append(names, intent.tool)
				break
			}
		}
	}
	if len(names) == 0 {
		names = []string{tools.NameCashFlow}
	}
	return names
}

// planArgs extracts period arguments from the message. Only an explicit
// month count is recognized; everything else uses the tool defaults.
func planArgs(message string) json.RawMessage {
	m := monthsPattern.FindStringSubmatch(strings.ToLower(message))
	if m == nil {
		return nil
	}
	months, err := strconv.Atoi(m[1])
	if err != nil || months <= 0 {
		return nil
	}
	return json.RawMessage(fmt.Sprintf(`{"months":%d}`, months))
}
