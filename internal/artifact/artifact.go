package artifact

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Type identifies what kind of canvas an artifact renders into.
//
// The set is closed except for the monthly breakdown family, which embeds a
// year-month parameter in the type string (one artifact instance per month).
type Type string

// Canvas artifact types.
const (
	TypeBurnRate         Type = "burn-rate-canvas"
	TypeRunway           Type = "runway-canvas"
	TypeRevenue          Type = "revenue-canvas"
	TypeProfit           Type = "profit-canvas"
	TypeCashFlow         Type = "cash-flow-canvas"
	TypeSpending         Type = "spending-canvas"
	TypeTaxSummary       Type = "tax-summary-canvas"
	TypeGrowthRate       Type = "growth-rate-canvas"
	TypeStressTest       Type = "stress-test-canvas"
	TypeBreakdownSummary Type = "breakdown-summary-canvas"
)

// Synthetic types carry conversational metadata through the same pipeline
// but must never surface on the canvas. The store filters them at read time.
const (
	TypeChatTitle   Type = "chat-title"
	TypeSuggestions Type = "suggestions"
)

// monthlyBreakdownPattern matches the parameterized monthly family, e.g.
// "breakdown-summary-canvas-2025-04". Membership must distinguish the family
// from arbitrary strings, so the month digits are anchored and bounded.
var monthlyBreakdownPattern = regexp.MustCompile(`^breakdown-summary-canvas-(\d{4})-(0[1-9]|1[0-2])$`)

// IsMonthlyBreakdown reports whether t belongs to the monthly breakdown
// family.
func IsMonthlyBreakdown(t Type) bool {
	return monthlyBreakdownPattern.MatchString(string(t))
}

// MonthlyBreakdownType builds the family member for the given month.
func MonthlyBreakdownType(year int, month time.Month) Type {
	return Type(fmt.Sprintf("%s-%04d-%02d", TypeBreakdownSummary, year, int(month)))
}

// BreakdownMonth extracts the year-month parameter from a monthly family
// member. ok is false when t is not part of the family.
func BreakdownMonth(t Type) (year int, month time.Month, ok bool) {
	m := monthlyBreakdownPattern.FindStringSubmatch(string(t))
	if m == nil {
		return 0, 0, false
	}
	// The pattern guarantees both groups are numeric.
	y, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	return y, time.Month(mm), true
}

// BaseType strips the month parameter from a family member. Non-family types
// are returned unchanged. Used for label lookup and tab ordering.
func BaseType(t Type) Type {
	if IsMonthlyBreakdown(t) {
		return TypeBreakdownSummary
	}
	return t
}

// Displayable reports whether t may surface on the canvas. Synthetic
// conversational types are stored like any other artifact but excluded here.
func Displayable(t Type) bool {
	switch t {
	case TypeChatTitle, TypeSuggestions:
		return false
	}
	return true
}

// Known reports whether t is a statically known canvas type or a member of
// the monthly family. Unknown types are not an error anywhere in the
// pipeline - the assistant may introduce types before the UI ships support -
// but callers can use Known to decide whether a renderer exists.
func Known(t Type) bool {
	switch t {
	case TypeBurnRate, TypeRunway, TypeRevenue, TypeProfit, TypeCashFlow,
		TypeSpending, TypeTaxSummary, TypeGrowthRate, TypeStressTest,
		TypeBreakdownSummary:
		return true
	}
	return IsMonthlyBreakdown(t)
}

// Artifact is one addressable, typed, versioned unit of AI-generated output.
//
// Version is strictly increasing per Type lineage and never reused; it
// disambiguates which snapshot of a type's data is displayed when a tool has
// produced the same analysis more than once in a session.
type Artifact struct {
	Type      Type
	Version   int
	Stage     Stage
	Payload   Payload
	CreatedAt time.Time
	UpdatedAt time.Time
}
