package allocator

import (
	"fmt"
	"strings"
)

// Policy selects how a candidate's cost is compared against the budget.
type Policy int

const (
	// PolicyWindow accepts costs within budget-margin and budget+margin.
	PolicyWindow Policy = iota
	// PolicyCeilingOnly accepts any cost up to budget+margin.
	PolicyCeilingOnly
)

// ParsePolicy maps a configuration or request value onto a Policy.
// An empty string selects the default window policy.
func ParsePolicy(raw string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "window":
		return PolicyWindow, nil
	case "ceiling", "ceiling-only", "ceiling_only":
		return PolicyCeilingOnly, nil
	default:
		return PolicyWindow, fmt.Errorf("%w: got %q", ErrInvalidPolicy, raw)
	}
}

func (p Policy) String() string {
	switch p {
	case PolicyWindow:
		return "window"
	case PolicyCeilingOnly:
		return "ceiling"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// Feasible reports whether cost satisfies the policy. Both bounds are inclusive.
func (p Policy) Feasible(cost float64, spec BudgetSpec) bool {
	upper := spec.Budget + spec.Margin
	if cost > upper {
		return false
	}
	if p == PolicyCeilingOnly {
		return true
	}
	return cost >= spec.Budget-spec.Margin
}
