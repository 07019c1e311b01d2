package allocator

import (
	"errors"
	"testing"
)

func TestParsePolicy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want Policy
	}{
		{raw: "", want: PolicyWindow},
		{raw: "window", want: PolicyWindow},
		{raw: " Window ", want: PolicyWindow},
		{raw: "ceiling", want: PolicyCeilingOnly},
		{raw: "CEILING-ONLY", want: PolicyCeilingOnly},
		{raw: "ceiling_only", want: PolicyCeilingOnly},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.raw, func(t *testing.T) {
			t.Parallel()

			got, err := ParsePolicy(tc.raw)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}

	if _, err := ParsePolicy("floor"); !errors.Is(err, ErrInvalidPolicy) {
		t.Fatalf("expected ErrInvalidPolicy, got %v", err)
	}
}

func TestPolicyFeasibleBounds(t *testing.T) {
	t.Parallel()

	spec := BudgetSpec{Budget: 1000, Margin: 100}

	tests := []struct {
		name   string
		policy Policy
		cost   float64
		want   bool
	}{
		{name: "CeilingAtUpperBound", policy: PolicyCeilingOnly, cost: 1100, want: true},
		{name: "CeilingAboveUpperBound", policy: PolicyCeilingOnly, cost: 1101, want: false},
		{name: "CeilingFarBelow", policy: PolicyCeilingOnly, cost: 1, want: true},
		{name: "WindowAtLowerBound", policy: PolicyWindow, cost: 900, want: true},
		{name: "WindowBelowLowerBound", policy: PolicyWindow, cost: 899, want: false},
		{name: "WindowAtUpperBound", policy: PolicyWindow, cost: 1100, want: true},
		{name: "WindowAboveUpperBound", policy: PolicyWindow, cost: 1101, want: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := tc.policy.Feasible(tc.cost, spec); got != tc.want {
				t.Fatalf("expected %v for cost %g, got %v", tc.want, tc.cost, got)
			}
		})
	}
}
