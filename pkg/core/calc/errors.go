package calc

import (
	"fmt"
	"strings"
)

// CollisionError is returned by NewStrictMetricStore when two raw labels
// resolve onto the same key.
type CollisionError struct {
	Key    string
	First  string
	Second string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("metric collision on %s: %q and %q resolve to the same field", e.Key, e.First, e.Second)
}

// MissingInputError describes a ratio that could not be computed because
// required inputs are absent. The engine absorbs it as an omission; Explain
// surfaces it for diagnostics.
type MissingInputError struct {
	Ratio   Ratio
	Missing []string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("%s: missing inputs %s", e.Ratio, strings.Join(e.Missing, ", "))
}

// DivisionGuardError describes a ratio omitted because a denominator is zero.
type DivisionGuardError struct {
	Ratio       Ratio
	Denominator string
}

func (e *DivisionGuardError) Error() string {
	return fmt.Sprintf("%s: denominator %s is zero", e.Ratio, e.Denominator)
}

// InsufficientDataError reports a bulk pass over a store that carries no
// canonical fields at all, so no ratio definition can apply.
type InsufficientDataError struct {
	Keys int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("no canonical fields among %d extracted keys", e.Keys)
}

// ComputationError wraps a panic recovered while evaluating a formula. The
// ratios computed before the failure are still returned alongside it.
type ComputationError struct {
	Ratio Ratio
	Cause interface{}
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("ratio %s failed: %v", e.Ratio, e.Cause)
}
