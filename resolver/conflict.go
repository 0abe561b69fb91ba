package resolver

import (
	"fmt"
	"strings"
)

// IncompatibilityKind classifies why a step in a conflict chain failed.
type IncompatibilityKind int

const (
	// NoCandidateSatisfies means the accumulated constraint for a
	// package name admits no version any source offers.
	NoCandidateSatisfies IncompatibilityKind = iota
	// ConstraintConflictsWithDecision means a newly derived constraint
	// excludes the version already committed to for that name.
	ConstraintConflictsWithDecision
	// TransportFailure means every configured source failed to answer
	// candidates(name).
	TransportFailure
)

// Incompatibility is one link in the minimal conflict chain reported
// alongside a ConflictError: the package name involved, why it failed,
// and which package required the constraint that caused the failure.
type Incompatibility struct {
	Package    string
	RequiredBy string
	Kind       IncompatibilityKind
	Detail     string
}

func (i Incompatibility) String() string {
	switch i.Kind {
	case TransportFailure:
		return fmt.Sprintf("%s: every source failed (%s)", i.Package, i.Detail)
	case ConstraintConflictsWithDecision:
		return fmt.Sprintf("%s: %s requires a version incompatible with the one already chosen (%s)", i.Package, i.RequiredBy, i.Detail)
	default:
		return fmt.Sprintf("%s: no candidate satisfies the constraints accumulated from %s (%s)", i.Package, i.RequiredBy, i.Detail)
	}
}

// ConflictError is the resolver's failure report: the minimal chain of
// incompatibilities the solver derived before exhausting every
// backtracking alternative.
type ConflictError struct {
	Chain []Incompatibility
}

func (e *ConflictError) Error() string {
	lines := make([]string, len(e.Chain))
	for i, inc := range e.Chain {
		lines[i] = inc.String()
	}
	return "dependency resolution failed:\n  " + strings.Join(lines, "\n  ")
}
