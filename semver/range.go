package semver

import (
	"fmt"
	"strings"
)

// Range is a parsed dependency-range declaration: the package name and
// the interval set its version must fall within.
type Range struct {
	Name     string
	Versions IntervalSet
}

// ParseRange parses the user-facing dependency-range grammar:
//
//	name ( '@' | '^' | '~' | '=' ) semver
//	name '@[' interval-expr ']'
//	interval-expr := '(' bound ')' ( '||' '(' bound ')' )*
//	bound         := ('>=' | '<') semver ( ' ' ('<' | '>=') semver )?
func ParseRange(s string) (Range, error) {
	name, opIdx, op := splitOperator(s)
	if opIdx < 0 {
		return Range{}, fmt.Errorf("semver: no range operator found in %q", s)
	}
	if name == "" {
		return Range{}, fmt.Errorf("semver: empty package name in %q", s)
	}
	rest := s[opIdx+len(op):]

	if op == "@" && strings.HasPrefix(rest, "[") {
		ivs, err := parseBracketExpr(rest)
		if err != nil {
			return Range{}, fmt.Errorf("semver: %w (in %q)", err, s)
		}
		return Range{Name: name, Versions: NewIntervalSet(ivs...)}, nil
	}

	v, err := Parse(rest)
	if err != nil {
		return Range{}, fmt.Errorf("semver: %w (in %q)", err, s)
	}

	switch op {
	case "@", "^":
		return Range{Name: name, Versions: NewIntervalSet(Interval{Lo: v, Hi: v.NextMajor()})}, nil
	case "~":
		return Range{Name: name, Versions: NewIntervalSet(Interval{Lo: v, Hi: v.NextMinor()})}, nil
	case "=":
		return Range{Name: name, Versions: NewIntervalSet(Interval{Lo: v, Hi: v, HiInclusive: true})}, nil
	default:
		return Range{}, fmt.Errorf("semver: unknown range operator %q in %q", op, s)
	}
}

// splitOperator locates the first top-level occurrence of one of the
// four range operators, returning the name prefix, its byte index,
// and the matched operator string.
func splitOperator(s string) (name string, idx int, op string) {
	for i, r := range s {
		switch r {
		case '@', '^', '~', '=':
			return s[:i], i, string(r)
		}
	}
	return s, -1, ""
}

// parseBracketExpr parses `[(bound) || (bound) || ...]` into its
// constituent Intervals.
func parseBracketExpr(s string) ([]Interval, error) {
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return nil, fmt.Errorf("bracketed range missing '[' ']' delimiters")
	}
	body := s[1 : len(s)-1]

	var ivs []Interval
	for _, clause := range strings.Split(body, "||") {
		clause = strings.TrimSpace(clause)
		clause = strings.TrimPrefix(clause, "(")
		clause = strings.TrimSuffix(clause, ")")
		clause = strings.TrimSpace(clause)
		if clause == "" {
			return nil, fmt.Errorf("empty bound clause")
		}
		iv, err := parseBound(clause)
		if err != nil {
			return nil, err
		}
		ivs = append(ivs, iv)
	}
	return ivs, nil
}

// parseBound parses one `>=A` or `>=A <B` or `<B` bound clause into an
// Interval. A lone `<B` bound is anchored at version 0.0.0.
func parseBound(clause string) (Interval, error) {
	fields := strings.Fields(clause)
	iv := Interval{Lo: Version{}, Hi: Version{Major: 1 << 30}}

	for len(fields) > 0 {
		var opTok string
		switch {
		case strings.HasPrefix(fields[0], ">="):
			opTok, fields[0] = ">=", strings.TrimPrefix(fields[0], ">=")
		case strings.HasPrefix(fields[0], "<"):
			opTok, fields[0] = "<", strings.TrimPrefix(fields[0], "<")
		default:
			return Interval{}, fmt.Errorf("bound clause %q: expected '>=' or '<'", clause)
		}

		verStr := fields[0]
		fields = fields[1:]
		if verStr == "" {
			if len(fields) == 0 {
				return Interval{}, fmt.Errorf("bound clause %q: missing version after %q", clause, opTok)
			}
			verStr = fields[0]
			fields = fields[1:]
		}

		v, err := Parse(verStr)
		if err != nil {
			return Interval{}, fmt.Errorf("bound clause %q: %w", clause, err)
		}
		if opTok == ">=" {
			iv.Lo = v
		} else {
			iv.Hi = v
		}
	}

	return iv, nil
}

// String formats r back into the non-bracketed textual grammar when
// its interval set is a single interval with the canonical shapes
// produced by '@'/'^'/'~'/'=' ; otherwise it falls back to the
// bracketed union form.
func (r Range) String() string {
	ivs := r.Versions.Intervals()
	if len(ivs) == 1 {
		iv := ivs[0]
		switch {
		case iv.HiInclusive && iv.Lo.Equal(iv.Hi):
			return fmt.Sprintf("%s=%s", r.Name, iv.Lo)
		case iv.Hi.Equal(iv.Lo.NextMajor()):
			return fmt.Sprintf("%s@%s", r.Name, iv.Lo)
		case iv.Hi.Equal(iv.Lo.NextMinor()):
			return fmt.Sprintf("%s~%s", r.Name, iv.Lo)
		}
	}

	clauses := make([]string, len(ivs))
	for i, iv := range ivs {
		if iv.HiInclusive {
			clauses[i] = fmt.Sprintf("(>=%s <=%s)", iv.Lo, iv.Hi)
		} else {
			clauses[i] = fmt.Sprintf("(>=%s <%s)", iv.Lo, iv.Hi)
		}
	}
	return fmt.Sprintf("%s@[%s]", r.Name, strings.Join(clauses, " || "))
}
