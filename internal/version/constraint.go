package version

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ConstraintOp is one of the operators a Constraint may use.
type ConstraintOp int

const (
	OpEqual ConstraintOp = iota
	OpGreaterEqual
	OpGreater
	OpLessEqual
	OpLess
	OpCompatible
	// OpNotEqual is recognized syntactically but never evaluated: Satisfies
	// always returns true for it, and callers that care about semantic
	// constraints should drop it before merging.
	OpNotEqual
)

func (op ConstraintOp) String() string {
	switch op {
	case OpEqual:
		return "="
	case OpGreaterEqual:
		return ">="
	case OpGreater:
		return ">"
	case OpLessEqual:
		return "<="
	case OpLess:
		return "<"
	case OpCompatible:
		return "~>"
	case OpNotEqual:
		return "!="
	default:
		return "?"
	}
}

// Constraint pairs an operator with its operand version. Precision records
// how many dot-separated components the operand string had (1-3); it
// matters for OpCompatible, which locks every component to the left of the
// rightmost specified one, and for String, which renders that many
// components.
type Constraint struct {
	Op        ConstraintOp
	Operand   Version
	Precision int
}

// ParseConstraint parses a single constraint expression such as "~> 1.2",
// ">= 1.0.0", or "1.0" (bare versions are treated as OpEqual).
func ParseConstraint(s string) (Constraint, error) {
	s = strings.TrimSpace(s)

	for _, c := range []struct {
		prefix string
		op     ConstraintOp
	}{
		{"~>", OpCompatible},
		{">=", OpGreaterEqual},
		{"<=", OpLessEqual},
		{"!=", OpNotEqual},
		{">", OpGreater},
		{"<", OpLess},
		{"=", OpEqual},
	} {
		if strings.HasPrefix(s, c.prefix) {
			rest := strings.TrimSpace(s[len(c.prefix):])
			return newConstraint(c.op, rest)
		}
	}

	return newConstraint(OpEqual, s)
}

func newConstraint(op ConstraintOp, operand string) (Constraint, error) {
	if operand == "" {
		return Constraint{}, errors.Errorf("invalid constraint: missing version operand")
	}
	v, err := Parse(operand)
	if err != nil {
		return Constraint{}, errors.Wrap(err, "invalid constraint")
	}
	return Constraint{Op: op, Operand: v, Precision: len(strings.Split(operand, "."))}, nil
}

// Satisfies is a total function: for every operator and every pair of
// versions it returns a definite answer.
func Satisfies(v Version, c Constraint) bool {
	switch c.Op {
	case OpEqual:
		return v.Equal(c.Operand)
	case OpGreaterEqual:
		return v.Pack() >= c.Operand.Pack()
	case OpGreater:
		return v.Pack() > c.Operand.Pack()
	case OpLessEqual:
		return v.Pack() <= c.Operand.Pack()
	case OpLess:
		return v.Pack() < c.Operand.Pack()
	case OpNotEqual:
		return true
	case OpCompatible:
		return satisfiesCompatible(v, c)
	default:
		return false
	}
}

// satisfiesCompatible implements "~>": the left of the rightmost specified
// component is locked, the rightmost itself is a floor.
//
//	~> M.N    -> major == M, minor >= N
//	~> M.N.P  -> major == M, minor == N, patch >= P
func satisfiesCompatible(v Version, c Constraint) bool {
	if v.Major != c.Operand.Major {
		return false
	}
	if c.Precision <= 2 {
		return v.Minor >= c.Operand.Minor
	}
	return v.Minor == c.Operand.Minor && v.Patch >= c.Operand.Patch
}

// SatisfiesAll reports whether v satisfies every constraint in cs.
func SatisfiesAll(v Version, cs []Constraint) bool {
	for _, c := range cs {
		if !Satisfies(v, c) {
			return false
		}
	}
	return true
}

// String renders a constraint the way the manifest parser and emitter need
// it: e.g. "~> 3.0", ">= 1.0", preserving the original operand precision
// rather than always spelling out major.minor.patch.
func (c Constraint) String() string {
	return c.Op.String() + " " + c.operandString()
}

func (c Constraint) operandString() string {
	parts := []string{
		strconv.Itoa(int(c.Operand.Major)),
		strconv.Itoa(int(c.Operand.Minor)),
		strconv.Itoa(int(c.Operand.Patch)),
	}
	n := c.Precision
	if n < 1 {
		n = 1
	}
	if n > 3 {
		n = 3
	}
	return strings.Join(parts[:n], ".")
}
