package floe

import (
	"fmt"
	"reflect"
)

// -----------------------------------------------------------------------------
// Row filter expressions
// -----------------------------------------------------------------------------

// Operation identifies the kind of a filter expression node.
type Operation uint8

// Expression operations.
const (
	OpTrue Operation = iota
	OpFalse
	OpNot
	OpAnd
	OpOr
	OpIsNull
	OpNotNull
	OpEq
	OpNotEq
	OpLt
	OpLtEq
	OpGt
	OpGtEq
)

func (op Operation) String() string {
	switch op {
	case OpTrue:
		return "true"
	case OpFalse:
		return "false"
	case OpNot:
		return "not"
	case OpAnd:
		return "and"
	case OpOr:
		return "or"
	case OpIsNull:
		return "is_null"
	case OpNotNull:
		return "not_null"
	case OpEq:
		return "eq"
	case OpNotEq:
		return "not_eq"
	case OpLt:
		return "lt"
	case OpLtEq:
		return "lt_eq"
	case OpGt:
		return "gt"
	case OpGtEq:
		return "gt_eq"
	}
	return fmt.Sprintf("operation(%d)", uint8(op))
}

// opNegations maps each negatable predicate operation to its inverse.
var opNegations = map[Operation]Operation{
	OpIsNull:  OpNotNull,
	OpNotNull: OpIsNull,
	OpEq:      OpNotEq,
	OpNotEq:   OpEq,
	OpLt:      OpGtEq,
	OpGtEq:    OpLt,
	OpGt:      OpLtEq,
	OpLtEq:    OpGt,
}

// Expression is a row filter predicate tree. Expressions are immutable
// values; Negate returns a new expression.
type Expression interface {
	// Op returns the node's operation.
	Op() Operation

	// Negate returns the logical inverse of the expression.
	Negate() Expression

	// Equivalent reports whether two expressions have the same structure
	// and semantics.
	Equivalent(other Expression) bool

	// String returns a compact human-readable form.
	String() string
}

// -----------------------------------------------------------------------------
// Constants
// -----------------------------------------------------------------------------

type alwaysTrue struct{}

// AlwaysTrue returns the expression matching every row.
func AlwaysTrue() Expression { return alwaysTrue{} }

func (alwaysTrue) Op() Operation                    { return OpTrue }
func (alwaysTrue) Negate() Expression               { return alwaysFalse{} }
func (alwaysTrue) Equivalent(other Expression) bool { return other.Op() == OpTrue }
func (alwaysTrue) String() string                   { return "true" }

type alwaysFalse struct{}

// AlwaysFalse returns the expression matching no rows.
func AlwaysFalse() Expression { return alwaysFalse{} }

func (alwaysFalse) Op() Operation                    { return OpFalse }
func (alwaysFalse) Negate() Expression               { return alwaysTrue{} }
func (alwaysFalse) Equivalent(other Expression) bool { return other.Op() == OpFalse }
func (alwaysFalse) String() string                   { return "false" }

// -----------------------------------------------------------------------------
// Logical connectives
// -----------------------------------------------------------------------------

type notExpr struct {
	child Expression
}

// Not returns the logical inverse of child, folding constants and double
// negation.
func Not(child Expression) Expression {
	switch child.Op() {
	case OpTrue:
		return alwaysFalse{}
	case OpFalse:
		return alwaysTrue{}
	case OpNot:
		if inner, ok := child.(notExpr); ok {
			return inner.child
		}
	}
	return notExpr{child: child}
}

func (n notExpr) Op() Operation      { return OpNot }
func (n notExpr) Negate() Expression { return n.child }

func (n notExpr) Equivalent(other Expression) bool {
	o, ok := other.(notExpr)
	return ok && n.child.Equivalent(o.child)
}

func (n notExpr) String() string { return fmt.Sprintf("not(%s)", n.child) }

type andExpr struct {
	left, right Expression
}

// And combines expressions conjunctively, folding constants.
func And(left, right Expression, rest ...Expression) Expression {
	result := and(left, right)
	for _, e := range rest {
		result = and(result, e)
	}
	return result
}

func and(left, right Expression) Expression {
	switch {
	case left.Op() == OpFalse || right.Op() == OpFalse:
		return alwaysFalse{}
	case left.Op() == OpTrue:
		return right
	case right.Op() == OpTrue:
		return left
	}
	return andExpr{left: left, right: right}
}

func (a andExpr) Op() Operation      { return OpAnd }
func (a andExpr) Negate() Expression { return Or(a.left.Negate(), a.right.Negate()) }

func (a andExpr) Equivalent(other Expression) bool {
	o, ok := other.(andExpr)
	return ok && a.left.Equivalent(o.left) && a.right.Equivalent(o.right)
}

func (a andExpr) String() string { return fmt.Sprintf("and(%s, %s)", a.left, a.right) }

type orExpr struct {
	left, right Expression
}

// Or combines expressions disjunctively, folding constants.
func Or(left, right Expression, rest ...Expression) Expression {
	result := or(left, right)
	for _, e := range rest {
		result = or(result, e)
	}
	return result
}

func or(left, right Expression) Expression {
	switch {
	case left.Op() == OpTrue || right.Op() == OpTrue:
		return alwaysTrue{}
	case left.Op() == OpFalse:
		return right
	case right.Op() == OpFalse:
		return left
	}
	return orExpr{left: left, right: right}
}

func (o orExpr) Op() Operation      { return OpOr }
func (o orExpr) Negate() Expression { return And(o.left.Negate(), o.right.Negate()) }

func (o orExpr) Equivalent(other Expression) bool {
	e, ok := other.(orExpr)
	return ok && o.left.Equivalent(e.left) && o.right.Equivalent(e.right)
}

func (o orExpr) String() string { return fmt.Sprintf("or(%s, %s)", o.left, o.right) }

// -----------------------------------------------------------------------------
// Predicates
// -----------------------------------------------------------------------------

// UnboundPredicate is a comparison or null test on a named column, not yet
// bound to a schema.
type UnboundPredicate struct {
	op   Operation
	term string
	lit  any
}

// Term returns the column name the predicate applies to.
func (p UnboundPredicate) Term() string { return p.term }

// Literal returns the comparison value; nil for null tests.
func (p UnboundPredicate) Literal() any { return p.lit }

func (p UnboundPredicate) Op() Operation { return p.op }

func (p UnboundPredicate) Negate() Expression {
	return UnboundPredicate{op: opNegations[p.op], term: p.term, lit: p.lit}
}

func (p UnboundPredicate) Equivalent(other Expression) bool {
	o, ok := other.(UnboundPredicate)
	return ok && p.op == o.op && p.term == o.term && reflect.DeepEqual(p.lit, o.lit)
}

func (p UnboundPredicate) String() string {
	if p.op == OpIsNull || p.op == OpNotNull {
		return fmt.Sprintf("%s(%s)", p.op, p.term)
	}
	return fmt.Sprintf("%s(%s, %v)", p.op, p.term, p.lit)
}

// Equal matches rows where column equals value.
func Equal(column string, value any) Expression {
	return UnboundPredicate{op: OpEq, term: column, lit: value}
}

// NotEqual matches rows where column differs from value.
func NotEqual(column string, value any) Expression {
	return UnboundPredicate{op: OpNotEq, term: column, lit: value}
}

// LessThan matches rows where column is strictly below value.
func LessThan(column string, value any) Expression {
	return UnboundPredicate{op: OpLt, term: column, lit: value}
}

// LessThanOrEqual matches rows where column is at most value.
func LessThanOrEqual(column string, value any) Expression {
	return UnboundPredicate{op: OpLtEq, term: column, lit: value}
}

// GreaterThan matches rows where column is strictly above value.
func GreaterThan(column string, value any) Expression {
	return UnboundPredicate{op: OpGt, term: column, lit: value}
}

// GreaterThanOrEqual matches rows where column is at least value.
func GreaterThanOrEqual(column string, value any) Expression {
	return UnboundPredicate{op: OpGtEq, term: column, lit: value}
}

// IsNull matches rows where column is null.
func IsNull(column string) Expression {
	return UnboundPredicate{op: OpIsNull, term: column}
}

// NotNull matches rows where column is not null.
func NotNull(column string) Expression {
	return UnboundPredicate{op: OpNotNull, term: column}
}
