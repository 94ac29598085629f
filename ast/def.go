package ast

import "strings"

// Enumeration of prototype kinds.
const (
	ProtoFunction = iota // An ordinary named function.
	ProtoUnary           // A user-defined unary operator.
	ProtoBinary          // A user-defined binary operator.
)

// DefaultBinaryPrecedence is the precedence given to a user-defined binary
// operator that does not specify one.
const DefaultBinaryPrecedence = 30

// Prototype is a function's name, parameter list, and declaration position,
// independent of its body.  Extern declarations are bare prototypes.
type Prototype struct {
	ASTBase

	Name   string
	Params []string

	// Kind is one of the enumerated prototype kinds.
	Kind int

	// Precedence is the binding power of a binary operator prototype.
	Precedence int
}

// IsOperator returns whether the prototype defines an operator.
func (p *Prototype) IsOperator() bool {
	return p.Kind != ProtoFunction
}

// OperatorName returns the operator symbol of an operator prototype: eg. `|`
// for `binary|`.
func (p *Prototype) OperatorName() string {
	switch p.Kind {
	case ProtoUnary:
		return strings.TrimPrefix(p.Name, "unary")
	case ProtoBinary:
		return strings.TrimPrefix(p.Name, "binary")
	}

	return ""
}

// Clone returns a deep copy of the prototype.  Code generation keeps its own
// copy of every prototype it registers so the tree it was given is never
// mutated.
func (p *Prototype) Clone() *Prototype {
	params := make([]string, len(p.Params))
	copy(params, p.Params)

	clone := *p
	clone.Params = params
	return &clone
}

// Function is a function definition: a prototype and its body.
type Function struct {
	ASTBase

	Proto *Prototype
	Body  Expr
}

// AnonExprName is the name given to the functions wrapping top-level
// expressions.
const AnonExprName = "__anon_expr"

// IsTopLevelExpr returns whether the function wraps a top-level expression.
func (f *Function) IsTopLevelExpr() bool {
	return f.Proto.Name == AnonExprName
}
