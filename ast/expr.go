package ast

// NumberExpr is a numeric literal.  All Arx values are doubles.
type NumberExpr struct {
	ASTBase

	Value float64
}

// VariableExpr is a reference to a named variable.
type VariableExpr struct {
	ASTBase

	Name string
}

// UnaryExpr is a unary operator application: `-x`, `!x`, or an application
// of a user-defined unary operator.
type UnaryExpr struct {
	ASTBase

	Op      string
	Operand Expr
}

// BinaryExpr is a binary operator application.  The `=` operator is
// assignment and requires its left operand to be a variable.
type BinaryExpr struct {
	ASTBase

	Op       string
	Lhs, Rhs Expr
}

// CallExpr is a function call by name.
type CallExpr struct {
	ASTBase

	Callee string
	Args   []Expr
}

// IfExpr is a conditional expression.  Both branches are required.
type IfExpr struct {
	ASTBase

	Cond, Then, Else Expr
}

// ForExpr is a counted loop: `for Var = Start, End[, Step] in Body`.  The
// loop always yields 0.0.
type ForExpr struct {
	ASTBase

	VarName          string
	Start, End, Step Expr // Step is nil when omitted
	Body             Expr
}

// VarBinding is one `name [= init]` entry of a VarExpr.
type VarBinding struct {
	Name string
	Init Expr // nil initializes to 0.0
}

// VarExpr declares local variables for the duration of its body:
// `var a = 1, b in Body`.
type VarExpr struct {
	ASTBase

	Bindings []VarBinding
	Body     Expr
}

func (*NumberExpr) exprNode()   {}
func (*VariableExpr) exprNode() {}
func (*UnaryExpr) exprNode()    {}
func (*BinaryExpr) exprNode()   {}
func (*CallExpr) exprNode()     {}
func (*IfExpr) exprNode()       {}
func (*ForExpr) exprNode()      {}
func (*VarExpr) exprNode()      {}
