// Package ast defines the abstract syntax tree of the Arx language.  The set
// of node kinds is closed: every node implements Node through ASTBase and a
// sealed marker method, and consumers switch exhaustively over the concrete
// node types.
package ast

import "github.com/fenix-project/arx/report"

// Node is the abstract interface for all AST nodes.
type Node interface {
	// The text span of the AST.
	Span() *report.TextSpan

	// The 1-based source line of the node; 0 if the node has no position.
	Line() int

	// The 1-based source column of the node; 0 if the node has no position.
	Col() int

	// sealed prevents types outside of this package from implementing Node.
	sealed()
}

// Expr is an AST node which produces a value.
type Expr interface {
	Node

	exprNode()
}

// ASTBase is a utility base struct for all AST nodes.
type ASTBase struct {
	// The span over which the AST node occurs.
	span *report.TextSpan
}

// NewASTBaseOn creates a new AST base with the given span.
func NewASTBaseOn(span *report.TextSpan) ASTBase {
	return ASTBase{span: span}
}

// NewASTBaseOver creates a new AST base spanning over two spans.
func NewASTBaseOver(start, end *report.TextSpan) ASTBase {
	return ASTBase{span: report.NewSpanOver(start, end)}
}

// NewASTBaseAt creates a new AST base at a 1-based line and column.  It is
// used to build trees directly rather than through the parser.
func NewASTBaseAt(line, col int) ASTBase {
	return ASTBase{span: &report.TextSpan{
		StartLine: line - 1,
		StartCol:  col - 1,
		EndLine:   line - 1,
		EndCol:    col,
	}}
}

func (ab ASTBase) Span() *report.TextSpan {
	return ab.span
}

func (ab ASTBase) Line() int {
	if ab.span == nil {
		return 0
	}

	return ab.span.StartLine + 1
}

func (ab ASTBase) Col() int {
	if ab.span == nil {
		return 0
	}

	return ab.span.StartCol + 1
}

func (ASTBase) sealed() {}
