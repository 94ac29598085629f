package syntax

import (
	"strconv"

	"github.com/fenix-project/arx/ast"
	"github.com/fenix-project/arx/report"
)

// OpTable maps binary operators to their precedence.  Higher precedences bind
// more tightly.
type OpTable map[string]int

// NewOpTable creates an operator table holding the built-in binary operators.
func NewOpTable() OpTable {
	return OpTable{
		"=": 2,
		"<": 10,
		">": 10,
		"+": 20,
		"-": 20,
		"*": 40,
		"/": 40,
	}
}

// Install adds or replaces a user-defined binary operator.
func (ot OpTable) Install(op string, prec int) {
	ot[op] = prec
}

// Uninstall removes a user-defined binary operator.
func (ot OpTable) Uninstall(op string) {
	delete(ot, op)
}

// Precedence returns the precedence of op if it is a binary operator.
func (ot OpTable) Precedence(op string) (int, bool) {
	prec, ok := ot[op]
	return prec, ok
}

// -----------------------------------------------------------------------------

// expr := unary {binop unary} ;
func (p *Parser) parseExpr() (ast.Expr, error) {
	lhs, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	return p.precedenceParse(0, lhs)
}

// tokPrecedence returns the precedence of the current token or -1 if the
// current token is not a binary operator.
func (p *Parser) tokPrecedence() int {
	if !p.got(TOK_OPER) {
		return -1
	}

	if prec, ok := p.ops.Precedence(p.tok.Value); ok {
		return prec
	}

	return -1
}

// precedenceParse implements precedence climbing over binary operators.  All
// operators are left associative.
func (p *Parser) precedenceParse(minPrec int, lhs ast.Expr) (ast.Expr, error) {
	for {
		prec := p.tokPrecedence()
		if prec < minPrec {
			return lhs, nil
		}

		opTok := p.tok
		if err := p.next(); err != nil {
			return nil, err
		}

		rhs, err := p.parseUnary()
		if err != nil {
			return nil, err
		}

		if prec < p.tokPrecedence() {
			rhs, err = p.precedenceParse(prec+1, rhs)
			if err != nil {
				return nil, err
			}
		}

		lhs = &ast.BinaryExpr{
			ASTBase: ast.NewASTBaseOn(opTok.Span),
			Op:      opTok.Value,
			Lhs:     lhs,
			Rhs:     rhs,
		}
	}
}

// unary := op unary | primary ;
func (p *Parser) parseUnary() (ast.Expr, error) {
	if !p.got(TOK_OPER) {
		return p.parsePrimary()
	}

	opTok := p.tok
	if err := p.next(); err != nil {
		return nil, err
	}

	operand, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	return &ast.UnaryExpr{
		ASTBase: ast.NewASTBaseOver(opTok.Span, operand.Span()),
		Op:      opTok.Value,
		Operand: operand,
	}, nil
}

// primary := number | ident_expr | '(' expr ')' | if_expr | for_expr | var_expr ;
func (p *Parser) parsePrimary() (ast.Expr, error) {
	switch p.tok.Kind {
	case TOK_NUMBER:
		return p.parseNumber()
	case TOK_IDENT:
		return p.parseIdentExpr()
	case TOK_LPAREN:
		if err := p.next(); err != nil {
			return nil, err
		}

		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		if err := p.assertAndNext(TOK_RPAREN, "`)`"); err != nil {
			return nil, err
		}

		return expr, nil
	case TOK_IF:
		return p.parseIfExpr()
	case TOK_FOR:
		return p.parseForExpr()
	case TOK_VAR:
		return p.parseVarExpr()
	default:
		return nil, p.reject("expression")
	}
}

func (p *Parser) parseNumber() (ast.Expr, error) {
	value, err := strconv.ParseFloat(p.tok.Value, 64)
	if err != nil {
		return nil, report.Raise(p.tok.Span, "malformed number literal: `%s`", p.tok.Value)
	}

	num := &ast.NumberExpr{ASTBase: ast.NewASTBaseOn(p.tok.Span), Value: value}
	return num, p.next()
}

// ident_expr := ident | ident '(' [expr {',' expr}] ')' ;
func (p *Parser) parseIdentExpr() (ast.Expr, error) {
	identTok := p.tok
	if err := p.next(); err != nil {
		return nil, err
	}

	if !p.got(TOK_LPAREN) {
		return &ast.VariableExpr{
			ASTBase: ast.NewASTBaseOn(identTok.Span),
			Name:    identTok.Value,
		}, nil
	}

	if err := p.next(); err != nil {
		return nil, err
	}

	var args []ast.Expr
	for !p.got(TOK_RPAREN) {
		if len(args) > 0 {
			if err := p.assertAndNext(TOK_COMMA, "`,` or `)`"); err != nil {
				return nil, err
			}
		}

		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		args = append(args, arg)
	}

	endSpan := p.tok.Span
	if err := p.next(); err != nil {
		return nil, err
	}

	return &ast.CallExpr{
		ASTBase: ast.NewASTBaseOver(identTok.Span, endSpan),
		Callee:  identTok.Value,
		Args:    args,
	}, nil
}

// if_expr := 'if' expr ('then' | ':') expr 'else' [':'] expr ;
func (p *Parser) parseIfExpr() (ast.Expr, error) {
	startSpan := p.tok.Span
	if err := p.next(); err != nil {
		return nil, err
	}

	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	if !p.got(TOK_THEN) {
		if err := p.assert(TOK_COLON, "`then`"); err != nil {
			return nil, err
		}
	}

	if err := p.next(); err != nil {
		return nil, err
	}

	then, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	if err := p.assertAndNext(TOK_ELSE, "`else`"); err != nil {
		return nil, err
	}

	if p.got(TOK_COLON) {
		if err := p.next(); err != nil {
			return nil, err
		}
	}

	els, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	return &ast.IfExpr{
		ASTBase: ast.NewASTBaseOver(startSpan, els.Span()),
		Cond:    cond,
		Then:    then,
		Else:    els,
	}, nil
}

// for_expr := 'for' ident '=' expr ',' expr [',' expr] 'in' expr ;
func (p *Parser) parseForExpr() (ast.Expr, error) {
	startSpan := p.tok.Span
	if err := p.next(); err != nil {
		return nil, err
	}

	if err := p.assert(TOK_IDENT, "loop variable name"); err != nil {
		return nil, err
	}

	varName := p.tok.Value
	if err := p.next(); err != nil {
		return nil, err
	}

	if !p.gotOper("=") {
		return nil, p.reject("`=`")
	}

	if err := p.next(); err != nil {
		return nil, err
	}

	start, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	if err := p.assertAndNext(TOK_COMMA, "`,` after loop start"); err != nil {
		return nil, err
	}

	end, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	var step ast.Expr
	if p.got(TOK_COMMA) {
		if err := p.next(); err != nil {
			return nil, err
		}

		if step, err = p.parseExpr(); err != nil {
			return nil, err
		}
	}

	if err := p.assertAndNext(TOK_IN, "`in`"); err != nil {
		return nil, err
	}

	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	return &ast.ForExpr{
		ASTBase: ast.NewASTBaseOver(startSpan, body.Span()),
		VarName: varName,
		Start:   start,
		End:     end,
		Step:    step,
		Body:    body,
	}, nil
}

// var_expr := 'var' ident ['=' expr] {',' ident ['=' expr]} 'in' expr ;
func (p *Parser) parseVarExpr() (ast.Expr, error) {
	startSpan := p.tok.Span
	if err := p.next(); err != nil {
		return nil, err
	}

	var bindings []ast.VarBinding
	for {
		if err := p.assert(TOK_IDENT, "variable name"); err != nil {
			return nil, err
		}

		binding := ast.VarBinding{Name: p.tok.Value}
		if err := p.next(); err != nil {
			return nil, err
		}

		if p.gotOper("=") {
			if err := p.next(); err != nil {
				return nil, err
			}

			init, err := p.parseExpr()
			if err != nil {
				return nil, err
			}

			binding.Init = init
		}

		bindings = append(bindings, binding)

		if !p.got(TOK_COMMA) {
			break
		}

		if err := p.next(); err != nil {
			return nil, err
		}
	}

	if err := p.assertAndNext(TOK_IN, "`in`"); err != nil {
		return nil, err
	}

	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	return &ast.VarExpr{
		ASTBase:  ast.NewASTBaseOver(startSpan, body.Span()),
		Bindings: bindings,
		Body:     body,
	}, nil
}
