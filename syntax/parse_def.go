package syntax

import (
	"strconv"

	"github.com/fenix-project/arx/ast"
	"github.com/fenix-project/arx/report"
)

// definition := 'function' prototype ':' expr ;
func (p *Parser) parseDefinition() (fn *ast.Function, err error) {
	startSpan := p.tok.Span
	if err := p.next(); err != nil {
		return nil, err
	}

	proto, err := p.parsePrototype(startSpan)
	if err != nil {
		return nil, err
	}

	if err := p.assertAndNext(TOK_COLON, "`:`"); err != nil {
		return nil, err
	}

	// Install the precedence before the body so the operator can be used
	// recursively.
	if proto.Kind == ast.ProtoBinary {
		op := proto.OperatorName()
		prevPrec, hadPrec := p.ops.Precedence(op)
		p.ops.Install(op, proto.Precedence)

		defer func() {
			if err == nil {
				return
			} else if hadPrec {
				p.ops.Install(op, prevPrec)
			} else {
				p.ops.Uninstall(op)
			}
		}()
	}

	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	return &ast.Function{
		ASTBase: ast.NewASTBaseOver(startSpan, body.Span()),
		Proto:   proto,
		Body:    body,
	}, nil
}

// extern := 'extern' prototype ;
func (p *Parser) parseExtern() (*ast.Prototype, error) {
	startSpan := p.tok.Span
	if err := p.next(); err != nil {
		return nil, err
	}

	proto, err := p.parsePrototype(startSpan)
	if err != nil {
		return nil, err
	}

	// Externs may declare operators implemented elsewhere.
	if proto.Kind == ast.ProtoBinary {
		p.ops.Install(proto.OperatorName(), proto.Precedence)
	}

	if p.got(TOK_SEMI) {
		if err := p.next(); err != nil {
			return nil, err
		}
	}

	return proto, nil
}

// Top-level expressions are wrapped in anonymous nullary functions.
func (p *Parser) parseTopLevelExpr() (*ast.Function, error) {
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	if p.got(TOK_SEMI) {
		if err := p.next(); err != nil {
			return nil, err
		}
	}

	return &ast.Function{
		ASTBase: ast.NewASTBaseOn(expr.Span()),
		Proto: &ast.Prototype{
			ASTBase: ast.NewASTBaseOn(expr.Span()),
			Name:    ast.AnonExprName,
		},
		Body: expr,
	}, nil
}

// prototype := ident '(' [ident {',' ident}] ')'
//
//	| 'unary' op '(' ident ')'
//	| 'binary' op [number] '(' ident ',' ident ')' ;
//
// The position of a prototype is the position of its introducing keyword.
func (p *Parser) parsePrototype(startSpan *report.TextSpan) (*ast.Prototype, error) {
	proto := &ast.Prototype{Kind: ast.ProtoFunction}

	switch p.tok.Kind {
	case TOK_IDENT:
		proto.Name = p.tok.Value
	case TOK_UNARY, TOK_BINARY:
		if p.got(TOK_UNARY) {
			proto.Kind = ast.ProtoUnary
		} else {
			proto.Kind = ast.ProtoBinary
			proto.Precedence = ast.DefaultBinaryPrecedence
		}

		prefix := p.tok.Value
		if err := p.next(); err != nil {
			return nil, err
		}

		if err := p.assert(TOK_OPER, "operator"); err != nil {
			return nil, err
		}

		proto.Name = prefix + p.tok.Value
	default:
		return nil, p.reject("function name in prototype")
	}

	if err := p.next(); err != nil {
		return nil, err
	}

	// binary operators take an optional precedence
	if proto.Kind == ast.ProtoBinary && p.got(TOK_NUMBER) {
		prec, err := strconv.Atoi(p.tok.Value)
		if err != nil || prec < 1 || prec > 100 {
			return nil, report.Raise(p.tok.Span, "invalid precedence: must be 1..100")
		}

		proto.Precedence = prec

		if err := p.next(); err != nil {
			return nil, err
		}
	}

	if err := p.assertAndNext(TOK_LPAREN, "`(` in prototype"); err != nil {
		return nil, err
	}

	for !p.got(TOK_RPAREN) {
		if len(proto.Params) > 0 {
			if err := p.assertAndNext(TOK_COMMA, "`,` or `)`"); err != nil {
				return nil, err
			}
		}

		if err := p.assert(TOK_IDENT, "parameter name"); err != nil {
			return nil, err
		}

		proto.Params = append(proto.Params, p.tok.Value)

		if err := p.next(); err != nil {
			return nil, err
		}
	}

	endSpan := p.tok.Span
	if err := p.next(); err != nil {
		return nil, err
	}

	switch proto.Kind {
	case ast.ProtoUnary:
		if len(proto.Params) != 1 {
			return nil, report.Raise(endSpan, "invalid number of operands for operator")
		}
	case ast.ProtoBinary:
		if len(proto.Params) != 2 {
			return nil, report.Raise(endSpan, "invalid number of operands for operator")
		}
	}

	proto.ASTBase = ast.NewASTBaseOver(startSpan, endSpan)
	return proto, nil
}
