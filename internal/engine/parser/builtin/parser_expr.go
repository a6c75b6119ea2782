package builtin

import (
	"koinlint/internal/engine/syntax"
)

// identifiers that never act as infix function names
var nonInfixWords = map[string]bool{
	"else": true, "catch": true, "finally": true, "in": true, "is": true, "as": true,
	"by": true, "where": true, "while": true, "get": true, "set": true,
}

// parseExpression parses a full expression (disjunction level).
func (p *Parser) parseExpression() syntax.Node {
	return p.parseBinary(0)
}

// binary levels, loosest first
var binaryLevels = [][]string{
	{"||"},
	{"&&"},
	{"==", "!=", "===", "!=="},
	{"<", ">", "<=", ">="},
	{"in", "!in", "is", "!is"},
	{"?:"},
	nil, // infix function calls
	{"..", "..<"},
	{"+", "-"},
	{"*", "/", "%"},
}

const infixLevel = 6

// newline may precede these operators without ending the statement
var continuationOps = map[string]bool{"||": true, "&&": true, "?:": true}

func (p *Parser) parseBinary(level int) syntax.Node {
	if level >= len(binaryLevels) {
		return p.parseAs()
	}
	start := p.cur()
	left := p.parseBinary(level + 1)
	if left == nil {
		return nil
	}
	for {
		op, ok := p.matchOperator(level)
		if !ok {
			return left
		}
		var right syntax.Node
		if op == "is" || op == "!is" {
			right = p.parseTypeExpr()
		} else {
			right = p.parseBinary(level + 1)
		}
		if right == nil {
			return left
		}
		left = &syntax.BinaryExpr{NodeInfo: p.info(start), Op: op, Left: left, Right: right}
	}
}

// matchOperator consumes the operator of the given level when present.
func (p *Parser) matchOperator(level int) (string, bool) {
	tok := p.cur()
	if tok.Kind == TokenEOF {
		return "", false
	}
	if p.lineBreak() && !continuationOps[tok.Text] {
		return "", false
	}

	if level == infixLevel {
		if tok.Kind != TokenIdent || nonInfixWords[tok.Text] || declKeywords[tok.Text] {
			return "", false
		}
		next := p.peek(1)
		if next.Kind == TokenEOF || next.NewlineBefore && !p.nl[len(p.nl)-1] {
			return "", false
		}
		if next.is(")") || next.is("}") || next.is("]") || next.is(",") || next.is("=") || next.is(";") {
			return "", false
		}
		p.advance()
		return tok.Text, true
	}

	// `!in` and `!is` arrive as two tokens
	if level == 4 && tok.is("!") && (p.peek(1).is("in") || p.peek(1).is("is")) {
		p.advance()
		return "!" + p.advance().Text, true
	}
	for _, op := range binaryLevels[level] {
		if tok.Text != op {
			continue
		}
		if tok.Kind == TokenIdent || tok.Kind == TokenPunct {
			p.advance()
			return op, true
		}
	}
	return "", false
}

// parseAs handles `expr as Type` and `expr as? Type`.
func (p *Parser) parseAs() syntax.Node {
	start := p.cur()
	left := p.parseUnary()
	for left != nil && p.at("as") && !p.lineBreak() {
		p.advance()
		op := "as"
		if p.at("?") && !p.cur().NewlineBefore {
			p.advance()
			op = "as?"
		}
		right := p.parseTypeExpr()
		if right == nil {
			return left
		}
		left = &syntax.BinaryExpr{NodeInfo: p.info(start), Op: op, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseTypeExpr() syntax.Node {
	start := p.cur()
	raw := p.parseType()
	if raw == "" {
		return nil
	}
	info := p.info(start)
	return &syntax.TypeExpr{NodeInfo: info, Type: syntax.TypeRef{Raw: raw, Range: info.Range}}
}

func (p *Parser) parseUnary() syntax.Node {
	start := p.cur()
	switch {
	case p.at("-"), p.at("+"), p.at("!"), p.at("++"), p.at("--"):
		op := p.advance().Text
		operand := p.parseUnary()
		if operand == nil {
			return nil
		}
		return &syntax.Other{NodeInfo: p.info(start), Kind: "unary" + op, Children: []syntax.Node{operand}}
	case p.at("@") && p.peek(1).Kind == TokenIdent && !p.peek(1).NewlineBefore:
		// annotated expression
		p.parseAnnotations()
		return p.parseUnary()
	case p.cur().Kind == TokenIdent && p.peek(1).is("@") && !p.peek(1).NewlineBefore && p.peek(2).is("{"):
		// labelled lambda `label@{ ... }`
		p.advance()
		p.advance()
		return p.parsePostfix(start, p.parseLambda())
	}
	return p.parsePostfix(start, p.parsePrimary())
}

func (p *Parser) parsePostfix(start Token, expr syntax.Node) syntax.Node {
	if expr == nil {
		return nil
	}
	for {
		tok := p.cur()
		switch {
		case tok.is(".") || tok.is("?."):
			if p.peek(1).Kind != TokenIdent {
				return expr
			}
			p.advance()
			name := p.advance().Text
			expr = &syntax.NavExpr{NodeInfo: p.info(start), Target: expr, Name: name, Safe: tok.Text == "?."}

		case tok.is("::") && !tok.NewlineBefore:
			next := p.peek(1)
			if next.Kind != TokenIdent {
				return expr
			}
			p.advance()
			p.advance()
			if next.Text == "class" {
				info := p.info(start)
				expr = &syntax.ClassLit{NodeInfo: info, Type: syntax.TypeRef{Raw: expr.Text(), Range: expr.Span()}}
			} else {
				expr = &syntax.CallableRef{NodeInfo: p.info(start), Receiver: expr.Text(), Name: next.Text}
			}

		case tok.is("<") && !tok.NewlineBefore && isCallable(expr):
			save := p.pos
			typeArgs, ok := p.parseTypeArgs()
			if !ok {
				p.pos = save
				return expr
			}
			after := p.cur()
			switch {
			case after.is("(") && !after.NewlineBefore:
				expr = p.parseCall(start, expr, typeArgs)
			case after.is("{") && !after.NewlineBefore:
				expr = p.finishCall(start, &syntax.CallExpr{Callee: expr, TypeArgs: typeArgs})
			case after.is("::"):
				// Foo<Bar>::class
				p.advance()
				if !p.at("class") {
					p.pos = save
					return expr
				}
				p.advance()
				info := p.info(start)
				expr = &syntax.ClassLit{NodeInfo: info, Type: syntax.TypeRef{Raw: info.Raw[:len(info.Raw)-len("::class")], Range: info.Range}}
			default:
				p.pos = save
				return expr
			}

		case tok.is("(") && !tok.NewlineBefore:
			expr = p.parseCall(start, expr, nil)

		case tok.is("{") && !tok.NewlineBefore && acceptsTrailingLambda(expr):
			expr = p.finishCall(start, &syntax.CallExpr{Callee: expr})

		case tok.is("[") && !tok.NewlineBefore:
			p.pushNewlines(true)
			p.advance()
			children := []syntax.Node{expr}
			for !p.atEOF() && !p.at("]") {
				before := p.pos
				if arg := p.parseExpression(); arg != nil {
					children = append(children, arg)
				}
				if !p.accept(",") && p.pos == before {
					p.advance()
				}
			}
			p.accept("]")
			p.popNewlines()
			expr = &syntax.Other{NodeInfo: p.info(start), Kind: "index", Children: children}

		case (tok.is("!!") || tok.is("++") || tok.is("--")) && !tok.NewlineBefore:
			p.advance()

		default:
			return expr
		}
	}
}

func isCallable(n syntax.Node) bool {
	switch n.(type) {
	case *syntax.Ident, *syntax.NavExpr:
		return true
	}
	return false
}

func acceptsTrailingLambda(n syntax.Node) bool {
	switch v := n.(type) {
	case *syntax.Ident:
		return !controlWords[v.Name]
	case *syntax.NavExpr:
		return true
	case *syntax.CallExpr:
		return v.Lambda == nil
	}
	return false
}

var controlWords = map[string]bool{
	"this": true, "super": true, "null": true, "true": true, "false": true,
	"else": true, "try": true, "finally": true,
}

// parseCall parses the value arguments and optional trailing lambda of a call.
func (p *Parser) parseCall(start Token, callee syntax.Node, typeArgs []syntax.TypeRef) syntax.Node {
	call := &syntax.CallExpr{Callee: callee, TypeArgs: typeArgs}
	call.Args = p.parseArguments()
	return p.finishCall(start, call)
}

func (p *Parser) finishCall(start Token, call *syntax.CallExpr) syntax.Node {
	if p.at("{") && !p.cur().NewlineBefore {
		call.Lambda = p.parseLambda()
	}
	call.NodeInfo = p.info(start)
	return call
}

// parseArguments parses `(a, name = b, *c)`.
func (p *Parser) parseArguments() []syntax.Argument {
	p.advance() // (
	p.pushNewlines(true)
	defer p.popNewlines()

	var args []syntax.Argument
	for !p.atEOF() && !p.at(")") {
		before := p.pos
		var arg syntax.Argument
		if p.cur().Kind == TokenIdent && p.peek(1).is("=") {
			arg.Name = p.advance().Text
			p.advance()
		}
		p.accept("*")
		arg.Value = p.parseExpression()
		if arg.Value != nil {
			args = append(args, arg)
		}
		if !p.accept(",") && p.pos == before {
			if p.at("}") || p.at("]") {
				break
			}
			p.advance()
		}
	}
	p.accept(")")
	return args
}

// parseLambda parses `{ params -> statements }`.
func (p *Parser) parseLambda() *syntax.LambdaExpr {
	start := p.advance() // {
	lambda := &syntax.LambdaExpr{}
	lambda.Params = p.lambdaParams()
	p.pushNewlines(false)
	lambda.Body = p.parseStatements()
	p.popNewlines()
	p.accept("}")
	lambda.NodeInfo = p.info(start)
	return lambda
}

// lambdaParams consumes the parameter list when the lambda declares one.
func (p *Parser) lambdaParams() []string {
	var names []string
	expectName := true
	depth := 0
	for i := p.pos; i < len(p.tokens); i++ {
		tok := p.tokens[i]
		switch {
		case tok.is("->") && depth == 0:
			p.pos = i + 1
			return names
		case tok.is("(") || tok.is("<"):
			depth++
			if tok.is("(") {
				expectName = true
			}
		case tok.is(")") || tok.is(">"):
			depth--
		case tok.is(","):
			expectName = true
		case tok.is(":"):
			expectName = false
		case tok.Kind == TokenIdent:
			if expectName {
				names = append(names, tok.Text)
				expectName = false
			}
		case tok.is(".") || tok.is("?") || tok.is("*"):
		default:
			return nil
		}
		if depth < 0 {
			return nil
		}
	}
	return nil
}

func (p *Parser) parsePrimary() syntax.Node {
	start := p.cur()
	switch start.Kind {
	case TokenEOF:
		return nil
	case TokenString:
		p.advance()
		return &syntax.StringLit{NodeInfo: p.info(start), Value: stringContent(start.Text)}
	case TokenNumber, TokenChar:
		p.advance()
		return &syntax.Other{NodeInfo: p.info(start), Kind: "literal"}
	case TokenIdent:
		return p.parseIdentPrimary(start)
	}

	switch {
	case start.is("("):
		p.advance()
		p.pushNewlines(true)
		inner := p.parseExpression()
		for !p.atEOF() && !p.at(")") && !p.at("}") {
			p.advance()
		}
		p.popNewlines()
		p.accept(")")
		if inner == nil {
			return &syntax.Other{NodeInfo: p.info(start), Kind: "parenthesized"}
		}
		return inner
	case start.is("{"):
		return p.parseLambda()
	case start.is("::"):
		p.advance()
		if p.cur().Kind != TokenIdent {
			return &syntax.Other{NodeInfo: p.info(start), Kind: "unknown"}
		}
		name := p.advance().Text
		return &syntax.CallableRef{NodeInfo: p.info(start), Name: name}
	case start.is("["):
		p.advance()
		p.pushNewlines(true)
		var children []syntax.Node
		for !p.atEOF() && !p.at("]") {
			before := p.pos
			if item := p.parseExpression(); item != nil {
				children = append(children, item)
			}
			if !p.accept(",") && p.pos == before {
				if p.at(")") || p.at("}") {
					break
				}
				p.advance()
			}
		}
		p.popNewlines()
		p.accept("]")
		return &syntax.Other{NodeInfo: p.info(start), Kind: "collection", Children: children}
	case start.is(")"), start.is("}"), start.is("]"):
		return nil
	}
	p.advance()
	return &syntax.Other{NodeInfo: p.info(start), Kind: "unknown"}
}

func (p *Parser) parseIdentPrimary(start Token) syntax.Node {
	switch start.Text {
	case "true", "false":
		p.advance()
		return &syntax.BoolLit{NodeInfo: p.info(start), Value: start.Text == "true"}
	case "null":
		p.advance()
		return &syntax.Other{NodeInfo: p.info(start), Kind: "null"}
	case "this", "super":
		p.advance()
		if p.at("@") && !p.cur().NewlineBefore {
			p.advance()
			p.advance()
		} else if start.Text == "super" && p.at("<") {
			p.parseTypeArgs()
		}
		return &syntax.Ident{NodeInfo: p.info(start), Name: start.Text}
	case "if":
		return p.parseIf(start)
	case "when":
		return p.parseWhen(start)
	case "try":
		return p.parseTry(start)
	case "for", "while":
		return p.parseLoop(start)
	case "do":
		return p.parseDoWhile(start)
	case "return", "throw", "break", "continue":
		return p.parseJump(start)
	case "object":
		return p.parseClass(start, nil, nil)
	case "fun":
		return p.parseFunction(start, nil)
	}
	p.advance()
	return &syntax.Ident{NodeInfo: p.info(start), Name: start.Text}
}

// parseBody parses a control-flow branch: a braced block or a single statement.
func (p *Parser) parseBody() syntax.Node {
	if p.at("{") {
		return p.parseBlock()
	}
	p.pushNewlines(false)
	defer p.popNewlines()
	return p.parseStatement()
}

func (p *Parser) parseCondition() syntax.Node {
	if !p.at("(") {
		return nil
	}
	p.advance()
	p.pushNewlines(true)
	cond := p.parseExpression()
	for !p.atEOF() && !p.at(")") && !p.at("{") && !p.at("}") {
		p.advance()
	}
	p.popNewlines()
	p.accept(")")
	return cond
}

func (p *Parser) parseIf(start Token) syntax.Node {
	p.advance()
	children := appendNode(nil, p.parseCondition())
	children = appendNode(children, p.parseBody())
	if p.peekElse() {
		p.advance()
		children = appendNode(children, p.parseBody())
	}
	return &syntax.Other{NodeInfo: p.info(start), Kind: "if", Children: children}
}

// peekElse reports whether an `else` follows, possibly on the next line.
func (p *Parser) peekElse() bool {
	for i := p.pos; i < len(p.tokens); i++ {
		if p.tokens[i].is(";") {
			continue
		}
		if p.tokens[i].is("else") {
			p.pos = i
			return true
		}
		return false
	}
	return false
}

func (p *Parser) parseWhen(start Token) syntax.Node {
	p.advance()
	var children []syntax.Node
	if p.at("(") {
		p.advance()
		p.pushNewlines(true)
		if p.at("val") {
			children = appendNode(children, p.parseStatement())
		} else {
			children = appendNode(children, p.parseExpression())
		}
		for !p.atEOF() && !p.at(")") && !p.at("{") {
			p.advance()
		}
		p.popNewlines()
		p.accept(")")
	}
	if !p.at("{") {
		return &syntax.Other{NodeInfo: p.info(start), Kind: "when", Children: children}
	}
	p.advance()
	p.pushNewlines(false)
	for !p.atEOF() && !p.at("}") {
		before := p.pos
		children = append(children, p.parseWhenEntry()...)
		if p.pos == before {
			p.advance()
		}
	}
	p.popNewlines()
	p.accept("}")
	return &syntax.Other{NodeInfo: p.info(start), Kind: "when", Children: children}
}

func (p *Parser) parseWhenEntry() []syntax.Node {
	for p.accept(";") {
	}
	var out []syntax.Node
	p.pushNewlines(true)
	if p.accept("else") {
		// default branch
	} else {
		for !p.atEOF() && !p.at("->") && !p.at("}") {
			before := p.pos
			switch {
			case p.at("is"):
				p.advance()
				p.parseType()
			case p.at("!") && p.peek(1).is("is"):
				p.advance()
				p.advance()
				p.parseType()
			case p.at("in"):
				p.advance()
				out = appendNode(out, p.parseExpression())
			case p.at("!") && p.peek(1).is("in"):
				p.advance()
				p.advance()
				out = appendNode(out, p.parseExpression())
			default:
				out = appendNode(out, p.parseExpression())
			}
			if !p.accept(",") && p.pos == before {
				p.advance()
			}
		}
	}
	p.popNewlines()
	if p.accept("->") {
		out = appendNode(out, p.parseBody())
	}
	return out
}

func (p *Parser) parseTry(start Token) syntax.Node {
	p.advance()
	var children []syntax.Node
	if p.at("{") {
		children = appendNode(children, p.parseBlock())
	}
	for {
		switch {
		case p.at("catch"):
			p.advance()
			p.skipBalanced("(", ")")
			if p.at("{") {
				children = appendNode(children, p.parseBlock())
			}
		case p.at("finally"):
			p.advance()
			if p.at("{") {
				children = appendNode(children, p.parseBlock())
			}
		default:
			return &syntax.Other{NodeInfo: p.info(start), Kind: "try", Children: children}
		}
	}
}

func (p *Parser) parseLoop(start Token) syntax.Node {
	keyword := p.advance().Text
	var children []syntax.Node
	if keyword == "for" && p.at("(") {
		p.advance()
		p.pushNewlines(true)
		for !p.atEOF() && !p.at("in") && !p.at(")") {
			if p.at("(") {
				p.skipBalanced("(", ")")
				continue
			}
			p.advance()
		}
		if p.accept("in") {
			children = appendNode(children, p.parseExpression())
		}
		for !p.atEOF() && !p.at(")") && !p.at("{") {
			p.advance()
		}
		p.popNewlines()
		p.accept(")")
	} else {
		children = appendNode(children, p.parseCondition())
	}
	if !p.lineBreak() || p.at("{") {
		children = appendNode(children, p.parseBody())
	}
	return &syntax.Other{NodeInfo: p.info(start), Kind: keyword, Children: children}
}

func (p *Parser) parseDoWhile(start Token) syntax.Node {
	p.advance()
	children := appendNode(nil, p.parseBody())
	if p.accept("while") {
		children = appendNode(children, p.parseCondition())
	}
	return &syntax.Other{NodeInfo: p.info(start), Kind: "do", Children: children}
}

func (p *Parser) parseJump(start Token) syntax.Node {
	keyword := p.advance().Text
	if p.at("@") && !p.cur().NewlineBefore {
		p.advance()
		p.advance()
	}
	var children []syntax.Node
	if (keyword == "return" || keyword == "throw") && !p.lineBreak() && !p.atCloser() && !p.at(";") && !p.atEOF() {
		children = appendNode(children, p.parseExpression())
	}
	return &syntax.Other{NodeInfo: p.info(start), Kind: keyword, Children: children}
}

func appendNode(nodes []syntax.Node, n syntax.Node) []syntax.Node {
	if n == nil {
		return nodes
	}
	return append(nodes, n)
}

// stringContent strips the quotes of a string token.
func stringContent(raw string) string {
	switch {
	case len(raw) >= 6 && raw[:3] == `"""` && raw[len(raw)-3:] == `"""`:
		return raw[3 : len(raw)-3]
	case len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"':
		return raw[1 : len(raw)-1]
	case len(raw) >= 1 && raw[0] == '"':
		return raw[1:]
	}
	return raw
}
