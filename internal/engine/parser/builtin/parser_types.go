package builtin

import (
	"koinlint/internal/engine/syntax"
)

// parseType consumes a type and returns its source text, or "" without
// consuming anything when no type starts here.
func (p *Parser) parseType() string {
	start := p.cur()
	save := p.pos
	if !p.parseTypeInner() {
		p.pos = save
		return ""
	}
	return p.textFrom(start)
}

func (p *Parser) parseTypeInner() bool {
	for p.at("suspend") && (p.peek(1).is("(") || p.peek(1).Kind == TokenIdent) {
		p.advance()
	}
	for p.at("@") && p.peek(1).Kind == TokenIdent {
		p.parseAnnotation()
	}

	if p.at("(") {
		// function type or parenthesized type
		p.skipBalanced("(", ")")
		if p.accept("->") {
			return p.parseTypeInner()
		}
		p.skipNullable()
		return true
	}
	if p.cur().Kind != TokenIdent {
		return false
	}
	for {
		p.advance()
		if p.at("<") {
			if _, ok := p.parseTypeArgs(); !ok {
				return false
			}
		}
		if p.at(".") && p.peek(1).Kind == TokenIdent {
			p.advance()
			continue
		}
		break
	}
	// receiver function type `Foo.() -> Bar`
	if p.at(".") && p.peek(1).is("(") {
		p.advance()
		p.skipBalanced("(", ")")
		if !p.accept("->") {
			return false
		}
		return p.parseTypeInner()
	}
	p.skipNullable()
	return true
}

func (p *Parser) skipNullable() {
	for p.at("?") && !p.cur().NewlineBefore {
		p.advance()
	}
}

// parseTypeArgs parses `<A, out B, *>`. On failure the position is restored
// and ok is false, which lets callers use it speculatively.
func (p *Parser) parseTypeArgs() ([]syntax.TypeRef, bool) {
	save := p.pos
	p.advance() // <
	var args []syntax.TypeRef
	for {
		if p.at("*") {
			tok := p.advance()
			args = append(args, syntax.TypeRef{Raw: "*", Range: syntax.Span{Start: tok.Start, End: tok.End}})
		} else {
			for (p.at("in") || p.at("out") || p.at("reified")) && p.peek(1).Kind == TokenIdent {
				p.advance()
			}
			start := p.cur()
			raw := p.parseType()
			if raw == "" {
				p.pos = save
				return nil, false
			}
			args = append(args, syntax.TypeRef{Raw: raw, Range: p.info(start).Range})
			if p.at(":") {
				// type parameter bound
				p.advance()
				if p.parseType() == "" {
					p.pos = save
					return nil, false
				}
			}
		}
		if p.accept(",") {
			continue
		}
		if p.accept(">") {
			return args, true
		}
		p.pos = save
		return nil, false
	}
}
