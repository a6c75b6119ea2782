package builtin

import (
	"strings"

	"koinlint/internal/engine/syntax"
)

// Parser builds a syntax.File from Kotlin source. A Parser is single-use.
type Parser struct {
	src    string
	tokens []Token
	pos    int

	// newline handling: true on top means line breaks are insignificant (inside parens)
	nl []bool
}

// Parse parses src and returns the file tree. It does not fail on malformed input.
func Parse(path string, src []byte) *syntax.File {
	text := string(src)
	p := &Parser{
		src:    text,
		tokens: NewLexer(text).Tokenize(),
		nl:     []bool{false},
	}
	return p.parseFile(path)
}

// ---------- token helpers ----------

func (p *Parser) cur() Token { return p.tokens[p.pos] }

func (p *Parser) peek(n int) Token {
	if p.pos+n >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos+n]
}

func (p *Parser) prev() Token {
	if p.pos == 0 {
		return p.tokens[0]
	}
	return p.tokens[p.pos-1]
}

func (p *Parser) advance() Token {
	tok := p.tokens[p.pos]
	if tok.Kind != TokenEOF {
		p.pos++
	}
	return tok
}

func (p *Parser) atEOF() bool { return p.cur().Kind == TokenEOF }

func (p *Parser) at(text string) bool { return p.cur().is(text) }

func (p *Parser) accept(text string) bool {
	if p.at(text) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) atCloser() bool {
	return p.at(")") || p.at("}") || p.at("]")
}

func (p *Parser) pushNewlines(ignore bool) { p.nl = append(p.nl, ignore) }

func (p *Parser) popNewlines() { p.nl = p.nl[:len(p.nl)-1] }

// lineBreak reports whether the current token starts a new statement line.
func (p *Parser) lineBreak() bool {
	return p.cur().NewlineBefore && !p.nl[len(p.nl)-1]
}

// info builds node location data from start to the last consumed token.
func (p *Parser) info(start Token) syntax.NodeInfo {
	end := p.prev().End
	if p.pos == 0 || end.Offset < start.Start.Offset {
		end = start.End
	}
	return syntax.NodeInfo{
		Range: syntax.Span{Start: start.Start, End: end},
		Raw:   p.src[start.Start.Offset:end.Offset],
	}
}

func (p *Parser) textFrom(start Token) string {
	end := p.prev().End.Offset
	if end < start.Start.Offset {
		return ""
	}
	return p.src[start.Start.Offset:end]
}

// skipBalanced consumes a bracketed group starting at the current open token.
func (p *Parser) skipBalanced(open, close string) {
	if !p.at(open) {
		return
	}
	depth := 0
	for !p.atEOF() {
		tok := p.advance()
		switch {
		case tok.is(open):
			depth++
		case tok.is(close):
			depth--
			if depth == 0 {
				return
			}
		}
	}
}

// ---------- file ----------

func (p *Parser) parseFile(path string) *syntax.File {
	start := p.cur()
	file := &syntax.File{Path: path}

	for p.at("@") && p.peek(1).is("file") {
		p.parseAnnotation()
	}
	if p.accept("package") {
		file.Package = p.dottedName()
	}
	for p.at("import") {
		p.advance()
		name := p.dottedName()
		if p.accept(".") && p.accept("*") {
			name += ".*"
		}
		if p.accept("as") {
			p.advance()
		}
		if name != "" {
			file.Imports = append(file.Imports, name)
		}
	}

	for !p.atEOF() {
		before := p.pos
		if stmt := p.parseStatement(); stmt != nil {
			file.Decls = append(file.Decls, stmt)
		}
		if p.pos == before {
			p.advance()
		}
	}
	file.NodeInfo = p.info(start)
	file.Range.End = p.cur().End
	file.Raw = p.src
	return file
}

func (p *Parser) dottedName() string {
	var parts []string
	for p.cur().Kind == TokenIdent {
		parts = append(parts, p.advance().Text)
		if !(p.at(".") && p.peek(1).Kind == TokenIdent) {
			break
		}
		p.advance()
	}
	return strings.Join(parts, ".")
}

// ---------- statements and declarations ----------

var modifierKeywords = map[string]bool{
	"public": true, "private": true, "protected": true, "internal": true,
	"abstract": true, "open": true, "final": true, "override": true, "sealed": true,
	"data": true, "inner": true, "lateinit": true, "const": true, "suspend": true,
	"inline": true, "noinline": true, "crossinline": true, "tailrec": true,
	"operator": true, "infix": true, "external": true, "expect": true, "actual": true,
	"vararg": true, "value": true, "annotation": true, "companion": true, "enum": true,
}

var declKeywords = map[string]bool{
	"val": true, "var": true, "fun": true, "class": true, "interface": true,
	"object": true, "typealias": true, "constructor": true,
}

// parseStatement parses one statement or declaration. It returns nil for empty statements.
func (p *Parser) parseStatement() syntax.Node {
	for p.accept(";") {
	}
	if p.atEOF() || p.atCloser() {
		return nil
	}

	start := p.cur()
	save := p.pos
	annotations := p.parseAnnotations()
	modifiers := p.parseModifiers()
	if declKeywords[p.cur().Text] && p.cur().Kind == TokenIdent && !(p.at("object") && len(modifiers) == 0 && len(annotations) == 0 && p.peek(1).is(":")) {
		return p.parseDeclaration(start, annotations, modifiers)
	}
	if len(modifiers) > 0 {
		// modifier-looking identifiers that start an expression (e.g. `value(x)`)
		p.pos = save
		annotations = p.parseAnnotations()
	}

	expr := p.parseExpression()
	if expr == nil {
		return nil
	}
	if op := p.cur(); !p.lineBreak() && (op.is("=") || op.is("+=") || op.is("-=") || op.is("*=") || op.is("/=") || op.is("%=")) {
		p.advance()
		right := p.parseExpression()
		return &syntax.BinaryExpr{NodeInfo: p.info(start), Op: op.Text, Left: expr, Right: right}
	}
	return expr
}

func (p *Parser) parseModifiers() []string {
	var mods []string
	for p.cur().Kind == TokenIdent && modifierKeywords[p.cur().Text] {
		next := p.peek(1)
		// a modifier is followed by another modifier, an annotation or a declaration keyword
		if next.NewlineBefore && !declKeywords[next.Text] && !modifierKeywords[next.Text] {
			break
		}
		if next.Kind != TokenIdent && !next.is("@") {
			break
		}
		mods = append(mods, p.advance().Text)
		for p.at("@") {
			p.parseAnnotation()
		}
	}
	return mods
}

func (p *Parser) parseAnnotations() []*syntax.Annotation {
	var out []*syntax.Annotation
	for p.at("@") && p.peek(1).Kind == TokenIdent && !p.peek(1).NewlineBefore {
		if a := p.parseAnnotation(); a != nil {
			out = append(out, a)
		}
	}
	return out
}

func (p *Parser) parseAnnotation() *syntax.Annotation {
	start := p.advance() // @
	if p.cur().Kind == TokenIdent && p.peek(1).is(":") && !p.peek(2).is(":") {
		// use-site target such as @file: or @get:
		p.advance()
		p.advance()
	}
	if p.at("[") {
		p.skipBalanced("[", "]")
		return nil
	}
	name := p.dottedName()
	if p.at("<") {
		p.parseTypeArgs()
	}
	ann := &syntax.Annotation{Name: syntax.SimpleTypeName(name)}
	if p.at("(") && !p.cur().NewlineBefore {
		ann.Args = p.parseArguments()
	}
	ann.NodeInfo = p.info(start)
	return ann
}

func (p *Parser) parseDeclaration(start Token, annotations []*syntax.Annotation, modifiers []string) syntax.Node {
	switch p.cur().Text {
	case "val", "var":
		return p.parseProperty(start, annotations)
	case "fun":
		if p.peek(1).is("interface") {
			p.advance()
			return p.parseClass(start, annotations, modifiers)
		}
		return p.parseFunction(start, annotations)
	case "class", "interface", "object":
		return p.parseClass(start, annotations, modifiers)
	case "typealias":
		p.advance()
		p.advance()
		if p.at("<") {
			p.parseTypeArgs()
		}
		if p.accept("=") {
			p.parseType()
		}
		return nil
	case "constructor":
		p.advance()
		p.skipBalanced("(", ")")
		if p.accept(":") {
			p.parseExpression()
		}
		var body syntax.Node
		if p.at("{") {
			body = p.parseBlock()
		}
		return &syntax.FuncDecl{NodeInfo: p.info(start), Name: "constructor", Annotations: annotations, Body: body}
	}
	return nil
}

func (p *Parser) parseProperty(start Token, annotations []*syntax.Annotation) syntax.Node {
	p.advance() // val / var
	if p.at("<") {
		p.parseTypeArgs()
	}
	decl := &syntax.PropertyDecl{Annotations: annotations}
	if p.at("(") {
		// destructuring declaration
		p.skipBalanced("(", ")")
	} else {
		// optional receiver type: `val Foo.bar`
		for p.cur().Kind == TokenIdent {
			decl.Name = p.advance().Text
			if p.at("<") {
				p.parseTypeArgs()
			}
			if !p.at(".") {
				break
			}
			p.advance()
		}
	}
	if p.accept(":") {
		decl.Type = p.parseType()
	}
	switch {
	case p.at("="):
		p.advance()
		decl.Init = p.parseExpression()
	case p.at("by"):
		p.advance()
		decl.Delegated = true
		decl.Init = p.parseExpression()
	}
	decl.NodeInfo = p.info(start)
	return decl
}

func (p *Parser) parseFunction(start Token, annotations []*syntax.Annotation) syntax.Node {
	p.advance() // fun
	if p.at("<") {
		p.parseTypeArgs()
	}
	decl := &syntax.FuncDecl{Annotations: annotations}
	for !p.atEOF() && !p.at("(") && !p.at("{") && !p.at("=") {
		tok := p.cur()
		if tok.is("<") {
			p.parseTypeArgs()
			continue
		}
		if tok.Kind == TokenIdent {
			decl.Name = tok.Text
		}
		p.advance()
	}
	p.skipBalanced("(", ")")
	if p.accept(":") {
		decl.ReturnType = p.parseType()
	}
	if p.at("where") {
		for !p.atEOF() && !p.at("{") && !p.at("=") && !p.lineBreak() {
			p.advance()
		}
	}
	switch {
	case p.at("{"):
		decl.Body = p.parseBlock()
	case p.at("="):
		p.advance()
		decl.Body = p.parseExpression()
	}
	decl.NodeInfo = p.info(start)
	return decl
}

func (p *Parser) parseClass(start Token, annotations []*syntax.Annotation, modifiers []string) syntax.Node {
	keyword := p.advance().Text
	for _, m := range modifiers {
		if m == "enum" {
			keyword = "enum"
		}
	}
	decl := &syntax.ClassDecl{Keyword: keyword, Annotations: annotations}
	if p.cur().Kind == TokenIdent && !p.at("constructor") && !p.at("where") {
		decl.Name = p.advance().Text
	}
	if p.at("<") {
		p.parseTypeArgs()
	}

	// primary constructor
	p.parseAnnotations()
	p.parseModifiers()
	p.accept("constructor")
	if p.at("(") {
		p.skipBalanced("(", ")")
	}

	if p.accept(":") {
		decl.Supertypes = p.parseSupertypes()
	}
	if p.at("where") {
		for !p.atEOF() && !p.at("{") && !p.lineBreak() {
			p.advance()
		}
	}
	if p.at("{") {
		decl.Members = p.parseClassBody(keyword == "enum")
	}
	decl.NodeInfo = p.info(start)
	return decl
}

func (p *Parser) parseSupertypes() []string {
	var out []string
	p.pushNewlines(true)
	defer p.popNewlines()
	for {
		p.parseAnnotations()
		typ := p.parseType()
		if typ == "" {
			return out
		}
		out = append(out, syntax.SimpleTypeName(typ))
		if p.at("(") {
			p.parseArguments()
		}
		if p.at("by") {
			p.advance()
			p.parseUnary()
		}
		if !p.accept(",") {
			return out
		}
	}
}

func (p *Parser) parseClassBody(enum bool) []syntax.Node {
	p.advance() // {
	p.pushNewlines(false)
	defer p.popNewlines()

	var members []syntax.Node
	if enum {
		p.skipEnumEntries()
	}
	for !p.atEOF() && !p.at("}") {
		before := p.pos
		if stmt := p.parseStatement(); stmt != nil {
			members = append(members, stmt)
		}
		if p.pos == before {
			p.advance()
		}
	}
	p.accept("}")
	return members
}

func (p *Parser) skipEnumEntries() {
	for !p.atEOF() {
		p.parseAnnotations()
		if p.cur().Kind != TokenIdent || declKeywords[p.cur().Text] || modifierKeywords[p.cur().Text] {
			break
		}
		next := p.peek(1)
		if !(next.is(",") || next.is("(") || next.is("{") || next.is(";") || next.is("}")) {
			break
		}
		p.advance()
		if p.at("(") {
			p.skipBalanced("(", ")")
		}
		if p.at("{") {
			p.skipBalanced("{", "}")
		}
		if !p.accept(",") {
			break
		}
	}
	p.accept(";")
}

// parseBlock parses `{ statements }` as a Block.
func (p *Parser) parseBlock() *syntax.Block {
	start := p.advance() // {
	p.pushNewlines(false)
	block := &syntax.Block{Stmts: p.parseStatements()}
	p.popNewlines()
	p.accept("}")
	block.NodeInfo = p.info(start)
	return block
}

func (p *Parser) parseStatements() []syntax.Node {
	var stmts []syntax.Node
	for !p.atEOF() && !p.at("}") {
		before := p.pos
		if stmt := p.parseStatement(); stmt != nil {
			stmts = append(stmts, stmt)
		}
		if p.pos == before {
			if p.at("}") {
				break
			}
			p.advance()
		}
	}
	return stmts
}
