package parser

import (
	"os"
	"testing"

	"koinlint/internal/engine/koin"
	"koinlint/internal/engine/syntax"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// grammarsEnv names a grammars directory holding a built Kotlin grammar and its
// manifest.toml. Tests that need the real grammar skip when it is unset.
const grammarsEnv = "KOINLINT_TEST_GRAMMARS"

func TestKindTablesAreDisjoint(t *testing.T) {
	for kind := range binaryKinds {
		assert.False(t, typeKinds[kind], kind)
		assert.False(t, skippedKinds[kind], kind)
	}
	for kind := range typeKinds {
		assert.False(t, skippedKinds[kind], kind)
	}
}

func TestUnquote(t *testing.T) {
	tests := map[string]string{
		`"core"`:             "core",
		`""`:                 "",
		`"""multi"""`:        "multi",
		`"""`:                `"`,
		`raw`:                "raw",
		`"unterminated`:      `"unterminated`,
		`"""a "quoted" b"""`: `a "quoted" b`,
	}
	for in, want := range tests {
		assert.Equal(t, want, unquote(in), in)
	}
}

// parseJava converts a tree produced by the statically linked Java grammar. The
// node kinds both grammars share exercise the generic routing of the converter.
func parseJava(t *testing.T, src string) (*sitter.Node, *converter, func()) {
	t.Helper()
	pool := NewParserPool(javaLanguage())
	sp := pool.Get()
	tree := sp.Parse([]byte(src), nil)
	require.NotNil(t, tree)
	return tree.RootNode(), &converter{src: []byte(src)}, func() {
		tree.Close()
		pool.Put(sp)
	}
}

func findKind(n *sitter.Node, kind string) *sitter.Node {
	if n.Kind() == kind {
		return n
	}
	for _, child := range namedChildren(n) {
		if found := findKind(child, kind); found != nil {
			return found
		}
	}
	return nil
}

func TestConvertGenericRouting(t *testing.T) {
	src := "// header\nclass AppModule {\n    String name = \"core\";\n    int n = (a + b);\n}\n"
	root, c, done := parseJava(t, src)
	defer done()

	converted := c.convert(root)
	require.NotNil(t, converted)
	other, ok := converted.(*syntax.Other)
	require.True(t, ok, "unknown kinds fall back to Other")
	assert.Equal(t, "program", other.Kind)
	require.Len(t, other.Children, 1, "comments are skipped")

	cls, ok := other.Children[0].(*syntax.ClassDecl)
	require.True(t, ok)
	assert.Equal(t, "class", cls.Keyword)
	assert.Len(t, cls.Members, 2)
	assert.Equal(t, 2, cls.Span().Start.Line)

	var strs, idents, kinds []string
	syntax.Walk(converted, func(n syntax.Node, _ []syntax.Node) bool {
		switch v := n.(type) {
		case *syntax.StringLit:
			strs = append(strs, v.Value)
		case *syntax.Ident:
			idents = append(idents, v.Name)
		case *syntax.Other:
			kinds = append(kinds, v.Kind)
		}
		return true
	})
	assert.Equal(t, []string{"core"}, strs)
	assert.Contains(t, idents, "String", "type identifiers become names")
	assert.Contains(t, kinds, "binary_expression", "parenthesized expressions unwrap to their content")
	assert.NotContains(t, kinds, "line_comment")
	assert.NotContains(t, kinds, "parenthesized_expression")

	bin := findKind(root, "binary_expression")
	require.NotNil(t, bin)
	operands := namedChildren(bin)
	require.Len(t, operands, 2)
	assert.Equal(t, "+", c.operator(bin, operands[0], operands[1]))
	assert.Equal(t, "", c.operator(bin, operands[1], operands[0]))
}

func TestNilAndSkippedNodes(t *testing.T) {
	root, c, done := parseJava(t, "/* block */ // line\nclass A {}\n")
	defer done()

	assert.Nil(t, c.convert(nil))
	comment := findKind(root, "line_comment")
	require.NotNil(t, comment)
	assert.Nil(t, c.convert(comment))
	assert.Equal(t, "", c.text(nil))
}

func kotlinParsers(t *testing.T) (*Parser, *Parser) {
	t.Helper()
	dir := os.Getenv(grammarsEnv)
	if dir == "" {
		t.Skipf("%s not set; no Kotlin grammar to test against", grammarsEnv)
	}
	gl, err := NewGrammarLoader(dir, false)
	require.NoError(t, err)
	_, ok := gl.Language(LanguageKotlin)
	require.True(t, ok, "no kotlin grammar loaded from %s", dir)

	ts, err := NewParser(gl, BackendTreeSitter)
	require.NoError(t, err)
	builtin, err := NewParser(gl, BackendBuiltin)
	require.NoError(t, err)
	return ts, builtin
}

func TestTreeSitterConvertsModuleDeclarations(t *testing.T) {
	ts, _ := kotlinParsers(t)
	assert.Equal(t, "tree-sitter", ts.SupplierName())

	file, err := ts.ParseFile("di/AppModule.kt", []byte(`package di

import org.koin.dsl.module

// wiring
val appModule = module {
    single<Api> { ApiImpl() } bind Closeable::class
}
`))
	require.NoError(t, err)
	assert.Equal(t, "di", file.Package)
	assert.Equal(t, []string{"org.koin.dsl.module"}, file.Imports)
	require.Len(t, file.Decls, 1)

	prop, ok := file.Decls[0].(*syntax.PropertyDecl)
	require.True(t, ok)
	assert.Equal(t, "appModule", prop.Name)
	call, ok := prop.Init.(*syntax.CallExpr)
	require.True(t, ok)
	assert.Equal(t, "module", syntax.CalleeName(call))
	require.NotNil(t, call.Lambda)
	require.Len(t, call.Lambda.Body, 1)

	bind, ok := call.Lambda.Body[0].(*syntax.BinaryExpr)
	require.True(t, ok, "infix calls become binary expressions")
	assert.Equal(t, "bind", bind.Op)
	single, ok := bind.Left.(*syntax.CallExpr)
	require.True(t, ok)
	assert.Equal(t, "single", syntax.CalleeName(single))
	require.Len(t, single.TypeArgs, 1)
	assert.Equal(t, "Api", single.TypeArgs[0].Raw)
	lit, ok := bind.Right.(*syntax.ClassLit)
	require.True(t, ok)
	assert.Equal(t, "Closeable", lit.Type.Raw)
}

var supplierFixtures = map[string]string{
	"cycle": `
val moduleA = module { includes(moduleB) }
val moduleB = module { includes(moduleA) }
val self = module { includes(self) }
`,
	"duplicates": `
val services = module {
    single { ServiceA() } bind Foo::class bind Bar::class
    single { ServiceB() } bind Foo::class bind Bar::class
    single<Repo>(named("a")) { RepoA() }
    single<Repo> { RepoB() }
}
`,
	"qualifiers": `
val qualifiers = module {
    single(named(Type1.VALUE)) { A() }
    single(named(Type2.VALUE)) { B() }
    single { listOf<String>() }
    factory { mapOf<String, Int>() }
}
`,
	"overrides and requests": `
val base = module { single<Service> { ServiceImpl() } }
val feature = module {
    includes(base)
    single<Service> { OtherService() }
}
class Screen : KoinComponent {
    val impl = get<ServiceImpl>()
}
`,
	"scopes": `
val scopes = module {
    scoped { Loose() }
    scope<MainActivity> {
        scoped { Presenter() }
        factory { Mapper() }
        factoryOf(::Tracker)
    }
}
`,
	"annotations": `
@Module
class DataModule {
    @Single
    fun provideRepo(): Repository = RepoImpl()
}

@Single
@Factory
class Cache

val dsl = module {
    single<Repository> { RepoImpl() }
}
`,
}

type findingKey struct {
	Rule    string
	Line    int
	Message string
}

func findingKeys(findings []koin.Finding) []findingKey {
	out := make([]findingKey, 0, len(findings))
	for _, f := range findings {
		out = append(out, findingKey{Rule: f.RuleID, Line: f.Span.Start.Line, Message: f.Message})
	}
	return out
}

func TestSuppliersAgreeOnFindings(t *testing.T) {
	ts, builtin := kotlinParsers(t)

	for name, src := range supplierFixtures {
		t.Run(name, func(t *testing.T) {
			fromTS, err := ts.ParseFile("Modules.kt", []byte(src))
			require.NoError(t, err)
			fromBuiltin, err := builtin.ParseFile("Modules.kt", []byte(src))
			require.NoError(t, err)

			want := findingKeys(koin.Analyze(fromBuiltin, koin.Options{}))
			require.NotEmpty(t, want)
			assert.Equal(t, want, findingKeys(koin.Analyze(fromTS, koin.Options{})))
		})
	}
}
