package builtin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"koinlint/internal/engine/syntax"
)

func TestLexerTokens(t *testing.T) {
	tokens := NewLexer("val x = a?.b ?: \"s${y}\" /* c /* nested */ */ // tail\n`odd name`::class").Tokenize()

	var texts []string
	for _, tok := range tokens {
		if tok.Kind == TokenEOF {
			break
		}
		texts = append(texts, tok.Text)
	}
	assert.Equal(t, []string{"val", "x", "=", "a", "?.", "b", "?:", `"s${y}"`, "odd name", "::", "class"}, texts)

	assert.Equal(t, TokenString, tokens[7].Kind)
	assert.True(t, tokens[8].NewlineBefore)
	assert.Equal(t, 2, tokens[8].Start.Line)
	assert.Equal(t, 1, tokens[8].Start.Column)
	assert.Equal(t, 5, tokens[1].Start.Column)
}

func TestLexerRawStringAndNumbers(t *testing.T) {
	tokens := NewLexer(`"""raw "quoted" ${"in"}""" 1.5e-3 0xFF 'c' '\n'`).Tokenize()
	require.Len(t, tokens, 6)
	assert.Equal(t, TokenString, tokens[0].Kind)
	assert.Equal(t, `"""raw "quoted" ${"in"}"""`, tokens[0].Text)
	assert.Equal(t, "1.5e-3", tokens[1].Text)
	assert.Equal(t, "0xFF", tokens[2].Text)
	assert.Equal(t, TokenChar, tokens[3].Kind)
	assert.Equal(t, `'\n'`, tokens[4].Text)
	assert.Equal(t, TokenEOF, tokens[5].Kind)
}

func TestParseHeader(t *testing.T) {
	file := Parse("App.kt", []byte(`@file:JvmName("Di")
package com.example.di

import org.koin.dsl.module
import org.koin.core.qualifier.*
import com.example.Repo as R

val m = module { }
`))
	assert.Equal(t, "App.kt", file.Path)
	assert.Equal(t, "com.example.di", file.Package)
	assert.Equal(t, []string{"org.koin.dsl.module", "org.koin.core.qualifier.*", "com.example.Repo"}, file.Imports)
	require.Len(t, file.Decls, 1)
}

func TestParseModuleProperty(t *testing.T) {
	file := Parse("M.kt", []byte(`
val appModule: Module = module {
    single<Api>(named("v1"), override = true) { ApiImpl(get()) } bind Closeable::class
    factory { Mapper() }
}
`))
	require.Len(t, file.Decls, 1)
	prop, ok := file.Decls[0].(*syntax.PropertyDecl)
	require.True(t, ok)
	assert.Equal(t, "appModule", prop.Name)
	assert.Equal(t, "Module", prop.Type)
	assert.Equal(t, 2, prop.Span().Start.Line)

	call, ok := prop.Init.(*syntax.CallExpr)
	require.True(t, ok)
	assert.Equal(t, "module", syntax.CalleeName(call))
	require.NotNil(t, call.Lambda)
	require.Len(t, call.Lambda.Body, 2)

	bind, ok := call.Lambda.Body[0].(*syntax.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "bind", bind.Op)
	lit, ok := bind.Right.(*syntax.ClassLit)
	require.True(t, ok)
	assert.Equal(t, "Closeable", lit.Type.Raw)

	single, ok := bind.Left.(*syntax.CallExpr)
	require.True(t, ok)
	require.Len(t, single.TypeArgs, 1)
	assert.Equal(t, "Api", single.TypeArgs[0].Raw)
	require.Len(t, single.Args, 2)
	assert.Equal(t, "", single.Args[0].Name)
	assert.Equal(t, "override", single.Args[1].Name)
	override, ok := single.Args[1].Value.(*syntax.BoolLit)
	require.True(t, ok)
	assert.True(t, override.Value)
	named, ok := single.Args[0].Value.(*syntax.CallExpr)
	require.True(t, ok)
	str, ok := named.Args[0].Value.(*syntax.StringLit)
	require.True(t, ok)
	assert.Equal(t, "v1", str.Value)
	require.NotNil(t, single.Lambda)
	assert.Equal(t, `{ ApiImpl(get()) }`, single.Lambda.Text())

	factory, ok := call.Lambda.Body[1].(*syntax.CallExpr)
	require.True(t, ok)
	assert.Equal(t, "factory", syntax.CalleeName(factory))
	assert.Equal(t, 4, factory.Span().Start.Line)
}

func TestParseNewlineEndsStatements(t *testing.T) {
	file := Parse("M.kt", []byte(`
val m = module {
    single { A() }
    bind(Foo::class)
    single { B() }
    named("x")
}
`))
	call := file.Decls[0].(*syntax.PropertyDecl).Init.(*syntax.CallExpr)
	require.Len(t, call.Lambda.Body, 4)
	for _, stmt := range call.Lambda.Body {
		_, ok := stmt.(*syntax.CallExpr)
		assert.True(t, ok, "%T", stmt)
	}
}

func TestParseChainsAndCasts(t *testing.T) {
	file := Parse("M.kt", []byte(`
val m = module {
    single { Impl() as Api }
    single { Client() }.bind<Http>()
    single { Db() } withOptions { createdAtStart() }
    singleOf(::RepoImpl)
}
`))
	body := file.Decls[0].(*syntax.PropertyDecl).Init.(*syntax.CallExpr).Lambda.Body
	require.Len(t, body, 4)

	cast := body[0].(*syntax.CallExpr).Lambda.Body[0].(*syntax.BinaryExpr)
	assert.Equal(t, "as", cast.Op)
	assert.Equal(t, "Api", cast.Right.(*syntax.TypeExpr).Type.Raw)

	bindCall := body[1].(*syntax.CallExpr)
	nav := bindCall.Callee.(*syntax.NavExpr)
	assert.Equal(t, "bind", nav.Name)
	assert.Equal(t, "Http", bindCall.TypeArgs[0].Raw)
	assert.Equal(t, "single", syntax.CalleeName(nav.Target.(*syntax.CallExpr)))

	opts := body[2].(*syntax.BinaryExpr)
	assert.Equal(t, "withOptions", opts.Op)
	_, ok := opts.Right.(*syntax.LambdaExpr)
	assert.True(t, ok)

	ref := body[3].(*syntax.CallExpr).Args[0].Value.(*syntax.CallableRef)
	assert.Equal(t, "RepoImpl", ref.Name)
	assert.Equal(t, "", ref.Receiver)
}

func TestParseGenericsAndComparisons(t *testing.T) {
	file := Parse("M.kt", []byte(`
val a = single<Map<String, List<Int>>> { mapOf() }
val b = x < y
val c = if (x > 1) listOf<Int>() else emptyList()
`))
	require.Len(t, file.Decls, 3)

	a := file.Decls[0].(*syntax.PropertyDecl).Init.(*syntax.CallExpr)
	assert.Equal(t, "Map<String, List<Int>>", a.TypeArgs[0].Raw)
	assert.NotNil(t, a.Lambda)

	b := file.Decls[1].(*syntax.PropertyDecl).Init.(*syntax.BinaryExpr)
	assert.Equal(t, "<", b.Op)

	c := file.Decls[2].(*syntax.PropertyDecl).Init.(*syntax.Other)
	assert.Equal(t, "if", c.Kind)
	var calls []string
	syntax.Walk(c, func(n syntax.Node, _ []syntax.Node) bool {
		if call, ok := n.(*syntax.CallExpr); ok {
			calls = append(calls, syntax.CalleeName(call))
		}
		return true
	})
	assert.Equal(t, []string{"listOf", "emptyList"}, calls)
}

func TestParseDeclarations(t *testing.T) {
	file := Parse("M.kt", []byte(`
@Module
@ComponentScan("com.example")
class DataModule {
    @Single
    @Named("remote")
    fun provideRepo(api: Api): Repository = RemoteRepo(api)

    private val local = module { }
}

@Single(binds = [Repo::class])
internal class RepoImpl(private val db: Db) : Repo, Closeable by db

enum class Env { DEV, PROD; fun isProd() = this == PROD }

object Modules {
    val all = listOf(module { })
}

interface Repo
`))
	require.Len(t, file.Decls, 5)

	dataModule := file.Decls[0].(*syntax.ClassDecl)
	assert.Equal(t, "DataModule", dataModule.Name)
	assert.Equal(t, "class", dataModule.Keyword)
	require.Len(t, dataModule.Annotations, 2)
	assert.Equal(t, "ComponentScan", dataModule.Annotations[1].Name)
	require.Len(t, dataModule.Members, 2)

	fn := dataModule.Members[0].(*syntax.FuncDecl)
	assert.Equal(t, "provideRepo", fn.Name)
	assert.Equal(t, "Repository", fn.ReturnType)
	require.Len(t, fn.Annotations, 2)
	assert.Equal(t, "Named", fn.Annotations[1].Name)
	assert.Equal(t, "RemoteRepo", syntax.CalleeName(fn.Body.(*syntax.CallExpr)))

	local := dataModule.Members[1].(*syntax.PropertyDecl)
	assert.Equal(t, "local", local.Name)

	impl := file.Decls[1].(*syntax.ClassDecl)
	assert.Equal(t, "RepoImpl", impl.Name)
	assert.Equal(t, []string{"Repo", "Closeable"}, impl.Supertypes)
	require.Len(t, impl.Annotations, 1)
	assert.Equal(t, "binds", impl.Annotations[0].Args[0].Name)

	env := file.Decls[2].(*syntax.ClassDecl)
	assert.Equal(t, "enum", env.Keyword)
	require.Len(t, env.Members, 1)
	assert.Equal(t, "isProd", env.Members[0].(*syntax.FuncDecl).Name)

	modules := file.Decls[3].(*syntax.ClassDecl)
	assert.Equal(t, "object", modules.Keyword)

	repo := file.Decls[4].(*syntax.ClassDecl)
	assert.Equal(t, "interface", repo.Keyword)
}

func TestParseRecoversFromGarbage(t *testing.T) {
	inputs := []string{
		"",
		"val",
		"val m = module {",
		"module { single { A( }",
		"}}}) ]] val x = 1",
		"@",
		"fun (",
		"class { val = }",
		"single<<<>>> { }",
		`val s = "unterminated`,
		"/* open comment",
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() {
			file := Parse("Broken.kt", []byte(in))
			assert.NotNil(t, file)
		}, in)
	}
}

func TestParseKeepsPartialModules(t *testing.T) {
	file := Parse("M.kt", []byte(`
val m = module {
    single { A() }
    single { B(
`))
	require.NotEmpty(t, file.Decls)
	prop := file.Decls[0].(*syntax.PropertyDecl)
	call := prop.Init.(*syntax.CallExpr)
	require.NotNil(t, call.Lambda)
	require.NotEmpty(t, call.Lambda.Body)
	assert.Equal(t, "single", syntax.CalleeName(call.Lambda.Body[0].(*syntax.CallExpr)))
}
