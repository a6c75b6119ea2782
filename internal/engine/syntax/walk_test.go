package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimpleTypeName(t *testing.T) {
	tests := map[string]string{
		"Foo":                       "Foo",
		"com.example.Repo<T>?":      "Repo",
		"Map<String, List<Int>>":    "Map",
		"  kotlin.collections.List": "List",
		"`Weird Name`":              "Weird Name",
		"Foo!!":                     "Foo",
		"":                          "",
	}
	for raw, want := range tests {
		assert.Equal(t, want, SimpleTypeName(raw), raw)
	}
}

func TestTypeArguments(t *testing.T) {
	assert.Equal(t, []string{"String", "List<Int>"}, TypeArguments("Map<String, List<Int>>"))
	assert.Equal(t, []string{"(Int) -> Unit"}, TypeArguments("Array<(Int) -> Unit>"))
	assert.Equal(t, []string{"*"}, TypeArguments("List<*>"))
	assert.Nil(t, TypeArguments("Foo"))
	assert.Nil(t, TypeArguments("Foo<"))
	assert.True(t, TypeRef{Raw: "Set<A>"}.IsGeneric())
	assert.False(t, TypeRef{Raw: "Set"}.IsGeneric())
	assert.Equal(t, "Set", TypeRef{Raw: "kotlin.Set<A>"}.Name())
}

func TestCalleeNameAndExprText(t *testing.T) {
	nav := &NavExpr{Target: &NavExpr{Target: &Ident{Name: "a"}, Name: "b"}, Name: "bind"}
	assert.Equal(t, "bind", CalleeName(&CallExpr{Callee: nav}))
	assert.Equal(t, "single", CalleeName(&CallExpr{Callee: &Ident{Name: "single"}}))
	assert.Equal(t, "", CalleeName(&CallExpr{Callee: &LambdaExpr{}}))
	assert.Equal(t, "", CalleeName(nil))

	text, ok := ExprText(nav)
	assert.True(t, ok)
	assert.Equal(t, "a.b.bind", text)

	_, ok = ExprText(&NavExpr{Target: &CallExpr{}, Name: "x"})
	assert.False(t, ok)
}

func TestWalk(t *testing.T) {
	inner := &CallExpr{Callee: &Ident{Name: "single"}, Lambda: &LambdaExpr{Body: []Node{
		&CallExpr{Callee: &Ident{Name: "Impl"}},
	}}}
	module := &CallExpr{Callee: &Ident{Name: "module"}, Lambda: &LambdaExpr{Body: []Node{inner}}}
	file := &File{Decls: []Node{
		&PropertyDecl{Name: "m", Init: module, Annotations: []*Annotation{{Name: "JvmField"}}},
	}}

	var names []string
	var depthOfImpl int
	Walk(file, func(n Node, path []Node) bool {
		if call, ok := n.(*CallExpr); ok {
			names = append(names, CalleeName(call))
			if CalleeName(call) == "Impl" {
				depthOfImpl = len(path)
			}
		}
		return true
	})
	assert.Equal(t, []string{"module", "single", "Impl"}, names)
	// File, PropertyDecl, module, module lambda, single, single lambda
	assert.Equal(t, 6, depthOfImpl)

	var visited int
	Walk(file, func(n Node, _ []Node) bool {
		visited++
		_, isCall := n.(*CallExpr)
		return !isCall
	})
	// File, PropertyDecl, Annotation, module call
	assert.Equal(t, 4, visited)

	Walk(nil, func(Node, []Node) bool {
		t.Fatal("visited nil root")
		return true
	})
}
