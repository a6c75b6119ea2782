package parser

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
)

// The Kotlin grammar is only available as a runtime artifact, so the pool is
// exercised with the statically linked Java grammar.
func javaLanguage() *sitter.Language {
	return sitter.NewLanguage(tree_sitter_java.Language())
}

func TestParserPool_Leases(t *testing.T) {
	pool := NewParserPool(javaLanguage())

	sp := pool.Get()
	require.NotNil(t, sp)
	assert.Equal(t, 1, pool.Active())
	assert.GreaterOrEqual(t, pool.OldestLease().Nanoseconds(), int64(0))

	pool.Put(sp)
	assert.Equal(t, 0, pool.Active())
	assert.Zero(t, pool.OldestLease())

	pool.Put(nil)
	assert.Equal(t, 0, pool.Active())
}

func TestParserPool_ParsesAfterReset(t *testing.T) {
	pool := NewParserPool(javaLanguage())

	sp := pool.Get()
	sp.Reset()
	pool.Put(sp)

	sp = pool.Get()
	defer pool.Put(sp)

	tree := sp.Parse([]byte("class AppModule { void provide() {} }"), nil)
	require.NotNil(t, tree)
	defer tree.Close()
	assert.False(t, tree.RootNode().HasError())
}

func TestParserPool_ConcurrentAccess(t *testing.T) {
	pool := NewParserPool(javaLanguage())
	src := []byte("class Service {}")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				sp := pool.Get()
				if tree := sp.Parse(src, nil); tree != nil {
					tree.Close()
				} else {
					t.Error("nil parse tree")
				}
				pool.Put(sp)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, pool.Active())
}
