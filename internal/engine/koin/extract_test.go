package koin

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func extract(t *testing.T, src string) []BindingRecord {
	t.Helper()
	file := parse(t, src)
	return ExtractBindings(file, LocateModules(file, Options{}), Options{})
}

func TestExtractDefinitionShapes(t *testing.T) {
	records := extract(t, `
val m = module {
    single<Foo>(named("x"), override = true) { FooImpl() }
    factory { Bar() } bind Baz::class bind Qux::class
    scoped { Cache() as Store }
    viewModel { MainViewModel(get()) }
    worker { SyncWorker() }
}
`)
	require.Len(t, records, 5)

	single := records[0]
	assert.Equal(t, KindSingle, single.Kind)
	assert.Equal(t, OriginDSL, single.Origin)
	declared, ok := single.Declared()
	assert.True(t, ok)
	assert.Equal(t, "Foo", declared)
	constructed, ok := single.Constructed()
	assert.True(t, ok)
	assert.Equal(t, "FooImpl", constructed)
	require.NotNil(t, single.Qualifier)
	assert.Equal(t, Qualifier{Kind: QualifierString, Value: "x"}, *single.Qualifier)
	assert.True(t, single.HasOverride)
	module, ok := single.EnclosingModule()
	assert.True(t, ok)
	assert.Equal(t, "m", module)

	factory := records[1]
	assert.Equal(t, KindFactory, factory.Kind)
	assert.Equal(t, []string{"Baz", "Qux"}, factory.BoundInterfaces)
	_, ok = factory.Declared()
	assert.False(t, ok)
	assert.Equal(t, []string{"Bar", "Baz", "Qux"}, factory.ProvidedTypes())

	scoped := records[2]
	assert.Equal(t, KindScoped, scoped.Kind)
	inferred, ok := scoped.InferredType()
	assert.True(t, ok)
	assert.Equal(t, "Store", inferred)

	assert.Equal(t, KindViewModel, records[3].Kind)
	assert.Equal(t, "MainViewModel", records[3].ConstructedType)
	assert.Equal(t, KindWorker, records[4].Kind)
}

func TestExtractInferenceIsFallible(t *testing.T) {
	records := extract(t, `
val m = module {
    single { createClient() }
    factory {
        val a = A()
        B(a)
    }
    single { listOf<String>() }
    single { mutableMapOf<String, Int>() }
    single { emptyList() }
}
`)
	require.Len(t, records, 5)
	for _, i := range []int{0, 1, 4} {
		_, ok := records[i].InferredType()
		assert.False(t, ok, "record %d", i)
		assert.Empty(t, records[i].ProvidedTypes())
	}
	assert.Equal(t, "List<String>", records[2].ConstructedType)
	assert.Equal(t, "MutableMap<String, Int>", records[3].ConstructedType)
}

func TestExtractQualifierKinds(t *testing.T) {
	records := extract(t, `
val m = module {
    single(named("plain")) { A() }
    single(named(Env.PROD)) { B() }
    single(named<Fast>()) { C() }
    single(qualifier = custom) { D() }
    factory(StringQualifier("legacy")) { E() }
    single(qualifier = named(com.example.Env.DEV)) { F() }
    single { G() }
}
`)
	require.Len(t, records, 7)
	want := []*Qualifier{
		{Kind: QualifierString, Value: "plain"},
		{Kind: QualifierEnum, Value: "PROD", EnumType: "Env"},
		{Kind: QualifierType, Value: "Fast"},
		{Kind: QualifierOther, Value: "custom"},
		{Kind: QualifierString, Value: "legacy"},
		{Kind: QualifierEnum, Value: "DEV", EnumType: "Env"},
		nil,
	}
	for i, q := range want {
		assert.Equal(t, q, records[i].Qualifier, "record %d", i)
	}
	assert.Equal(t, "string:plain", records[0].QualifierKey())
	assert.Equal(t, "enum:Env.PROD", records[1].QualifierKey())
	assert.Equal(t, "", records[6].QualifierKey())
}

func TestExtractOptionsBlocks(t *testing.T) {
	records := extract(t, `
val m = module {
    singleOf(::RepoImpl) { bind<Repo>(); named("r") }
    factoryOf(::Mapper)
    single { Api() }.withOptions {
        qualifier = named("api")
        bind<Service>()
    }
    single { Db() } withOptions { binds(listOf(Reader::class, Writer::class)) }
    single { Client() }.bind<Http>()
}
`)
	require.Len(t, records, 5)

	assert.Equal(t, KindSingle, records[0].Kind)
	assert.Equal(t, "singleOf", records[0].Verb)
	assert.Equal(t, "RepoImpl", records[0].ConstructedType)
	assert.Equal(t, []string{"Repo"}, records[0].BoundInterfaces)
	assert.Equal(t, &Qualifier{Kind: QualifierString, Value: "r"}, records[0].Qualifier)

	assert.Equal(t, KindFactory, records[1].Kind)
	assert.Equal(t, "Mapper", records[1].ConstructedType)

	assert.Equal(t, &Qualifier{Kind: QualifierString, Value: "api"}, records[2].Qualifier)
	assert.Equal(t, []string{"Service"}, records[2].BoundInterfaces)

	assert.Equal(t, []string{"Reader", "Writer"}, records[3].BoundInterfaces)
	assert.Equal(t, []string{"Http"}, records[4].BoundInterfaces)
}

func TestExtractTraversalContext(t *testing.T) {
	records := extract(t, `
val outer = module {
    single { A() }
    scope<MainActivity> {
        scoped { Presenter() }
    }
    includes(module { factory { Inline() } })
    single { B() }
}

fun main() {
    startKoin {
        modules(module { single { Loose() } })
    }
}

val notInModule = single { Stray() }
`)
	require.Len(t, records, 6)

	assert.Equal(t, "outer", records[0].ModuleID)
	assert.False(t, records[0].InScopeBlock)

	assert.Equal(t, "outer", records[1].ModuleID)
	assert.True(t, records[1].InScopeBlock)

	// anonymous block nested in a named one is attributed to the named module
	assert.Equal(t, "outer", records[2].ModuleID)
	assert.Equal(t, 1, records[2].Block)
	assert.False(t, records[2].InScopeBlock)

	// a sibling after the scope block is not inside it
	assert.Equal(t, "outer", records[3].ModuleID)
	assert.False(t, records[3].InScopeBlock)
	assert.Equal(t, 0, records[3].Block)

	_, ok := records[4].EnclosingModule()
	assert.False(t, ok)
	assert.Equal(t, 2, records[4].Block)

	assert.Equal(t, -1, records[5].Block)
	_, scoped := records[5].scopeKey()
	assert.False(t, scoped)
}

func TestExtractAnnotationBindings(t *testing.T) {
	records := extract(t, `
@Module
class DataModule {
    @Single
    fun provideRepo(): Repository = RepoImpl()

    @Factory
    @Named("cached")
    fun provideCache(): Cache<String> = LruCache()

    @Single
    fun untyped() = Helper()

    fun notAProvider(): Other = OtherImpl()
}

@Single(binds = [Service::class, Closeable::class])
class ServiceImpl : Service, Closeable

@KoinViewModel
class HomeViewModel(private val repo: Repository) : ViewModel()
`)
	require.Len(t, records, 5)

	repo := records[0]
	assert.Equal(t, OriginAnnotation, repo.Origin)
	assert.Equal(t, "@Single", repo.Verb)
	assert.Equal(t, "Repository", repo.DeclaredType)

	cache := records[1]
	assert.Equal(t, KindFactory, cache.Kind)
	assert.Equal(t, "Cache<String>", cache.DeclaredType)
	assert.Equal(t, &Qualifier{Kind: QualifierString, Value: "cached"}, cache.Qualifier)

	helper := records[2]
	assert.Equal(t, "", helper.DeclaredType)
	assert.Equal(t, "Helper", helper.ConstructedType)

	service := records[3]
	assert.Equal(t, "ServiceImpl", service.DeclaredType)
	assert.Equal(t, []string{"Service", "Closeable"}, service.BoundInterfaces)

	vm := records[4]
	assert.Equal(t, KindViewModel, vm.Kind)
	assert.Equal(t, "HomeViewModel", vm.DeclaredType)
}

func TestExtractImplementationSuffixes(t *testing.T) {
	file := parse(t, `
val m = module {
    single { RepoImpl() }
    single { Client() }
}
`)
	opts := Options{Values: map[string]any{OptImplementationSuffixes: []string{"Impl"}}}
	records := ExtractBindings(file, LocateModules(file, opts), opts)
	require.Len(t, records, 2)
	assert.Equal(t, "RepoImpl", records[0].ConstructedType)
	assert.Equal(t, "", records[1].ConstructedType)
}

func TestExtractReplacesInvalidUTF8InNames(t *testing.T) {
	src := "val m = module {\n    single { A\xff() }\n    single { A\xff() }\n}\n"
	records := extract(t, src)
	require.Len(t, records, 2)
	assert.Equal(t, "A�", records[0].ConstructedType)

	findings := byRule(analyze(t, src), RuleDuplicateBindingWithoutQualifier)
	require.Len(t, findings, 1)
	assert.True(t, utf8.ValidString(findings[0].Message))
	assert.Contains(t, findings[0].Message, "Duplicate binding to A� without qualifier")
}
