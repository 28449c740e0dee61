package eval

import (
	"path/filepath"
	"testing"

	bolt "go.etcd.io/bbolt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/tinymux/pkg/attr"
)

func newTestEvaluator(t *testing.T) (*Evaluator, *attr.Store, *attr.Catalog) {
	t.Helper()
	db, err := bolt.Open(filepath.Join(t.TempDir(), "attrs.db"), 0600, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	cat := attr.NewCatalog()
	store, err := attr.NewStore(db, cat, 64)
	require.NoError(t, err)
	return New(store, cat, DefaultLimits), store, cat
}

func TestEvalLiteralText(t *testing.T) {
	e, _, _ := newTestEvaluator(t)
	assert.Equal(t, "hello world", e.Eval("hello world", &Context{}))
}

func TestEvalPercentSubstitutions(t *testing.T) {
	e, _, _ := newTestEvaluator(t)
	ctx := &Context{Executor: 5, Enactor: 9}
	assert.Equal(t, "#5", e.Eval("%!", ctx))
	assert.Equal(t, "#9", e.Eval("%#", ctx))
	assert.Equal(t, "%", e.Eval("%%", ctx))
	assert.Equal(t, " .\n.\t", e.Eval("%b.%r.%t", ctx))
}

func TestEvalPositionalArgs(t *testing.T) {
	e, _, _ := newTestEvaluator(t)
	ctx := &Context{}
	ctx.Args[0] = "zero"
	ctx.Args[1] = "one"
	assert.Equal(t, "zero-one", e.Eval("%0-%1", ctx))
}

func TestEvalBracesSuppressSubstitution(t *testing.T) {
	e, _, _ := newTestEvaluator(t)
	ctx := &Context{Executor: 5}
	assert.Equal(t, "%!", e.Eval("{%!}", ctx))
}

func TestEvalForcedBracketSplicesResult(t *testing.T) {
	e, _, _ := newTestEvaluator(t)
	assert.Equal(t, "6", e.Eval("[add(1,2,3)]", &Context{}))
}

func TestEvalAddFunction(t *testing.T) {
	e, _, _ := newTestEvaluator(t)
	assert.Equal(t, "#-1 ARGUMENTS MUST BE NUMBERS", e.Eval("[add(1,foo)]", &Context{}))
}

func TestEvalUnknownFunction(t *testing.T) {
	e, _, _ := newTestEvaluator(t)
	assert.Equal(t, "#-1 FUNCTION (BOGUS) NOT FOUND", e.Eval("[bogus(1)]", &Context{}))
}

func TestEvalVFunctionReadsAttribute(t *testing.T) {
	e, store, cat := newTestEvaluator(t)
	def := cat.Define("FOO", 5, 0)
	store.Set(5, def.Num, "bar", 5, 0)
	assert.Equal(t, "bar", e.Eval("[v(foo)]", &Context{Executor: 5}))
}

func TestEvalStringTooLongTruncates(t *testing.T) {
	e, _, _ := newTestEvaluator(t)
	long := make([]byte, LBufSize+10)
	for i := range long {
		long[i] = 'a'
	}
	got := e.Eval(string(long), &Context{})
	assert.True(t, len(got) >= len("#-1 STRING TOO LONG"))
	assert.Equal(t, "#-1 STRING TOO LONG", got[len(got)-len("#-1 STRING TOO LONG"):])
}

func TestEvalRecursionLimitExceeded(t *testing.T) {
	e, _, _ := newTestEvaluator(t)
	e.limits.RecursionLimit = 2
	nested := "[[[literal]]]"
	assert.Equal(t, "#-1 FUNCTION RECURSION LIMIT EXCEEDED", e.Eval(nested, &Context{}))
}

func TestCompareFunctions(t *testing.T) {
	e, _, _ := newTestEvaluator(t)
	cases := map[string]string{
		"[eq(1,1)]": "1",
		"[eq(1,2)]": "0",
		"[gt(2,1)]": "1",
		"[lt(2,1)]": "0",
	}
	for in, want := range cases {
		assert.Equal(t, want, e.Eval(in, &Context{}), "Eval(%q)", in)
	}
}

func TestStringFunctions(t *testing.T) {
	e, _, _ := newTestEvaluator(t)
	assert.Equal(t, "5", e.Eval("[strlen(hello)]", &Context{}))
	assert.Equal(t, "HI", e.Eval("[upr(hi)]", &Context{}))
	assert.Equal(t, "hi", e.Eval("[lwr(HI)]", &Context{}))
	assert.Equal(t, "ell", e.Eval("[mid(hello,1,3)]", &Context{}))
}
