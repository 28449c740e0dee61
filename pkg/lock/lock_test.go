package lock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/tinymux/pkg/types"
)

type fakeObjects map[types.Dbref]types.Object

func (f fakeObjects) Get(d types.Dbref) (types.Object, bool) { o, ok := f[d]; return o, ok }
func (f fakeObjects) Nearby(d types.Dbref) []types.Dbref      { return nil }
func (f fakeObjects) Contents(d types.Dbref) []types.Dbref {
	var out []types.Dbref
	for id, o := range f {
		if o.Location == d {
			out = append(out, id)
		}
	}
	return out
}

type fakeAttrs map[int]types.AttrValue

func (f fakeAttrs) Get(o types.Dbref, a int) types.AttrValue { return f[a] }

func TestParseIsLock(t *testing.T) {
	n, err := Parse("#5")
	require.NoError(t, err)
	assert.Equal(t, types.LockIs, n.Kind)
	assert.Equal(t, types.Dbref(5), n.DbrefArg)
}

func TestParseAndOr(t *testing.T) {
	n, err := Parse("#1&#2|#3")
	require.NoError(t, err)
	// precedence: (#1&#2)|#3
	assert.Equal(t, types.LockOr, n.Kind, "expected top-level OR")
	assert.Equal(t, types.LockAnd, n.Left.Kind, "expected left AND")
}

func TestParseNot(t *testing.T) {
	n, err := Parse("!#5")
	require.NoError(t, err)
	assert.Equal(t, types.LockNot, n.Kind)
	assert.Equal(t, types.LockIs, n.Left.Kind)
}

func TestParseParens(t *testing.T) {
	n, err := Parse("(#1|#2)&#3")
	require.NoError(t, err)
	assert.Equal(t, types.LockAnd, n.Kind)
	assert.Equal(t, types.LockOr, n.Left.Kind)
}

func TestParseSyntaxError(t *testing.T) {
	_, err := Parse("#")
	assert.Equal(t, ErrSyntax, err)
	_, err = Parse("#1&")
	assert.Equal(t, ErrSyntax, err)
}

func TestEvalIsLock(t *testing.T) {
	n, _ := Parse("#5")
	objs := fakeObjects{}
	assert.True(t, Eval(n, 5, 10, objs, fakeAttrs{}, nil, 10), "player 5 should satisfy IS(5) lock")
	assert.False(t, Eval(n, 6, 10, objs, fakeAttrs{}, nil, 10), "player 6 should not satisfy IS(5) lock")
}

func TestEvalAndShortCircuits(t *testing.T) {
	n, _ := Parse("#5&#6")
	objs := fakeObjects{}
	assert.False(t, Eval(n, 5, 10, objs, fakeAttrs{}, nil, 10), "player can't be both dbref 5 and 6")
}

func TestEvalNotIsInvolutive(t *testing.T) {
	n, _ := Parse("#5")
	notNot, _ := Parse("!!#5")
	objs := fakeObjects{}
	a := Eval(n, 5, 10, objs, fakeAttrs{}, nil, 10)
	b := Eval(notNot, 5, 10, objs, fakeAttrs{}, nil, 10)
	assert.Equal(t, a, b, "NOT should be involutive")
}

func TestEvalCarryLock(t *testing.T) {
	n, _ := Parse("+#7")
	objs := fakeObjects{7: types.Object{Dbref: 7, Location: 1}}
	assert.True(t, Eval(n, 1, 10, objs, fakeAttrs{}, nil, 10), "player carrying 7 should satisfy CARRY(7)")
	assert.False(t, Eval(n, 2, 10, objs, fakeAttrs{}, nil, 10), "player not carrying 7 should not satisfy CARRY(7)")
}

func TestEvalFlagLock(t *testing.T) {
	n, _ := Parse("^WIZARD")
	objs := fakeObjects{9: types.Object{Dbref: 9, Flags: types.FlagWizard}}
	assert.True(t, Eval(n, 9, 10, objs, fakeAttrs{}, nil, 10), "wizard should satisfy FLAG(WIZARD)")
}

func TestEvalAttrEqMatch(t *testing.T) {
	eqNode, _ := Parse("100:yes")
	objs := fakeObjects{}
	attrs := fakeAttrs{100: types.AttrValue{Text: "yes"}}
	assert.True(t, Eval(eqNode, 1, 10, objs, attrs, nil, 10), "ATTR_EQ should match equal text")

	matchNode, _ := Parse("100~yes")
	assert.True(t, Eval(matchNode, 1, 10, objs, attrs, nil, 10), "ATTR_MATCH should match equal text")
}

func TestEvalDepthLimitReturnsFalse(t *testing.T) {
	n, _ := Parse("#1&#2&#3&#4")
	objs := fakeObjects{}
	assert.False(t, Eval(n, 1, 10, objs, fakeAttrs{}, nil, 1), "exceeding depth limit should evaluate false")
}
