package attr

import (
	"path/filepath"
	"testing"

	bolt "go.etcd.io/bbolt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/tinymux/pkg/types"
)

func openTestDB(t *testing.T) *bolt.DB {
	t.Helper()
	dir := t.TempDir()
	db, err := bolt.Open(filepath.Join(dir, "attrs.db"), 0600, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestGetAbsentReturnsEmptyValue(t *testing.T) {
	db := openTestDB(t)
	s, err := NewStore(db, NewCatalog(), 16)
	require.NoError(t, err)
	v := s.Get(5, A_DESC)
	assert.True(t, v.Empty())
}

func TestSetThenGetRoundTrips(t *testing.T) {
	db := openTestDB(t)
	s, err := NewStore(db, NewCatalog(), 16)
	require.NoError(t, err)
	s.Set(5, A_DESC, "A dusty room.", 1, 0)
	v := s.Get(5, A_DESC)
	assert.Equal(t, "A dusty room.", v.Text)
}

func TestSetEmptyDeletesEntry(t *testing.T) {
	db := openTestDB(t)
	s, err := NewStore(db, NewCatalog(), 16)
	require.NoError(t, err)
	s.Set(5, A_DESC, "hi", 1, 0)
	s.Set(5, A_DESC, "", 1, 0)
	assert.True(t, s.Get(5, A_DESC).Empty(), "expected empty after clearing")
}

func TestFlushPersistsThroughPager(t *testing.T) {
	db := openTestDB(t)
	s, err := NewStore(db, NewCatalog(), 16)
	require.NoError(t, err)
	s.Set(5, A_DESC, "persisted", 1, 0)
	require.NoError(t, s.Flush())

	s2, err := NewStore(db, NewCatalog(), 16)
	require.NoError(t, err)
	assert.Equal(t, "persisted", s2.Get(5, A_DESC).Text)
}

func TestIterateReturnsDefinedAttrsAscending(t *testing.T) {
	db := openTestDB(t)
	s, err := NewStore(db, NewCatalog(), 16)
	require.NoError(t, err)
	s.Set(7, A_NAME, "Widget", 1, 0)
	s.Set(7, A_DESC, "A widget.", 1, 0)
	require.NoError(t, s.Flush())
	got := s.Iterate(7)
	if assert.Len(t, got, 2) {
		assert.Equal(t, A_NAME, got[0])
		assert.Equal(t, A_DESC, got[1])
	}
}

// TestIterateExcludesDeletedBeforeFlush guards the a ∈ attr_list(o) ⇔
// get(o,a) != "" invariant: a Set("") must drop the attribute from
// Iterate immediately, not just once Flush next reconciles the pager.
func TestIterateExcludesDeletedBeforeFlush(t *testing.T) {
	db := openTestDB(t)
	s, err := NewStore(db, NewCatalog(), 16)
	require.NoError(t, err)
	s.Set(7, A_NAME, "Widget", 1, 0)
	s.Set(7, A_DESC, "A widget.", 1, 0)
	require.NoError(t, s.Flush())

	s.Set(7, A_DESC, "", 1, 0)
	got := s.Iterate(7)
	if assert.Len(t, got, 1) {
		assert.Equal(t, A_NAME, got[0])
	}
	assert.True(t, s.Get(7, A_DESC).Empty())
}

// TestIterateSurvivesReopen exercises the index seed scan in NewStore:
// attributes persisted by a prior Store must still show up in Iterate
// on a freshly opened one that never called Set itself.
func TestIterateSurvivesReopen(t *testing.T) {
	db := openTestDB(t)
	s, err := NewStore(db, NewCatalog(), 16)
	require.NoError(t, err)
	s.Set(7, A_NAME, "Widget", 1, 0)
	require.NoError(t, s.Flush())

	s2, err := NewStore(db, NewCatalog(), 16)
	require.NoError(t, err)
	got := s2.Iterate(7)
	if assert.Len(t, got, 1) {
		assert.Equal(t, A_NAME, got[0])
	}
}

func TestGetParentWalksChain(t *testing.T) {
	objs := fakeObjs{
		10: {Dbref: 10, Parent: types.NOTHING},
		11: {Dbref: 11, Parent: 10},
		12: {Dbref: 12, Parent: 11},
	}
	db := openTestDB(t)
	s, err := NewStore(db, NewCatalog(), 16)
	require.NoError(t, err)
	s.Set(10, A_DESC, "ancestor desc", 1, 0)

	v, src := s.GetParent(objs, 12, A_DESC, 10)
	assert.Equal(t, "ancestor desc", v.Text)
	assert.Equal(t, types.Dbref(10), src)
}

func TestGetParentOwnValueWins(t *testing.T) {
	objs := fakeObjs{
		10: {Dbref: 10},
		11: {Dbref: 11, Parent: 10},
	}
	db := openTestDB(t)
	s, err := NewStore(db, NewCatalog(), 16)
	require.NoError(t, err)
	s.Set(10, A_DESC, "parent", 1, 0)
	s.Set(11, A_DESC, "own", 1, 0)

	v, src := s.GetParent(objs, 11, A_DESC, 10)
	assert.Equal(t, "own", v.Text)
	assert.Equal(t, types.Dbref(11), src)
}

// TestGetParentNoInheritBlocksFallthrough exercises the AttrNoInherit
// gate directly (spec.md §4.4): a no-inherit attribute defined only on
// a parent must never surface on the child.
func TestGetParentNoInheritBlocksFallthrough(t *testing.T) {
	objs := fakeObjs{
		10: {Dbref: 10},
		11: {Dbref: 11, Parent: 10},
	}
	db := openTestDB(t)
	cat := NewCatalog()
	cat.Restore(types.AttrDef{Num: 9000, Name: "PRIVATE", Flags: types.AttrNoInherit})
	s, err := NewStore(db, cat, 16)
	require.NoError(t, err)
	s.Set(10, 9000, "secret", 1, types.AttrNoInherit)

	v, src := s.GetParent(objs, 11, 9000, 10)
	assert.True(t, v.Empty(), "no-inherit attribute should not fall through to child")
	assert.Equal(t, types.NOTHING, src)
}

// TestGetParentNoNameStillInherits confirms AttrNoName (name display)
// is no longer conflated with no-inherit.
func TestGetParentNoNameStillInherits(t *testing.T) {
	objs := fakeObjs{
		10: {Dbref: 10},
		11: {Dbref: 11, Parent: 10},
	}
	db := openTestDB(t)
	cat := NewCatalog()
	cat.Restore(types.AttrDef{Num: 9001, Name: "NONAME_ATTR", Flags: types.AttrNoName})
	s, err := NewStore(db, cat, 16)
	require.NoError(t, err)
	s.Set(10, 9001, "inherited", 1, types.AttrNoName)

	v, src := s.GetParent(objs, 11, 9001, 10)
	assert.Equal(t, "inherited", v.Text)
	assert.Equal(t, types.Dbref(10), src)
}

type fakeObjs map[types.Dbref]types.Object

func (f fakeObjs) Get(d types.Dbref) (types.Object, bool) {
	o, ok := f[d]
	return o, ok
}
