package persist

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/tinymux/pkg/attr"
	"github.com/cuemby/tinymux/pkg/mdb"
	"github.com/cuemby/tinymux/pkg/types"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newAttrStore(t *testing.T, cat *attr.Catalog) *attr.Store {
	t.Helper()
	db, err := bolt.Open(filepath.Join(t.TempDir(), "attrs.db"), 0600, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	s, err := attr.NewStore(db, cat, 64)
	require.NoError(t, err)
	return s
}

func TestCheckpointRestoreRoundTrip(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	table := mdb.New(fixedClock(now))
	cat := attr.NewCatalog()
	store := newAttrStore(t, cat)

	room := table.Create(types.TypeRoom, 1)
	player := table.Create(types.TypePlayer, 1)
	require.NoError(t, table.SetName(room, "The Void"))
	require.NoError(t, table.SetName(player, "Wizard"))
	require.NoError(t, table.Move(player, room))

	def := cat.Define("FOO", player, 0)
	store.Set(player, def.Num, "a multi\nline value", player, types.AttrVisual)
	store.Set(room, int(attr.A_DESC), "A dark void.", 1, 0)

	var buf bytes.Buffer
	require.NoError(t, Checkpoint(&buf, table, store, cat))

	table2 := mdb.New(fixedClock(now))
	cat2 := attr.NewCatalog()
	store2 := newAttrStore(t, cat2)

	require.NoError(t, Restore(&buf, table2, store2, cat2))

	assert.Equal(t, table.DbTop(), table2.DbTop())

	roomObj, ok := table2.Get(room)
	require.True(t, ok, "room not restored")
	assert.Equal(t, "The Void", roomObj.Name)
	assert.Equal(t, types.TypeRoom, roomObj.Type)

	playerObj, ok := table2.Get(player)
	require.True(t, ok, "player not restored")
	assert.Equal(t, "Wizard", playerObj.Name)
	assert.Equal(t, room, playerObj.Location)

	restoredDef, ok := cat2.Lookup("FOO")
	require.True(t, ok, "user-defined attribute not restored")
	assert.Equal(t, def.Num, restoredDef.Num)

	v := store2.Get(player, def.Num)
	assert.Equal(t, "a multi\nline value", v.Text)
	assert.Equal(t, player, v.Owner)
	assert.Equal(t, types.AttrVisual, v.Flags)

	desc := store2.Get(room, int(attr.A_DESC))
	assert.Equal(t, "A dark void.", desc.Text)
}

func TestCheckpointSkipsGarbageSlots(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	table := mdb.New(fixedClock(now))
	cat := attr.NewCatalog()
	store := newAttrStore(t, cat)

	a := table.Create(types.TypeThing, 1)
	b := table.Create(types.TypeThing, 1)
	_ = table.Destroy(a)

	var buf bytes.Buffer
	require.NoError(t, Checkpoint(&buf, table, store, cat))

	table2 := mdb.New(fixedClock(now))
	cat2 := attr.NewCatalog()
	store2 := newAttrStore(t, cat2)
	require.NoError(t, Restore(&buf, table2, store2, cat2))

	assert.False(t, table2.GoodObj(a), "destroyed slot should remain GARBAGE after restore")
	assert.True(t, table2.GoodObj(b), "live slot should survive restore")
}

func TestRestoreRejectsUnrecognizedHeader(t *testing.T) {
	table := mdb.New(nil)
	cat := attr.NewCatalog()
	store := newAttrStore(t, cat)
	err := Restore(bytes.NewBufferString("not a dump\n"), table, store, cat)
	assert.Equal(t, ErrBadFormat, err)
}
