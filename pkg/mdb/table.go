package mdb

import (
	"sync"
	"time"

	"github.com/cuemby/tinymux/pkg/log"
	"github.com/cuemby/tinymux/pkg/metrics"
	"github.com/cuemby/tinymux/pkg/types"
)

// Table is the dense object vector. A zero Table is not usable;
// construct one with New.
type Table struct {
	mu      sync.RWMutex
	objects []types.Object // index 0 unused; dbref 0 is never allocated
	freed   []types.Dbref  // recycled GARBAGE slots, most-recently-freed last
	nowFn   func() time.Time
	counts  map[types.ObjectType]int
}

// New returns an empty Table. nowFn, if nil, defaults to time.Now —
// tests may supply a deterministic clock.
func New(nowFn func() time.Time) *Table {
	if nowFn == nil {
		nowFn = time.Now
	}
	t := &Table{nowFn: nowFn, counts: make(map[types.ObjectType]int)}
	t.objects = append(t.objects, types.Object{Dbref: 0, Type: types.TypeGarbage})
	return t
}

// DbTop returns one past the highest allocated dbref, the table's
// current high-water mark.
func (t *Table) DbTop() types.Dbref {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return types.Dbref(len(t.objects))
}

// GoodObj reports whether d is a valid, non-negative, in-range,
// non-GARBAGE slot.
func (t *Table) GoodObj(d types.Dbref) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.goodObjLocked(d)
}

func (t *Table) goodObjLocked(d types.Dbref) bool {
	if d < 0 || int(d) >= len(t.objects) {
		return false
	}
	return t.objects[d].Type != types.TypeGarbage
}

// Create allocates a new object, reusing a recycled GARBAGE slot when
// one is available and otherwise extending db_top (spec.md §4.3).
func (t *Table) Create(typ types.ObjectType, owner types.Dbref) types.Dbref {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.nowFn()
	obj := types.Object{
		Type:     typ,
		Owner:    owner,
		Location: types.NOTHING,
		Parent:   types.NOTHING,
		Zone:     types.NOTHING,
		Contents: types.NOTHING,
		Exits:    types.NOTHING,
		Next:     types.NOTHING,
		Created:  now,
		Modified: now,
	}

	var d types.Dbref
	if n := len(t.freed); n > 0 {
		d = t.freed[n-1]
		t.freed = t.freed[:n-1]
		obj.Dbref = d
		t.objects[d] = obj
	} else {
		d = types.Dbref(len(t.objects))
		obj.Dbref = d
		t.objects = append(t.objects, obj)
	}
	t.counts[typ]++
	metrics.ObjectsTotal.WithLabelValues(typ.String()).Set(float64(t.counts[typ]))
	metrics.DbTop.Set(float64(len(t.objects)))
	log.WithDbref(int(d)).Debug().Str("type", typ.String()).Msg("object created")
	return d
}

// Destroy validates containment, re-parents the destroyed object's
// contents per its type rules, and flips the slot to GARBAGE (spec.md
// §4.3). Attribute clearing is the caller's responsibility (pkg/attr
// owns that store); Destroy only touches object-table state.
func (t *Table) Destroy(d types.Dbref) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.goodObjLocked(d) {
		return ErrNotFound
	}
	obj := t.objects[d]

	// Re-parent contents: things/players fall to the destroyed
	// object's own location; exits have no contents to re-home.
	if obj.Type != types.TypeExit {
		child := obj.Contents
		for child != types.NOTHING {
			next := t.objects[child].Next
			t.setLocationLocked(child, obj.Location)
			child = next
		}
	}
	t.unlinkFromParentLocked(d)

	t.counts[obj.Type]--
	metrics.ObjectsTotal.WithLabelValues(obj.Type.String()).Set(float64(t.counts[obj.Type]))

	t.objects[d] = types.Object{
		Dbref:    d,
		Type:     types.TypeGarbage,
		Location: types.NOTHING,
		Owner:    types.NOTHING,
		Parent:   types.NOTHING,
		Zone:     types.NOTHING,
		Contents: types.NOTHING,
		Exits:    types.NOTHING,
		Next:     types.NOTHING,
		Modified: t.nowFn(),
	}
	t.freed = append(t.freed, d)
	log.WithDbref(int(d)).Debug().Msg("object destroyed")
	return nil
}

// Restore places obj directly at its own Dbref slot, extending the
// table (with GARBAGE filler) as needed. It does not touch sibling
// links or t.freed — the caller (pkg/persist, replaying a checkpoint
// in dbref order) is responsible for restoring containment afterward
// via Move, and for re-marking any untouched slot GARBAGE.
func (t *Table) Restore(obj types.Object) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for types.Dbref(len(t.objects)) <= obj.Dbref {
		filler := types.Dbref(len(t.objects))
		t.objects = append(t.objects, types.Object{Dbref: filler, Type: types.TypeGarbage})
	}
	if obj.Type == types.TypeGarbage {
		t.freed = append(t.freed, obj.Dbref)
	} else {
		t.counts[obj.Type]++
		metrics.ObjectsTotal.WithLabelValues(obj.Type.String()).Set(float64(t.counts[obj.Type]))
	}
	t.objects[obj.Dbref] = obj
	metrics.DbTop.Set(float64(len(t.objects)))
}

// Get returns a copy of the object record at d, or the zero Object and
// false if d is not a valid slot.
func (t *Table) Get(d types.Dbref) (types.Object, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if !t.goodObjLocked(d) {
		return types.Object{}, false
	}
	return t.objects[d], true
}

// SetName stamps modified_time and updates the name field.
func (t *Table) SetName(d types.Dbref, name string) error {
	return t.mutate(d, func(o *types.Object) { o.Name = name })
}

// SetFlags replaces the object's flag bitset.
func (t *Table) SetFlags(d types.Dbref, flags types.ObjectFlag) error {
	return t.mutate(d, func(o *types.Object) { o.Flags = flags })
}

// SetPowers replaces the object's power bitset.
func (t *Table) SetPowers(d types.Dbref, powers types.Power) error {
	return t.mutate(d, func(o *types.Object) { o.Powers = powers })
}

// ParentNestLimit bounds how many hops a parent chain may take before
// it must terminate (spec.md §3's parent_nest_limit).
const ParentNestLimit = 50

// SetParent updates the inheritance parent, rejecting the write if
// parent is d itself, chains back to d, or its existing chain runs
// more than ParentNestLimit hops deep without terminating (spec.md §3:
// "cycles are forbidden and must be rejected on write").
func (t *Table) SetParent(d, parent types.Dbref) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.goodObjLocked(d) {
		return ErrNotFound
	}
	if parent == d {
		return ErrParentCycle
	}
	depth := 0
	for cur := parent; cur != types.NOTHING && t.goodObjLocked(cur); cur = t.objects[cur].Parent {
		if cur == d {
			return ErrParentCycle
		}
		depth++
		if depth > ParentNestLimit {
			return ErrParentNestLimit
		}
	}
	t.objects[d].Parent = parent
	t.objects[d].Modified = t.nowFn()
	return nil
}

// SetZone updates the object's zone.
func (t *Table) SetZone(d, zone types.Dbref) error {
	return t.mutate(d, func(o *types.Object) { o.Zone = zone })
}

func (t *Table) mutate(d types.Dbref, fn func(*types.Object)) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.goodObjLocked(d) {
		return ErrNotFound
	}
	fn(&t.objects[d])
	t.objects[d].Modified = t.nowFn()
	return nil
}

// Move relocates d into newLoc, unlinking it from its current sibling
// list and pushing it onto newLoc's Contents (or Exits, for an EXIT)
// per spec.md §9's insert_first/remove_first pattern.
func (t *Table) Move(d, newLoc types.Dbref) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.goodObjLocked(d) {
		return ErrNotFound
	}
	t.unlinkFromParentLocked(d)
	t.setLocationLocked(d, newLoc)
	t.objects[d].Modified = t.nowFn()
	return nil
}

// setLocationLocked pushes d onto newLoc's sibling list (insert_first)
// and records newLoc as d's Location. Caller holds t.mu.
func (t *Table) setLocationLocked(d, newLoc types.Dbref) {
	t.objects[d].Location = newLoc
	if newLoc == types.NOTHING || !t.goodObjLocked(newLoc) {
		t.objects[d].Next = types.NOTHING
		return
	}
	if t.objects[d].Type == types.TypeExit {
		t.objects[d].Next = t.objects[newLoc].Exits
		t.objects[newLoc].Exits = d
		return
	}
	t.objects[d].Next = t.objects[newLoc].Contents
	t.objects[newLoc].Contents = d
}

// unlinkFromParentLocked removes d from whatever sibling list currently
// holds it (remove_first), an O(n) scan of that list. Caller holds t.mu.
func (t *Table) unlinkFromParentLocked(d types.Dbref) {
	loc := t.objects[d].Location
	if loc == types.NOTHING || !t.goodObjLocked(loc) {
		return
	}
	var head *types.Dbref
	if t.objects[d].Type == types.TypeExit {
		head = &t.objects[loc].Exits
	} else {
		head = &t.objects[loc].Contents
	}
	if *head == d {
		*head = t.objects[d].Next
		return
	}
	for cur := *head; cur != types.NOTHING && t.goodObjLocked(cur); cur = t.objects[cur].Next {
		if t.objects[cur].Next == d {
			t.objects[cur].Next = t.objects[d].Next
			return
		}
	}
}

// WhereIs returns d's immediate container (its Location field), or
// NOTHING if d is invalid.
func (t *Table) WhereIs(d types.Dbref) types.Dbref {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if !t.goodObjLocked(d) {
		return types.NOTHING
	}
	return t.objects[d].Location
}

// WhereRoom walks Location links up to limit hops looking for a ROOM,
// per spec.md §8's invariant that where_room terminates within
// ntfy_nest_lim and returns NOTHING or a ROOM.
func (t *Table) WhereRoom(d types.Dbref, limit int) types.Dbref {
	t.mu.RLock()
	defer t.mu.RUnlock()
	cur := d
	for i := 0; i < limit; i++ {
		if !t.goodObjLocked(cur) {
			return types.NOTHING
		}
		if t.objects[cur].Type == types.TypeRoom {
			return cur
		}
		next := t.objects[cur].Location
		if next == cur {
			return types.NOTHING
		}
		cur = next
	}
	return types.NOTHING
}

// Nearby returns the contents list of d's immediate container (the
// objects "nearby" d, spec.md §4.3), not including d itself.
func (t *Table) Nearby(d types.Dbref) []types.Dbref {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if !t.goodObjLocked(d) {
		return nil
	}
	loc := t.objects[d].Location
	if !t.goodObjLocked(loc) {
		return nil
	}
	var out []types.Dbref
	for cur := t.objects[loc].Contents; t.goodObjLocked(cur); cur = t.objects[cur].Next {
		if cur != d {
			out = append(out, cur)
		}
	}
	return out
}

// Contents returns the full sibling list of an object's Contents head.
func (t *Table) Contents(d types.Dbref) []types.Dbref {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if !t.goodObjLocked(d) {
		return nil
	}
	var out []types.Dbref
	for cur := t.objects[d].Contents; t.goodObjLocked(cur); cur = t.objects[cur].Next {
		out = append(out, cur)
	}
	return out
}

// Exits returns the full sibling list of an object's Exits head.
func (t *Table) Exits(d types.Dbref) []types.Dbref {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if !t.goodObjLocked(d) {
		return nil
	}
	var out []types.Dbref
	for cur := t.objects[d].Exits; t.goodObjLocked(cur); cur = t.objects[cur].Next {
		out = append(out, cur)
	}
	return out
}

// CanSee combines DARK/LIGHT/SLEEPING/Puppet/own-dark policy (spec.md
// §4.3): a PLAYER is visible unless SLEEPING-and-not-viewer; a
// THING/ROOM is visible unless DARK (wizards with canSeeLoc override
// room DARK); a thing's own LIGHT flag overrides everything else,
// including its own DARK. A container's flags are not consulted.
func CanSee(viewer types.Object, thing types.Object, canSeeLoc bool) bool {
	if thing.Flags.Has(types.FlagLight) {
		return true
	}
	if thing.Type == types.TypePlayer {
		if thing.Flags.Has(types.FlagSleeping) && thing.Dbref != viewer.Dbref {
			return false
		}
		return true
	}
	if thing.Flags.Has(types.FlagDark) {
		if thing.Type == types.TypeRoom && canSeeLoc && viewer.Flags.Has(types.FlagWizard) {
			return true
		}
		return false
	}
	return true
}

// Locatable composes examinability of a thing and its containing room
// with FINDABLE/UNFINDABLE powers (spec.md §4.3).
func Locatable(viewer, thing, room types.Object) bool {
	if thing.Powers.Has(types.PowerUnfindable) && thing.Owner != viewer.Dbref {
		return false
	}
	if thing.Powers.Has(types.PowerFindable) {
		return true
	}
	if room.Flags.Has(types.FlagDark) && !viewer.Flags.Has(types.FlagWizard) {
		return false
	}
	return true
}
