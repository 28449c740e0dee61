package attr

import (
	"strings"
	"sync"

	"github.com/cuemby/tinymux/pkg/types"
)

// Built-in attribute numbers (spec.md §3's "Attribute catalog"). User-
// defined slots are numbered starting at firstUserAttr.
const (
	A_NAME = iota + 1
	A_DESC
	A_LOCK
	A_LISTEN
	A_SEX
	A_STARTUP
	A_VA
	A_LAST
)

const firstUserAttr = 256

// Catalog is the fixed-at-startup mapping from attr_num to AttrDef,
// plus user-defined slots registered at runtime (spec.md §4.4).
type Catalog struct {
	mu      sync.RWMutex
	byNum   map[int]types.AttrDef
	byName  map[string]int
	nextNum int
}

// NewCatalog builds a Catalog preloaded with the built-in attributes.
func NewCatalog() *Catalog {
	c := &Catalog{
		byNum:   make(map[int]types.AttrDef),
		byName:  make(map[string]int),
		nextNum: firstUserAttr,
	}
	for _, d := range builtins() {
		c.byNum[d.Num] = d
		c.byName[strings.ToUpper(d.Name)] = d.Num
	}
	return c
}

func builtins() []types.AttrDef {
	return []types.AttrDef{
		{Num: int(A_NAME), Name: "NAME", Flags: types.AttrInternal},
		{Num: int(A_DESC), Name: "DESC", Flags: types.AttrVisual},
		{Num: int(A_LOCK), Name: "LOCK", Flags: types.AttrLock | types.AttrInternal},
		{Num: int(A_LISTEN), Name: "LISTEN", Flags: 0},
		{Num: int(A_SEX), Name: "SEX", Flags: types.AttrVisual},
		{Num: int(A_STARTUP), Name: "STARTUP", Flags: 0},
		{Num: int(A_VA), Name: "VA", Flags: 0},
	}
}

// AtrNum returns the definition for attribute number n, or false if n
// is unregistered (spec.md §4.4's atr_num).
func (c *Catalog) AtrNum(n int) (types.AttrDef, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.byNum[n]
	return d, ok
}

// Lookup does a case-insensitive lookup by name.
func (c *Catalog) Lookup(name string) (types.AttrDef, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n, ok := c.byName[strings.ToUpper(name)]
	if !ok {
		return types.AttrDef{}, false
	}
	return c.byNum[n], true
}

// Define registers a new user-defined attribute slot, or returns the
// existing definition if the name is already registered.
func (c *Catalog) Define(name string, owner types.Dbref, flags types.AttrFlag) types.AttrDef {
	upper := strings.ToUpper(name)
	c.mu.Lock()
	defer c.mu.Unlock()
	if n, ok := c.byName[upper]; ok {
		return c.byNum[n]
	}
	d := types.AttrDef{Num: c.nextNum, Name: upper, Flags: flags, DefaultOwner: owner}
	c.byNum[d.Num] = d
	c.byName[upper] = d.Num
	c.nextNum++
	return d
}

// UserDefined returns every attribute definition at or past
// firstUserAttr, in ascending Num order — the "attribute catalog diff
// from built-ins" a checkpoint needs to serialize (spec.md §4.8).
func (c *Catalog) UserDefined() []types.AttrDef {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var defs []types.AttrDef
	for _, d := range c.byNum {
		if d.Num >= firstUserAttr {
			defs = append(defs, d)
		}
	}
	for i := 1; i < len(defs); i++ {
		for j := i; j > 0 && defs[j-1].Num > defs[j].Num; j-- {
			defs[j-1], defs[j] = defs[j], defs[j-1]
		}
	}
	return defs
}

// Restore reinstalls a user-defined attribute definition loaded from a
// checkpoint, advancing nextNum past it so future Define calls never
// collide with a restored slot.
func (c *Catalog) Restore(d types.AttrDef) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byNum[d.Num] = d
	c.byName[strings.ToUpper(d.Name)] = d.Num
	if d.Num >= c.nextNum {
		c.nextNum = d.Num + 1
	}
}
