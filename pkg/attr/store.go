package attr

import (
	"encoding/binary"
	"fmt"
	"sort"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	bolt "go.etcd.io/bbolt"

	"github.com/cuemby/tinymux/pkg/metrics"
	"github.com/cuemby/tinymux/pkg/types"
)

var bucketAttrs = []byte("attrs")

// ParentSource supplies the parent chain Store.GetParent walks; pkg/mdb
// satisfies it directly.
type ParentSource interface {
	Get(d types.Dbref) (types.Object, bool)
}

type key struct {
	d types.Dbref
	a int
}

func (k key) encode() []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint32(b[0:4], uint32(k.d))
	binary.BigEndian.PutUint32(b[4:8], uint32(k.a))
	return b
}

// Store is the durable (object, attr_num) → value map of spec.md §4.4,
// fronted by a fixed-capacity LRU. Writes mark the cache entry dirty;
// a dirty entry is flushed to the pager on eviction or on Flush.
type Store struct {
	mu      sync.Mutex
	db      *bolt.DB
	cache   *lru.Cache
	dirty   map[key]types.AttrValue
	catalog *Catalog
	// index is the in-memory per-object attribute-list secondary index
	// (spec.md §2.4/§3): the set of attribute numbers currently defined
	// on each object, kept in lockstep with every Set so Iterate never
	// has to scan the pager or reconcile it against dirty.
	index map[types.Dbref]map[int]struct{}
}

// NewStore opens (creating if absent) the attrs bucket in db and wraps
// it with an LRU of the given capacity.
func NewStore(db *bolt.DB, catalog *Catalog, cacheSize int) (*Store, error) {
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketAttrs)
		return err
	}); err != nil {
		return nil, fmt.Errorf("attr: open bucket: %w", err)
	}

	s := &Store{
		db:      db,
		catalog: catalog,
		dirty:   make(map[key]types.AttrValue),
		index:   make(map[types.Dbref]map[int]struct{}),
	}
	if err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketAttrs).ForEach(func(k, v []byte) error {
			if len(k) < 8 || decodeValue(v).Empty() {
				return nil
			}
			d := types.Dbref(binary.BigEndian.Uint32(k[0:4]))
			a := int(binary.BigEndian.Uint32(k[4:8]))
			s.addIndex(d, a)
			return nil
		})
	}); err != nil {
		return nil, fmt.Errorf("attr: seed index: %w", err)
	}

	cache, err := lru.NewWithEvict(cacheSize, s.onEvict)
	if err != nil {
		return nil, fmt.Errorf("attr: new cache: %w", err)
	}
	s.cache = cache
	return s, nil
}

// addIndex and removeIndex assume s.mu is not held by the caller; they
// take it themselves since they are also called from NewStore's
// single-threaded seed scan.
func (s *Store) addIndex(o types.Dbref, a int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := s.index[o]
	if set == nil {
		set = make(map[int]struct{})
		s.index[o] = set
	}
	set[a] = struct{}{}
}

func (s *Store) removeIndex(o types.Dbref, a int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := s.index[o]
	if set == nil {
		return
	}
	delete(set, a)
	if len(set) == 0 {
		delete(s.index, o)
	}
}

func (s *Store) onEvict(k, v interface{}) {
	metrics.AttrCacheEvictions.Inc()
	kk := k.(key)
	s.mu.Lock()
	val, isDirty := s.dirty[kk]
	delete(s.dirty, kk)
	s.mu.Unlock()
	if isDirty {
		_ = s.writeThrough(kk, val)
	}
}

func (s *Store) writeThrough(k key, v types.AttrValue) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketAttrs)
		if v.Empty() {
			return b.Delete(k.encode())
		}
		return b.Put(k.encode(), encodeValue(v))
	})
}

func (s *Store) loadFromPager(k key) (types.AttrValue, bool) {
	var v types.AttrValue
	var found bool
	_ = s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketAttrs)
		raw := b.Get(k.encode())
		if raw == nil {
			return nil
		}
		found = true
		v = decodeValue(raw)
		return nil
	})
	return v, found
}

// Get returns the value at (o, a); absence yields a zero AttrValue
// rather than an error (spec.md §4.4: "never fails").
func (s *Store) Get(o types.Dbref, a int) types.AttrValue {
	k := key{o, a}
	if v, ok := s.cache.Get(k); ok {
		metrics.AttrCacheHits.Inc()
		return v.(types.AttrValue)
	}
	metrics.AttrCacheMisses.Inc()
	v, found := s.loadFromPager(k)
	if !found {
		v = types.AttrValue{}
	}
	s.cache.Add(k, v)
	return v
}

// GetParent walks the parent chain up to limit hops, returning the
// first defining ancestor's value plus the dbref it was found on
// (spec.md §4.4's get_parent). noInherit attributes never fall
// through to a parent.
func (s *Store) GetParent(objs ParentSource, o types.Dbref, a int, limit int) (types.AttrValue, types.Dbref) {
	if v := s.Get(o, a); !v.Empty() {
		return v, o
	}
	if def, ok := s.catalog.AtrNum(a); ok && def.Flags.Has(types.AttrNoInherit) {
		return types.AttrValue{}, types.NOTHING
	}
	cur := o
	for i := 0; i < limit; i++ {
		obj, ok := objs.Get(cur)
		if !ok || obj.Parent == types.NOTHING {
			return types.AttrValue{}, types.NOTHING
		}
		cur = obj.Parent
		if v := s.Get(cur, a); !v.Empty() {
			return v, cur
		}
	}
	return types.AttrValue{}, types.NOTHING
}

// Set stores value for (o, a) under owner; an empty value deletes the
// entry (spec.md §4.4). Permission is the caller's responsibility
// (see CanWrite) — Set itself never fails on permission grounds.
func (s *Store) Set(o types.Dbref, a int, value string, owner types.Dbref, flags types.AttrFlag) {
	k := key{o, a}
	v := types.AttrValue{Text: value, Owner: owner, Flags: flags}
	s.cache.Add(k, v)
	s.mu.Lock()
	s.dirty[k] = v
	s.mu.Unlock()
	if v.Empty() {
		s.removeIndex(o, a)
	} else {
		s.addIndex(o, a)
	}
}

// Info returns only the owner/flags metadata for (o, a).
func (s *Store) Info(o types.Dbref, a int) (types.Dbref, types.AttrFlag) {
	v := s.Get(o, a)
	return v.Owner, v.Flags
}

// Iterate returns the attribute numbers defined (non-empty) on o, in
// ascending order, by consulting the in-memory secondary index rather
// than scanning the pager — the index is updated by every Set, so a
// deletion is reflected here even before the next Flush (spec.md §8:
// a ∈ attr_list(o) ⇔ get(o,a) != "").
func (s *Store) Iterate(o types.Dbref) []int {
	s.mu.Lock()
	set := s.index[o]
	nums := make([]int, 0, len(set))
	for a := range set {
		nums = append(nums, a)
	}
	s.mu.Unlock()

	sort.Ints(nums)
	return nums
}

// Flush writes every dirty cache entry through to the pager, the
// al_store step of a checkpoint (spec.md §4.8).
func (s *Store) Flush() error {
	s.mu.Lock()
	pending := s.dirty
	s.dirty = make(map[key]types.AttrValue)
	s.mu.Unlock()

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketAttrs)
		for k, v := range pending {
			if v.Empty() {
				if err := b.Delete(k.encode()); err != nil {
					return err
				}
				continue
			}
			if err := b.Put(k.encode(), encodeValue(v)); err != nil {
				return err
			}
		}
		return nil
	})
}

func encodeValue(v types.AttrValue) []byte {
	owner := make([]byte, 4)
	binary.BigEndian.PutUint32(owner, uint32(v.Owner))
	flags := make([]byte, 4)
	binary.BigEndian.PutUint32(flags, uint32(v.Flags))
	return append(append(owner, flags...), []byte(v.Text)...)
}

func decodeValue(raw []byte) types.AttrValue {
	if len(raw) < 8 {
		return types.AttrValue{}
	}
	return types.AttrValue{
		Owner: types.Dbref(binary.BigEndian.Uint32(raw[0:4])),
		Flags: types.AttrFlag(binary.BigEndian.Uint32(raw[4:8])),
		Text:  string(raw[8:]),
	}
}
