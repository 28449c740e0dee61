package slab

import (
	"sync"

	"github.com/cuemby/tinymux/pkg/metrics"
)

// Class identifies one of the pool's fixed buffer sizes.
type Class int

const (
	Small Class = iota
	Medium
	Large
	Huge
	numClasses
)

func (c Class) String() string {
	switch c {
	case Small:
		return "small"
	case Medium:
		return "medium"
	case Large:
		return "large"
	case Huge:
		return "huge"
	default:
		return "unknown"
	}
}

// Sizes in bytes for each class. Large is LBUF_SIZE (spec.md glossary):
// every transient string the evaluator produces fits in one Large buffer.
const (
	SmallSize  = 64
	MediumSize = 1000
	LargeSize  = 8000
	HugeSize   = 64000
)

func sizeOf(c Class) int {
	switch c {
	case Small:
		return SmallSize
	case Medium:
		return MediumSize
	case Large:
		return LargeSize
	case Huge:
		return HugeSize
	default:
		return 0
	}
}

// Buffer is a fixed-size allocation carrying a diagnostic tag.
type Buffer struct {
	Data  []byte
	class Class
	Tag   string
}

// Class reports which size class this buffer belongs to.
func (b *Buffer) Class() Class { return b.class }

// OOMHandler is invoked when a class's free list is empty and the pool
// has reached its configured ceiling for that class. Per spec.md §7.3,
// the handler either triggers a restart or aborts; Pool.Alloc always
// returns a usable buffer by growing past the ceiling afterward so
// callers never need to nil-check (a handler that actually restarts the
// process never returns control here at all).
type OOMHandler func(class Class)

// Pool serves buffers from per-class free lists. A zero Pool is not
// usable; construct one with New.
type Pool struct {
	mu       sync.Mutex
	free     [numClasses][]*Buffer
	inUse    [numClasses]int
	ceiling  [numClasses]int // 0 means unbounded
	onOOM    OOMHandler
}

// New creates a Pool. ceilings, if non-nil, bounds the number of
// simultaneously-outstanding buffers per class (0 = unbounded); onOOM is
// called once per exhaustion event before the pool grows past a ceiling.
func New(ceilings [4]int, onOOM OOMHandler) *Pool {
	p := &Pool{onOOM: onOOM}
	p.ceiling = ceilings
	return p
}

// Alloc returns a buffer of the requested class, tagged for diagnostics.
func (p *Pool) Alloc(class Class, tag string) *Buffer {
	p.mu.Lock()
	defer p.mu.Unlock()

	var buf *Buffer
	if n := len(p.free[class]); n > 0 {
		buf = p.free[class][n-1]
		p.free[class] = p.free[class][:n-1]
	} else {
		if ceil := p.ceiling[class]; ceil > 0 && p.inUse[class] >= ceil {
			metrics.SlabExhaustions.WithLabelValues(class.String()).Inc()
			if p.onOOM != nil {
				p.onOOM(class)
			}
		}
		buf = &Buffer{Data: make([]byte, sizeOf(class)), class: class}
	}
	buf.Tag = tag
	p.inUse[class]++
	metrics.SlabInUse.WithLabelValues(class.String()).Set(float64(p.inUse[class]))
	return buf
}

// Free returns a buffer to its class's free list in O(1).
func (p *Pool) Free(buf *Buffer) {
	if buf == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	buf.Tag = ""
	p.free[buf.class] = append(p.free[buf.class], buf)
	if p.inUse[buf.class] > 0 {
		p.inUse[buf.class]--
	}
	metrics.SlabInUse.WithLabelValues(buf.class.String()).Set(float64(p.inUse[buf.class]))
}

// Stats is a diagnostic snapshot returned by PoolCheck.
type Stats struct {
	Class    Class
	Free     int
	InUse    int
	Ceiling  int
}

// PoolCheck returns a per-class snapshot for diagnostics (spec.md §4.1's
// debug pool_check).
func (p *Pool) PoolCheck() []Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Stats, 0, numClasses)
	for c := Class(0); c < numClasses; c++ {
		out = append(out, Stats{
			Class:   c,
			Free:    len(p.free[c]),
			InUse:   p.inUse[c],
			Ceiling: p.ceiling[c],
		})
	}
	return out
}
