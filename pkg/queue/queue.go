package queue

import (
	"container/heap"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cuemby/tinymux/pkg/log"
	"github.com/cuemby/tinymux/pkg/metrics"
	"github.com/cuemby/tinymux/pkg/types"
)

// queued wraps one deferred-command entry with a correlation id for
// log tracing, the way the teacher's API layer tags requests with a
// uuid (pkg/api/server.go in the example pack).
type queued struct {
	*types.QueueEntry
	id uuid.UUID
}

// semKey is the semaphore-wait map's key (spec.md §4.7: "keyed by
// (object, attr)").
type semKey struct {
	obj  types.Dbref
	attr int
}

// Dispatcher is the subset of pkg/dispatch a queue needs to fire a
// ready entry's command text.
type Dispatcher interface {
	Dispatch(line string, ctx *DispatchContext) string
}

// DispatchContext mirrors pkg/dispatch.Context's shape so this package
// does not need to import pkg/dispatch just for the triple of dbrefs.
type DispatchContext struct {
	Executor types.Dbref
	Caller   types.Dbref
	Enactor  types.Dbref
}

// Queue is the three-collection deferred-command queue of spec.md
// §4.7. A zero Queue is not usable; construct one with New.
type Queue struct {
	mu         sync.Mutex
	heapItems  entryHeap
	semaphore  map[semKey][]*queued
	fifo       []*queued
	seq        int64
	dispatcher Dispatcher
	nowFn      func() time.Time
	log        zerolog.Logger

	stopCh chan struct{}
	doneCh chan struct{}
}

// New builds an empty Queue. dispatcher may be nil for tests that only
// exercise enqueue/tick bookkeeping. nowFn, if nil, defaults to
// time.Now.
func New(dispatcher Dispatcher, nowFn func() time.Time) *Queue {
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Queue{
		semaphore:  make(map[semKey][]*queued),
		dispatcher: dispatcher,
		nowFn:      nowFn,
		log:        log.WithComponent("queue"),
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
}

// Enqueue implements spec.md §4.7's `enqueue(...)`: a semaphore-waiting
// entry (sem_obj != NOTHING) goes to the semaphore map; everything else
// goes to the time-ordered heap, including "wait 0" entries whose
// ReadyTime is already due — tick moves those to the FIFO on the next
// pass.
func (q *Queue) Enqueue(e *types.QueueEntry) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.seq++
	e.Seq = q.seq
	qe := &queued{QueueEntry: e, id: uuid.New()}

	if e.Waiting() {
		key := semKey{obj: e.SemObj, attr: e.SemAttr}
		q.semaphore[key] = append(q.semaphore[key], qe)
	} else {
		heap.Push(&q.heapItems, qe)
	}
	q.reportDepthLocked()
}

// Tick implements spec.md §4.7's `tick(now)`: move every heap entry
// whose ReadyTime has arrived into the FIFO, then drain the FIFO up to
// costBudget entries, firing each one through the dispatcher. It
// returns the number of entries fired.
func (q *Queue) Tick(now time.Time, costBudget int) int {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.QueueTickDuration)

	q.mu.Lock()
	for q.heapItems.Len() > 0 && !q.heapItems[0].ReadyTime.After(now) {
		due := heap.Pop(&q.heapItems).(*queued)
		q.fifo = append(q.fifo, due)
	}

	fired := 0
	for costBudget > 0 && len(q.fifo) > 0 {
		next := q.fifo[0]
		q.fifo = q.fifo[1:]
		q.mu.Unlock()

		q.fire(next)
		fired++
		costBudget--

		q.mu.Lock()
	}
	q.reportDepthLocked()
	q.mu.Unlock()
	return fired
}

func (q *Queue) fire(qe *queued) {
	metrics.QueueFiredTotal.Inc()
	q.log.Debug().
		Str("entry_id", qe.id.String()).
		Int("executor", int(qe.Executor)).
		Msg("firing deferred command")
	if q.dispatcher == nil {
		return
	}
	q.dispatcher.Dispatch(qe.Text, &DispatchContext{
		Executor: qe.Executor,
		Caller:   qe.Caller,
		Enactor:  qe.Enactor,
	})
}

// NotifySem implements spec.md §4.7's `notify_sem(obj, attr)`: it moves
// the first entry waiting on (obj, attr) to the FIFO, or every entry
// waiting on that pair when all is true (`@notify/all`).
func (q *Queue) NotifySem(obj types.Dbref, attr int, all bool) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	key := semKey{obj: obj, attr: attr}
	waiters := q.semaphore[key]
	if len(waiters) == 0 {
		return 0
	}

	n := 1
	if all || n > len(waiters) {
		n = len(waiters)
	}
	released := waiters[:n]
	q.semaphore[key] = waiters[n:]
	if len(q.semaphore[key]) == 0 {
		delete(q.semaphore, key)
	}
	q.fifo = append(q.fifo, released...)
	q.reportDepthLocked()
	return len(released)
}

// Drain implements spec.md §4.7's `drain(obj)`: removes every entry
// (heap, semaphore, or FIFO) whose executor is obj, returning the
// count removed.
func (q *Queue) Drain(obj types.Dbref) int {
	return q.removeMatching(func(e *types.QueueEntry) bool { return e.Executor == obj })
}

// Halt implements `@halt`/`halt`: removes every entry belonging to
// enactor, across all three collections.
func (q *Queue) Halt(enactor types.Dbref) int {
	return q.removeMatching(func(e *types.QueueEntry) bool { return e.Enactor == enactor })
}

func (q *Queue) removeMatching(match func(*types.QueueEntry) bool) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	removed := 0

	kept := q.heapItems[:0]
	for _, qe := range q.heapItems {
		if match(qe.QueueEntry) {
			removed++
			continue
		}
		kept = append(kept, qe)
	}
	q.heapItems = kept
	heap.Init(&q.heapItems)

	keptFifo := q.fifo[:0]
	for _, qe := range q.fifo {
		if match(qe.QueueEntry) {
			removed++
			continue
		}
		keptFifo = append(keptFifo, qe)
	}
	q.fifo = keptFifo

	for key, waiters := range q.semaphore {
		keptWaiters := waiters[:0]
		for _, qe := range waiters {
			if match(qe.QueueEntry) {
				removed++
				continue
			}
			keptWaiters = append(keptWaiters, qe)
		}
		if len(keptWaiters) == 0 {
			delete(q.semaphore, key)
		} else {
			q.semaphore[key] = keptWaiters
		}
	}

	q.reportDepthLocked()
	return removed
}

// Len reports the total number of pending entries across all three
// collections.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := q.heapItems.Len() + len(q.fifo)
	for _, w := range q.semaphore {
		n += len(w)
	}
	return n
}

func (q *Queue) reportDepthLocked() {
	metrics.QueueDepth.WithLabelValues("heap").Set(float64(q.heapItems.Len()))
	metrics.QueueDepth.WithLabelValues("fifo").Set(float64(len(q.fifo)))
	sem := 0
	for _, w := range q.semaphore {
		sem += len(w)
	}
	metrics.QueueDepth.WithLabelValues("semaphore").Set(float64(sem))
}

// Start runs Tick once per interval until Stop is called, with
// costBudget entries drained per tick — the ticker-loop shape of the
// teacher's scheduler (pkg/scheduler/scheduler.go in the example pack).
func (q *Queue) Start(interval time.Duration, costBudget int) {
	go q.run(interval, costBudget)
}

func (q *Queue) run(interval time.Duration, costBudget int) {
	defer close(q.doneCh)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			q.Tick(q.nowFn(), costBudget)
		case <-q.stopCh:
			return
		}
	}
}

// Stop halts the background tick loop started by Start and waits for
// it to exit.
func (q *Queue) Stop() {
	close(q.stopCh)
	<-q.doneCh
}
