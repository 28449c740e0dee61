package notify

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/cuemby/tinymux/pkg/log"
	"github.com/cuemby/tinymux/pkg/metrics"
	"github.com/cuemby/tinymux/pkg/types"
)

// Message is one line of text addressed to a connected dbref.
type Message struct {
	Dbref types.Dbref
	Text  string
}

// Subscriber is the channel a connected session reads its queued
// output from.
type Subscriber chan *Message

// ContentsSource is the subset of pkg/mdb.Table NotifyRoom needs to
// find who is in a location.
type ContentsSource interface {
	Contents(d types.Dbref) []types.Dbref
}

// Broker routes Notify calls to whichever session is currently
// subscribed under the target dbref, buffering them through a single
// internal queue so a slow caller never blocks on a stalled
// connection.
type Broker struct {
	mu          sync.RWMutex
	subscribers map[types.Dbref]Subscriber

	queueCh chan *Message
	stopCh  chan struct{}
	log     zerolog.Logger
}

// NewBroker returns a Broker with a 256-message internal queue.
func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[types.Dbref]Subscriber),
		queueCh:     make(chan *Message, 256),
		stopCh:      make(chan struct{}),
		log:         log.WithComponent("notify"),
	}
}

// Start begins the broker's delivery loop.
func (b *Broker) Start() {
	go b.run()
}

// Stop halts the delivery loop. It does not close subscriber channels.
func (b *Broker) Stop() {
	close(b.stopCh)
}

// Subscribe registers sub as the inbox for d, replacing any previous
// subscriber under that dbref (a reconnect supersedes the stale
// session rather than queuing behind it).
func (b *Broker) Subscribe(d types.Dbref, sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[d] = sub
}

// Unsubscribe removes d's inbox, if sub is still the one registered.
func (b *Broker) Unsubscribe(d types.Dbref, sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subscribers[d] == sub {
		delete(b.subscribers, d)
	}
}

// Notify queues text for delivery to d. It never blocks the caller on
// a stalled session: once queued, delivery happens asynchronously on
// the broker's run loop.
func (b *Broker) Notify(d types.Dbref, text string) {
	msg := &Message{Dbref: d, Text: text}
	select {
	case b.queueCh <- msg:
	case <-b.stopCh:
	}
}

// NotifyRoom delivers text to every object Contents reports for room,
// skipping dbrefs in except. Used by commands like "say" and "pose"
// that address everyone in a location at once.
func (b *Broker) NotifyRoom(contents ContentsSource, room types.Dbref, text string, except ...types.Dbref) {
	skip := make(map[types.Dbref]struct{}, len(except))
	for _, d := range except {
		skip[d] = struct{}{}
	}
	for _, d := range contents.Contents(room) {
		if _, ok := skip[d]; ok {
			continue
		}
		b.Notify(d, text)
	}
}

func (b *Broker) run() {
	for {
		select {
		case msg := <-b.queueCh:
			b.deliver(msg)
		case <-b.stopCh:
			return
		}
	}
}

func (b *Broker) deliver(msg *Message) {
	b.mu.RLock()
	sub, ok := b.subscribers[msg.Dbref]
	b.mu.RUnlock()
	if !ok {
		metrics.NotifyTotal.WithLabelValues("dropped").Inc()
		return
	}
	select {
	case sub <- msg:
		metrics.NotifyTotal.WithLabelValues("delivered").Inc()
	default:
		// Subscriber buffer full: drop rather than block the broker.
		metrics.NotifyTotal.WithLabelValues("dropped").Inc()
		b.log.Warn().Int("dbref", int(msg.Dbref)).Msg("notify buffer full, message dropped")
	}
}

// SubscriberCount returns the number of currently connected dbrefs.
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
