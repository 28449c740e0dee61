package helper

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/cuemby/tinymux/pkg/log"
)

// CallFunc issues one request to an external helper and returns its
// result, or an error if the helper failed or is unreachable.
type CallFunc func(args []string) (string, error)

// Channel is one named connection to an out-of-process helper. It
// owns call and, once Disconnect runs, never accepts another Call.
type Channel struct {
	mu           sync.Mutex
	name         string
	call         CallFunc
	onDisconnect func()
	connected    bool
	log          zerolog.Logger
}

// NewChannel wraps call as a Channel named name. onDisconnect, if
// non-nil, runs once when the channel disconnects (closing the
// underlying pipe, freeing resources the caller owns).
func NewChannel(name string, call CallFunc, onDisconnect func()) *Channel {
	return &Channel{
		name:         name,
		call:         call,
		onDisconnect: onDisconnect,
		connected:    true,
		log:          log.WithComponent("helper").With().Str("channel", name).Logger(),
	}
}

// Call issues one request. A disconnected channel returns an error
// immediately without invoking call.
func (c *Channel) Call(args []string) (string, error) {
	c.mu.Lock()
	connected, call := c.connected, c.call
	c.mu.Unlock()
	if !connected {
		return "", fmt.Errorf("helper: channel %q disconnected", c.name)
	}
	result, err := call(args)
	if err != nil {
		c.log.Warn().Err(err).Msg("external helper call failed")
		return "", err
	}
	return result, nil
}

// Disconnect marks the channel unusable and runs onDisconnect once.
// Safe to call more than once.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		return
	}
	c.connected = false
	cb := c.onDisconnect
	c.mu.Unlock()
	if cb != nil {
		cb()
	}
}

// Connected reports whether the channel still accepts calls.
func (c *Channel) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Registry is the handle table the interpreter holds: one Channel per
// named external helper (spec.md's "small handle tables owned by the
// interpreter"). It satisfies pkg/persist.HelperShutdown, so a
// restart's pre-exec phase can tear every helper down through it.
type Registry struct {
	mu       sync.RWMutex
	channels map[string]*Channel
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{channels: make(map[string]*Channel)}
}

// Register installs ch under its own name, replacing any previous
// channel of that name (the old one is not disconnected by this call —
// callers that mean to replace a live channel should Unregister first).
func (r *Registry) Register(ch *Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels[ch.name] = ch
}

// Unregister removes and disconnects the named channel, if present.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	ch, ok := r.channels[name]
	if ok {
		delete(r.channels, name)
	}
	r.mu.Unlock()
	if ok {
		ch.Disconnect()
	}
}

// Call dispatches to the named channel. An unknown or disconnected
// name returns a bounded error; it never blocks the interpreter.
func (r *Registry) Call(name string, args []string) (string, error) {
	r.mu.RLock()
	ch, ok := r.channels[name]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("helper: no channel named %q", name)
	}
	return ch.Call(args)
}

// Shutdown disconnects every registered channel and empties the
// table. Called from the restart path before re-exec (spec.md §4.8:
// "tears down auxiliary helper processes cleanly").
func (r *Registry) Shutdown() {
	r.mu.Lock()
	chans := make([]*Channel, 0, len(r.channels))
	for _, ch := range r.channels {
		chans = append(chans, ch)
	}
	r.channels = make(map[string]*Channel)
	r.mu.Unlock()

	for _, ch := range chans {
		ch.Disconnect()
	}
}
