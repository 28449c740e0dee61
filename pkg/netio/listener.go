package netio

import (
	"fmt"
	"net"
	"sync"

	"github.com/rs/zerolog"

	"github.com/cuemby/tinymux/pkg/log"
)

// Handler processes one accepted session. It owns the session for its
// lifetime and should return once the connection should be closed.
type Handler func(LineSession)

// Listener accepts TCP connections and hands each one, wrapped as a
// ConnSession, to a Handler goroutine. Grounded on the teacher's
// pkg/api/server.go Start/Stop pair (example pack).
type Listener struct {
	handler Handler
	log     zerolog.Logger

	mu sync.Mutex
	ln net.Listener
	wg sync.WaitGroup
}

// NewListener returns a Listener that dispatches every accepted
// connection to handler on its own goroutine.
func NewListener(handler Handler) *Listener {
	return &Listener{handler: handler, log: log.WithComponent("netio")}
}

// Start listens on addr and begins accepting connections in the
// background. It returns once the listener is bound.
func (l *Listener) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("netio: listen %s: %w", addr, err)
	}
	l.mu.Lock()
	l.ln = ln
	l.mu.Unlock()

	l.log.Info().Str("addr", addr).Msg("listening")
	l.wg.Add(1)
	go l.acceptLoop(ln)
	return nil
}

func (l *Listener) acceptLoop(ln net.Listener) {
	defer l.wg.Done()
	for {
		conn, err := ln.Accept()
		if err != nil {
			l.log.Debug().Err(err).Msg("accept loop exiting")
			return
		}
		sess := NewConnSession(conn)
		l.wg.Add(1)
		go func() {
			defer l.wg.Done()
			defer sess.Close()
			l.handler(sess)
		}()
	}
}

// Stop closes the listening socket, which makes the accept loop exit,
// and returns without waiting for it or for in-flight handler
// goroutines. Callers that need a clean drain of live sessions should
// close them via their own bookkeeping before calling Stop.
func (l *Listener) Stop() error {
	l.mu.Lock()
	ln := l.ln
	l.mu.Unlock()
	if ln == nil {
		return nil
	}
	return ln.Close()
}

// Addr returns the bound address, or "" if Start has not been called.
func (l *Listener) Addr() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ln == nil {
		return ""
	}
	return l.ln.Addr().String()
}
