package helper

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChannelCallDelegates(t *testing.T) {
	ch := NewChannel("echo", func(args []string) (string, error) {
		return args[0], nil
	}, nil)

	got, err := ch.Call([]string{"hi"})
	assert.NoError(t, err)
	assert.Equal(t, "hi", got)
}

func TestChannelCallAfterDisconnectFails(t *testing.T) {
	var disconnected bool
	ch := NewChannel("echo", func(args []string) (string, error) {
		return "ok", nil
	}, func() { disconnected = true })

	ch.Disconnect()
	assert.True(t, disconnected, "onDisconnect did not run")
	assert.False(t, ch.Connected(), "expected channel to report disconnected")
	_, err := ch.Call([]string{"x"})
	assert.Error(t, err, "expected error calling a disconnected channel")
}

func TestChannelDisconnectIsIdempotent(t *testing.T) {
	calls := 0
	ch := NewChannel("echo", func(args []string) (string, error) { return "", nil }, func() { calls++ })
	ch.Disconnect()
	ch.Disconnect()
	assert.Equal(t, 1, calls, "onDisconnect should run once")
}

func TestRegistryCallRoutesByName(t *testing.T) {
	r := NewRegistry()
	r.Register(NewChannel("dns", func(args []string) (string, error) { return "1.2.3.4", nil }, nil))
	r.Register(NewChannel("math", func(args []string) (string, error) { return "4", nil }, nil))

	got, err := r.Call("dns", []string{"host"})
	assert.NoError(t, err)
	assert.Equal(t, "1.2.3.4", got)

	got, err = r.Call("math", []string{"2+2"})
	assert.NoError(t, err)
	assert.Equal(t, "4", got)
}

func TestRegistryCallUnknownChannel(t *testing.T) {
	r := NewRegistry()
	_, err := r.Call("missing", nil)
	assert.Error(t, err, "expected error for unknown channel")
}

func TestRegistryCallPropagatesChannelError(t *testing.T) {
	r := NewRegistry()
	r.Register(NewChannel("broken", func(args []string) (string, error) {
		return "", errors.New("boom")
	}, nil))
	_, err := r.Call("broken", nil)
	assert.Error(t, err, "expected error from broken channel")
}

func TestRegistryUnregisterDisconnects(t *testing.T) {
	var disconnected bool
	r := NewRegistry()
	r.Register(NewChannel("dns", func(args []string) (string, error) { return "", nil }, func() { disconnected = true }))
	r.Unregister("dns")
	assert.True(t, disconnected, "Unregister did not disconnect channel")
	_, err := r.Call("dns", nil)
	assert.Error(t, err, "expected error calling unregistered channel")
}

func TestRegistryShutdownDisconnectsAll(t *testing.T) {
	var a, b bool
	r := NewRegistry()
	r.Register(NewChannel("a", func(args []string) (string, error) { return "", nil }, func() { a = true }))
	r.Register(NewChannel("b", func(args []string) (string, error) { return "", nil }, func() { b = true }))

	r.Shutdown()

	assert.True(t, a, "Shutdown did not disconnect channel a")
	assert.True(t, b, "Shutdown did not disconnect channel b")
	_, err := r.Call("a", nil)
	assert.Error(t, err, "expected error calling a channel after Shutdown")
}
