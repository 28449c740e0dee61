package netio

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnSessionReadLineStripsCRLF(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	sess := NewConnSession(server)
	go func() { client.Write([]byte("look\r\n")) }()

	line, err := sess.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "look", line)
}

func TestConnSessionReadLineAcceptsBareLF(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	sess := NewConnSession(server)
	go func() { client.Write([]byte("look\n")) }()

	line, err := sess.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "look", line)
}

func TestConnSessionWriteLineAppendsCRLF(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	sess := NewConnSession(server)
	done := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 64)
		n, _ := client.Read(buf)
		done <- buf[:n]
	}()

	require.NoError(t, sess.WriteLine("hello"))
	got := <-done
	assert.Equal(t, "hello\r\n", string(got))
}

func TestConnSessionNegotiateIsNoop(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	sess := NewConnSession(server)
	assert.NoError(t, sess.Negotiate("NAWS"))
}
