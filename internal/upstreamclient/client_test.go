package upstreamclient

import (
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsEmptyServerList(t *testing.T) {
	var rr atomic.Uint64
	_, err := New(Config{Servers: nil}, &rr)
	assert.Error(t, err)
}

func TestSelectServerRoundRobin(t *testing.T) {
	var rr atomic.Uint64
	servers := []net.IP{net.IPv4(10, 0, 0, 1), net.IPv4(10, 0, 0, 2), net.IPv4(10, 0, 0, 3)}
	c, err := New(Config{Servers: servers, Mode: RoundRobin, Timeout: time.Millisecond, ResendAttempts: 0}, &rr)
	require.NoError(t, err)
	defer c.Close()

	seen := make([]net.IP, 0, 6)
	for i := 0; i < 6; i++ {
		seen = append(seen, c.selectServer())
	}
	// Round robin must cycle through all three servers evenly, in order.
	for i, ip := range seen {
		assert.True(t, ip.Equal(servers[i%3]), "index %d", i)
	}
}

func TestSelectServerRoundRobinSharedAcrossClients(t *testing.T) {
	var rr atomic.Uint64
	servers := []net.IP{net.IPv4(10, 0, 0, 1), net.IPv4(10, 0, 0, 2)}
	cfg := Config{Servers: servers, Mode: RoundRobin, Timeout: time.Millisecond}

	c1, err := New(cfg, &rr)
	require.NoError(t, err)
	defer c1.Close()
	c2, err := New(cfg, &rr)
	require.NoError(t, err)
	defer c2.Close()

	first := c1.selectServer()
	second := c2.selectServer()
	assert.False(t, first.Equal(second), "sharing the rr counter should alternate servers across clients")
}

func TestQueryTimesOutWhenUpstreamSilent(t *testing.T) {
	// Query always targets port 53; nothing listens there in this
	// environment, so this exercises the read-timeout/retry path without
	// needing a real upstream or root privileges to bind port 53.
	var rr atomic.Uint64
	c, err := New(Config{
		Servers:        []net.IP{net.IPv4(127, 0, 0, 1)},
		Mode:           Random,
		Timeout:        20 * time.Millisecond,
		ResendAttempts: 1,
	}, &rr)
	require.NoError(t, err)
	defer c.Close()

	buf := make([]byte, 512)
	start := time.Now()
	_, err = c.Query([]byte("query"), buf)
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, ErrTimeout)
	// Two attempts (resend_attempts=1 => 2 total) at 20ms each.
	assert.GreaterOrEqual(t, elapsed, 40*time.Millisecond)
}
