// Package upstreamclient sends DNS queries to configured IPv4 upstream
// resolvers and returns their raw wire-format answers.
package upstreamclient

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"sync/atomic"
	"time"
)

// ErrTimeout covers both a receive that times out and a receive that
// returns nothing after every retry has been exhausted.
var ErrTimeout = errors.New("upstreamclient: timed out waiting for upstream answer")

// SocketError wraps a failure creating or writing to the upstream socket.
// Unlike ErrTimeout it is not expected during normal operation.
type SocketError struct {
	Op  string
	Err error
}

func (e *SocketError) Error() string { return fmt.Sprintf("upstreamclient: %s: %v", e.Op, e.Err) }
func (e *SocketError) Unwrap() error { return e.Err }

// SelectionMode chooses which configured upstream to try on a given
// attempt.
type SelectionMode int

const (
	Random SelectionMode = iota
	RoundRobin
)

// Config is the shared upstream-selection configuration, built once from
// the loaded ResolverConfig and handed to every worker's Client.
type Config struct {
	Servers        []net.IP
	Mode           SelectionMode
	Timeout        time.Duration
	ResendAttempts int
}

// Client is a single worker's upstream DNS client. It owns exactly one
// UDP socket for the lifetime of the worker goroutine that created it;
// the socket is unconnected so each retry can target a different
// upstream address, mirroring the original's single sendto/recvfrom
// socket per worker thread.
type Client struct {
	cfg  Config
	conn *net.UDPConn
	rr   *atomic.Uint64
}

// New creates a Client bound to an ephemeral local UDP port. rr is a
// counter shared across every worker's Client so that round-robin
// selection advances evenly across the whole pool, not just within one
// worker.
func New(cfg Config, rr *atomic.Uint64) (*Client, error) {
	if len(cfg.Servers) == 0 {
		return nil, &SocketError{Op: "new", Err: errors.New("no upstream servers configured")}
	}
	conn, err := net.ListenUDP("udp4", nil)
	if err != nil {
		return nil, &SocketError{Op: "listen", Err: err}
	}
	return &Client{cfg: cfg, conn: conn, rr: rr}, nil
}

// Close releases the worker's upstream socket.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Query sends query to a selected upstream, reads the answer into buf,
// and returns the number of bytes written to buf. It retries up to
// cfg.ResendAttempts additional times (resend_attempts+1 total attempts
// on the wire), reselecting the upstream server on every attempt per the
// configured SelectionMode.
func (c *Client) Query(query []byte, buf []byte) (int, error) {
	var lastErr error
	for attempt := 0; attempt <= c.cfg.ResendAttempts; attempt++ {
		addr := &net.UDPAddr{IP: c.selectServer(), Port: 53}

		if err := c.conn.SetDeadline(time.Now().Add(c.cfg.Timeout)); err != nil {
			return 0, &SocketError{Op: "set deadline", Err: err}
		}
		if _, err := c.conn.WriteToUDP(query, addr); err != nil {
			return 0, &SocketError{Op: "write", Err: err}
		}

		n, _, err := c.conn.ReadFromUDP(buf)
		if err != nil {
			lastErr = err
			continue
		}
		if n <= 0 {
			lastErr = fmt.Errorf("empty answer from %s", addr)
			continue
		}
		return n, nil
	}
	return 0, fmt.Errorf("%w: %v", ErrTimeout, lastErr)
}

func (c *Client) selectServer() net.IP {
	if c.cfg.Mode == RoundRobin {
		idx := (c.rr.Add(1) - 1) % uint64(len(c.cfg.Servers))
		return c.cfg.Servers[idx]
	}
	return c.cfg.Servers[rand.IntN(len(c.cfg.Servers))]
}
