package dns64server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nat64lab/dns64ng/internal/upstreamclient"
	"github.com/nat64lab/dns64ng/internal/workerpool"
)

// Server is the resolver's single IPv6 UDP listener feeding a fixed-size
// worker pool, grounded on original_source/src/mtd64-ng/server.cpp's
// Server::start/Server::stop and the accept-loop-plus-recvfrom shape it
// describes.
type Server struct {
	Logger            *slog.Logger
	Handler           *Handler
	UpstreamConfig    upstreamclient.Config
	NumWorkers        int
	ResponseMaxLength int

	conn *net.UDPConn
	pool *workerpool.Pool
	bufs sync.Pool
	rr   atomic.Uint64
}

// ListenAndServe binds addr (e.g. "[::]:53") and serves until ctx is
// cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	udpAddr, err := net.ResolveUDPAddr("udp6", addr)
	if err != nil {
		return &upstreamclient.SocketError{Op: "resolve", Err: err}
	}
	conn, err := net.ListenUDP("udp6", udpAddr)
	if err != nil {
		return &upstreamclient.SocketError{Op: "listen", Err: err}
	}
	return s.Serve(ctx, conn)
}

// Serve runs the accept loop on an already-bound connection. It blocks
// until ctx is cancelled or the socket is closed out from under it.
func (s *Server) Serve(ctx context.Context, conn *net.UDPConn) error {
	s.conn = conn
	defer conn.Close()

	maxLen := s.responseMaxLength()
	s.bufs.New = func() any { return make([]byte, maxLen) }

	n := s.NumWorkers
	if n < 1 {
		n = 1
	}
	s.pool = workerpool.New(n, n*4, s.newWorkerState, s.closeWorkerState)
	defer s.pool.Stop()

	for {
		if ctx.Err() != nil {
			return nil
		}

		buf := s.bufs.Get().([]byte)
		_ = conn.SetReadDeadline(time.Now().Add(time.Second))
		n, remote, err := conn.ReadFromUDP(buf)
		if err != nil {
			s.bufs.Put(buf)
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			continue
		}

		datagram := buf[:n]
		s.pool.Submit(func(taskCtx context.Context) {
			defer s.bufs.Put(buf)
			s.dispatch(taskCtx, datagram, remote)
		})
	}
}

func (s *Server) dispatch(ctx context.Context, datagram []byte, remote *net.UDPAddr) {
	client, _ := workerpool.WorkerState(ctx).(*upstreamclient.Client)
	if client == nil {
		return
	}
	resp := s.Handler.HandleFrom(client, datagram, remote)
	if resp == nil {
		return
	}
	if _, err := s.conn.WriteToUDP(resp, remote); err != nil && s.Logger != nil {
		s.Logger.Error("failed to send response", "err", err, "client", remote.String())
	}
}

// newWorkerState builds the per-worker upstream client, the Go
// equivalent of the original's per-query DNSClient but scoped to the
// worker's whole lifetime per spec's resource model.
func (s *Server) newWorkerState() any {
	c, err := upstreamclient.New(s.UpstreamConfig, &s.rr)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Error("failed to create upstream client", "err", err)
		}
		return nil
	}
	return c
}

func (s *Server) closeWorkerState(state any) {
	if c, ok := state.(*upstreamclient.Client); ok {
		_ = c.Close()
	}
}

func (s *Server) responseMaxLength() int {
	if s.ResponseMaxLength <= 0 {
		return 512
	}
	return s.ResponseMaxLength
}

// Stop closes the listener socket and waits for in-flight workers to
// drain, matching Server::stop().
func (s *Server) Stop() {
	if s.conn != nil {
		_ = s.conn.Close()
	}
	if s.pool != nil {
		s.pool.Stop()
	}
}
