package fakedns

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// Server is the fake-server's alternative topology (spec §4.6): N
// goroutines each own an IPv6 UDP socket bound with SO_REUSEADDR to the
// same address, letting the kernel distribute datagrams across them
// instead of funneling everything through one shared task queue.
type Server struct {
	Logger     *slog.Logger
	Handler    *Handler
	NumWorkers int

	wg sync.WaitGroup
}

// ListenAndServe binds NumWorkers sockets to addr and serves until ctx
// is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	n := s.NumWorkers
	if n < 1 {
		n = 1
	}

	lc := net.ListenConfig{Control: setReuseAddr}

	conns := make([]*net.UDPConn, 0, n)
	for i := 0; i < n; i++ {
		pc, err := lc.ListenPacket(ctx, "udp6", addr)
		if err != nil {
			for _, c := range conns {
				c.Close()
			}
			return err
		}
		conns = append(conns, pc.(*net.UDPConn))
	}

	s.wg.Add(len(conns))
	for _, conn := range conns {
		go s.serveOne(ctx, conn)
	}
	s.wg.Wait()
	return nil
}

// setReuseAddr sets SO_REUSEADDR on the listening socket so multiple
// worker sockets can bind the same address, grounded on
// original_source/src/fakedns/server.cpp's per-thread socket setup.
func setReuseAddr(network, address string, c syscall.RawConn) error {
	var sockErr error
	err := c.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	})
	if err != nil {
		return err
	}
	return sockErr
}

// serveOne runs one worker's recv-dispatch loop. The one-second read
// deadline is this topology's stand-in for the shared stop flag: it
// makes ctx cancellation observable without a shared queue to signal on.
func (s *Server) serveOne(ctx context.Context, conn *net.UDPConn) {
	defer s.wg.Done()
	defer conn.Close()

	buf := make([]byte, 512)
	for {
		if ctx.Err() != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(time.Second))
		n, remote, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			continue
		}

		resp := s.Handler.Handle(buf[:n])
		if resp == nil {
			continue
		}
		if _, err := conn.WriteToUDP(resp, remote); err != nil && s.Logger != nil {
			s.Logger.Error("failed to send response", "err", err)
		}
	}
}
