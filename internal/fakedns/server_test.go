package fakedns

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/nat64lab/dns64ng/internal/config"
	"github.com/nat64lab/dns64ng/internal/dnswire"
	"github.com/nat64lab/dns64ng/internal/synth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerEndToEndAAAASynthesis(t *testing.T) {
	prefix, err := synth.NewPrefix(net.ParseIP("64:ff9b::"), 96)
	require.NoError(t, err)

	srv := &Server{
		Handler:    &Handler{Mode: config.AAAAYes, Prefix: prefix},
		NumWorkers: 2,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// bind an ephemeral port first to learn a free one, then reuse it via
	// SO_REUSEADDR the same way the server's own workers do.
	probe, err := net.ListenUDP("udp6", &net.UDPAddr{IP: net.ParseIP("::1")})
	require.NoError(t, err)
	addr := probe.LocalAddr().(*net.UDPAddr).String()
	probe.Close()

	done := make(chan struct{})
	go func() {
		_ = srv.ListenAndServe(ctx, addr)
		close(done)
	}()

	// give the listener goroutines a moment to bind.
	var client *net.UDPConn
	for i := 0; i < 50; i++ {
		raddr, err := net.ResolveUDPAddr("udp6", addr)
		if err == nil {
			client, err = net.DialUDP("udp6", nil, raddr)
			if err == nil {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	require.NotNil(t, client)
	defer client.Close()

	query := dnswire.Packet{
		Header:    dnswire.Header{ID: 1, Flags: dnswire.RDFlag},
		Questions: []dnswire.Question{{Name: "192-0-2-33.dns64perf.test.", Type: dnswire.TypeAAAA, Class: dnswire.ClassIN}},
	}
	qb, err := query.Marshal()
	require.NoError(t, err)

	require.NoError(t, client.SetDeadline(time.Now().Add(2*time.Second)))
	var n int
	buf := make([]byte, 512)
	for i := 0; i < 20; i++ {
		_, err = client.Write(qb)
		require.NoError(t, err)
		n, err = client.Read(buf)
		if err == nil {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	require.NoError(t, err)

	resp, err := dnswire.ParsePacket(buf[:n])
	require.NoError(t, err)
	require.Len(t, resp.Answers, 1)
	ip, ok := resp.Answers[0].(*dnswire.IPRecord)
	require.True(t, ok)
	assert.True(t, ip.Addr.Equal(net.ParseIP("64:ff9b::c000:221")))

	cancel()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down after context cancellation")
	}
}
