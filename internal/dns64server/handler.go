// Package dns64server implements the resolver-mode query pipeline:
// receive a query over IPv6, forward it to an IPv4 upstream, and
// synthesize an AAAA answer from the corresponding A record when the
// upstream has no AAAA of its own.
package dns64server

import (
	"context"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"github.com/nat64lab/dns64ng/internal/dnswire"
	"github.com/nat64lab/dns64ng/internal/querylog"
	"github.com/nat64lab/dns64ng/internal/synth"
	"github.com/nat64lab/dns64ng/internal/upstreamclient"
)

// Handler runs the seven-step translation pipeline for one datagram,
// grounded on original_source/query.cpp's Query::operator() and shaped
// after internal/server/query_handler.go's Handler/Handle split.
type Handler struct {
	Logger            *slog.Logger
	Prefix            synth.Prefix
	ResponseMaxLength int

	// QueryLog, when set, receives one entry per handled query. It is
	// never consulted to answer a query; it is write-only telemetry for
	// the status API.
	QueryLog *querylog.Store

	// QueryLogLimit caps how many rows QueryLog is allowed to keep. It is
	// enforced periodically rather than after every append, since a
	// DELETE on every query would cost more than the inserts it's
	// bounding. Zero disables trimming.
	QueryLogLimit int

	counters handlerCounters
}

// queryLogTrimInterval sets how often QueryLog is trimmed: a logged query
// whose queriesTotal count is a multiple of this value also runs a trim
// sweep after its append.
const queryLogTrimInterval = 100

// handlerCounters are the resolver's own DNS query counters, reported by
// the status API's /stats endpoint.
type handlerCounters struct {
	queriesTotal   atomic.Uint64
	synthesized    atomic.Uint64
	passedThrough  atomic.Uint64
	upstreamErrors atomic.Uint64
}

// Stats is a point-in-time snapshot of Handler's counters.
type Stats struct {
	QueriesTotal   uint64
	Synthesized    uint64
	PassedThrough  uint64
	UpstreamErrors uint64
}

// Stats returns a snapshot of h's query counters.
func (h *Handler) Stats() Stats {
	return Stats{
		QueriesTotal:   h.counters.queriesTotal.Load(),
		Synthesized:    h.counters.synthesized.Load(),
		PassedThrough:  h.counters.passedThrough.Load(),
		UpstreamErrors: h.counters.upstreamErrors.Load(),
	}
}

// Handle processes one client query using client for both upstream
// round-trips, returning the wire-format bytes to send back to the
// client, or nil if the query should be dropped without a reply.
func (h *Handler) Handle(client *upstreamclient.Client, query []byte) []byte {
	return h.handle(client, query, nil)
}

// HandleFrom is Handle plus the client's address, recorded to QueryLog
// when set.
func (h *Handler) HandleFrom(client *upstreamclient.Client, query []byte, from net.Addr) []byte {
	return h.handle(client, query, from)
}

func (h *Handler) handle(client *upstreamclient.Client, query []byte, from net.Addr) []byte {
	start := time.Now()
	h.counters.queriesTotal.Add(1)

	req, err := dnswire.ParsePacket(query)
	if err != nil {
		h.log(slog.LevelWarn, "dropping malformed query", "err", err)
		return nil
	}
	if !req.Header.IsQuery() || req.Header.Opcode() != dnswire.OpcodeQuery {
		return nil
	}

	maxLen := h.responseMaxLength()
	answer := make([]byte, maxLen)

	n, err := client.Query(query, answer)
	if err != nil {
		h.counters.upstreamErrors.Add(1)
		h.log(slog.LevelInfo, "no answer from nameservers", "err", err)
		return nil
	}

	reply, err := dnswire.ParsePacket(answer[:n])
	if err != nil {
		h.log(slog.LevelWarn, "dropping malformed upstream reply", "err", err)
		return nil
	}

	if !h.needsSynthesis(reply) {
		h.counters.passedThrough.Add(1)
		out := answer[:n]
		h.recordQuery(req, reply.Header.RCode(), false, start, from)
		return out
	}

	out := h.synthesize(client, req, maxLen)
	if out != nil {
		h.counters.synthesized.Add(1)
	} else {
		h.counters.upstreamErrors.Add(1)
	}
	h.recordQuery(req, reply.Header.RCode(), out != nil, start, from)
	return out
}

// recordQuery appends one entry to QueryLog, if configured. It runs in
// its own goroutine so a slow disk write never delays the response to
// the client.
func (h *Handler) recordQuery(req dnswire.Packet, rcode dnswire.RCode, synthesized bool, start time.Time, from net.Addr) {
	if h.QueryLog == nil {
		return
	}
	clientAddr := ""
	if from != nil {
		clientAddr = from.String()
	}
	q := req.FirstQuestion()
	entry := querylog.Entry{
		ProcessedAt: start,
		ClientAddr:  clientAddr,
		QName:       q.Name,
		QType:       uint16(q.Type),
		Synthesized: synthesized,
		RCode:       uint16(rcode),
		LatencyUs:   time.Since(start).Microseconds(),
	}
	trim := h.QueryLogLimit > 0 && h.counters.queriesTotal.Load()%queryLogTrimInterval == 0
	go func() {
		if err := h.QueryLog.Append(context.Background(), entry); err != nil {
			h.log(slog.LevelWarn, "failed to append query log entry", "err", err)
		}
		if trim {
			if err := h.QueryLog.Trim(context.Background(), h.QueryLogLimit); err != nil {
				h.log(slog.LevelWarn, "failed to trim query log", "err", err)
			}
		}
	}()
}

// needsSynthesis implements the resolved synthesis predicate: the
// question asked for AAAA and the reply's answer section carries no
// AAAA RR, regardless of rcode.
func (h *Handler) needsSynthesis(reply dnswire.Packet) bool {
	q := reply.FirstQuestion()
	return q.Type == dnswire.TypeAAAA && !reply.HasAAAAAnswer()
}

// synthesize re-asks the original question as A, rewrites every A answer
// into an embedded AAAA, and marshals the result back within maxLen.
func (h *Handler) synthesize(client *upstreamclient.Client, req dnswire.Packet, maxLen int) []byte {
	req.Questions[0].Type = dnswire.TypeA
	aQuery, err := req.Marshal()
	if err != nil {
		h.log(slog.LevelWarn, "failed to build A fallback query", "err", err)
		return nil
	}

	buf := make([]byte, maxLen)
	n, err := client.Query(aQuery, buf)
	if err != nil {
		h.log(slog.LevelInfo, "no answer from nameservers for A fallback", "err", err)
		return nil
	}

	aReply, err := dnswire.ParsePacket(buf[:n])
	if err != nil {
		h.log(slog.LevelWarn, "dropping malformed upstream A reply", "err", err)
		return nil
	}
	if len(aReply.Questions) > 0 {
		aReply.Questions[0].Type = dnswire.TypeAAAA
	}
	for _, rec := range aReply.Answers {
		if rec.Type() != dnswire.TypeA {
			continue
		}
		ip, ok := rec.(*dnswire.IPRecord)
		if !ok {
			continue
		}
		ip.Addr = h.Prefix.Embed(ip.Addr)
	}

	out, err := aReply.MarshalMax(maxLen)
	if err != nil {
		h.log(slog.LevelWarn, "synthesized response too large", "err", err)
		return nil
	}
	return out
}

func (h *Handler) responseMaxLength() int {
	if h.ResponseMaxLength <= 0 {
		return 512
	}
	return h.ResponseMaxLength
}

func (h *Handler) log(level slog.Level, msg string, args ...any) {
	if h.Logger == nil || !h.Logger.Enabled(context.Background(), level) {
		return
	}
	h.Logger.Log(context.Background(), level, msg, args...)
}
