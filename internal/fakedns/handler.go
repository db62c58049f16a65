// Package fakedns implements the fake authoritative server used to load
// test a DNS64 resolver: it answers a synthetic QNAME pattern with
// deterministic A records and configurable AAAA behavior, letting a
// benchmark drive DNS64 synthesis without a real upstream.
package fakedns

import (
	"context"
	"encoding/binary"
	"log/slog"
	"math/rand/v2"
	"net"
	"regexp"
	"strconv"

	"github.com/nat64lab/dns64ng/internal/config"
	"github.com/nat64lab/dns64ng/internal/dnswire"
	"github.com/nat64lab/dns64ng/internal/synth"
)

// qnamePattern matches the load-test QNAME grounded on
// original_source/src/fakedns/query.cpp's sscanf("%hhu-%hhu-%hhu-%hhu.dns64perf.test.").
// The trailing root dot is optional, since dnswire decodes question names
// without it.
var qnamePattern = regexp.MustCompile(`^(\d{1,3})-(\d{1,3})-(\d{1,3})-(\d{1,3})\.dns64perf\.test\.?$`)

// Handler answers fake-server queries. Unlike the resolver Handler it
// never talks to an upstream: the "answer" is synthesized directly from
// the query name.
type Handler struct {
	Logger      *slog.Logger
	Mode        config.AAAAMode
	Probability float64
	Prefix      synth.Prefix
}

// Handle parses query and returns the wire-format answer, or nil if the
// query should be dropped (bad header, unparsable QNAME).
func (h *Handler) Handle(query []byte) []byte {
	req, err := dnswire.ParsePacket(query)
	if err != nil {
		h.log(slog.LevelDebug, "dropping malformed query", "err", err)
		return nil
	}
	if !req.Header.IsQuery() || req.Header.Opcode() != dnswire.OpcodeQuery {
		return nil
	}

	q := req.FirstQuestion()
	v4, ok := parseQName(q.Name)
	if !ok {
		h.log(slog.LevelInfo, "received unparsable query", "name", q.Name)
		return nil
	}

	var rtype dnswire.RecordType
	var rdata []byte
	switch q.Type {
	case dnswire.TypeA:
		rtype = dnswire.TypeA
		rdata = v4[:]
	case dnswire.TypeAAAA:
		if h.shouldAnswerAAAA() {
			rtype = dnswire.TypeAAAA
			rdata = h.Prefix.Embed(net.IP(v4[:]))
		}
	}

	ancount := uint16(0)
	if rdata != nil {
		ancount = 1
	}

	hdr := dnswire.Header{
		ID:      req.Header.ID,
		Flags:   dnswire.QRFlag | dnswire.RDFlag,
		QDCount: 1,
		ANCount: ancount,
	}
	out := hdr.Marshal()
	qb, err := q.Marshal()
	if err != nil {
		h.log(slog.LevelWarn, "failed to marshal question", "err", err)
		return nil
	}
	out = append(out, qb...)

	if rdata != nil {
		out = appendPointerAnswer(out, rtype, rdata)
	}
	return out
}

// appendPointerAnswer appends one resource record naming its owner via
// the 0xC00C compression pointer back to the question at offset 12,
// exactly as the original builds its answer section.
func appendPointerAnswer(out []byte, rtype dnswire.RecordType, rdata []byte) []byte {
	out = append(out, 0xC0, 0x0C)
	fixed := make([]byte, 10)
	binary.BigEndian.PutUint16(fixed[0:2], uint16(rtype))
	binary.BigEndian.PutUint16(fixed[2:4], uint16(dnswire.ClassIN))
	binary.BigEndian.PutUint32(fixed[4:8], 0) // TTL 0: synthesized answers are never cached
	binary.BigEndian.PutUint16(fixed[8:10], uint16(len(rdata)))
	out = append(out, fixed...)
	return append(out, rdata...)
}

// shouldAnswerAAAA decides whether to include an AAAA answer, per the
// configured mode.
func (h *Handler) shouldAnswerAAAA() bool {
	switch h.Mode {
	case config.AAAAYes:
		return true
	case config.AAAAProbability:
		return rand.Float64() < h.Probability
	default:
		return false
	}
}

// parseQName extracts the four embedded octets from a load-test QNAME.
func parseQName(name string) ([4]byte, bool) {
	m := qnamePattern.FindStringSubmatch(name)
	if m == nil {
		return [4]byte{}, false
	}
	var out [4]byte
	for i := 0; i < 4; i++ {
		n, err := strconv.Atoi(m[i+1])
		if err != nil || n < 0 || n > 255 {
			return [4]byte{}, false
		}
		out[i] = byte(n)
	}
	return out, true
}

func (h *Handler) log(level slog.Level, msg string, args ...any) {
	if h.Logger == nil || !h.Logger.Enabled(context.Background(), level) {
		return
	}
	h.Logger.Log(context.Background(), level, msg, args...)
}
