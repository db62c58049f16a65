// Command dns64bench drives concurrent DNS64 queries against a resolver,
// reports throughput and latency percentiles, and checks that every AAAA
// answer it receives is actually a well-formed RFC 6052 embedding of an
// IPv4 address under the resolver's prefix — a plain DNS load tool has
// no reason to check this, but a DNS64 one does.
package main

import (
	"flag"
	"fmt"
	"net"
	"sort"
	"sync"
	"time"

	"github.com/nat64lab/dns64ng/internal/dnswire"
	"github.com/nat64lab/dns64ng/internal/synth"
)

// outcome classifies one reply for reporting.
type outcome int

const (
	outcomeError outcome = iota
	outcomeSynthesized
	outcomeMalformedEmbedding
	outcomePassthrough
)

type result struct {
	latencyMs float64
	outcome   outcome
}

func main() {
	var (
		server      = flag.String("server", "[::1]:53", "DNS64 resolver HOST:PORT")
		name        = flag.String("name", "10-0-0-1.dns64perf.test", "query name")
		qtype       = flag.Uint("qtype", uint(dnswire.TypeAAAA), "query type (numeric; AAAA=28)")
		prefixFlag  = flag.String("prefix", "64:ff9b::/96", "DNS64 prefix answers are expected to embed under")
		concurrency = flag.Int("concurrency", 200, "number of concurrent workers")
		requests    = flag.Int("requests", 20000, "total number of requests")
		timeout     = flag.Duration("timeout", 2*time.Second, "per-request timeout")
		recvSize    = flag.Int("recv-size", 512, "UDP receive buffer size")
	)
	flag.Parse()

	addr, err := net.ResolveUDPAddr("udp", *server)
	if err != nil {
		panic(err)
	}

	prefixIP, prefixNet, err := net.ParseCIDR(*prefixFlag)
	if err != nil {
		panic(fmt.Sprintf("dns64bench: bad -prefix %q: %v", *prefixFlag, err))
	}
	prefixLen, _ := prefixNet.Mask.Size()
	prefix, err := synth.NewPrefix(prefixIP, prefixLen)
	if err != nil {
		panic(fmt.Sprintf("dns64bench: bad -prefix %q: %v", *prefixFlag, err))
	}

	reqBytes, err := buildQuery(*name, dnswire.RecordType(*qtype))
	if err != nil {
		panic(err)
	}

	conc := *concurrency
	if conc < 1 {
		conc = 1
	}
	total := *requests
	if total < 1 {
		total = 1
	}
	per := total / conc
	rem := total % conc

	results := make([]result, 0, total)
	var resMu sync.Mutex

	t0 := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < conc; i++ {
		n := per
		if i < rem {
			n++
		}
		if n <= 0 {
			continue
		}
		wg.Add(1)
		go func(num int) {
			defer wg.Done()
			c, err := net.DialUDP("udp", nil, addr)
			if err != nil {
				return
			}
			defer c.Close()
			buf := make([]byte, *recvSize)
			for j := 0; j < num; j++ {
				start := time.Now()
				_ = c.SetDeadline(time.Now().Add(*timeout))
				if _, err := c.Write(reqBytes); err != nil {
					continue
				}
				nn, err := c.Read(buf)
				if err != nil {
					continue
				}
				ms := float64(time.Since(start).Microseconds()) / 1000.0
				oc := classify(buf[:nn], prefix)
				resMu.Lock()
				results = append(results, result{latencyMs: ms, outcome: oc})
				resMu.Unlock()
			}
		}(n)
	}
	wg.Wait()
	elapsed := time.Since(t0).Seconds()

	report(*server, *name, *qtype, conc, elapsed, results)
}

// classify parses a reply and decides whether it carries a passthrough
// answer, a well-formed synthesized AAAA, or an AAAA whose bytes don't
// actually match an RFC 6052 embedding under prefix.
func classify(reply []byte, prefix synth.Prefix) outcome {
	pkt, err := dnswire.ParsePacket(reply)
	if err != nil {
		return outcomeError
	}

	sawAAAA := false
	for _, rec := range pkt.Answers {
		if rec.Type() != dnswire.TypeAAAA {
			continue
		}
		ip, ok := rec.(*dnswire.IPRecord)
		if !ok {
			continue
		}
		sawAAAA = true
		if !prefix.Contains(ip.Addr) {
			return outcomeMalformedEmbedding
		}
	}
	if sawAAAA {
		return outcomeSynthesized
	}
	return outcomePassthrough
}

func report(server, name string, qtype uint, conc int, elapsed float64, results []result) {
	if len(results) == 0 {
		fmt.Printf("no successful requests\n")
		return
	}

	lat := make([]float64, 0, len(results))
	var synthesized, malformed, passthrough, failed int
	for _, r := range results {
		switch r.outcome {
		case outcomeSynthesized:
			synthesized++
		case outcomeMalformedEmbedding:
			malformed++
		case outcomePassthrough:
			passthrough++
		default:
			failed++
			continue
		}
		lat = append(lat, r.latencyMs)
	}

	fmt.Printf("server=%s name=%q qtype=%d concurrency=%d requests=%d\n", server, name, qtype, conc, len(results))
	fmt.Printf("elapsed_s=%.3f qps=%.1f\n", elapsed, float64(len(results))/elapsed)
	fmt.Printf("synthesized=%d malformed_embedding=%d passthrough=%d parse_errors=%d\n",
		synthesized, malformed, passthrough, failed)

	if len(lat) == 0 {
		return
	}
	sort.Float64s(lat)
	p50 := percentile(lat, 50)
	p95 := percentile(lat, 95)
	p99 := percentile(lat, 99)
	fmt.Printf("latency_ms p50=%.3f p95=%.3f p99=%.3f min=%.3f max=%.3f\n", p50, p95, p99, lat[0], lat[len(lat)-1])

	if malformed > 0 {
		fmt.Printf("WARNING: %d replies carried an AAAA answer that does not embed under the configured prefix\n", malformed)
	}
}

func percentile(sorted []float64, p int) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}
	idx := int(float64(len(sorted))*float64(p)/100.0) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func buildQuery(name string, qtype dnswire.RecordType) ([]byte, error) {
	p := dnswire.Packet{
		Header:    dnswire.Header{ID: 0xBEEF, Flags: dnswire.RDFlag},
		Questions: []dnswire.Question{{Name: name + ".", Type: qtype, Class: dnswire.ClassIN}},
	}
	return p.Marshal()
}
