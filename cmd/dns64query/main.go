// Command dns64query is a diagnostic CLI: it sends a single DNS query
// over UDP and prints the decoded response, useful for probing a running
// dns64ng resolver or fakedns64test instance by hand.
package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/nat64lab/dns64ng/internal/dnswire"
	"github.com/nat64lab/dns64ng/internal/synth"
)

func main() {
	var (
		server     = flag.String("server", "[::1]:53", "DNS server HOST:PORT")
		name       = flag.String("name", "example.com", "query name")
		qtype      = flag.Uint("qtype", uint(dnswire.TypeAAAA), "query type (numeric; A=1, AAAA=28)")
		timeout    = flag.Duration("timeout", 2*time.Second, "per-attempt timeout")
		retries    = flag.Int("retries", 2, "additional attempts after a timeout, mirroring the resolver's own resend behavior")
		recvSize   = flag.Int("recv-size", 512, "UDP receive buffer size")
		quiet      = flag.Bool("quiet", false, "suppress output (exit status indicates success)")
		prefixFlag = flag.String("prefix", "", "DNS64 prefix to check AAAA answers against (empty: skip the check)")
	)
	flag.Parse()

	resp, attempts, err := queryUDP(*server, *name, dnswire.RecordType(*qtype), *timeout, *retries, *recvSize)
	if err != nil {
		if !*quiet {
			fmt.Fprintf(os.Stderr, "dns64query error after %d attempt(s): %v\n", attempts, err)
		}
		os.Exit(1)
	}
	if *quiet {
		return
	}

	p, err := dnswire.ParsePacket(resp)
	if err != nil {
		fmt.Printf("received %d bytes (unparseable: %v)\n", len(resp), err)
		return
	}

	fmt.Printf("id=%d rcode=%d answers=%d authorities=%d additionals=%d attempts=%d\n",
		p.Header.ID,
		p.Header.RCode(),
		len(p.Answers),
		len(p.Authorities),
		len(p.Additionals),
		attempts,
	)

	rows := make([]string, 0, len(p.Answers))
	for _, rr := range p.Answers {
		rows = append(rows, formatRR(rr))
	}
	sort.Strings(rows)
	for _, s := range rows {
		fmt.Println(s)
	}

	if *prefixFlag != "" {
		checkEmbedding(p, *prefixFlag)
	}
}

// queryUDP sends the query up to retries+1 times, re-sending on timeout
// the same way the resolver itself resends to a slow upstream, and
// returns the first successful reply along with how many attempts it
// took.
func queryUDP(server, name string, qtype dnswire.RecordType, timeout time.Duration, retries, recvSize int) ([]byte, int, error) {
	addr, err := net.ResolveUDPAddr("udp", server)
	if err != nil {
		return nil, 0, err
	}
	c, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, 0, err
	}
	defer c.Close()

	reqBytes, err := buildQuery(name, qtype)
	if err != nil {
		return nil, 0, err
	}

	buf := make([]byte, recvSize)
	var lastErr error
	for attempt := 1; attempt <= retries+1; attempt++ {
		_ = c.SetDeadline(time.Now().Add(timeout))
		if _, err := c.Write(reqBytes); err != nil {
			return nil, attempt, err
		}
		n, err := c.Read(buf)
		if err == nil {
			return buf[:n], attempt, nil
		}
		lastErr = err
	}
	return nil, retries + 1, lastErr
}

func buildQuery(name string, qtype dnswire.RecordType) ([]byte, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("name required")
	}
	p := dnswire.Packet{
		Header:    dnswire.Header{ID: uint16(time.Now().UnixNano()), Flags: dnswire.RDFlag},
		Questions: []dnswire.Question{{Name: strings.TrimSuffix(name, ".") + ".", Type: qtype, Class: dnswire.ClassIN}},
	}
	return p.Marshal()
}

// checkEmbedding reports whether every AAAA answer in p is shaped like
// an RFC 6052 embedding under the given prefix, flagging synthesis that
// looks broken (e.g. because the resolver's own prefix config drifted
// from the one this tool was pointed at).
func checkEmbedding(p dnswire.Packet, prefixFlag string) {
	prefixIP, prefixNet, err := net.ParseCIDR(prefixFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dns64query: bad -prefix %q: %v\n", prefixFlag, err)
		return
	}
	prefixLen, _ := prefixNet.Mask.Size()
	prefix, err := synth.NewPrefix(prefixIP, prefixLen)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dns64query: bad -prefix %q: %v\n", prefixFlag, err)
		return
	}

	found := false
	for _, rr := range p.Answers {
		ip, ok := rr.(*dnswire.IPRecord)
		if !ok || rr.Type() != dnswire.TypeAAAA {
			continue
		}
		found = true
		if !prefix.Contains(ip.Addr) {
			fmt.Printf("embedding: MISMATCH %s does not embed under %s\n", ip.Addr, prefix)
			return
		}
	}
	if found {
		fmt.Printf("embedding: ok, all AAAA answers embed under %s\n", prefix)
	}
}

func formatRR(rr dnswire.Record) string {
	h := rr.Header()
	name := h.Name
	if name == "" {
		name = "."
	}
	switch rec := rr.(type) {
	case *dnswire.IPRecord:
		return fmt.Sprintf("%s %d IN %s %s", name, h.TTL, typeName(rr.Type()), rec.Addr)
	case *dnswire.NameRecord:
		return fmt.Sprintf("%s %d IN %s %s", name, h.TTL, typeName(rr.Type()), rec.Target)
	default:
		return fmt.Sprintf("%s %d IN TYPE%d (unparsed)", name, h.TTL, rr.Type())
	}
}

func typeName(t dnswire.RecordType) string {
	switch t {
	case dnswire.TypeA:
		return "A"
	case dnswire.TypeAAAA:
		return "AAAA"
	case dnswire.TypeCNAME:
		return "CNAME"
	case dnswire.TypeNS:
		return "NS"
	case dnswire.TypePTR:
		return "PTR"
	case dnswire.TypeMX:
		return "MX"
	case dnswire.TypeTXT:
		return "TXT"
	default:
		return fmt.Sprintf("TYPE%d", t)
	}
}
