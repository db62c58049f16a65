package dnswire

import (
	"fmt"
	"net"
)

// IPRecord represents an A or AAAA record. Type is derived from the
// address family of Addr, so callers building a synthesized AAAA record
// only need to hand it a 16-byte net.IP.
type IPRecord struct {
	H    RRHeader
	Addr net.IP
}

// NewIPRecord creates an IP record.
func NewIPRecord(h RRHeader, addr net.IP) *IPRecord {
	return &IPRecord{H: h, Addr: addr}
}

// Type returns TypeA for a 4-byte address, TypeAAAA otherwise.
func (r *IPRecord) Type() RecordType {
	if r.Addr.To4() != nil {
		return TypeA
	}
	return TypeAAAA
}

func (r *IPRecord) Header() RRHeader        { return r.H }
func (r *IPRecord) SetHeader(h RRHeader)    { r.H = h }

// MarshalRData marshals the address to its 4- or 16-byte wire form.
func (r *IPRecord) MarshalRData() ([]byte, error) {
	if ip4 := r.Addr.To4(); ip4 != nil {
		return []byte(ip4), nil
	}
	if ip6 := r.Addr.To16(); ip6 != nil {
		return []byte(ip6), nil
	}
	return nil, fmt.Errorf("%w: invalid IP address", ErrMalformedPacket)
}

// ParseIPRData parses an A or AAAA RDATA field.
func ParseIPRData(msg []byte, off *int, rdlen int) (*IPRecord, error) {
	if rdlen != 4 && rdlen != 16 {
		return nil, fmt.Errorf("%w: A/AAAA rdata must be 4 or 16 bytes, got %d", ErrMalformedPacket, rdlen)
	}
	if *off+rdlen > len(msg) {
		return nil, fmt.Errorf("%w: truncated IP rdata", ErrMalformedPacket)
	}
	b := make([]byte, rdlen)
	copy(b, msg[*off:*off+rdlen])
	*off += rdlen
	return &IPRecord{Addr: net.IP(b)}, nil
}
