// Package synth implements RFC 6052 IPv4-embedded-in-IPv6 address
// synthesis: building a DNS64 AAAA answer from an A record.
package synth

import (
	"fmt"
	"net"
)

// Prefix is a validated DNS64 well-known or network-specific prefix
// (RFC 6052 Section 2.2). Length is the prefix length in bits and is one
// of the six values the RFC allows.
type Prefix struct {
	Addr   net.IP
	Length int
}

// validLengths are the only prefix lengths RFC 6052 defines an embedding
// for. 96 is the most common (the "well-known prefix" 64:ff9b::/96 uses
// it); the others exist to leave room for a variable-length suffix.
var validLengths = map[int]bool{
	32: true,
	40: true,
	48: true,
	56: true,
	64: true,
	96: true,
}

// NewPrefix validates addr and length and returns a Prefix ready for use
// with Embed. It rejects anything not among the six lengths RFC 6052
// defines, matching the original loader's refusal to start with a bad
// dns64-prefix line.
func NewPrefix(addr net.IP, length int) (Prefix, error) {
	ip6 := addr.To16()
	if ip6 == nil || addr.To4() != nil {
		return Prefix{}, fmt.Errorf("synth: %q is not an IPv6 address", addr)
	}
	if !validLengths[length] {
		return Prefix{}, fmt.Errorf("synth: unsupported prefix length %d (must be 32, 40, 48, 56, 64, or 96)", length)
	}
	return Prefix{Addr: ip6, Length: length}, nil
}

// Embed builds the 16-byte synthesized IPv6 address for v4 under p,
// following the byte layout in RFC 6052 Section 2.2. Byte 8 (the
// "u-octet") is always zero; the prefix bytes fill the front, the IPv4
// bytes are split around the u-octet according to the prefix length, and
// the tail is zero-padded.
//
// v4 must be a 4-byte (or 4-in-16 mapped) address; Embed panics otherwise,
// since callers are expected to have already confirmed they hold an A
// record before calling this.
func (p Prefix) Embed(v4 net.IP) net.IP {
	ip4 := v4.To4()
	if ip4 == nil {
		panic("synth: Embed called with a non-IPv4 address")
	}

	v6 := make(net.IP, net.IPv6len)
	copy(v6, p.Addr.To16()[:p.Length/8])

	switch p.Length {
	case 32:
		copy(v6[4:8], ip4)
	case 40:
		copy(v6[5:8], ip4[0:3])
		copy(v6[9:10], ip4[3:4])
	case 48:
		copy(v6[6:8], ip4[0:2])
		copy(v6[9:11], ip4[2:4])
	case 56:
		copy(v6[7:8], ip4[0:1])
		copy(v6[9:12], ip4[1:4])
	case 64:
		copy(v6[9:13], ip4)
	case 96:
		copy(v6[12:16], ip4)
	}
	return v6
}

// String renders the prefix in CIDR notation, e.g. "64:ff9b::/96".
func (p Prefix) String() string {
	return fmt.Sprintf("%s/%d", p.Addr, p.Length)
}

// Contains reports whether addr looks like a value Embed could have
// produced under p: its leading Length/8 bytes match p.Addr and its
// u-octet (byte 8) is zero. It does not, and cannot, prove addr embeds
// any particular IPv4 address, only that its shape is consistent with
// this prefix.
func (p Prefix) Contains(addr net.IP) bool {
	a := addr.To16()
	pfx := p.Addr.To16()
	if a == nil || pfx == nil {
		return false
	}
	for i := 0; i < p.Length/8; i++ {
		if a[i] != pfx[i] {
			return false
		}
	}
	return a[8] == 0
}
