// Package dnswire implements DNS message parsing and encoding (RFC 1035).
//
// It covers only what a DNS64 translator needs: the 12-byte header, the
// question section, and A/AAAA/CNAME/NS/PTR resource records plus an
// opaque fallback for everything else. There is no EDNS(0) support and no
// DNSSEC record types; a DNS64 resolver forwards those opaquely and never
// interprets them.
package dnswire

import "errors"

// ErrMalformedPacket is the single sentinel returned for any wire-format
// violation: truncated messages, bad compression pointers, oversized
// labels, and so on. Callers are expected to log once and drop the
// datagram rather than branch on the specific cause.
var ErrMalformedPacket = errors.New("dnswire: malformed packet")

// ErrResponseTooLarge is returned by Packet.MarshalMax when the encoded
// message would exceed the caller's maximum wire size. Packet.Marshal
// has no size limit and never returns it.
var ErrResponseTooLarge = errors.New("dnswire: response too large")
