package dnswire

import (
	"encoding/binary"
	"fmt"
)

// RRHeader contains the name/class/ttl common to every resource record.
type RRHeader struct {
	Name  string
	Class RecordClass
	TTL   uint32
}

// Record is the interface satisfied by every resource-record
// representation this resolver understands.
type Record interface {
	Type() RecordType
	Header() RRHeader
	SetHeader(h RRHeader)
	MarshalRData() ([]byte, error)
}

// ParseRecord parses one resource record at *off, advancing *off past it.
func ParseRecord(msg []byte, off *int) (Record, error) {
	name, err := DecodeName(msg, off)
	if err != nil {
		return nil, err
	}
	if *off+10 > len(msg) {
		return nil, fmt.Errorf("%w: truncated record header", ErrMalformedPacket)
	}
	rrType := RecordType(binary.BigEndian.Uint16(msg[*off : *off+2]))
	rrClass := RecordClass(binary.BigEndian.Uint16(msg[*off+2 : *off+4]))
	ttl := binary.BigEndian.Uint32(msg[*off+4 : *off+8])
	rdlen := int(binary.BigEndian.Uint16(msg[*off+8 : *off+10]))
	*off += 10
	start := *off
	if start+rdlen > len(msg) {
		return nil, fmt.Errorf("%w: truncated record rdata", ErrMalformedPacket)
	}

	rec, err := parseRData(rrType, msg, off, start, rdlen)
	if err != nil {
		return nil, err
	}
	rec.SetHeader(RRHeader{Name: name, Class: rrClass, TTL: ttl})
	return rec, nil
}

// parseRData dispatches to a typed record for the types a DNS64
// translator inspects (A, AAAA, and the name-carrying types it may need
// to log or pass through structurally); everything else is opaque, since
// a DNS64 resolver never needs to interpret it, only forward it intact.
func parseRData(rt RecordType, msg []byte, off *int, start, rdlen int) (Record, error) {
	switch rt {
	case TypeA, TypeAAAA:
		return ParseIPRData(msg, off, rdlen)
	case TypeCNAME, TypeNS, TypePTR:
		return ParseNameRData(msg, off, start, rdlen, rt)
	default:
		return ParseOpaqueRData(msg, off, rdlen, rt)
	}
}

// MarshalRecord converts a Record to wire-format bytes.
func MarshalRecord(r Record) ([]byte, error) {
	rdata, err := r.MarshalRData()
	if err != nil {
		return nil, err
	}
	return marshalRecordWithRData(r.Header(), r.Type(), rdata)
}

func marshalRecordWithRData(h RRHeader, rt RecordType, rdata []byte) ([]byte, error) {
	nameWire, err := EncodeName(h.Name)
	if err != nil {
		return nil, err
	}
	if len(rdata) > 65535 {
		return nil, fmt.Errorf("%w: rdata too large (%d bytes)", ErrMalformedPacket, len(rdata))
	}

	out := make([]byte, 0, len(nameWire)+10+len(rdata))
	out = append(out, nameWire...)
	fixed := make([]byte, 10)
	binary.BigEndian.PutUint16(fixed[0:2], uint16(rt))
	binary.BigEndian.PutUint16(fixed[2:4], uint16(h.Class))
	binary.BigEndian.PutUint32(fixed[4:8], h.TTL)
	binary.BigEndian.PutUint16(fixed[8:10], uint16(len(rdata)))
	out = append(out, fixed...)
	return append(out, rdata...), nil
}
