package dnswire

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIPRecordRoundTripA(t *testing.T) {
	r := NewIPRecord(RRHeader{Name: "example.com", Class: ClassIN, TTL: 300}, net.ParseIP("192.0.2.1"))
	assert.Equal(t, TypeA, r.Type())

	b, err := MarshalRecord(r)
	require.NoError(t, err)

	off := 0
	parsed, err := ParseRecord(b, &off)
	require.NoError(t, err)
	require.Equal(t, TypeA, parsed.Type())
	ip, ok := parsed.(*IPRecord)
	require.True(t, ok)
	assert.True(t, ip.Addr.Equal(net.ParseIP("192.0.2.1")))
	assert.Equal(t, "example.com", parsed.Header().Name)
	assert.Equal(t, uint32(300), parsed.Header().TTL)
}

func TestIPRecordRoundTripAAAA(t *testing.T) {
	addr := net.ParseIP("64:ff9b::c000:201")
	r := NewIPRecord(RRHeader{Name: "example.com", Class: ClassIN, TTL: 300}, addr)
	assert.Equal(t, TypeAAAA, r.Type())

	b, err := MarshalRecord(r)
	require.NoError(t, err)

	off := 0
	parsed, err := ParseRecord(b, &off)
	require.NoError(t, err)
	assert.Equal(t, TypeAAAA, parsed.Type())
}

func TestParseIPRDataRejectsBadLength(t *testing.T) {
	_, err := ParseIPRData([]byte{1, 2, 3}, new(int), 3)
	assert.ErrorIs(t, err, ErrMalformedPacket)
}
