package dnswire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderRoundTrip(t *testing.T) {
	original := Header{ID: 0xABCD, Flags: RDFlag, QDCount: 1}

	b := original.Marshal()
	require.Len(t, b, HeaderSize)

	off := 0
	parsed, err := ParseHeader(b, &off)
	require.NoError(t, err)
	assert.Equal(t, original, parsed)
	assert.Equal(t, HeaderSize, off)
}

func TestParseHeaderTruncated(t *testing.T) {
	off := 0
	_, err := ParseHeader([]byte{0x12, 0x34}, &off)
	assert.ErrorIs(t, err, ErrMalformedPacket)
}

func TestHeaderFlagAccessors(t *testing.T) {
	q := Header{Flags: RDFlag}
	assert.True(t, q.IsQuery())
	assert.False(t, q.IsResponse())
	assert.True(t, q.RecursionDesired())
	assert.Equal(t, OpcodeQuery, q.Opcode())

	r := Header{Flags: QRFlag | uint16(RCodeNXDomain)}
	assert.True(t, r.IsResponse())
	assert.Equal(t, RCodeNXDomain, r.RCode())
}
