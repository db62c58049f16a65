package dnswire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNameRecordRoundTrip(t *testing.T) {
	r := NewNameRecord(RRHeader{Name: "www.example.com", Class: ClassIN, TTL: 60}, TypeCNAME, "example.com")

	b, err := MarshalRecord(r)
	require.NoError(t, err)

	off := 0
	parsed, err := ParseRecord(b, &off)
	require.NoError(t, err)
	nr, ok := parsed.(*NameRecord)
	require.True(t, ok)
	assert.Equal(t, "example.com", nr.Target)
	assert.Equal(t, TypeCNAME, nr.Type())
}

func TestParseNameRDataLengthMismatch(t *testing.T) {
	name, err := EncodeName("example.com")
	require.NoError(t, err)
	off := 0
	_, err = ParseNameRData(name, &off, 0, len(name)-1, TypeCNAME)
	assert.ErrorIs(t, err, ErrMalformedPacket)
}
