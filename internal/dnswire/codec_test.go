package dnswire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeNameRoundTrip(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{".", ""},
		{"example.com", "example.com"},
		{"www.example.com.", "www.example.com"},
		{"localhost", "localhost"},
	}
	for _, tt := range tests {
		encoded, err := EncodeName(tt.in)
		require.NoError(t, err)

		off := 0
		decoded, err := DecodeName(encoded, &off)
		require.NoError(t, err)
		assert.Equal(t, tt.want, decoded)
		assert.Equal(t, len(encoded), off)
	}
}

func TestEncodeNameRejectsOversizedLabel(t *testing.T) {
	long := make([]byte, 64)
	for i := range long {
		long[i] = 'a'
	}
	_, err := EncodeName(string(long) + ".com")
	assert.ErrorIs(t, err, ErrMalformedPacket)
}

func TestDecodeNameCompressionPointer(t *testing.T) {
	// "example.com" at offset 0, then a pointer back to it.
	base, err := EncodeName("example.com")
	require.NoError(t, err)
	msg := append(append([]byte{}, base...), 0xC0, 0x00)

	off := len(base)
	name, err := DecodeName(msg, &off)
	require.NoError(t, err)
	assert.Equal(t, "example.com", name)
}

func TestDecodeNameRejectsPointerLoop(t *testing.T) {
	msg := []byte{0xC0, 0x00}
	off := 0
	_, err := DecodeName(msg, &off)
	assert.ErrorIs(t, err, ErrMalformedPacket)
}

func TestDecodeNameRejectsTooManyHops(t *testing.T) {
	// A chain of pointers, each pointing to the offset of the previous
	// pointer, longer than maxCompressionHops.
	msg := []byte{0} // offset 0: root label
	prevOff := 0
	var lastPtrOff int
	for i := 0; i < maxCompressionHops+3; i++ {
		lastPtrOff = len(msg)
		msg = append(msg, byte(0xC0|(prevOff>>8)), byte(prevOff))
		prevOff = lastPtrOff
	}
	off := lastPtrOff
	_, err := DecodeName(msg, &off)
	assert.ErrorIs(t, err, ErrMalformedPacket)
}
