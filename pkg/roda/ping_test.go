package roda

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPingRequestRoundTrip(t *testing.T) {
	req := NewPingRequest(1024)
	require.NoError(t, req.RSIs().Push(RSI{ID: 7, Info: 42}))

	encoded, err := req.MarshalBinary()
	require.NoError(t, err)

	decoded, err := DecodeRequest(encoded)
	require.NoError(t, err)

	pr, ok := decoded.(*PingRequest)
	require.True(t, ok)
	assert.Equal(t, uint32(1024), pr.MaxResponseSize())
	assert.True(t, req.RSIs().Equal(*pr.RSIs()))
}

func TestPingResponseRoundTrip(t *testing.T) {
	resp := NewPingResponse()
	require.NoError(t, resp.RSIs().Push(RSI{ID: 1, Info: 2}))

	encoded, err := resp.MarshalBinary()
	require.NoError(t, err)

	decoded, err := DecodeResponse(encoded)
	require.NoError(t, err)

	pr, ok := decoded.(*PingResponse)
	require.True(t, ok)
	assert.True(t, resp.RSIs().Equal(*pr.RSIs()))
}

func TestDecodeRequestRejectsBadVersion(t *testing.T) {
	req := NewPingRequest(8)
	encoded, err := req.MarshalBinary()
	require.NoError(t, err)
	encoded[0] = Version + 1

	_, err = DecodeRequest(encoded)
	assert.ErrorIs(t, err, ErrUnrecognizedVersion)
}

func TestDecodeRequestRejectsShortInput(t *testing.T) {
	_, err := DecodeRequest([]byte{Version})
	assert.ErrorIs(t, err, ErrProtocol)
}
