package roda

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteRequestRoundTrip(t *testing.T) {
	req, err := NewWriteRequest(64, 0x2000, 1, 0x0002, AccessSingleSubindex, []byte{0xDE, 0xAD, 0xBE, 0xEF})
	require.NoError(t, err)
	require.NoError(t, req.RSIs().Push(RSI{ID: 5, Info: 6}))

	encoded, err := req.MarshalBinary()
	require.NoError(t, err)

	decoded, err := DecodeRequest(encoded)
	require.NoError(t, err)

	wr, ok := decoded.(*WriteRequest)
	require.True(t, ok)
	assert.Equal(t, uint16(0x2000), wr.Index)
	assert.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF}, wr.Data)
	assert.True(t, req.RSIs().Equal(*wr.RSIs()))
}

func TestNewWriteRequestRejectsEmptyData(t *testing.T) {
	_, err := NewWriteRequest(64, 0x2000, 0, 1, AccessSingleSubindex, nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestNewWriteRequestRejectsShortSI0For16Bit(t *testing.T) {
	_, err := NewWriteRequest(64, 0x2000, 0, 1, AccessCompleteSI0As16Bit, []byte{0x01})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestWriteResponseRoundTrip(t *testing.T) {
	resp := NewWriteResponse(AbortSubindexDoesNotExist)
	encoded, err := resp.MarshalBinary()
	require.NoError(t, err)

	decoded, err := DecodeResponse(encoded)
	require.NoError(t, err)
	wr := decoded.(*WriteResponse)
	assert.Equal(t, AbortSubindexDoesNotExist, wr.Abort)
}
