package roda

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectInfoRequestRoundTrip(t *testing.T) {
	req := NewObjectInfoRequest(4096, 0x1000, 0, 5, true, false)
	encoded, err := req.MarshalBinary()
	require.NoError(t, err)

	decoded, err := DecodeRequest(encoded)
	require.NoError(t, err)
	ir := decoded.(*ObjectInfoRequest)
	assert.Equal(t, uint16(0x1000), ir.Index)
	assert.Equal(t, uint8(0), ir.FirstSI)
	assert.Equal(t, uint8(5), ir.LastSI)
	assert.True(t, ir.IncludeNames)
	assert.False(t, ir.IncludeAppSpecificMetadata)
}

func TestObjectInfoResponseRoundTrip(t *testing.T) {
	resp := &ObjectInfoResponse{
		Abort:            AbortNone,
		FirstQueriedSI:   0,
		LastQueriedSI:    1,
		Complete:         true,
		ObjectCode:       ObjectCodeVAR,
		DataType:         7,
		Name:             "demo variable",
		MaxSubindexCount: 1,
		Subindices: []SubindexInfo{
			{Subindex: 0, Empty: false, DataType: 7, AttrBits: 0x0003, MaxSizeBits: 32, Name: "demo variable"},
		},
	}

	encoded, err := resp.MarshalBinary()
	require.NoError(t, err)

	decoded, err := DecodeResponse(encoded)
	require.NoError(t, err)
	ir := decoded.(*ObjectInfoResponse)
	assert.Equal(t, resp.Name, ir.Name)
	assert.Equal(t, resp.ObjectCode, ir.ObjectCode)
	require.Len(t, ir.Subindices, 1)
	assert.Equal(t, resp.Subindices[0].Name, ir.Subindices[0].Name)
	assert.Equal(t, resp.Subindices[0].MaxSizeBits, ir.Subindices[0].MaxSizeBits)
}

func TestObjectInfoResponseAddFragment(t *testing.T) {
	first := &ObjectInfoResponse{
		Abort:          AbortNone,
		FirstQueriedSI: 0,
		LastQueriedSI:  0,
		Complete:       false,
		Subindices:     []SubindexInfo{{Subindex: 0}},
	}
	next := &ObjectInfoResponse{
		LastQueriedSI: 1,
		Complete:      true,
		Subindices:    []SubindexInfo{{Subindex: 1}},
	}
	first.AddFragment(next)
	assert.True(t, first.Complete)
	assert.Equal(t, uint8(1), first.LastQueriedSI)
	assert.Len(t, first.Subindices, 2)
}
