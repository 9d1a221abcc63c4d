package od

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustVar(t *testing.T, si uint8, name string, dt uint8, attr uint16, value string) *Variable {
	t.Helper()
	v, err := NewVariable(si, name, dt, attr, value)
	require.NoError(t, err)
	return v
}

func TestObjectDictionaryGetObject(t *testing.T) {
	dict := NewObjectDictionary()
	v := mustVar(t, 0, "demo", UNSIGNED32, AttributeSdoRw, "0xDEADBEEF")
	dict.AddVariable(0x1000, v)

	handle, ok := dict.GetObject(0x1000)
	require.True(t, ok)
	assert.Equal(t, uint16(0x1000), handle.Index())

	_, ok = dict.GetObject(0x1001)
	assert.False(t, ok)
}

func TestObjectDictionaryGetNextNearestObject(t *testing.T) {
	dict := NewObjectDictionary()
	dict.AddVariable(0x2000, mustVar(t, 0, "a", UNSIGNED8, AttributeSdoRw, "1"))
	dict.AddVariable(0x1000, mustVar(t, 0, "b", UNSIGNED8, AttributeSdoRw, "2"))
	dict.AddVariable(0x3000, mustVar(t, 0, "c", UNSIGNED8, AttributeSdoRw, "3"))

	h, ok := dict.GetNextNearestObject(0x1500)
	require.True(t, ok)
	assert.Equal(t, uint16(0x2000), h.Index())

	h, ok = dict.GetNextNearestObject(0x2000)
	require.True(t, ok)
	assert.Equal(t, uint16(0x2000), h.Index())

	_, ok = dict.GetNextNearestObject(0x3001)
	assert.False(t, ok)
}

func TestObjectDictionaryGetNextNearestObjectAfterMutation(t *testing.T) {
	dict := NewObjectDictionary()
	dict.AddVariable(0x1000, mustVar(t, 0, "a", UNSIGNED8, AttributeSdoRw, "1"))

	h, ok := dict.GetNextNearestObject(0x0)
	require.True(t, ok)
	assert.Equal(t, uint16(0x1000), h.Index())

	dict.AddVariable(0x0500, mustVar(t, 0, "b", UNSIGNED8, AttributeSdoRw, "2"))
	h, ok = dict.GetNextNearestObject(0x0)
	require.True(t, ok)
	assert.Equal(t, uint16(0x0500), h.Index())
}

func TestObjectDictionaryLen(t *testing.T) {
	dict := NewObjectDictionary()
	assert.Equal(t, 0, dict.Len())
	dict.AddVariable(0x1000, mustVar(t, 0, "a", UNSIGNED8, AttributeSdoRw, "1"))
	assert.Equal(t, 1, dict.Len())
	dict.AddVariable(0x1000, mustVar(t, 0, "a2", UNSIGNED8, AttributeSdoRw, "2"))
	assert.Equal(t, 1, dict.Len())
}
