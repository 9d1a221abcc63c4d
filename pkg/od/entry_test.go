package od

import (
	"bytes"
	"testing"

	"github.com/canroda/roda/pkg/roda"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryVarReadWriteRoundTrip(t *testing.T) {
	v := mustVar(t, 0, "demo", UNSIGNED32, AttributeSdoRw, "0")
	e := NewVarEntry(0x1000, v)

	var buf bytes.Buffer
	require.NoError(t, assertAbortOK(e.Write(0, AttributeSdoW, bytes.NewReader([]byte{0xEF, 0xBE, 0xAD, 0xDE}))))

	abort := e.Read(0, AttributeSdoR, &buf)
	assert.True(t, abort.OK())
	assert.Equal(t, []byte{0xEF, 0xBE, 0xAD, 0xDE}, buf.Bytes())
}

func assertAbortOK(abort roda.AbortCode) error {
	if abort.OK() {
		return nil
	}
	return abort
}

func TestEntryReadRejectsUnsupportedAccess(t *testing.T) {
	v := mustVar(t, 0, "demo", UNSIGNED8, AttributeSdoW, "1")
	e := NewVarEntry(0x1000, v)

	var buf bytes.Buffer
	abort := e.Read(0, AttributeSdoR, &buf)
	assert.Equal(t, roda.AbortUnsupportedAccessToObject, abort)
}

func TestEntryReadRejectsMissingCallerPermission(t *testing.T) {
	v := mustVar(t, 0, "demo", UNSIGNED8, AttributeSdoRw, "1")
	e := NewVarEntry(0x1000, v)

	var buf bytes.Buffer
	abort := e.Read(0, AttributeSdoW, &buf)
	assert.Equal(t, roda.AbortUnsupportedAccessToObject, abort)
}

func TestEntryReadNonExistentSubindex(t *testing.T) {
	v := mustVar(t, 0, "demo", UNSIGNED8, AttributeSdoRw, "1")
	e := NewVarEntry(0x1000, v)

	var buf bytes.Buffer
	abort := e.Read(5, AttributeSdoR, &buf)
	assert.Equal(t, roda.AbortSubindexDoesNotExist, abort)
}

func TestEntryWriteTooLongRejected(t *testing.T) {
	v := mustVar(t, 0, "demo", UNSIGNED8, AttributeSdoRw, "1")
	e := NewVarEntry(0x1000, v)

	abort := e.Write(0, AttributeSdoW, bytes.NewReader([]byte{1, 2}))
	assert.Equal(t, roda.AbortDataTypeMismatchTooLong, abort)
}

func TestEntryListCompleteReadWrite(t *testing.T) {
	list := NewArray(3, UNSIGNED8, AttributeSdoRw)
	e := NewListEntry(0x2000, list)

	// si0 defaults to read-only (highest subindex supported), so only the
	// elements are included in a complete write.
	elementPayload := []byte{0x01, 0x02, 0x03}
	abort := e.CompleteWrite(false, false, AttributeSdoRw, bytes.NewReader(elementPayload), TrailingBitsZeroFill)
	require.True(t, abort.OK())

	var buf bytes.Buffer
	abort = e.CompleteRead(true, false, AttributeSdoRw, &buf)
	require.True(t, abort.OK())
	assert.Equal(t, []byte{0x03, 0x01, 0x02, 0x03}, buf.Bytes())
}

func TestEntryListCompleteWriteIncludingSI0Shrinks(t *testing.T) {
	// spec.md §8 scenario S4: ARRAY at current SI0=7, CA write including
	// SI0 with a 5-byte payload shrinks SI0 to 4 and writes only the
	// first 4 elements, regardless of SI0's own read-only attribute.
	list := NewArray(7, UNSIGNED8, AttributeSdoRw)
	e := NewListEntry(0x2000, list)

	payload := []byte{0x04, 0x12, 0x21, 0x33, 0x45}
	abort := e.CompleteWrite(true, false, AttributeSdoRw, bytes.NewReader(payload), TrailingBitsZeroFill)
	require.True(t, abort.OK())

	assert.Equal(t, uint8(4), list.ActiveCount())
	for i, want := range []byte{0x12, 0x21, 0x33, 0x45} {
		var buf bytes.Buffer
		require.NoError(t, assertAbortOK(e.Read(uint8(i+1), AttributeSdoR, &buf)))
		assert.Equal(t, []byte{want}, buf.Bytes())
	}
}

func TestEntryListCompleteWriteIncludingSI0RejectsTooLarge(t *testing.T) {
	list := NewArray(3, UNSIGNED8, AttributeSdoRw)
	e := NewListEntry(0x2000, list)

	payload := []byte{0x05, 0x01, 0x02, 0x03}
	abort := e.CompleteWrite(true, false, AttributeSdoRw, bytes.NewReader(payload), TrailingBitsZeroFill)
	assert.Equal(t, roda.AbortDataTypeMismatchTooLong, abort)
}

func TestEntryListSubindexAccess(t *testing.T) {
	list := NewArray(2, UNSIGNED16, AttributeSdoRw)
	e := NewListEntry(0x2001, list)

	assert.Equal(t, uint16(2), e.MaxSubindexCount())

	_, err := list.Subindex(3)
	assert.ErrorIs(t, err, ErrSubNotExist)

	v, err := list.Subindex(1)
	require.NoError(t, err)
	assert.Equal(t, UNSIGNED16, v.DataType)
}

func TestEntryObjectStreamSizeBits(t *testing.T) {
	list := NewArray(2, UNSIGNED16, AttributeSdoRw)
	e := NewListEntry(0x2002, list)
	// si0 (1 byte) + 2 elements * 2 bytes each = 5 bytes = 40 bits
	assert.Equal(t, uint32(40), e.ObjectStreamSizeBits(false))
}

func TestEntryLockDataLocksAllElements(t *testing.T) {
	list := NewArray(2, UNSIGNED8, AttributeSdoRw)
	e := NewListEntry(0x2003, list)
	unlock := e.LockData()
	assert.False(t, list.si0.mu.TryLock())
	for _, v := range list.elements {
		assert.False(t, v.mu.TryLock())
	}
	unlock()
}
