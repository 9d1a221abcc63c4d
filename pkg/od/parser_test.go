package od

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const demoEDS = `
[1000]
ParameterName=Device Type
ObjectType=0x7
DataType=0x7
AccessType=ro
DefaultValue=0x12345678

[1001]
ParameterName=Error Register
ObjectType=0x7
DataType=0x5
AccessType=rw
DefaultValue=0

[1018]
ParameterName=Identity Object
ObjectType=0x8
SubNumber=0x3
DataType=0x7
AccessType=ro

[1018Sub0]
ParameterName=highest sub-index supported
DataType=0x5
AccessType=ro
DefaultValue=2

[1018Sub1]
ParameterName=Vendor ID
DataType=0x7
AccessType=ro
DefaultValue=0x100

[1018Sub2]
ParameterName=Product Code
DataType=0x7
AccessType=ro
DefaultValue=0x200
`

func TestLoadFromINIVarObjects(t *testing.T) {
	dict, err := LoadFromINI([]byte(demoEDS))
	require.NoError(t, err)

	h, ok := dict.GetObject(0x1000)
	require.True(t, ok)
	assert.Equal(t, ObjectTypeVAR, h.ObjectCode())

	attrs, err := h.SubindexAttributes(0)
	require.NoError(t, err)
	assert.Equal(t, AttributeSdoR, attrs)
}

func TestLoadFromINIArrayObjectWithSubindices(t *testing.T) {
	dict, err := LoadFromINI([]byte(demoEDS))
	require.NoError(t, err)

	h, ok := dict.GetObject(0x1018)
	require.True(t, ok)
	assert.Equal(t, ObjectTypeARRAY, h.ObjectCode())
	assert.Equal(t, uint16(2), h.MaxSubindexCount())

	name := h.SubindexName(1)
	assert.Equal(t, "Vendor ID", name)
}

func TestLoadFromINIRejectsGarbage(t *testing.T) {
	_, err := LoadFromINI([]byte("not an ini file \x00\x01"))
	assert.Error(t, err) // a line with no key-value delimiter is a parse error in ini.v1
}
