package od

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"sync"
)

// Variable is the data representation for a value stored inside the OD.
// It backs a VAR/DOMAIN Entry, or one element of a VariableList
// (ARRAY/RECORD). Adapted from the teacher's pkg/od/variable.go, trimmed
// to drop EDS $NODEID substitution and low/high limit validation, which
// this subsystem's Non-goals (no OD persistence, no device-profile
// semantics) put out of scope.
type Variable struct {
	mu        sync.RWMutex
	value     []byte
	Name      string
	DataType  uint8
	Attribute uint16
	SubIndex  uint8
}

// NewVariable creates a Variable with its value pre-encoded from a
// human-readable string (hex or decimal), the same convenience
// constructor shape as the teacher's od.NewVariable.
func NewVariable(subIndex uint8, name string, dataType uint8, attribute uint16, value string) (*Variable, error) {
	encoded, err := EncodeFromString(value, dataType)
	if err != nil {
		return nil, err
	}
	return &Variable{
		SubIndex:  subIndex,
		Name:      name,
		value:     encoded,
		Attribute: attribute,
		DataType:  dataType,
	}, nil
}

// DataLength returns the number of bytes currently stored.
func (v *Variable) DataLength() uint32 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return uint32(len(v.value))
}

// Lock acquires the variable's read/write lock and returns an unlock
// function, the Go idiom for the spec's "handle.lock_data() -> scoped
// guard" (spec.md §6.1).
func (v *Variable) Lock() func() {
	v.mu.Lock()
	return v.mu.Unlock
}

func (v *Variable) readLocked(p []byte) (int, error) {
	if len(p) < len(v.value) {
		return 0, ErrDataShort
	}
	n := copy(p, v.value)
	return n, nil
}

func (v *Variable) writeLocked(p []byte, allowShort bool) error {
	switch {
	case len(p) == len(v.value):
		copy(v.value, p)
	case len(p) < len(v.value) && allowShort:
		copy(v.value, p)
		for i := len(p); i < len(v.value); i++ {
			v.value[i] = 0
		}
	case len(p) > len(v.value):
		return ErrDataLong
	default:
		return ErrDataShort
	}
	return nil
}

// EncodeFromString encodes a human-readable value (e.g. "0x1234" or
// "42") into its CANopen little-endian wire representation, adapted from
// the teacher's pkg/od/variable.go EncodeFromString (trimmed to the data
// types this demo OD supports; $NODEID offsetting dropped as out of
// scope).
func EncodeFromString(value string, dataType uint8) ([]byte, error) {
	if value == "" {
		value = "0"
	}
	switch dataType {
	case BOOLEAN, UNSIGNED8:
		u, err := strconv.ParseUint(value, 0, 8)
		return []byte{byte(u)}, err
	case INTEGER8:
		i, err := strconv.ParseInt(value, 0, 8)
		return []byte{byte(i)}, err
	case UNSIGNED16:
		u, err := strconv.ParseUint(value, 0, 16)
		b := make([]byte, 2)
		binary.LittleEndian.PutUint16(b, uint16(u))
		return b, err
	case INTEGER16:
		i, err := strconv.ParseInt(value, 0, 16)
		b := make([]byte, 2)
		binary.LittleEndian.PutUint16(b, uint16(i))
		return b, err
	case UNSIGNED32:
		u, err := strconv.ParseUint(value, 0, 32)
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, uint32(u))
		return b, err
	case INTEGER32:
		i, err := strconv.ParseInt(value, 0, 32)
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, uint32(i))
		return b, err
	case REAL32:
		f, err := strconv.ParseFloat(value, 32)
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, math.Float32bits(float32(f)))
		return b, err
	case UNSIGNED64:
		u, err := strconv.ParseUint(value, 0, 64)
		b := make([]byte, 8)
		binary.LittleEndian.PutUint64(b, u)
		return b, err
	case INTEGER64:
		i, err := strconv.ParseInt(value, 0, 64)
		b := make([]byte, 8)
		binary.LittleEndian.PutUint64(b, uint64(i))
		return b, err
	case REAL64:
		f, err := strconv.ParseFloat(value, 64)
		b := make([]byte, 8)
		binary.LittleEndian.PutUint64(b, math.Float64bits(f))
		return b, err
	case VISIBLE_STRING, OCTET_STRING:
		return []byte(value), nil
	case DOMAIN:
		return []byte{}, nil
	default:
		return nil, fmt.Errorf("od: unsupported data type 0x%02X", dataType)
	}
}
