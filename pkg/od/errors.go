package od

import (
	"errors"
	"fmt"

	"github.com/canroda/roda/pkg/roda"
)

// ODR is the internal OD access result code, adapted from the teacher's
// pkg/od/constants.go ODR type. It is translated to a roda.AbortCode at
// the server dispatch boundary (§6.1/§4.1), never surfaced on the wire
// directly.
type ODR int8

const (
	ErrNo           ODR = 0
	ErrOutOfMem     ODR = 1
	ErrUnsuppAccess ODR = 2
	ErrWriteOnly    ODR = 3
	ErrReadonly     ODR = 4
	ErrIdxNotExist  ODR = 5
	ErrDevIncompat  ODR = 9
	ErrTypeMismatch ODR = 11
	ErrDataLong     ODR = 12
	ErrDataShort    ODR = 13
	ErrSubNotExist  ODR = 14
	ErrGeneral      ODR = 20
)

var odrDescriptions = map[ODR]string{
	ErrNo:           "no error",
	ErrOutOfMem:     "out of memory",
	ErrUnsuppAccess: "unsupported access to an object",
	ErrWriteOnly:    "attempt to read a write only object",
	ErrReadonly:     "attempt to write a read only object",
	ErrIdxNotExist:  "object does not exist in the object dictionary",
	ErrDevIncompat:  "general internal incompatibility in device",
	ErrTypeMismatch: "data type does not match, length does not match",
	ErrDataLong:     "data too long for object",
	ErrDataShort:    "data too short for object",
	ErrSubNotExist:  "subindex does not exist",
	ErrGeneral:      "general error",
}

func (e ODR) Error() string {
	desc, ok := odrDescriptions[e]
	if !ok {
		desc = "unknown"
	}
	return fmt.Sprintf("od error %d (%s)", e, desc)
}

var errVariableIsDomain = errors.New("od: DOMAIN variables require an extension")

// ToAbortCode maps an ODR to the roda.AbortCode the server's dispatch
// logic delivers on the wire (spec.md §4.1 per-kind dispatch tables).
func (e ODR) ToAbortCode() roda.AbortCode {
	switch e {
	case ErrNo:
		return roda.AbortNone
	case ErrOutOfMem:
		return roda.AbortOutOfMemory
	case ErrUnsuppAccess, ErrWriteOnly, ErrReadonly:
		return roda.AbortUnsupportedAccessToObject
	case ErrIdxNotExist:
		return roda.AbortObjectDoesNotExist
	case ErrSubNotExist:
		return roda.AbortSubindexDoesNotExist
	case ErrDataLong:
		return roda.AbortDataTypeMismatchTooLong
	case ErrDataShort, ErrTypeMismatch:
		return roda.AbortDataTypeMismatchTooSmall
	default:
		return roda.AbortGeneralError
	}
}
