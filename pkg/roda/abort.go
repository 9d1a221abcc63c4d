package roda

import "fmt"

// AbortCode is the CANopen-style abort code carried in a response payload.
// It is a typed integer with a description table, the same idiom the
// teacher uses for its SDO abort-code catalogue.
type AbortCode uint32

const (
	AbortNone                      AbortCode = 0x00000000
	AbortOutOfMemory               AbortCode = 0x05040005
	AbortUnsupportedAccessToObject AbortCode = 0x06010000
	AbortObjectDoesNotExist        AbortCode = 0x06020000
	AbortObjectLengthExceedsMbx    AbortCode = 0x06070030
	AbortDataTypeMismatchTooLong   AbortCode = 0x06070012
	AbortDataTypeMismatchTooSmall  AbortCode = 0x06070013
	AbortSubindexDoesNotExist      AbortCode = 0x06090011
	AbortGeneralError              AbortCode = 0x08000000
)

var abortDescriptions = map[AbortCode]string{
	AbortNone:                      "no error",
	AbortOutOfMemory:               "out of memory",
	AbortUnsupportedAccessToObject: "unsupported access to an object",
	AbortObjectDoesNotExist:        "object does not exist in the object dictionary",
	AbortObjectLengthExceedsMbx:    "object length exceeds the announced response size",
	AbortDataTypeMismatchTooLong:   "data type does not match, length too high",
	AbortDataTypeMismatchTooSmall:  "data type does not match, length too short",
	AbortSubindexDoesNotExist:      "subindex does not exist",
	AbortGeneralError:              "general error",
}

func (a AbortCode) Error() string {
	desc, ok := abortDescriptions[a]
	if !ok {
		return fmt.Sprintf("abort code 0x%08X (unknown)", uint32(a))
	}
	return fmt.Sprintf("abort code 0x%08X (%s)", uint32(a), desc)
}

// OK reports whether the abort code represents successful processing.
func (a AbortCode) OK() bool {
	return a == AbortNone
}
