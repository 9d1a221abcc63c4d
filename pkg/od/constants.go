package od

import "github.com/canroda/roda/pkg/roda"

// CANopen data types (CiA 301 table), adapted from the teacher's
// pkg/od/constants.go.
const (
	BOOLEAN        uint8 = 0x01
	INTEGER8       uint8 = 0x02
	INTEGER16      uint8 = 0x03
	INTEGER32      uint8 = 0x04
	UNSIGNED8      uint8 = 0x05
	UNSIGNED16     uint8 = 0x06
	UNSIGNED32     uint8 = 0x07
	REAL32         uint8 = 0x08
	VISIBLE_STRING uint8 = 0x09
	OCTET_STRING   uint8 = 0x0A
	UNSIGNED64     uint8 = 0x1B
	INTEGER64      uint8 = 0x15
	REAL64         uint8 = 0x11
	DOMAIN         uint8 = 0x0F
)

// Object dictionary object attribute bits, adapted from the teacher's
// pkg/od/constants.go AttributeSdoR/W/Rw family.
const (
	AttributeSdoR  uint16 = 0x0001 // SDO server may read from the variable
	AttributeSdoW  uint16 = 0x0002 // SDO server may write to the variable
	AttributeSdoRw uint16 = 0x0003 // SDO server may read from or write to the variable
	// AttributeStr marks variable-length string/domain data: a write
	// shorter than the OD's declared size is allowed, trailing bytes are
	// set to zero (spec.md §4.1 "seven-or-less trailing bits").
	AttributeStr uint16 = 0x0080
)

// ObjectType identifies whether an Entry is a VAR, ARRAY or RECORD, and
// is surfaced to callers as roda.ObjectCode (spec.md treats this as an
// opaque identifier it never interprets).
type ObjectType = roda.ObjectCode

const (
	ObjectTypeVAR    = roda.ObjectCodeVAR
	ObjectTypeARRAY  = roda.ObjectCodeARRAY
	ObjectTypeRECORD = roda.ObjectCodeRECORD
)
