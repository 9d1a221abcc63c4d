package roda

// AccessType selects how a Read/Write request addresses an object's
// subindices (spec.md §3).
type AccessType uint8

const (
	AccessSingleSubindex     AccessType = 0
	AccessCompleteSI0As8Bit  AccessType = 1
	AccessCompleteSI0As16Bit AccessType = 2
)

func (a AccessType) valid() bool {
	switch a {
	case AccessSingleSubindex, AccessCompleteSI0As8Bit, AccessCompleteSI0As16Bit:
		return true
	default:
		return false
	}
}

func (a AccessType) complete() bool {
	return a == AccessCompleteSI0As8Bit || a == AccessCompleteSI0As16Bit
}

// attributeReadMask is the read-capable bit of the attribute/permission
// namespace (mirrors od.AttributeSdoR; duplicated here since pkg/roda must
// not import pkg/od, which imports pkg/roda). A ReadRequest's Permissions
// must carry this bit — spec.md §6.2 acceptance check #4, "read requests
// accept only read-capable attribute bits".
const attributeReadMask uint16 = 0x0001

// ReadRequest requests the value of one subindex, or a complete-access
// read of an entire object.
type ReadRequest struct {
	RequestBase
	Index       uint16
	Subindex    uint8
	Permissions uint16
	Access      AccessType
}

func NewReadRequest(maxResponseSize uint32, index uint16, subindex uint8, permissions uint16, access AccessType) (*ReadRequest, error) {
	if permissions == 0 || permissions&attributeReadMask == 0 {
		return nil, ErrInvalidArgument
	}
	if access.complete() && subindex > 1 {
		return nil, ErrInvalidArgument
	}
	if !access.valid() {
		return nil, ErrInvalidArgument
	}
	return &ReadRequest{
		RequestBase: RequestBase{maxResponseSize: maxResponseSize},
		Index:       index,
		Subindex:    subindex,
		Permissions: permissions,
		Access:      access,
	}, nil
}

func (r *ReadRequest) Kind() Kind { return KindRead }

func (r *ReadRequest) MarshalBinary() ([]byte, error) {
	buf := encodeRequestHeader(KindRead, r.maxResponseSize)
	buf = append(buf, byte(r.Access))
	buf = appendUint16(buf, r.Index)
	buf = append(buf, r.Subindex)
	buf = appendUint16(buf, r.Permissions)
	buf = r.rsis.encode(buf)
	return buf, nil
}

func decodeReadRequest(data []byte) (*ReadRequest, error) {
	rest, maxResp, err := decodeRequestHeader(data, KindRead)
	if err != nil {
		return nil, err
	}
	if len(rest) < 6 {
		return nil, ErrProtocol
	}
	access := AccessType(rest[0])
	if !access.valid() {
		return nil, ErrProtocol
	}
	index := readUint16(rest[1:3])
	subindex := rest[3]
	if access.complete() && subindex > 1 {
		return nil, ErrProtocol
	}
	permissions := readUint16(rest[4:6])
	if permissions == 0 || permissions&attributeReadMask == 0 {
		return nil, ErrProtocol
	}
	stack, tail, err := decodeStack(rest[6:])
	if err != nil {
		return nil, err
	}
	if len(tail) != 0 {
		return nil, ErrProtocol
	}
	return &ReadRequest{
		RequestBase: RequestBase{maxResponseSize: maxResp, rsis: stack},
		Index:       index,
		Subindex:    subindex,
		Permissions: permissions,
		Access:      access,
	}, nil
}

// ReadResponse carries the abort code and, on success, the read payload.
// BitSize satisfies BitSize <= 8*len(Data) and 8*(len(Data)-1) < BitSize
// (spec.md §3), so that a non-byte-aligned read is unambiguous.
type ReadResponse struct {
	ResponseBase
	Abort   AbortCode
	Data    []byte
	BitSize uint32
}

func NewReadResponse(abort AbortCode, data []byte, bitSize uint32) *ReadResponse {
	return &ReadResponse{Abort: abort, Data: data, BitSize: bitSize}
}

func (r *ReadResponse) Kind() Kind { return KindRead }

func (r *ReadResponse) MarshalBinary() ([]byte, error) {
	buf := encodeResponseHeader(KindRead, r.Abort)
	buf = appendUint16(buf, uint16(len(r.Data)))
	buf = append(buf, r.Data...)
	buf = append(buf, bitCountInLastByte(r.Data, r.BitSize))
	buf = r.rsis.encode(buf)
	return buf, nil
}

func bitCountInLastByte(data []byte, bitSize uint32) byte {
	if len(data) == 0 {
		return 0
	}
	rem := bitSize - 8*uint32(len(data)-1)
	return byte(rem)
}

func decodeReadResponse(data []byte) (*ReadResponse, error) {
	rest, abort, err := decodeResponseHeader(data, KindRead)
	if err != nil {
		return nil, err
	}
	if len(rest) < 2 {
		return nil, ErrProtocol
	}
	dataLen := int(readUint16(rest[0:2]))
	rest = rest[2:]
	if len(rest) < dataLen+1 {
		return nil, ErrProtocol
	}
	payload := rest[:dataLen]
	bitCount := rest[dataLen]
	rest = rest[dataLen+1:]
	if len(payload) == 0 && bitCount != 0 {
		return nil, ErrProtocol
	}
	if len(payload) > 0 && (bitCount < 1 || bitCount > 8) {
		return nil, ErrProtocol
	}
	stack, tail, err := decodeStack(rest)
	if err != nil {
		return nil, err
	}
	if len(tail) != 0 {
		return nil, ErrProtocol
	}
	bitSize := uint32(0)
	if len(payload) > 0 {
		bitSize = 8*uint32(len(payload)-1) + uint32(bitCount)
	}
	return &ReadResponse{
		ResponseBase: ResponseBase{rsis: stack},
		Abort:        abort,
		Data:         append([]byte(nil), payload...),
		BitSize:      bitSize,
	}, nil
}
