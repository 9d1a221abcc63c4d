package roda

// WriteRequest requests that data be written to a subindex, or to an
// entire object via complete access.
type WriteRequest struct {
	RequestBase
	Index       uint16
	Subindex    uint8
	Permissions uint16
	Access      AccessType
	Data        []byte
}

func NewWriteRequest(maxResponseSize uint32, index uint16, subindex uint8, permissions uint16, access AccessType, data []byte) (*WriteRequest, error) {
	if permissions == 0 || !access.valid() {
		return nil, ErrInvalidArgument
	}
	if access.complete() && subindex > 1 {
		return nil, ErrInvalidArgument
	}
	if len(data) < 1 {
		return nil, ErrInvalidArgument
	}
	if access == AccessCompleteSI0As16Bit && subindex == 0 && len(data) < 2 {
		return nil, ErrInvalidArgument
	}
	return &WriteRequest{
		RequestBase: RequestBase{maxResponseSize: maxResponseSize},
		Index:       index,
		Subindex:    subindex,
		Permissions: permissions,
		Access:      access,
		Data:        data,
	}, nil
}

func (r *WriteRequest) Kind() Kind { return KindWrite }

func (r *WriteRequest) MarshalBinary() ([]byte, error) {
	buf := encodeRequestHeader(KindWrite, r.maxResponseSize)
	buf = append(buf, byte(r.Access))
	buf = appendUint16(buf, r.Index)
	buf = append(buf, r.Subindex)
	buf = appendUint16(buf, r.Permissions)
	buf = appendUint16(buf, uint16(len(r.Data)))
	buf = append(buf, r.Data...)
	buf = r.rsis.encode(buf)
	return buf, nil
}

func decodeWriteRequest(data []byte) (*WriteRequest, error) {
	rest, maxResp, err := decodeRequestHeader(data, KindWrite)
	if err != nil {
		return nil, err
	}
	if len(rest) < 8 {
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
	if permissions == 0 {
		return nil, ErrProtocol
	}
	dataLen := int(readUint16(rest[6:8]))
	if dataLen < 1 {
		return nil, ErrProtocol
	}
	if access == AccessCompleteSI0As16Bit && subindex == 0 && dataLen < 2 {
		return nil, ErrProtocol
	}
	rest = rest[8:]
	if len(rest) < dataLen {
		return nil, ErrProtocol
	}
	payload := append([]byte(nil), rest[:dataLen]...)
	stack, tail, err := decodeStack(rest[dataLen:])
	if err != nil {
		return nil, err
	}
	if len(tail) != 0 {
		return nil, ErrProtocol
	}
	return &WriteRequest{
		RequestBase: RequestBase{maxResponseSize: maxResp, rsis: stack},
		Index:       index,
		Subindex:    subindex,
		Permissions: permissions,
		Access:      access,
		Data:        payload,
	}, nil
}

// WriteResponse carries only the abort code.
type WriteResponse struct {
	ResponseBase
	Abort AbortCode
}

func NewWriteResponse(abort AbortCode) *WriteResponse {
	return &WriteResponse{Abort: abort}
}

func (r *WriteResponse) Kind() Kind { return KindWrite }

func (r *WriteResponse) MarshalBinary() ([]byte, error) {
	buf := encodeResponseHeader(KindWrite, r.Abort)
	buf = r.rsis.encode(buf)
	return buf, nil
}

func decodeWriteResponse(data []byte) (*WriteResponse, error) {
	rest, abort, err := decodeResponseHeader(data, KindWrite)
	if err != nil {
		return nil, err
	}
	stack, tail, err := decodeStack(rest)
	if err != nil {
		return nil, err
	}
	if len(tail) != 0 {
		return nil, ErrProtocol
	}
	return &WriteResponse{ResponseBase: ResponseBase{rsis: stack}, Abort: abort}, nil
}
