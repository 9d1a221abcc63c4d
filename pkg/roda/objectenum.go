package roda

// ObjectEnumRequest asks the server to enumerate object indices in
// [StartIndex, LastIndex] whose subindices match AttributeFilter.
type ObjectEnumRequest struct {
	RequestBase
	StartIndex      uint16
	LastIndex       uint16
	AttributeFilter uint16
}

func NewObjectEnumRequest(maxResponseSize uint32, start, last, filter uint16) (*ObjectEnumRequest, error) {
	if filter == 0 {
		return nil, ErrInvalidArgument
	}
	if start > last {
		return nil, ErrInvalidArgument
	}
	return &ObjectEnumRequest{
		RequestBase:     RequestBase{maxResponseSize: maxResponseSize},
		StartIndex:      start,
		LastIndex:       last,
		AttributeFilter: filter,
	}, nil
}

func (r *ObjectEnumRequest) Kind() Kind { return KindObjectEnum }

func (r *ObjectEnumRequest) MarshalBinary() ([]byte, error) {
	buf := encodeRequestHeader(KindObjectEnum, r.maxResponseSize)
	buf = appendUint16(buf, r.StartIndex)
	buf = appendUint16(buf, r.LastIndex)
	buf = appendUint16(buf, r.AttributeFilter)
	buf = r.rsis.encode(buf)
	return buf, nil
}

func decodeObjectEnumRequest(data []byte) (*ObjectEnumRequest, error) {
	rest, maxResp, err := decodeRequestHeader(data, KindObjectEnum)
	if err != nil {
		return nil, err
	}
	if len(rest) < 6 {
		return nil, ErrProtocol
	}
	start := readUint16(rest[0:2])
	last := readUint16(rest[2:4])
	filter := readUint16(rest[4:6])
	if filter == 0 || start > last {
		return nil, ErrProtocol
	}
	stack, tail, err := decodeStack(rest[6:])
	if err != nil {
		return nil, err
	}
	if len(tail) != 0 {
		return nil, ErrProtocol
	}
	return &ObjectEnumRequest{
		RequestBase:     RequestBase{maxResponseSize: maxResp, rsis: stack},
		StartIndex:      start,
		LastIndex:       last,
		AttributeFilter: filter,
	}, nil
}

// ObjectEnumResponse carries an ascending-ordered list of matching
// indices. Complete is true iff the requested range was fully walked;
// otherwise the caller must send a follow-up request starting after the
// last index returned (fragmentation).
type ObjectEnumResponse struct {
	ResponseBase
	Abort    AbortCode
	Indices  []uint16
	Complete bool
}

func NewObjectEnumResponse(abort AbortCode, indices []uint16, complete bool) *ObjectEnumResponse {
	return &ObjectEnumResponse{Abort: abort, Indices: indices, Complete: complete}
}

// AddFragment appends more indices from a follow-up response carrying the
// continuation of the same enumeration, enforcing strictly-ascending
// order across the join (spec.md §6.2 check #7).
func (r *ObjectEnumResponse) AddFragment(next *ObjectEnumResponse) error {
	if len(r.Indices) > 0 && len(next.Indices) > 0 && next.Indices[0] <= r.Indices[len(r.Indices)-1] {
		return ErrProtocol
	}
	r.Indices = append(r.Indices, next.Indices...)
	r.Complete = next.Complete
	return nil
}

func (r *ObjectEnumResponse) Kind() Kind { return KindObjectEnum }

func (r *ObjectEnumResponse) MarshalBinary() ([]byte, error) {
	buf := encodeResponseHeader(KindObjectEnum, r.Abort)
	complete := byte(0)
	if r.Complete {
		complete = 1
	}
	buf = append(buf, complete)
	buf = appendUint16(buf, uint16(len(r.Indices)))
	for _, idx := range r.Indices {
		buf = appendUint16(buf, idx)
	}
	buf = r.rsis.encode(buf)
	return buf, nil
}

func decodeObjectEnumResponse(data []byte) (*ObjectEnumResponse, error) {
	rest, abort, err := decodeResponseHeader(data, KindObjectEnum)
	if err != nil {
		return nil, err
	}
	if len(rest) < 3 {
		return nil, ErrProtocol
	}
	complete := rest[0] != 0
	count := int(readUint16(rest[1:3]))
	rest = rest[3:]
	if len(rest) < count*2 {
		return nil, ErrProtocol
	}
	indices := make([]uint16, count)
	for i := 0; i < count; i++ {
		indices[i] = readUint16(rest[i*2 : i*2+2])
		if i > 0 && indices[i] <= indices[i-1] {
			return nil, ErrProtocol
		}
		if !complete && indices[i] == 0xFFFF {
			return nil, ErrProtocol
		}
	}
	if !complete && count == 0 {
		return nil, ErrProtocol
	}
	stack, tail, err := decodeStack(rest[count*2:])
	if err != nil {
		return nil, err
	}
	if len(tail) != 0 {
		return nil, ErrProtocol
	}
	return &ObjectEnumResponse{
		ResponseBase: ResponseBase{rsis: stack},
		Abort:        abort,
		Indices:      indices,
		Complete:     complete,
	}, nil
}
