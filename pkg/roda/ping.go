package roda

// PingRequest carries no payload; it exists purely to exercise the
// round-trip invariant of spec.md §8 #1.
type PingRequest struct {
	RequestBase
}

func NewPingRequest(maxResponseSize uint32) *PingRequest {
	return &PingRequest{RequestBase{maxResponseSize: maxResponseSize}}
}

func (r *PingRequest) Kind() Kind { return KindPing }

func (r *PingRequest) MarshalBinary() ([]byte, error) {
	buf := encodeRequestHeader(KindPing, r.maxResponseSize)
	buf = r.rsis.encode(buf)
	return buf, nil
}

func decodePingRequest(data []byte) (*PingRequest, error) {
	rest, maxResp, err := decodeRequestHeader(data, KindPing)
	if err != nil {
		return nil, err
	}
	stack, rest, err := decodeStack(rest)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, ErrProtocol
	}
	return &PingRequest{RequestBase{maxResponseSize: maxResp, rsis: stack}}, nil
}

// PingResponse carries no payload beyond the common header and RSI stack.
type PingResponse struct {
	ResponseBase
}

func NewPingResponse() *PingResponse {
	return &PingResponse{}
}

func (r *PingResponse) Kind() Kind { return KindPing }

func (r *PingResponse) MarshalBinary() ([]byte, error) {
	buf := encodeResponseHeader(KindPing, AbortNone)
	buf = r.rsis.encode(buf)
	return buf, nil
}

func decodePingResponse(data []byte) (*PingResponse, error) {
	rest, _, err := decodeResponseHeader(data, KindPing)
	if err != nil {
		return nil, err
	}
	stack, rest, err := decodeStack(rest)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, ErrProtocol
	}
	return &PingResponse{ResponseBase{rsis: stack}}, nil
}
