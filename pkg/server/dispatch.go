package server

import (
	"bytes"

	"github.com/canroda/roda/pkg/od"
	"github.com/canroda/roda/pkg/roda"
)

// dispatch produces the response to req (spec.md §4.1 "Dispatch per
// request kind"). The returned error is reserved for a genuinely
// transient failure of the server's own dispatch machinery (the Go
// analogue of the source's std::bad_alloc at the work() level, distinct
// from an OD callback failure, which is always folded into the
// response's abort code instead); this implementation never produces
// one, since Go has no allocation-failure signal to propagate, but the
// retry path in Work() is kept so a future adapter could still use it.
func (s *RemoteAccessServer) dispatch(req roda.Request) (roda.Response, error) {
	var resp roda.Response
	switch r := req.(type) {
	case *roda.PingRequest:
		resp = s.dispatchPing(r)
	case *roda.ReadRequest:
		resp = s.dispatchRead(r)
	case *roda.WriteRequest:
		resp = s.dispatchWrite(r)
	case *roda.ObjectEnumRequest:
		resp = s.dispatchObjectEnum(r)
	case *roda.ObjectInfoRequest:
		resp = s.dispatchObjectInfo(r)
	default:
		panic("server: unknown request kind reached dispatch")
	}

	// RSI move rule (spec.md §4.1): atomically move the stack from
	// request to response. Both sides are plain slices under our
	// control, so this cannot fail the way a true move-construct could.
	*resp.RSIs() = *req.RSIs()
	*req.RSIs() = nil
	return resp, nil
}

func (s *RemoteAccessServer) dispatchPing(req *roda.PingRequest) roda.Response {
	return roda.NewPingResponse()
}

// fits reports whether resp, once the RSI stack is attached, would fit
// within req's announced max_response_size. Per spec.md §9's "late
// failure" open question, this implementation performs the OD operation
// first and checks size afterward, rather than pre-computing a tight
// bound — both are conformant, and checking after is far simpler to get
// right for variable-length payloads.
func fits(req roda.Request, resp roda.Response) bool {
	*resp.RSIs() = *req.RSIs()
	size, err := roda.SerializedSize(reqLikeResponse{resp})
	*resp.RSIs() = nil
	if err != nil {
		return false
	}
	return uint32(size) <= req.MaxResponseSize()
}

// reqLikeResponse adapts a Response to roda.Request so SerializedSize
// (typed over Request) can also measure a response's wire size; the
// encoding the two interfaces expose is identical (Kind/RSIs/MarshalBinary).
type reqLikeResponse struct {
	roda.Response
}

func (r reqLikeResponse) MaxResponseSize() uint32 { return 0 }

func (s *RemoteAccessServer) dispatchRead(req *roda.ReadRequest) roda.Response {
	handle, ok := s.adapter.GetObject(req.Index)
	if !ok {
		return roda.NewReadResponse(roda.AbortObjectDoesNotExist, nil, 0)
	}

	unlock := handle.LockData()
	defer unlock()

	var buf bytes.Buffer
	var bitSize uint32
	var abort roda.AbortCode

	if req.Access == roda.AccessSingleSubindex {
		if handle.SubindexEmpty(req.Subindex) {
			return roda.NewReadResponse(roda.AbortSubindexDoesNotExist, nil, 0)
		}
		bits, err := handle.SubindexActualSizeBits(req.Subindex)
		if err != nil {
			return roda.NewReadResponse(roda.AbortSubindexDoesNotExist, nil, 0)
		}
		bitSize = bits
		abort = handle.Read(req.Subindex, req.Permissions, &buf)
	} else {
		includeSI0 := req.Subindex == 0
		si0As16 := req.Access == roda.AccessCompleteSI0As16Bit
		bitSize = handle.ObjectStreamSizeBits(si0As16)
		abort = handle.CompleteRead(includeSI0, si0As16, req.Permissions, &buf)
	}

	if abort != roda.AbortNone {
		return roda.NewReadResponse(abort, nil, 0)
	}

	resp := roda.NewReadResponse(roda.AbortNone, buf.Bytes(), bitSize)
	if !fits(req, resp) {
		return roda.NewReadResponse(roda.AbortObjectLengthExceedsMbx, nil, 0)
	}
	return resp
}

func (s *RemoteAccessServer) dispatchWrite(req *roda.WriteRequest) roda.Response {
	handle, ok := s.adapter.GetObject(req.Index)
	if !ok {
		return roda.NewWriteResponse(roda.AbortObjectDoesNotExist)
	}

	unlock := handle.LockData()
	defer unlock()

	r := bytes.NewReader(req.Data)
	var abort roda.AbortCode
	if req.Access == roda.AccessSingleSubindex {
		abort = handle.Write(req.Subindex, req.Permissions, r)
	} else {
		includeSI0 := req.Subindex == 0
		si0As16 := req.Access == roda.AccessCompleteSI0As16Bit
		abort = handle.CompleteWrite(includeSI0, si0As16, req.Permissions, r, od.TrailingBitsZeroFill)
	}
	return roda.NewWriteResponse(abort)
}

func (s *RemoteAccessServer) dispatchObjectEnum(req *roda.ObjectEnumRequest) roda.Response {
	resp := roda.NewObjectEnumResponse(roda.AbortNone, nil, true)
	next := req.StartIndex
	for {
		handle, ok := s.adapter.GetNextNearestObject(next)
		if !ok || handle.Index() > req.LastIndex {
			break
		}
		if matchesFilter(handle, req.AttributeFilter) {
			candidate := roda.NewObjectEnumResponse(roda.AbortNone, append(append([]uint16(nil), resp.Indices...), handle.Index()), true)
			if !fits(req, candidate) {
				if len(resp.Indices) == 0 {
					return roda.NewObjectEnumResponse(roda.AbortObjectLengthExceedsMbx, nil, false)
				}
				resp.Complete = false
				return resp
			}
			resp.Indices = candidate.Indices
		}
		if handle.Index() == 0xFFFF {
			break
		}
		next = handle.Index() + 1
	}
	return resp
}

func matchesFilter(handle od.ObjectHandle, filter uint16) bool {
	if filter == 0xFFFF {
		return true
	}
	n := handle.MaxSubindexCount()
	for si := uint16(0); si <= n; si++ {
		attr, err := handle.SubindexAttributes(uint8(si))
		if err == nil && attr&filter != 0 {
			return true
		}
	}
	return false
}

func (s *RemoteAccessServer) dispatchObjectInfo(req *roda.ObjectInfoRequest) roda.Response {
	handle, ok := s.adapter.GetObject(req.Index)
	if !ok {
		return &roda.ObjectInfoResponse{Abort: roda.AbortObjectDoesNotExist}
	}

	unlock := handle.LockData()
	defer unlock()

	lastSI := req.LastSI
	maxSI := uint8(handle.MaxSubindexCount())
	if lastSI > maxSI {
		lastSI = maxSI
	}

	resp := &roda.ObjectInfoResponse{
		Abort:            roda.AbortNone,
		FirstQueriedSI:   req.FirstSI,
		LastQueriedSI:    req.FirstSI,
		Complete:         true,
		ObjectCode:       handle.ObjectCode(),
		DataType:         handle.SubindexDataType(0),
		Name:             handle.Name(),
		MaxSubindexCount: handle.MaxSubindexCount(),
	}

	for si := req.FirstSI; si <= lastSI; si++ {
		bits, _ := handle.SubindexActualSizeBits(si)
		attr, _ := handle.SubindexAttributes(si)
		info := roda.SubindexInfo{
			Subindex:    si,
			Empty:       handle.SubindexEmpty(si),
			DataType:    handle.SubindexDataType(si),
			AttrBits:    attr,
			MaxSizeBits: bits,
		}
		if req.IncludeNames {
			info.Name = handle.SubindexName(si)
		}

		candidate := *resp
		candidate.Subindices = append(append([]roda.SubindexInfo(nil), resp.Subindices...), info)
		candidate.LastQueriedSI = si
		if !fits(req, &candidate) {
			if len(resp.Subindices) == 0 {
				return &roda.ObjectInfoResponse{Abort: roda.AbortObjectLengthExceedsMbx}
			}
			resp.Complete = false
			return resp
		}
		resp.Subindices = candidate.Subindices
		resp.LastQueriedSI = si

		if si == 255 {
			break
		}
	}
	return resp
}
