package roda

// ObjectInfoRequest asks for object-level metadata and the metadata of
// subindices in [FirstSI, LastSI].
type ObjectInfoRequest struct {
	RequestBase
	Index                      uint16
	FirstSI                    uint8
	LastSI                     uint8
	IncludeNames               bool
	IncludeAppSpecificMetadata bool
}

func NewObjectInfoRequest(maxResponseSize uint32, index uint16, firstSI, lastSI uint8, includeNames, includeASM bool) *ObjectInfoRequest {
	return &ObjectInfoRequest{
		RequestBase:                RequestBase{maxResponseSize: maxResponseSize},
		Index:                      index,
		FirstSI:                    firstSI,
		LastSI:                     lastSI,
		IncludeNames:               includeNames,
		IncludeAppSpecificMetadata: includeASM,
	}
}

func (r *ObjectInfoRequest) Kind() Kind { return KindObjectInfo }

func flagsByte(includeNames, includeASM bool) byte {
	var f byte
	if includeNames {
		f |= 1 << 0
	}
	if includeASM {
		f |= 1 << 1
	}
	return f
}

func (r *ObjectInfoRequest) MarshalBinary() ([]byte, error) {
	buf := encodeRequestHeader(KindObjectInfo, r.maxResponseSize)
	buf = appendUint16(buf, r.Index)
	buf = append(buf, r.FirstSI, r.LastSI, flagsByte(r.IncludeNames, r.IncludeAppSpecificMetadata))
	buf = r.rsis.encode(buf)
	return buf, nil
}

func decodeObjectInfoRequest(data []byte) (*ObjectInfoRequest, error) {
	rest, maxResp, err := decodeRequestHeader(data, KindObjectInfo)
	if err != nil {
		return nil, err
	}
	if len(rest) < 5 {
		return nil, ErrProtocol
	}
	index := readUint16(rest[0:2])
	firstSI := rest[2]
	lastSI := rest[3]
	flags := rest[4]
	stack, tail, err := decodeStack(rest[5:])
	if err != nil {
		return nil, err
	}
	if len(tail) != 0 {
		return nil, ErrProtocol
	}
	return &ObjectInfoRequest{
		RequestBase:                RequestBase{maxResponseSize: maxResp, rsis: stack},
		Index:                      index,
		FirstSI:                    firstSI,
		LastSI:                     lastSI,
		IncludeNames:               flags&(1<<0) != 0,
		IncludeAppSpecificMetadata: flags&(1<<1) != 0,
	}, nil
}

// ObjectCode identifies the CANopen object type (spec.md glossary:
// VAR/ARRAY/RECORD), kept opaque per the spec's "consumed as opaque
// identifiers" scoping.
type ObjectCode uint8

const (
	ObjectCodeVAR    ObjectCode = 7
	ObjectCodeARRAY  ObjectCode = 8
	ObjectCodeRECORD ObjectCode = 9
)

// SubindexInfo describes one subindex of an object, as carried in
// ObjectInfoResponse.
type SubindexInfo struct {
	Subindex    uint8
	Empty       bool
	DataType    uint8
	AttrBits    uint16
	MaxSizeBits uint32
	Name        string // only populated if the request asked for names
	ASM         []byte // only populated if the request asked for app-specific metadata
}

// ObjectInfoResponse is fragmentable the same way ObjectEnumResponse is:
// FirstQueriedSI/LastQueriedSI bound what this particular fragment
// covers, and Complete tells the caller whether more fragments follow.
type ObjectInfoResponse struct {
	ResponseBase
	Abort            AbortCode
	FirstQueriedSI   uint8
	LastQueriedSI    uint8
	Complete         bool
	ObjectCode       ObjectCode
	DataType         uint8
	Name             string
	MaxSubindexCount uint16
	Subindices       []SubindexInfo
}

func (r *ObjectInfoResponse) Kind() Kind { return KindObjectInfo }

// AddFragment appends subindex descriptors from a follow-up response.
func (r *ObjectInfoResponse) AddFragment(next *ObjectInfoResponse) {
	r.Subindices = append(r.Subindices, next.Subindices...)
	r.LastQueriedSI = next.LastQueriedSI
	r.Complete = next.Complete
}

func (r *ObjectInfoResponse) MarshalBinary() ([]byte, error) {
	buf := encodeResponseHeader(KindObjectInfo, r.Abort)
	buf = append(buf, r.FirstQueriedSI, r.LastQueriedSI, boolByte(r.Complete), byte(r.ObjectCode), r.DataType)
	buf = appendUint16(buf, r.MaxSubindexCount)
	buf = appendUint16(buf, uint16(len(r.Name)))
	buf = append(buf, []byte(r.Name)...)
	buf = append(buf, byte(len(r.Subindices)))
	for _, si := range r.Subindices {
		buf = append(buf, si.Subindex, boolByte(si.Empty), si.DataType)
		buf = appendUint16(buf, si.AttrBits)
		buf = appendUint32(buf, si.MaxSizeBits)
		buf = appendUint16(buf, uint16(len(si.Name)))
		buf = append(buf, []byte(si.Name)...)
		buf = appendUint16(buf, uint16(len(si.ASM)))
		buf = append(buf, si.ASM...)
	}
	buf = r.rsis.encode(buf)
	return buf, nil
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func decodeObjectInfoResponse(data []byte) (*ObjectInfoResponse, error) {
	rest, abort, err := decodeResponseHeader(data, KindObjectInfo)
	if err != nil {
		return nil, err
	}
	if len(rest) < 9 {
		return nil, ErrProtocol
	}
	firstSI, lastSI, complete, objectCode, dataType := rest[0], rest[1], rest[2] != 0, ObjectCode(rest[3]), rest[4]
	maxSub := readUint16(rest[5:7])
	nameLen := int(readUint16(rest[7:9]))
	rest = rest[9:]
	if len(rest) < nameLen+1 {
		return nil, ErrProtocol
	}
	name := string(rest[:nameLen])
	rest = rest[nameLen:]
	subCount := int(rest[0])
	rest = rest[1:]

	subindices := make([]SubindexInfo, 0, subCount)
	for i := 0; i < subCount; i++ {
		if len(rest) < 11 {
			return nil, ErrProtocol
		}
		si := SubindexInfo{
			Subindex: rest[0],
			Empty:    rest[1] != 0,
			DataType: rest[2],
		}
		si.AttrBits = readUint16(rest[3:5])
		si.MaxSizeBits = readUint32(rest[5:9])
		siNameLen := int(readUint16(rest[9:11]))
		rest = rest[11:]
		if len(rest) < siNameLen {
			return nil, ErrProtocol
		}
		si.Name = string(rest[:siNameLen])
		rest = rest[siNameLen:]
		if len(rest) < 2 {
			return nil, ErrProtocol
		}
		asmLen := int(readUint16(rest[0:2]))
		rest = rest[2:]
		if len(rest) < asmLen {
			return nil, ErrProtocol
		}
		si.ASM = append([]byte(nil), rest[:asmLen]...)
		rest = rest[asmLen:]
		subindices = append(subindices, si)
	}

	stack, tail, err := decodeStack(rest)
	if err != nil {
		return nil, err
	}
	if len(tail) != 0 {
		return nil, ErrProtocol
	}
	return &ObjectInfoResponse{
		ResponseBase:     ResponseBase{rsis: stack},
		Abort:            abort,
		FirstQueriedSI:   firstSI,
		LastQueriedSI:    lastSI,
		Complete:         complete,
		ObjectCode:       objectCode,
		DataType:         dataType,
		Name:             name,
		MaxSubindexCount: maxSub,
		Subindices:       subindices,
	}, nil
}
