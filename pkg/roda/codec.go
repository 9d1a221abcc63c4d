package roda

import "encoding/binary"

// headerSize is version(1) + type(1) + reserved(1) + max_response_size(4),
// the common prefix of every request (spec.md §6.2).
const headerSize = 7

// responseHeaderSize is version(1) + type(1) + result_abort_code(4).
const responseHeaderSize = 6

func appendUint16(buf []byte, v uint16) []byte {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendUint32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

func readUint16(b []byte) uint16 { return binary.LittleEndian.Uint16(b) }
func readUint32(b []byte) uint32 { return binary.LittleEndian.Uint32(b) }

// encodeRequestHeader writes the common request prefix and returns the
// buffer positioned right after it, ready for kind-specific fields.
func encodeRequestHeader(kind Kind, maxResponseSize uint32) []byte {
	buf := make([]byte, 0, headerSize+16)
	buf = append(buf, Version, byte(kind), 0)
	buf = appendUint32(buf, maxResponseSize)
	return buf
}

// decodeRequestHeader validates and strips the common request prefix,
// returning the remaining kind-specific bytes and the declared
// max_response_size.
func decodeRequestHeader(data []byte, want Kind) (rest []byte, maxResponseSize uint32, err error) {
	if len(data) < headerSize {
		return nil, 0, ErrProtocol
	}
	if data[0] != Version {
		return nil, 0, ErrUnrecognizedVersion
	}
	if Kind(data[1]) != want {
		return nil, 0, ErrProtocol
	}
	maxResponseSize = readUint32(data[3:7])
	return data[headerSize:], maxResponseSize, nil
}

func encodeResponseHeader(kind Kind, abort AbortCode) []byte {
	buf := make([]byte, 0, responseHeaderSize+16)
	buf = append(buf, Version, byte(kind))
	buf = appendUint32(buf, uint32(abort))
	return buf
}

func decodeResponseHeader(data []byte, want Kind) (rest []byte, abort AbortCode, err error) {
	if len(data) < responseHeaderSize {
		return nil, 0, ErrProtocol
	}
	if data[0] != Version {
		return nil, 0, ErrUnrecognizedVersion
	}
	if Kind(data[1]) != want {
		return nil, 0, ErrProtocol
	}
	abort = AbortCode(readUint32(data[2:6]))
	return data[responseHeaderSize:], abort, nil
}
