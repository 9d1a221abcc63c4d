package roda

import "errors"

// Deserialization-time rejections (spec.md §6.2 acceptance checks). These
// are distinct from AbortCode: an AbortCode travels inside a successfully
// decoded response payload, while these errors mean the bytes never made
// it to a typed message at all.
var (
	ErrUnrecognizedVersion = errors.New("roda: unrecognized wire version")
	ErrProtocol            = errors.New("roda: malformed message")
	ErrRSIStackFull        = errors.New("roda: RSI stack at maximum depth")
	ErrRSIStackEmpty       = errors.New("roda: RSI stack is empty")
)

// Boundary-API errors (spec.md §7), thrown with the strong exception
// guarantee by send()/request_execution_context equivalents.
var (
	ErrInvalidArgument       = errors.New("roda: invalid argument")
	ErrRequestTooLarge       = errors.New("roda: serialized request exceeds server_max_request_size")
	ErrResponseTooLarge      = errors.New("roda: max_response_size exceeds server_max_response_size")
	ErrMinResponseSizeNotMet = errors.New("roda: max_response_size too small for any useful response")
)
