package protocol

import "errors"

var (
	ErrInvalidConfig    = errors.New("invalid protocol configuration")
	ErrInvalidPayload   = errors.New("invalid payload length")
	ErrIllegalCharacter = errors.New("illegal character")
)
