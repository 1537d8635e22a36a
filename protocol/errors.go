package protocol

import "errors"

// Errors
var (
	ErrFraming        = errors.New("protocol: fragment out of sequence")
	ErrBufferOverflow = errors.New("protocol: message exceeds buffer capacity")
	ErrParse          = errors.New("protocol: malformed message")
	ErrUnknownAction  = errors.New("protocol: unknown action")
	ErrValidation     = errors.New("protocol: invalid parameter")
)
