package ot

import "errors"

// Errors for the operation algebra and its wire codec.
var (
	ErrLengthMismatch = errors.New("operation length mismatch")
	ErrDecode         = errors.New("malformed wire operation")
)
