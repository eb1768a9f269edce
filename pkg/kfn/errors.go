package kfn

import (
	"errors"
	"fmt"
)

// Errors returned while decoding or encoding a container.
var (
	ErrBadMagic           = errors.New("unexpected file signature")
	ErrUnknownHeaderFlag  = errors.New("unknown header flag")
	ErrUnknownSubfileType = errors.New("unknown subfile type")
	ErrBadTerminator      = errors.New("invalid header terminator")
	ErrDuplicateSubfile   = errors.New("duplicate subfile name")
	ErrTruncated          = errors.New("unexpected end of data")
	ErrInvalidContainer   = errors.New("invalid container")
)

// FormatError reports malformed container input and the offset it was found at.
type FormatError struct {
	Offset int64
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("kfn format error at offset %d: %v", e.Offset, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}
