package bytecode

import (
	"errors"
	"fmt"
)

var (
	ErrBadMagic  = errors.New("not a chips stream")
	ErrVersion   = errors.New("unsupported stream version")
	ErrTruncated = errors.New("stream truncated")
	ErrCorrupt   = errors.New("stream corrupt")
)

// TagError reports an operand tag byte with no meaning.
type TagError struct {
	Tag byte
	Pos int
}

func (e *TagError) Error() string {
	return fmt.Sprintf("unknown operand tag 0x%02X at offset %d", e.Tag, e.Pos)
}

// UnencodableError reports a constant whose kind has no wire form.
type UnencodableError struct {
	Type string
}

func (e *UnencodableError) Error() string {
	return fmt.Sprintf("%s constants cannot be encoded", e.Type)
}

// InstructionError locates a failure inside a stream.
type InstructionError struct {
	Index int
	Err   error
}

func (e *InstructionError) Error() string {
	return fmt.Sprintf("instruction %04d: %v", e.Index, e.Err)
}

func (e *InstructionError) Unwrap() error { return e.Err }
