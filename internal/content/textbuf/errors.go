package textbuf

import (
	"errors"
	"fmt"
)

// ErrOutOfBounds indicates an offset or length outside the buffer.
var ErrOutOfBounds = errors.New("offset out of bounds")

// OutOfBoundsError describes a rejected offset/length pair.
// It matches ErrOutOfBounds with errors.Is.
type OutOfBoundsError struct {
	Op     string // operation that rejected the arguments
	Offset int
	Length int
	Size   int // buffer length at the time of the call
}

// NewOutOfBounds creates an OutOfBoundsError.
func NewOutOfBounds(op string, offset, length, size int) *OutOfBoundsError {
	return &OutOfBoundsError{Op: op, Offset: offset, Length: length, Size: size}
}

func (e *OutOfBoundsError) Error() string {
	if e.Length == 0 {
		return fmt.Sprintf("%s: offset %d out of bounds [0, %d]", e.Op, e.Offset, e.Size)
	}
	return fmt.Sprintf("%s: range [%d, %d) out of bounds [0, %d]", e.Op, e.Offset, e.Offset+e.Length, e.Size)
}

// Is reports whether target is ErrOutOfBounds.
func (e *OutOfBoundsError) Is(target error) bool {
	return target == ErrOutOfBounds
}
