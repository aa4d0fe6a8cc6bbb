package position

import (
	"errors"
	"fmt"
)

// Bias decides how a position reacts to an insertion at its exact offset.
type Bias uint8

const (
	// Forward positions move behind text inserted at their offset.
	Forward Bias = iota
	// Backward positions stay in front of text inserted at their offset.
	Backward
)

// String returns a string representation of the bias.
func (b Bias) String() string {
	switch b {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	default:
		return "unknown"
	}
}

// ParseBias parses "forward" or "backward". The empty string means Forward.
func ParseBias(s string) (Bias, error) {
	switch s {
	case "", "forward", "fwd", "f":
		return Forward, nil
	case "backward", "bwd", "b":
		return Backward, nil
	default:
		return Forward, fmt.Errorf("unknown bias %q", s)
	}
}

// ErrStaleHandle indicates a handle whose slot was released or reused.
var ErrStaleHandle = errors.New("stale position handle")

// ID indexes a slot in the registry arena.
type ID uint32

// Handle identifies one incarnation of a slot.
// A handle whose generation no longer matches its slot is stale.
type Handle struct {
	ID  ID
	Gen uint32
}

// String returns a human-readable representation of the handle.
func (h Handle) String() string {
	return fmt.Sprintf("#%d.%d", h.ID, h.Gen)
}

// MarkUpdate remembers where a position sat before a removal collapsed it.
type MarkUpdate struct {
	Handle Handle
	Offset int
}

// Entry is a read-only view of a live slot.
type Entry struct {
	Handle    Handle
	Offset    int
	Bias      Bias
	Refs      int
	Displaced int
}
