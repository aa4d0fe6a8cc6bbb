package content

import (
	"errors"
	"fmt"

	"github.com/dshills/doccontent/internal/content/history"
	"github.com/dshills/doccontent/internal/content/textbuf"
)

// OutOfBoundsError describes a rejected offset/length pair.
type OutOfBoundsError = textbuf.OutOfBoundsError

// Errors returned by content operations.
var (
	// ErrOutOfBounds indicates an offset or length outside the document.
	ErrOutOfBounds = textbuf.ErrOutOfBounds

	// ErrCannotUndo indicates the undo history is empty.
	ErrCannotUndo = history.ErrCannotUndo

	// ErrCannotRedo indicates the redo history is empty.
	ErrCannotRedo = history.ErrCannotRedo

	// ErrGroupOpen indicates undo or redo was requested inside an undo group.
	ErrGroupOpen = history.ErrGroupOpen

	// ErrReleased indicates an operation on a released position.
	ErrReleased = errors.New("position released")

	// ErrForeignPosition indicates a position created by another document.
	ErrForeignPosition = errors.New("position belongs to another document")
)

// invariant reports a failed replay. The history only replays offsets it
// recorded itself, so a failure means the document is corrupt.
func invariant(op string, err error) {
	panic(fmt.Sprintf("content: %s broke an invariant: %v", op, err))
}
