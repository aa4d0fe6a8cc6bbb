package history

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/dshills/doccontent/internal/content/position"
)

// Kind is the direction of an edit.
type Kind uint8

const (
	Insert Kind = iota // text was inserted
	Remove             // text was removed
)

// String returns a string representation of the kind.
func (k Kind) String() string {
	switch k {
	case Insert:
		return "insert"
	case Remove:
		return "remove"
	default:
		return "unknown"
	}
}

// State is the lifecycle state of an edit.
type State uint8

const (
	Applied State = iota
	Undone
	Dead
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case Applied:
		return "applied"
	case Undone:
		return "undone"
	case Dead:
		return "dead"
	default:
		return "unknown"
	}
}

// Target is what an edit replays itself against.
type Target interface {
	// InsertText inserts text and shifts positions.
	InsertText(offset int, text string) error

	// RemoveText removes length characters, collapsing positions inside the
	// span, and returns their former offsets.
	RemoveText(offset, length int) ([]position.MarkUpdate, error)

	// RestoreMarks moves positions back to recorded offsets.
	RestoreMarks(updates []position.MarkUpdate)

	// DropMarks forgets recorded offsets without moving anything.
	DropMarks(updates []position.MarkUpdate)
}

// Command is an undoable unit held by the Log.
type Command interface {
	Undo(t Target) error
	Redo(t Target) error

	// Kill releases everything the command retains. It is called once,
	// when the command leaves the history.
	Kill(t Target)

	State() State
	Description() string
}

// Edit is one atomic insert or remove.
type Edit struct {
	Kind      Kind
	Offset    int
	Text      string
	Timestamp time.Time

	length int
	marks  []position.MarkUpdate
	state  State
}

// NewInsert records an applied insertion of text at offset.
func NewInsert(offset int, text string) *Edit {
	return &Edit{
		Kind:      Insert,
		Offset:    offset,
		Text:      text,
		Timestamp: time.Now(),
		length:    utf8.RuneCountInString(text),
	}
}

// NewRemove records an applied removal of text at offset together with the
// mark updates the removal produced.
func NewRemove(offset int, text string, marks []position.MarkUpdate) *Edit {
	return &Edit{
		Kind:      Remove,
		Offset:    offset,
		Text:      text,
		Timestamp: time.Now(),
		length:    utf8.RuneCountInString(text),
		marks:     marks,
	}
}

// Length returns the number of characters the edit inserted or removed.
func (e *Edit) Length() int {
	return e.length
}

// State returns the lifecycle state.
func (e *Edit) State() State {
	return e.state
}

// Undo inverts the edit.
func (e *Edit) Undo(t Target) error {
	if e.state != Applied {
		return fmt.Errorf("undo %s: %w (%s)", e, ErrInvalidState, e.state)
	}
	switch e.Kind {
	case Insert:
		marks, err := t.RemoveText(e.Offset, e.length)
		if err != nil {
			return fmt.Errorf("undo %s: %w", e, err)
		}
		e.marks = marks
	case Remove:
		if err := t.InsertText(e.Offset, e.Text); err != nil {
			return fmt.Errorf("undo %s: %w", e, err)
		}
		t.RestoreMarks(e.marks)
		e.marks = nil
	}
	e.state = Undone
	return nil
}

// Redo applies the edit again in its original direction.
func (e *Edit) Redo(t Target) error {
	if e.state != Undone {
		return fmt.Errorf("redo %s: %w (%s)", e, ErrInvalidState, e.state)
	}
	switch e.Kind {
	case Insert:
		if err := t.InsertText(e.Offset, e.Text); err != nil {
			return fmt.Errorf("redo %s: %w", e, err)
		}
		t.RestoreMarks(e.marks)
		e.marks = nil
	case Remove:
		marks, err := t.RemoveText(e.Offset, e.length)
		if err != nil {
			return fmt.Errorf("redo %s: %w", e, err)
		}
		e.marks = marks
	}
	e.state = Applied
	return nil
}

// Kill drops the edit's text and mark updates.
func (e *Edit) Kill(t Target) {
	if e.state == Dead {
		return
	}
	t.DropMarks(e.marks)
	e.marks = nil
	e.Text = ""
	e.state = Dead
}

// Description returns a human-readable description.
func (e *Edit) Description() string {
	if e.Kind == Insert {
		return "Insert"
	}
	return "Remove"
}

// String returns a compact representation such as insert(3,"abc").
func (e *Edit) String() string {
	return fmt.Sprintf("%s(%d,%q)", e.Kind, e.Offset, e.Text)
}

// Compound groups commands into a single undo unit.
type Compound struct {
	Name     string
	Commands []Command

	state State
}

// Undo undoes the commands in reverse order.
func (c *Compound) Undo(t Target) error {
	for i := len(c.Commands) - 1; i >= 0; i-- {
		if err := c.Commands[i].Undo(t); err != nil {
			return fmt.Errorf("undo group %q: %w", c.Name, err)
		}
	}
	c.state = Undone
	return nil
}

// Redo redoes the commands in order.
func (c *Compound) Redo(t Target) error {
	for _, cmd := range c.Commands {
		if err := cmd.Redo(t); err != nil {
			return fmt.Errorf("redo group %q: %w", c.Name, err)
		}
	}
	c.state = Applied
	return nil
}

// Kill kills every command in the group.
func (c *Compound) Kill(t Target) {
	for _, cmd := range c.Commands {
		cmd.Kill(t)
	}
	c.state = Dead
}

// State returns the lifecycle state.
func (c *Compound) State() State {
	return c.state
}

// Description returns the group name.
func (c *Compound) Description() string {
	if c.Name == "" {
		return "Group"
	}
	return c.Name
}
