package history

import (
	"errors"
	"time"
)

// DefaultMaxEntries bounds the undo stack when no limit is given.
const DefaultMaxEntries = 1000

// Errors returned by history operations.
var (
	ErrCannotUndo   = errors.New("cannot undo")
	ErrCannotRedo   = errors.New("cannot redo")
	ErrInvalidState = errors.New("edit is not in a replayable state")
	ErrGroupOpen    = errors.New("undo group is open")
)

// entry wraps a command with metadata.
type entry struct {
	command   Command
	seq       uint64
	timestamp time.Time
}

// OperationInfo provides read-only info about a history entry.
type OperationInfo struct {
	Description string
	Seq         uint64
	Timestamp   time.Time
}

// Log manages the undo and redo stacks of one document.
type Log struct {
	target Target

	undoStack []*entry
	redoStack []*entry
	seq       uint64

	// Grouping state
	grouping  bool
	groupName string
	groupCmds []Command

	maxEntries int
}

// NewLog creates a log replaying against t.
func NewLog(t Target, maxEntries int) *Log {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Log{
		target:     t,
		maxEntries: maxEntries,
	}
}

// Push records an already applied command. The redo tail dies.
func (l *Log) Push(cmd Command) {
	if l.grouping {
		l.groupCmds = append(l.groupCmds, cmd)
		l.killRedo()
		return
	}
	l.push(cmd)
}

func (l *Log) push(cmd Command) {
	l.seq++
	l.undoStack = append(l.undoStack, &entry{
		command:   cmd,
		seq:       l.seq,
		timestamp: time.Now(),
	})
	l.killRedo()
	l.trim()
}

func (l *Log) killRedo() {
	for _, e := range l.redoStack {
		e.command.Kill(l.target)
	}
	l.redoStack = nil
}

// trim kills the oldest entries beyond maxEntries.
func (l *Log) trim() {
	if len(l.undoStack) <= l.maxEntries {
		return
	}
	excess := len(l.undoStack) - l.maxEntries
	for _, e := range l.undoStack[:excess] {
		e.command.Kill(l.target)
	}
	l.undoStack = append([]*entry(nil), l.undoStack[excess:]...)
}

// Undo undoes the most recent command and returns it.
// On failure the command stays on the undo stack. Undo is refused while a
// group is open: the group's commands are not on the stack yet.
func (l *Log) Undo() (Command, error) {
	if l.grouping {
		return nil, ErrGroupOpen
	}
	if len(l.undoStack) == 0 {
		return nil, ErrCannotUndo
	}
	e := l.undoStack[len(l.undoStack)-1]
	if err := e.command.Undo(l.target); err != nil {
		return nil, err
	}
	l.undoStack = l.undoStack[:len(l.undoStack)-1]
	l.redoStack = append(l.redoStack, e)
	return e.command, nil
}

// Redo redoes the most recently undone command and returns it.
func (l *Log) Redo() (Command, error) {
	if l.grouping {
		return nil, ErrGroupOpen
	}
	if len(l.redoStack) == 0 {
		return nil, ErrCannotRedo
	}
	e := l.redoStack[len(l.redoStack)-1]
	if err := e.command.Redo(l.target); err != nil {
		return nil, err
	}
	l.redoStack = l.redoStack[:len(l.redoStack)-1]
	l.undoStack = append(l.undoStack, e)
	return e.command, nil
}

// CanUndo returns true if undo is available.
func (l *Log) CanUndo() bool {
	return len(l.undoStack) > 0
}

// CanRedo returns true if redo is available.
func (l *Log) CanRedo() bool {
	return len(l.redoStack) > 0
}

// UndoCount returns the number of undo operations available.
func (l *Log) UndoCount() int {
	return len(l.undoStack)
}

// RedoCount returns the number of redo operations available.
func (l *Log) RedoCount() int {
	return len(l.redoStack)
}

// BeginGroup starts a command group. Nested calls are ignored.
func (l *Log) BeginGroup(name string) {
	if l.grouping {
		return
	}
	l.grouping = true
	l.groupName = name
	l.groupCmds = nil
}

// EndGroup closes the group and pushes it as one undo unit.
// A group holding a single command is pushed as that command.
func (l *Log) EndGroup() {
	if !l.grouping {
		return
	}
	l.grouping = false
	cmds := l.groupCmds
	l.groupCmds = nil

	switch len(cmds) {
	case 0:
		return
	case 1:
		l.push(cmds[0])
	default:
		l.push(&Compound{Name: l.groupName, Commands: cmds})
	}
}

// CancelGroup ends the group without recording it.
// Commands already applied still affect the document.
func (l *Log) CancelGroup() {
	for _, cmd := range l.groupCmds {
		cmd.Kill(l.target)
	}
	l.grouping = false
	l.groupCmds = nil
}

// IsGrouping returns true if currently in a command group.
func (l *Log) IsGrouping() bool {
	return l.grouping
}

// Transaction runs fn inside a group. The group is cancelled if fn fails.
func (l *Log) Transaction(name string, fn func() error) error {
	l.BeginGroup(name)
	if err := fn(); err != nil {
		l.CancelGroup()
		return err
	}
	l.EndGroup()
	return nil
}

// Clear kills every entry.
func (l *Log) Clear() {
	for _, e := range l.undoStack {
		e.command.Kill(l.target)
	}
	l.undoStack = nil
	l.killRedo()
	l.CancelGroup()
}

// LastSeq returns the sequence number of the newest pushed entry.
func (l *Log) LastSeq() uint64 {
	return l.seq
}

// UndoInfo returns info about available undo operations, oldest first.
func (l *Log) UndoInfo() []OperationInfo {
	return infos(l.undoStack)
}

// RedoInfo returns info about available redo operations, oldest first.
func (l *Log) RedoInfo() []OperationInfo {
	return infos(l.redoStack)
}

func infos(stack []*entry) []OperationInfo {
	result := make([]OperationInfo, len(stack))
	for i, e := range stack {
		result[i] = OperationInfo{
			Description: e.command.Description(),
			Seq:         e.seq,
			Timestamp:   e.timestamp,
		}
	}
	return result
}

// SetMaxEntries changes the maximum number of undo entries.
func (l *Log) SetMaxEntries(max int) {
	if max <= 0 {
		max = DefaultMaxEntries
	}
	l.maxEntries = max
	l.trim()
}

// MaxEntries returns the maximum number of undo entries.
func (l *Log) MaxEntries() int {
	return l.maxEntries
}
