package content

import (
	"fmt"
	"io"
	"sync"
	"unicode/utf8"

	"github.com/charmbracelet/log"

	"github.com/dshills/doccontent/internal/content/history"
	"github.com/dshills/doccontent/internal/content/position"
	"github.com/dshills/doccontent/internal/content/textbuf"
)

// Re-export commonly used types for convenience.
type (
	// Bias decides how a position reacts to an insertion at its offset.
	Bias = position.Bias

	// PositionEntry is a read-only view of a live position slot.
	PositionEntry = position.Entry

	// OperationInfo describes an undo or redo history entry.
	OperationInfo = history.OperationInfo
)

// Re-export constants.
const (
	Forward  = position.Forward
	Backward = position.Backward
)

// Content is a text document with edit-surviving positions and undo/redo.
//
// All operations are safe for concurrent use. Mutations take an exclusive
// lock covering the buffer, the position registry and the history as one
// unit; reads share a read lock.
type Content struct {
	mu sync.RWMutex

	buf       *textbuf.Buffer
	reg       *position.Registry
	log       *history.Log
	positions map[position.ID]*Position

	logger *log.Logger

	lmu       sync.Mutex
	listeners map[int]Listener
	nextID    int

	// Configuration
	initText       string
	initialCap     int
	maxUndo        int
	sweepThreshold int
	shareDisplaced bool
}

// New creates a Content with the given options.
func New(opts ...Option) *Content {
	c := &Content{
		maxUndo:        DefaultMaxUndo,
		sweepThreshold: DefaultSweepThreshold,
		positions:      make(map[position.ID]*Position),
		listeners:      make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = log.New(io.Discard)
	}

	if c.initText != "" {
		c.buf = textbuf.NewFromString(c.initText)
	} else {
		c.buf = textbuf.New(c.initialCap)
	}
	c.initText = ""

	regOpts := []position.Option{
		position.WithSweepThreshold(c.sweepThreshold),
		position.WithSweepHook(func(n int) {
			c.logger.Debug("sweep", "reclaimed", n, "arena", c.reg.Arena())
		}),
	}
	if c.shareDisplaced {
		regOpts = append(regOpts, position.SharingIncludesDisplaced())
	}
	c.reg = position.NewRegistry(regOpts...)
	c.log = history.NewLog(target{c}, c.maxUndo)

	return c
}

// target exposes the raw primitives history replays against.
// Callers hold c.mu.
type target struct {
	c *Content
}

func (t target) InsertText(offset int, text string) error {
	if err := t.c.buf.Insert(offset, text); err != nil {
		return err
	}
	t.c.reg.OnInsert(offset, utf8.RuneCountInString(text))
	return nil
}

func (t target) RemoveText(offset, length int) ([]position.MarkUpdate, error) {
	if err := t.c.buf.Remove(offset, length); err != nil {
		return nil, err
	}
	return t.c.reg.OnRemove(offset, length), nil
}

func (t target) RestoreMarks(updates []position.MarkUpdate) {
	t.c.reg.Restore(updates)
}

func (t target) DropMarks(updates []position.MarkUpdate) {
	t.c.reg.Drop(updates)
}

// Insert inserts text at offset.
func (c *Content) Insert(offset int, text string) error {
	ev, err := c.insert(offset, text)
	if err != nil || ev == nil {
		return err
	}
	c.notify(*ev)
	return nil
}

func (c *Content) insert(offset int, text string) (*Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if offset < 0 || offset > c.buf.Len() {
		return nil, textbuf.NewOutOfBounds("insert", offset, 0, c.buf.Len())
	}
	if text == "" {
		return nil, nil
	}
	if err := (target{c}).InsertText(offset, text); err != nil {
		return nil, fmt.Errorf("insert at offset %d: %w", offset, err)
	}
	edit := history.NewInsert(offset, text)
	c.log.Push(edit)
	c.logger.Debug("insert", "offset", offset, "length", edit.Length(), "size", c.buf.Len())

	return &Event{Type: EventInsert, Offset: offset, Length: edit.Length(), Text: text}, nil
}

// Remove removes length characters starting at offset.
func (c *Content) Remove(offset, length int) error {
	ev, err := c.remove(offset, length)
	if err != nil || ev == nil {
		return err
	}
	c.notify(*ev)
	return nil
}

func (c *Content) remove(offset, length int) (*Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if offset < 0 || length < 0 || offset+length > c.buf.Len() {
		return nil, textbuf.NewOutOfBounds("remove", offset, length, c.buf.Len())
	}
	if length == 0 {
		return nil, nil
	}
	// Capture the doomed text before it disappears; undo needs it.
	text, err := c.buf.String(offset, length)
	if err != nil {
		return nil, fmt.Errorf("remove at offset %d: %w", offset, err)
	}
	marks, err := (target{c}).RemoveText(offset, length)
	if err != nil {
		return nil, fmt.Errorf("remove at offset %d: %w", offset, err)
	}
	c.log.Push(history.NewRemove(offset, text, marks))
	c.logger.Debug("remove", "offset", offset, "length", length, "marks", len(marks), "size", c.buf.Len())

	return &Event{Type: EventRemove, Offset: offset, Length: length, Text: text}, nil
}

// Undo reverts the most recent edit or edit group.
// It returns ErrCannotUndo when there is nothing to undo and ErrGroupOpen
// while an undo group is open.
func (c *Content) Undo() error {
	ev, err := c.replay(EventUndo)
	if err != nil {
		return err
	}
	c.notify(ev)
	return nil
}

// Redo re-applies the most recently undone edit or edit group.
// It returns ErrCannotRedo when there is nothing to redo and ErrGroupOpen
// while an undo group is open.
func (c *Content) Redo() error {
	ev, err := c.replay(EventRedo)
	if err != nil {
		return err
	}
	c.notify(ev)
	return nil
}

func (c *Content) replay(kind EventType) (Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.log.IsGrouping() {
		return Event{}, fmt.Errorf("%s: %w", kind, ErrGroupOpen)
	}

	var (
		cmd history.Command
		err error
	)
	if kind == EventUndo {
		if !c.log.CanUndo() {
			return Event{}, ErrCannotUndo
		}
		cmd, err = c.log.Undo()
	} else {
		if !c.log.CanRedo() {
			return Event{}, ErrCannotRedo
		}
		cmd, err = c.log.Redo()
	}
	if err != nil {
		invariant(kind.String(), err)
	}

	c.logger.Debug(kind.String(), "edit", cmd.Description(),
		"undo", c.log.UndoCount(), "redo", c.log.RedoCount(), "size", c.buf.Len())

	ev := Event{Type: kind, Description: cmd.Description()}
	if e, ok := cmd.(*history.Edit); ok {
		ev.Offset = e.Offset
		ev.Length = e.Length()
		ev.Text = e.Text
	}
	return ev, nil
}

// CreatePosition creates a forward-bias position at offset.
// A live position already at offset with the same bias is returned instead
// of a new one, unless a removal still in the history has collapsed it there
// and the document was built without WithSharingIncludesDisplaced.
func (c *Content) CreatePosition(offset int) (*Position, error) {
	return c.CreatePositionWithBias(offset, Forward)
}

// CreateBackwardBiasPosition creates a backward-bias position at offset.
func (c *Content) CreateBackwardBiasPosition(offset int) (*Position, error) {
	return c.CreatePositionWithBias(offset, Backward)
}

// CreatePositionWithBias creates a position at offset with the given bias.
func (c *Content) CreatePositionWithBias(offset int, bias Bias) (*Position, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	h, shared, err := c.reg.Create(offset, bias, c.buf.Len())
	if err != nil {
		return nil, err
	}
	if shared {
		if p, ok := c.positions[h.ID]; ok && p.h == h {
			return p, nil
		}
	}
	p := &Position{c: c, h: h}
	c.positions[h.ID] = p
	return p, nil
}

// ReleasePosition drops one reference to p. A position shared by several
// creators stays live until each of them has released it.
func (c *Content) ReleasePosition(p *Position) error {
	if p == nil || p.c != c {
		return ErrForeignPosition
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	left, err := c.reg.Release(p.h)
	if err != nil {
		return fmt.Errorf("release %s: %w", p.h, ErrReleased)
	}
	if left == 0 {
		if cur, ok := c.positions[p.h.ID]; ok && cur == p {
			delete(c.positions, p.h.ID)
		}
	}
	return nil
}

// Length returns the number of characters in the document.
func (c *Content) Length() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.buf.Len()
}

// Substring returns length characters starting at offset.
func (c *Content) Substring(offset, length int) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.buf.String(offset, length)
}

// Chars returns a copy of length characters starting at offset.
func (c *Content) Chars(offset, length int) ([]rune, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.buf.Chars(offset, length)
}

// Text returns the whole document.
func (c *Content) Text() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.buf.Text()
}

// CanUndo returns true if undo is available.
func (c *Content) CanUndo() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.log.CanUndo()
}

// CanRedo returns true if redo is available.
func (c *Content) CanRedo() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.log.CanRedo()
}

// UndoInfo returns the undo history, oldest first.
func (c *Content) UndoInfo() []OperationInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.log.UndoInfo()
}

// RedoInfo returns the redo history, oldest first.
func (c *Content) RedoInfo() []OperationInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.log.RedoInfo()
}

// BeginUndoGroup starts grouping edits into one undo unit.
func (c *Content) BeginUndoGroup(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.log.BeginGroup(name)
}

// EndUndoGroup closes the current undo group.
func (c *Content) EndUndoGroup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.log.EndGroup()
}

// CancelUndoGroup closes the current undo group without recording it.
// Edits made inside the group stay applied.
func (c *Content) CancelUndoGroup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.log.CancelGroup()
}

// Transaction runs fn with its edits grouped into one undo unit.
// The group is cancelled if fn returns an error.
//
// fn runs without the document lock held, so edits made by other goroutines
// while fn runs land in the same group. Use Transaction from a single writer.
func (c *Content) Transaction(name string, fn func() error) error {
	c.BeginUndoGroup(name)
	if err := fn(); err != nil {
		c.CancelUndoGroup()
		return err
	}
	c.EndUndoGroup()
	return nil
}

// LastEditSeq returns the sequence number of the newest recorded undo unit.
// Numbers start at 1 and are never reused, even after ClearHistory.
func (c *Content) LastEditSeq() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.log.LastSeq()
}

// MaxUndo returns the undo history limit.
func (c *Content) MaxUndo() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.log.MaxEntries()
}

// SetMaxUndo changes the undo history limit. The oldest entries beyond the
// new limit are discarded at once. A limit of zero or less selects
// DefaultMaxUndo.
func (c *Content) SetMaxUndo(max int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.log.SetMaxEntries(max)
	c.maxUndo = c.log.MaxEntries()
	c.logger.Debug("max undo", "limit", c.maxUndo, "undo", c.log.UndoCount())
}

// ClearHistory discards all undo and redo entries.
func (c *Content) ClearHistory() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.log.Clear()
}

// LivePositions returns the number of live position slots.
func (c *Content) LivePositions() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.reg.Live()
}

// Positions returns the live position slots ordered by slot ID.
func (c *Content) Positions() []PositionEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.reg.Entries()
}

// Stats is a point-in-time summary of a Content.
type Stats struct {
	Length           int
	Capacity         int
	LivePositions    int
	PendingPositions int
	Arena            int
	UndoCount        int
	RedoCount        int
}

// Stats returns a summary of the document state.
func (c *Content) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{
		Length:           c.buf.Len(),
		Capacity:         c.buf.Cap(),
		LivePositions:    c.reg.Live(),
		PendingPositions: c.reg.Pending(),
		Arena:            c.reg.Arena(),
		UndoCount:        c.log.UndoCount(),
		RedoCount:        c.log.RedoCount(),
	}
}
