// Package mirror checks a content.Content against an independent model.
//
// Expected is a deliberately naive document: a rune slice, a flat list of
// position records and an undo list, with every rule applied by linear
// scan. It shares nothing with the real implementation beyond the bias type
// and error values, so agreement between the two is meaningful.
//
// The model does not share positions. When the real document hands out a
// position that a pending removal has collapsed, the model cannot predict
// where undo will move it, so the new record is flagged MayDiffer and
// skipped by comparisons until the removals holding the shared position
// are gone. The record then takes the shared position's offset and is
// compared again.
package mirror

import (
	"fmt"

	"github.com/dshills/doccontent/internal/content"
	"github.com/dshills/doccontent/internal/content/position"
)

// Record is one expected position.
type Record struct {
	Offset   int
	Bias     position.Bias
	Released bool

	// MayDiffer marks a record whose real counterpart may legitimately sit
	// elsewhere. Bound is the sequence number of the newest edit holding the
	// shared position. It matches the real document's LastEditSeq numbering.
	MayDiffer bool
	Bound     uint64

	alias *Record
	held  map[*edit]struct{}
}

// Displaced reports whether an edit in the history holds a mark update for r.
func (r *Record) Displaced() bool {
	return len(r.held) > 0
}

func (r *Record) root() *Record {
	for r.alias != nil {
		r = r.alias
	}
	return r
}

type mark struct {
	rec    *Record
	offset int
}

type edit struct {
	seq    uint64
	insert bool
	offset int
	text   []rune
	marks  []mark
}

// Expected is the reference model.
type Expected struct {
	text    []rune
	records []*Record
	undo    []*edit
	redo    []*edit
	seq     uint64
	maxUndo int
}

// NewExpected creates a model holding text. maxUndo must match the real
// document's history limit; zero means content.DefaultMaxUndo.
func NewExpected(text string, maxUndo int) *Expected {
	if maxUndo <= 0 {
		maxUndo = content.DefaultMaxUndo
	}
	return &Expected{text: []rune(text), maxUndo: maxUndo}
}

// Text returns the expected document text.
func (x *Expected) Text() string {
	return string(x.text)
}

// Length returns the expected document length.
func (x *Expected) Length() int {
	return len(x.text)
}

// Records returns every record ever created, released ones included.
func (x *Expected) Records() []*Record {
	return x.records
}

// Seq returns the sequence number of the newest recorded edit.
func (x *Expected) Seq() uint64 { return x.seq }

// CanUndo reports whether the model has something to undo.
func (x *Expected) CanUndo() bool { return len(x.undo) > 0 }

// CanRedo reports whether the model has something to redo.
func (x *Expected) CanRedo() bool { return len(x.redo) > 0 }

// Insert inserts text at offset.
func (x *Expected) Insert(offset int, text string) error {
	if offset < 0 || offset > len(x.text) {
		return fmt.Errorf("expected insert at %d: %w", offset, content.ErrOutOfBounds)
	}
	if text == "" {
		return nil
	}
	e := &edit{insert: true, offset: offset, text: []rune(text)}
	x.insertRaw(offset, e.text)
	x.push(e)
	return nil
}

// Remove removes length characters at offset.
func (x *Expected) Remove(offset, length int) error {
	if offset < 0 || length < 0 || offset+length > len(x.text) {
		return fmt.Errorf("expected remove [%d,+%d): %w", offset, length, content.ErrOutOfBounds)
	}
	if length == 0 {
		return nil
	}
	e := &edit{offset: offset, text: append([]rune(nil), x.text[offset:offset+length]...)}
	x.removeRaw(e)
	x.push(e)
	return nil
}

// Undo reverts the newest edit.
func (x *Expected) Undo() error {
	if len(x.undo) == 0 {
		return content.ErrCannotUndo
	}
	e := x.undo[len(x.undo)-1]
	x.undo = x.undo[:len(x.undo)-1]
	if e.insert {
		x.removeRaw(e)
	} else {
		x.insertRaw(e.offset, e.text)
		x.restore(e)
	}
	x.redo = append(x.redo, e)
	x.settle()
	return nil
}

// Redo re-applies the newest undone edit.
func (x *Expected) Redo() error {
	if len(x.redo) == 0 {
		return content.ErrCannotRedo
	}
	e := x.redo[len(x.redo)-1]
	x.redo = x.redo[:len(x.redo)-1]
	if e.insert {
		x.insertRaw(e.offset, e.text)
		x.restore(e)
	} else {
		x.removeRaw(e)
	}
	x.undo = append(x.undo, e)
	x.settle()
	return nil
}

// CreatePosition adds an independent record at offset.
func (x *Expected) CreatePosition(offset int, bias position.Bias) (*Record, error) {
	if offset < 0 || offset > len(x.text) {
		return nil, fmt.Errorf("expected position at %d: %w", offset, content.ErrOutOfBounds)
	}
	r := &Record{Offset: offset, Bias: bias, held: make(map[*edit]struct{})}
	x.records = append(x.records, r)
	return r, nil
}

// Alias tells the model that the real document returned the same position
// for r as for other. If other is displaced, r is flagged MayDiffer.
// It reports whether r was flagged.
func (x *Expected) Alias(r, other *Record) bool {
	root := other.root()
	if root == r {
		return false
	}
	r.alias = root
	if !root.Displaced() {
		return false
	}
	r.MayDiffer = true
	for e := range root.held {
		if e.seq > r.Bound {
			r.Bound = e.seq
		}
	}
	return true
}

// Release marks r released. Released records keep following edits so that
// aliases of them stay correct, but they are no longer compared.
func (x *Expected) Release(r *Record) {
	r.Released = true
}

// SetMaxUndo changes the history limit and discards the oldest edits beyond
// it. Zero or less means content.DefaultMaxUndo.
func (x *Expected) SetMaxUndo(max int) {
	if max <= 0 {
		max = content.DefaultMaxUndo
	}
	x.maxUndo = max
	x.trim()
	x.settle()
}

func (x *Expected) push(e *edit) {
	x.seq++
	e.seq = x.seq
	for _, dead := range x.redo {
		x.drop(dead)
	}
	x.redo = nil
	x.undo = append(x.undo, e)
	x.trim()
	x.settle()
}

func (x *Expected) trim() {
	if excess := len(x.undo) - x.maxUndo; excess > 0 {
		for _, dead := range x.undo[:excess] {
			x.drop(dead)
		}
		x.undo = append([]*edit(nil), x.undo[excess:]...)
	}
}

func (x *Expected) insertRaw(offset int, rs []rune) {
	text := make([]rune, 0, len(x.text)+len(rs))
	text = append(text, x.text[:offset]...)
	text = append(text, rs...)
	text = append(text, x.text[offset:]...)
	x.text = text

	n := len(rs)
	for _, r := range x.records {
		if r.Bias == position.Backward {
			if r.Offset > offset {
				r.Offset += n
			}
			continue
		}
		if r.Offset > 0 && r.Offset >= offset {
			r.Offset += n
		}
	}
}

// removeRaw removes the span of e and records the collapsed positions on e.
func (x *Expected) removeRaw(e *edit) {
	n := len(e.text)
	end := e.offset + n
	x.text = append(x.text[:e.offset:e.offset], x.text[end:]...)

	e.marks = nil
	for _, r := range x.records {
		switch {
		case r.Offset > end:
			r.Offset -= n
		case r.Offset >= e.offset:
			e.marks = append(e.marks, mark{rec: r, offset: r.Offset})
			r.Offset = e.offset
			r.held[e] = struct{}{}
		}
	}
}

func (x *Expected) restore(e *edit) {
	for _, m := range e.marks {
		m.rec.Offset = m.offset
		delete(m.rec.held, e)
	}
	e.marks = nil
}

func (x *Expected) drop(e *edit) {
	for _, m := range e.marks {
		delete(m.rec.held, e)
	}
	e.marks = nil
	e.text = nil
}

// settle clears MayDiffer on records whose holders match their alias root:
// from then on both see the same edits, so the record adopts the root's
// offset and is compared again.
func (x *Expected) settle() {
	for _, r := range x.records {
		if !r.MayDiffer {
			continue
		}
		root := r.root()
		if !sameHolders(r, root) {
			continue
		}
		r.Offset = root.Offset
		r.MayDiffer = false
		r.Bound = 0
	}
}

func sameHolders(a, b *Record) bool {
	if len(a.held) != len(b.held) {
		return false
	}
	for e := range a.held {
		if _, ok := b.held[e]; !ok {
			return false
		}
	}
	return true
}
