// Package textbuf provides the raw character storage behind a document.
//
// Buffer is a gap buffer of runes. Edits splice at the gap, so a run of
// edits near the same offset costs O(edit) instead of O(document).
// Offsets and lengths are counted in characters (runes), not bytes.
//
// Buffer does no locking; the owning document serializes access.
package textbuf

import "unicode/utf8"

// MinGap is the slack added whenever the gap has to grow.
const MinGap = 64

// Buffer is a growable rune gap buffer.
type Buffer struct {
	data     []rune
	gapStart int
	gapEnd   int
}

// New creates an empty buffer with room for capacity characters.
func New(capacity int) *Buffer {
	if capacity < MinGap {
		capacity = MinGap
	}
	return &Buffer{
		data:   make([]rune, capacity),
		gapEnd: capacity,
	}
}

// NewFromString creates a buffer holding s.
func NewFromString(s string) *Buffer {
	rs := []rune(s)
	data := make([]rune, len(rs)+MinGap)
	copy(data, rs)
	return &Buffer{
		data:     data,
		gapStart: len(rs),
		gapEnd:   len(data),
	}
}

// Len returns the number of characters in the buffer.
func (b *Buffer) Len() int {
	return len(b.data) - b.gapLen()
}

// Cap returns the number of characters the buffer can hold without growing.
func (b *Buffer) Cap() int {
	return len(b.data)
}

func (b *Buffer) gapLen() int {
	return b.gapEnd - b.gapStart
}

// Insert inserts text at offset.
func (b *Buffer) Insert(offset int, text string) error {
	if offset < 0 || offset > b.Len() {
		return NewOutOfBounds("insert", offset, 0, b.Len())
	}
	if text == "" {
		return nil
	}
	n := utf8.RuneCountInString(text)
	b.moveGap(offset)
	b.ensureGap(n)
	for _, r := range text {
		b.data[b.gapStart] = r
		b.gapStart++
	}
	return nil
}

// InsertRunes inserts rs at offset.
func (b *Buffer) InsertRunes(offset int, rs []rune) error {
	if offset < 0 || offset > b.Len() {
		return NewOutOfBounds("insert", offset, 0, b.Len())
	}
	if len(rs) == 0 {
		return nil
	}
	b.moveGap(offset)
	b.ensureGap(len(rs))
	copy(b.data[b.gapStart:], rs)
	b.gapStart += len(rs)
	return nil
}

// Remove deletes length characters starting at offset.
func (b *Buffer) Remove(offset, length int) error {
	if err := b.checkRange("remove", offset, length); err != nil {
		return err
	}
	if length == 0 {
		return nil
	}
	b.moveGap(offset)
	b.gapEnd += length
	return nil
}

// String returns a copy of length characters starting at offset.
func (b *Buffer) String(offset, length int) (string, error) {
	rs, err := b.Chars(offset, length)
	if err != nil {
		return "", err
	}
	return string(rs), nil
}

// Chars returns a copy of length characters starting at offset.
func (b *Buffer) Chars(offset, length int) ([]rune, error) {
	if err := b.checkRange("read", offset, length); err != nil {
		return nil, err
	}
	out := make([]rune, length)
	b.copyOut(out, offset)
	return out, nil
}

// Text returns the whole content.
func (b *Buffer) Text() string {
	out := make([]rune, b.Len())
	b.copyOut(out, 0)
	return string(out)
}

// CharAt returns the character at offset.
func (b *Buffer) CharAt(offset int) (rune, error) {
	if offset < 0 || offset >= b.Len() {
		return 0, NewOutOfBounds("read", offset, 1, b.Len())
	}
	if offset < b.gapStart {
		return b.data[offset], nil
	}
	return b.data[offset+b.gapLen()], nil
}

func (b *Buffer) checkRange(op string, offset, length int) error {
	if offset < 0 || length < 0 || offset+length > b.Len() {
		return NewOutOfBounds(op, offset, length, b.Len())
	}
	return nil
}

// copyOut copies len(dst) characters starting at offset, skipping the gap.
func (b *Buffer) copyOut(dst []rune, offset int) {
	end := offset + len(dst)
	switch {
	case end <= b.gapStart:
		copy(dst, b.data[offset:end])
	case offset >= b.gapStart:
		copy(dst, b.data[offset+b.gapLen():end+b.gapLen()])
	default:
		n := copy(dst, b.data[offset:b.gapStart])
		copy(dst[n:], b.data[b.gapEnd:b.gapEnd+len(dst)-n])
	}
}

// moveGap moves the gap so that it starts at pos.
func (b *Buffer) moveGap(pos int) {
	if pos == b.gapStart {
		return
	}
	if pos < b.gapStart {
		delta := b.gapStart - pos
		copy(b.data[b.gapEnd-delta:b.gapEnd], b.data[pos:b.gapStart])
		b.gapStart -= delta
		b.gapEnd -= delta
		return
	}
	delta := pos - b.gapStart
	copy(b.data[b.gapStart:b.gapStart+delta], b.data[b.gapEnd:b.gapEnd+delta])
	b.gapStart += delta
	b.gapEnd += delta
}

// ensureGap grows the storage so the gap holds at least n characters.
// Growth adds n plus MinGap plus a quarter of the current size.
func (b *Buffer) ensureGap(n int) {
	if n <= b.gapLen() {
		return
	}
	extra := n + MinGap + len(b.data)/4
	tail := len(b.data) - b.gapEnd
	data := make([]rune, len(b.data)+extra)
	copy(data, b.data[:b.gapStart])
	newGapEnd := len(data) - tail
	copy(data[newGapEnd:], b.data[b.gapEnd:])
	b.data = data
	b.gapEnd = newGapEnd
}
