package history

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/doccontent/internal/content/position"
	"github.com/dshills/doccontent/internal/content/textbuf"
)

// testTarget wires a real buffer and registry together without locking.
type testTarget struct {
	buf *textbuf.Buffer
	reg *position.Registry
}

func newTestTarget(text string) *testTarget {
	return &testTarget{
		buf: textbuf.NewFromString(text),
		reg: position.NewRegistry(),
	}
}

func (t *testTarget) InsertText(offset int, text string) error {
	if err := t.buf.Insert(offset, text); err != nil {
		return err
	}
	t.reg.OnInsert(offset, len([]rune(text)))
	return nil
}

func (t *testTarget) RemoveText(offset, length int) ([]position.MarkUpdate, error) {
	if err := t.buf.Remove(offset, length); err != nil {
		return nil, err
	}
	return t.reg.OnRemove(offset, length), nil
}

func (t *testTarget) RestoreMarks(updates []position.MarkUpdate) { t.reg.Restore(updates) }
func (t *testTarget) DropMarks(updates []position.MarkUpdate)    { t.reg.Drop(updates) }

// insert applies and records an insertion.
func (t *testTarget) insert(l *Log, offset int, text string) {
	if err := t.InsertText(offset, text); err != nil {
		panic(err)
	}
	l.Push(NewInsert(offset, text))
}

// remove applies and records a removal.
func (t *testTarget) remove(l *Log, offset, length int) {
	text, err := t.buf.String(offset, length)
	if err != nil {
		panic(err)
	}
	marks, err := t.RemoveText(offset, length)
	if err != nil {
		panic(err)
	}
	l.Push(NewRemove(offset, text, marks))
}

func (t *testTarget) pos(tb testing.TB, offset int, bias position.Bias) position.Handle {
	tb.Helper()
	h, _, err := t.reg.Create(offset, bias, t.buf.Len())
	require.NoError(tb, err)
	return h
}

func (t *testTarget) offset(tb testing.TB, h position.Handle) int {
	tb.Helper()
	off, ok := t.reg.Offset(h)
	require.True(tb, ok)
	return off
}

func TestKindAndStateStrings(t *testing.T) {
	assert.Equal(t, "insert", Insert.String())
	assert.Equal(t, "remove", Remove.String())
	assert.Equal(t, "applied", Applied.String())
	assert.Equal(t, "undone", Undone.String())
	assert.Equal(t, "dead", Dead.String())
}

func TestEditString(t *testing.T) {
	assert.Equal(t, `insert(3,"abc")`, NewInsert(3, "abc").String())
	e := NewRemove(1, "čau", nil)
	assert.Equal(t, 3, e.Length())
	assert.Equal(t, "Remove", e.Description())
}

func TestUndoRedoInsert(t *testing.T) {
	tt := newTestTarget("ahoj")
	l := NewLog(tt, 0)

	tt.insert(l, 2, "XY")
	require.Equal(t, "ahXYoj", tt.buf.Text())

	cmd, err := l.Undo()
	require.NoError(t, err)
	assert.Equal(t, Undone, cmd.State())
	assert.Equal(t, "ahoj", tt.buf.Text())

	cmd, err = l.Redo()
	require.NoError(t, err)
	assert.Equal(t, Applied, cmd.State())
	assert.Equal(t, "ahXYoj", tt.buf.Text())
}

func TestUndoRemoveRestoresInteriorPositions(t *testing.T) {
	tt := newTestTarget("hello world")
	l := NewLog(tt, 0)

	b := tt.pos(t, 3, position.Backward)
	f := tt.pos(t, 3, position.Forward)
	end := tt.pos(t, 4, position.Backward)

	tt.remove(l, 2, 2)
	assert.Equal(t, "heo world", tt.buf.Text())
	assert.Equal(t, 2, tt.offset(t, b))
	assert.Equal(t, 2, tt.offset(t, f))
	assert.Equal(t, 2, tt.offset(t, end))

	_, err := l.Undo()
	require.NoError(t, err)
	assert.Equal(t, "hello world", tt.buf.Text())
	assert.Equal(t, 3, tt.offset(t, b))
	assert.Equal(t, 3, tt.offset(t, f))
	assert.Equal(t, 4, tt.offset(t, end), "backward position at span end is restored")

	_, err = l.Redo()
	require.NoError(t, err)
	assert.Equal(t, 2, tt.offset(t, b), "redo collapses like a fresh removal")
	assert.Equal(t, 2, tt.offset(t, end))
}

func TestRedoInsertRestoresPositionsInsideSpan(t *testing.T) {
	tt := newTestTarget("ahoj")
	l := NewLog(tt, 0)

	tt.insert(l, 2, "nazdar")
	inside := tt.pos(t, 5, position.Backward)

	_, err := l.Undo()
	require.NoError(t, err)
	assert.Equal(t, 2, tt.offset(t, inside))

	_, err = l.Redo()
	require.NoError(t, err)
	assert.Equal(t, 5, tt.offset(t, inside))
}

func TestUndoExhaustion(t *testing.T) {
	tt := newTestTarget("")
	l := NewLog(tt, 0)
	for i := 0; i < 3; i++ {
		tt.insert(l, 0, "x")
	}

	for i := 0; i < 3; i++ {
		_, err := l.Undo()
		require.NoError(t, err, "undo %d", i+1)
	}
	_, err := l.Undo()
	require.ErrorIs(t, err, ErrCannotUndo)
	assert.Equal(t, "", tt.buf.Text())

	for i := 0; i < 3; i++ {
		_, err := l.Redo()
		require.NoError(t, err)
	}
	_, err = l.Redo()
	require.ErrorIs(t, err, ErrCannotRedo)
	assert.Equal(t, "xxx", tt.buf.Text())
}

func TestPushDiscardsRedoTail(t *testing.T) {
	tt := newTestTarget("abcdef")
	l := NewLog(tt, 0)

	tt.remove(l, 1, 2)
	undone, err := l.Undo()
	require.NoError(t, err)

	tt.insert(l, 0, "z")
	assert.False(t, l.CanRedo())
	assert.Equal(t, Dead, undone.State())
	assert.Equal(t, "", undone.(*Edit).Text)
}

func TestDeadUndoneInsertReleasesDisplacement(t *testing.T) {
	tt := newTestTarget("ahoj")
	l := NewLog(tt, 0)

	tt.insert(l, 1, "xyz")
	p := tt.pos(t, 2, position.Forward)
	_, err := l.Undo()
	require.NoError(t, err)
	assert.Equal(t, 1, tt.reg.Entries()[0].Displaced)

	tt.insert(l, 4, "!")
	assert.Equal(t, 0, tt.reg.Entries()[0].Displaced)
	assert.Equal(t, 1, tt.offset(t, p))
}

func TestMaxEntriesTrimsOldest(t *testing.T) {
	tt := newTestTarget("0123456789")
	l := NewLog(tt, 2)

	p := tt.pos(t, 1, position.Forward)
	tt.remove(l, 0, 2)
	_, err := l.Undo()
	require.NoError(t, err)
	first, err := l.Redo()
	require.NoError(t, err)
	tt.insert(l, 0, "a")
	tt.insert(l, 0, "b")

	assert.Equal(t, 2, l.UndoCount())
	assert.Equal(t, Dead, first.State())
	for _, e := range tt.reg.Entries() {
		assert.Equal(t, 0, e.Displaced)
	}
	assert.Equal(t, 0, tt.offset(t, p))

	l.SetMaxEntries(1)
	assert.Equal(t, 1, l.UndoCount())
	assert.Equal(t, 1, l.MaxEntries())
}

func TestGroupUndoesAsOneUnit(t *testing.T) {
	tt := newTestTarget("hello")
	l := NewLog(tt, 0)

	l.BeginGroup("wrap")
	assert.True(t, l.IsGrouping())
	tt.insert(l, 0, "<")
	tt.insert(l, 6, ">")
	tt.remove(l, 1, 1)
	l.EndGroup()

	assert.Equal(t, "<ello>", tt.buf.Text())
	assert.Equal(t, 1, l.UndoCount())
	info := l.UndoInfo()
	require.Len(t, info, 1)
	assert.Equal(t, "wrap", info[0].Description)

	_, err := l.Undo()
	require.NoError(t, err)
	assert.Equal(t, "hello", tt.buf.Text())

	_, err = l.Redo()
	require.NoError(t, err)
	assert.Equal(t, "<ello>", tt.buf.Text())
}

func TestSingleCommandGroupIsNotWrapped(t *testing.T) {
	tt := newTestTarget("")
	l := NewLog(tt, 0)
	l.BeginGroup("one")
	tt.insert(l, 0, "x")
	l.EndGroup()

	cmd, err := l.Undo()
	require.NoError(t, err)
	_, isEdit := cmd.(*Edit)
	assert.True(t, isEdit)
}

func TestUndoRefusedInsideGroup(t *testing.T) {
	tt := newTestTarget("")
	l := NewLog(tt, 0)
	tt.insert(l, 0, "a")
	_, err := l.Undo()
	require.NoError(t, err)
	_, err = l.Redo()
	require.NoError(t, err)

	l.BeginGroup("g")
	tt.insert(l, 1, "b")
	_, err = l.Undo()
	require.ErrorIs(t, err, ErrGroupOpen)
	_, err = l.Redo()
	require.ErrorIs(t, err, ErrGroupOpen)
	assert.Equal(t, "ab", tt.buf.Text())

	l.EndGroup()
	assert.Equal(t, 2, l.UndoCount())
	for range 2 {
		_, err = l.Undo()
		require.NoError(t, err)
	}
	assert.Equal(t, "", tt.buf.Text())
}

func TestTransaction(t *testing.T) {
	tt := newTestTarget("abc")
	l := NewLog(tt, 0)

	err := l.Transaction("ok", func() error {
		tt.insert(l, 3, "d")
		tt.insert(l, 4, "e")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, l.UndoCount())

	boom := errors.New("boom")
	err = l.Transaction("fails", func() error {
		tt.insert(l, 0, "z")
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, l.UndoCount())
	assert.Equal(t, "zabcde", tt.buf.Text(), "cancelled group keeps its effect")
	assert.False(t, l.IsGrouping())
}

func TestUndoWrongState(t *testing.T) {
	tt := newTestTarget("abc")
	e := NewInsert(0, "x")
	require.NoError(t, tt.InsertText(0, "x"))
	require.NoError(t, e.Undo(tt))
	require.ErrorIs(t, e.Undo(tt), ErrInvalidState)
	require.NoError(t, e.Redo(tt))
	require.ErrorIs(t, e.Redo(tt), ErrInvalidState)
}

func TestClear(t *testing.T) {
	tt := newTestTarget("abc")
	l := NewLog(tt, 0)
	tt.insert(l, 0, "x")
	tt.remove(l, 0, 2)
	_, err := l.Undo()
	require.NoError(t, err)

	l.Clear()
	assert.False(t, l.CanUndo())
	assert.False(t, l.CanRedo())
	assert.Equal(t, uint64(2), l.LastSeq())
}
