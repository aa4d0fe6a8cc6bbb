package textbuf

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromString(t *testing.T) {
	b := NewFromString("ahoj")
	assert.Equal(t, 4, b.Len())
	assert.Equal(t, "ahoj", b.Text())
	assert.GreaterOrEqual(t, b.Cap(), b.Len())
}

func TestInsert(t *testing.T) {
	tests := []struct {
		name   string
		start  string
		offset int
		text   string
		want   string
	}{
		{"into empty", "", 0, "hello", "hello"},
		{"at start", "world", 0, "hello ", "hello world"},
		{"at end", "hello", 5, " world", "hello world"},
		{"in middle", "helld", 3, "lo wor", "hello world"},
		{"empty text", "abc", 1, "", "abc"},
		{"multibyte", "ač", 1, "hoj", "ahojč"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewFromString(tt.start)
			require.NoError(t, b.Insert(tt.offset, tt.text))
			assert.Equal(t, tt.want, b.Text())
			assert.Equal(t, len([]rune(tt.want)), b.Len())
		})
	}
}

func TestInsertOutOfBounds(t *testing.T) {
	b := NewFromString("ahoj")

	err := b.Insert(5, "x")
	require.ErrorIs(t, err, ErrOutOfBounds)

	var oob *OutOfBoundsError
	require.ErrorAs(t, err, &oob)
	assert.Equal(t, "insert", oob.Op)
	assert.Equal(t, 5, oob.Offset)
	assert.Equal(t, 4, oob.Size)

	require.ErrorIs(t, b.Insert(-1, "x"), ErrOutOfBounds)
	assert.Equal(t, "ahoj", b.Text())
}

func TestRemove(t *testing.T) {
	tests := []struct {
		name   string
		start  string
		offset int
		length int
		want   string
	}{
		{"prefix", "hello world", 0, 6, "world"},
		{"suffix", "hello world", 5, 6, "hello"},
		{"middle", "hello world", 2, 2, "heo world"},
		{"everything", "hello", 0, 5, ""},
		{"zero length", "hello", 2, 0, "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewFromString(tt.start)
			require.NoError(t, b.Remove(tt.offset, tt.length))
			assert.Equal(t, tt.want, b.Text())
		})
	}
}

func TestRemoveOutOfBounds(t *testing.T) {
	b := NewFromString("ahoj")
	require.ErrorIs(t, b.Remove(0, 5), ErrOutOfBounds)
	require.ErrorIs(t, b.Remove(3, 2), ErrOutOfBounds)
	require.ErrorIs(t, b.Remove(-1, 1), ErrOutOfBounds)
	require.ErrorIs(t, b.Remove(1, -1), ErrOutOfBounds)
	assert.Equal(t, "ahoj", b.Text())
}

func TestStringAcrossGap(t *testing.T) {
	b := NewFromString("hello world")
	// Park the gap in the middle of the text.
	require.NoError(t, b.Insert(5, ","))

	s, err := b.String(3, 5)
	require.NoError(t, err)
	assert.Equal(t, "lo, w", s)

	s, err = b.String(0, 3)
	require.NoError(t, err)
	assert.Equal(t, "hel", s)

	s, err = b.String(7, 5)
	require.NoError(t, err)
	assert.Equal(t, "world", s)

	_, err = b.String(10, 3)
	require.ErrorIs(t, err, ErrOutOfBounds)
}

func TestChars(t *testing.T) {
	b := NewFromString("nazdar")
	rs, err := b.Chars(2, 3)
	require.NoError(t, err)
	assert.Equal(t, []rune("zda"), rs)

	rs[0] = 'X'
	assert.Equal(t, "nazdar", b.Text(), "Chars must return a copy")
}

func TestCharAt(t *testing.T) {
	b := NewFromString("abc")
	require.NoError(t, b.Insert(1, "X"))

	for i, want := range []rune("aXbc") {
		r, err := b.CharAt(i)
		require.NoError(t, err)
		assert.Equal(t, want, r)
	}
	_, err := b.CharAt(4)
	require.ErrorIs(t, err, ErrOutOfBounds)
}

func TestGrowth(t *testing.T) {
	b := New(0)
	var want strings.Builder
	for i := 0; i < 500; i++ {
		require.NoError(t, b.Insert(b.Len()/2, "xy"))
		s := want.String()
		mid := len(s) / 2
		want.Reset()
		want.WriteString(s[:mid] + "xy" + s[mid:])
	}
	assert.Equal(t, want.String(), b.Text())
	assert.GreaterOrEqual(t, b.Cap(), b.Len())
}

func TestInsertRunes(t *testing.T) {
	b := NewFromString("ac")
	require.NoError(t, b.InsertRunes(1, []rune("b")))
	assert.Equal(t, "abc", b.Text())
	require.ErrorIs(t, b.InsertRunes(4, []rune("x")), ErrOutOfBounds)
}

func BenchmarkInsertSequential(b *testing.B) {
	buf := New(0)
	for i := 0; i < b.N; i++ {
		_ = buf.Insert(buf.Len(), "x")
	}
}

func BenchmarkInsertRandomish(b *testing.B) {
	buf := NewFromString(strings.Repeat("abcdefghij", 1000))
	for i := 0; i < b.N; i++ {
		_ = buf.Insert((i*7919)%buf.Len(), "x")
	}
}
