package script

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/doccontent/internal/content"
)

func newEngine(t *testing.T, text string, opts ...Option) *Engine {
	t.Helper()
	e := New(content.New(content.WithText(text)), opts...)
	t.Cleanup(e.Close)
	return e
}

func TestEditing(t *testing.T) {
	e := newEngine(t, "ahoj")
	err := e.DoString(context.Background(), `
		local f = doc.position(1)
		local b = doc.backward_position(1)
		doc.insert(1, "xx")
		assert(doc.text() == "axxhoj")
		assert(f:offset() == 3 and b:offset() == 1)
		assert(f:bias() == "forward" and b:bias() == "backward")
		doc.undo()
		assert(doc.length() == 4)
		assert(doc.can_redo() and not doc.can_undo())
		doc.redo()
		f:release()
		assert(f:offset() == -1)
	`)
	require.NoError(t, err)
	assert.Equal(t, "axxhoj", e.Document().Text())
}

func TestSharedPositionsAreEqual(t *testing.T) {
	e := newEngine(t, "abc")
	require.NoError(t, e.DoString(context.Background(), `
		local p = doc.position(2)
		local q = doc.position(2)
		doc.release(p)
		assert(q:offset() == 2)
	`))
	assert.Equal(t, 1, e.Document().LivePositions())
}

func TestErrorsRaise(t *testing.T) {
	e := newEngine(t, "abc")
	require.NoError(t, e.DoString(context.Background(), `
		local ok, err = pcall(doc.insert, 9, "x")
		assert(not ok and string.find(err, "out of bounds"), err)
		ok, err = pcall(doc.undo)
		assert(not ok and string.find(err, "cannot undo"), err)
		local p = doc.position(0)
		p:release()
		ok, err = pcall(doc.release, p)
		assert(not ok and string.find(err, "released"), err)
	`))

	err := e.DoString(context.Background(), `doc.remove(0, 10)`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of bounds")
}

func TestSandbox(t *testing.T) {
	e := newEngine(t, "")
	for _, code := range []string{
		`os.exit(1)`,
		`io.open("/etc/passwd")`,
		`dofile("x.lua")`,
		`require("os")`,
	} {
		assert.Error(t, e.DoString(context.Background(), code), code)
	}
}

func TestTimeout(t *testing.T) {
	e := newEngine(t, "", WithTimeout(50*time.Millisecond))
	err := e.DoString(context.Background(), `while true do end`)
	require.Error(t, err)

	// The state is still usable afterwards.
	require.NoError(t, e.DoString(context.Background(), `doc.insert(0, "ok")`))
}

func TestDoFilePrint(t *testing.T) {
	var out bytes.Buffer
	e := newEngine(t, "", WithOutput(&out))
	require.NoError(t, e.DoFile(context.Background(), filepath.Join("testdata", "boundary.lua")))
	assert.Equal(t, "hello world\t3\n", out.String())
}

func TestClosed(t *testing.T) {
	e := New(content.New())
	e.Close()
	e.Close()
	assert.ErrorIs(t, e.DoString(context.Background(), `doc.text()`), ErrClosed)
}
