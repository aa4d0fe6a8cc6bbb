// Package content provides a mutable text document whose positions survive
// edits and whose edits can be undone and redone.
//
// Content combines three layers:
//
//   - textbuf: gap buffer holding the characters
//   - position: arena of positions adjusted on every edit
//   - history: undo/redo log of invertible edits
//
// # Basic Usage
//
//	c := content.New(content.WithText("ahoj"))
//
//	p, _ := c.CreatePosition(1)            // forward bias
//	b, _ := c.CreateBackwardBiasPosition(1)
//
//	c.Insert(1, "xx")  // "axxhoj"; p.Offset() == 3, b.Offset() == 1
//	c.Undo()           // "ahoj";   both back at 1
//
// # Positions
//
// A forward position moves behind text inserted at its offset, except at
// offset 0, which never moves. A backward position stays in front of it.
// A removal collapses every position inside the removed span (both ends
// included) to the start of the span; undoing the removal puts each one
// back at its exact former offset.
//
// Creating a position where a live position with the same bias already
// sits returns that same *Position. Release gives a reference back; the
// slot is reclaimed after the last one.
//
// # Errors
//
//   - ErrOutOfBounds: offset or length outside the document
//   - ErrCannotUndo / ErrCannotRedo: history empty in that direction
//   - ErrReleased: position already released
//
// Every mutation either fully applies or fails before touching anything.
package content
