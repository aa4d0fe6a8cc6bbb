// Package position tracks offsets into a mutable text buffer that survive
// edits made elsewhere in the buffer.
//
// Positions live in an arena of slots owned by a Registry. Callers hold a
// Handle (slot ID plus generation) instead of a pointer, and give slots back
// with an explicit Release. Released slots are reclaimed by Sweep, which
// runs while edits walk the arena, so the arena never keeps growing while
// positions are being created and dropped.
//
// # Bias
//
// Bias decides what happens when text is inserted exactly at a position:
//
//   - Backward: the position stays before the new text. It only moves when
//     the insertion happens strictly before it.
//   - Forward: the position moves after the new text. A forward position at
//     offset 0 never moves, so the start of the document stays the start.
//
// # Removal
//
// A removal of [off, off+n] collapses every position inside the span,
// including both ends, to off and reports a MarkUpdate with its former
// offset. Undo hands the updates back to Restore so the positions return to
// their exact interior offsets.
//
// # Sharing
//
// Create returns the existing slot when a live slot already sits at the
// requested offset with the requested bias. Slots that were collapsed by a
// removal still held in undo history are "displaced": by default they are
// not shared, because undo would carry every holder back to the interior
// offset. SharingIncludesDisplaced restores the looser rule.
package position
