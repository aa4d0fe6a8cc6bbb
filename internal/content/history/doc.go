// Package history records document edits and replays them for undo/redo.
//
// Every insert or remove applied to a document becomes an Edit pushed onto
// a Log. An Edit knows how to invert itself against a Target, the narrow
// interface the document core exposes for raw text and position changes.
//
// # Edits and positions
//
// Undoing a removal reinserts the removed text and then restores every
// position the removal collapsed to its recorded interior offset. Plain
// insertion arithmetic cannot do that: a backward position that sat at the
// end of the removed span would stay at the reinsertion point.
//
// Undoing an insertion removes the span again, which collapses positions
// inside it. Those mark updates stay on the edit and are restored by the
// following redo, so undo followed by redo leaves every position where it
// was. Redoing a removal is a fresh removal and does not keep anything.
//
// # Lifecycle
//
//	Applied --undo--> Undone --redo--> Applied
//
// An edit dies when it leaves the Log: a new push discards the redo tail,
// and the oldest entries are trimmed past the configured maximum. A dead
// edit drops its text and mark updates.
//
// # Grouping
//
// Edits pushed between BeginGroup and EndGroup form one Compound undo unit:
//
//	log.BeginGroup("reformat")
//	// ... several edits ...
//	log.EndGroup()
//
// Log is not safe for concurrent use; the owning document serializes access.
package history
