package position

import (
	"github.com/dshills/doccontent/internal/content/textbuf"
)

// DefaultSweepThreshold is the number of released slots that forces a sweep
// even when no edit is traversing the arena.
const DefaultSweepThreshold = 64

type slotState uint8

const (
	slotFree slotState = iota
	slotLive
	slotPending // released, waiting for Sweep
)

type slot struct {
	offset    int
	bias      Bias
	gen       uint32
	refs      int
	displaced int
	state     slotState
}

type key struct {
	offset int
	bias   Bias
}

// Registry owns the position arena of one document.
type Registry struct {
	slots   []slot
	free    []ID
	pending []ID

	// index maps (offset, bias) to a shareable slot. It is rebuilt lazily
	// because every edit may move all offsets at once.
	index      map[key]ID
	indexDirty bool

	sweepThreshold int
	shareDisplaced bool
	onSweep        func(reclaimed int)
}

// Option configures a Registry.
type Option func(*Registry)

// WithSweepThreshold sets how many released slots may wait for reclamation.
func WithSweepThreshold(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.sweepThreshold = n
		}
	}
}

// SharingIncludesDisplaced lets Create share slots that a removal in the
// undo history has collapsed.
func SharingIncludesDisplaced() Option {
	return func(r *Registry) {
		r.shareDisplaced = true
	}
}

// WithSweepHook calls fn after every sweep that reclaimed slots.
func WithSweepHook(fn func(reclaimed int)) Option {
	return func(r *Registry) {
		r.onSweep = fn
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		index:          make(map[key]ID),
		sweepThreshold: DefaultSweepThreshold,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create returns a handle for (offset, bias), sharing an existing slot when
// possible. The second result reports whether the slot was shared.
// length is the current buffer length used for validation.
func (r *Registry) Create(offset int, bias Bias, length int) (Handle, bool, error) {
	if offset < 0 || offset > length {
		return Handle{}, false, textbuf.NewOutOfBounds("create position", offset, 0, length)
	}

	r.rebuildIndex()
	k := key{offset: offset, bias: bias}
	if id, ok := r.index[k]; ok {
		s := &r.slots[id]
		s.refs++
		return Handle{ID: id, Gen: s.gen}, true, nil
	}

	id := r.alloc()
	s := &r.slots[id]
	s.offset = offset
	s.bias = bias
	s.refs = 1
	s.displaced = 0
	s.state = slotLive
	r.index[k] = id
	return Handle{ID: id, Gen: s.gen}, false, nil
}

// alloc takes a slot from the free list, sweeping first if only pending
// slots are available, or grows the arena.
func (r *Registry) alloc() ID {
	if len(r.free) == 0 && len(r.pending) > 0 {
		r.Sweep()
	}
	if n := len(r.free); n > 0 {
		id := r.free[n-1]
		r.free = r.free[:n-1]
		return id
	}
	r.slots = append(r.slots, slot{gen: 1})
	return ID(len(r.slots) - 1)
}

func (r *Registry) rebuildIndex() {
	if !r.indexDirty {
		return
	}
	clear(r.index)
	for i := range r.slots {
		s := &r.slots[i]
		if s.state != slotLive {
			continue
		}
		if s.displaced > 0 && !r.shareDisplaced {
			continue
		}
		k := key{offset: s.offset, bias: s.bias}
		if _, ok := r.index[k]; !ok {
			r.index[k] = ID(i)
		}
	}
	r.indexDirty = false
}

// lookup returns the live slot for h.
func (r *Registry) lookup(h Handle) (*slot, bool) {
	if int(h.ID) >= len(r.slots) {
		return nil, false
	}
	s := &r.slots[h.ID]
	if s.state != slotLive || s.gen != h.Gen {
		return nil, false
	}
	return s, true
}

// Offset returns the current offset of h.
func (r *Registry) Offset(h Handle) (int, bool) {
	s, ok := r.lookup(h)
	if !ok {
		return -1, false
	}
	return s.offset, true
}

// Bias returns the bias of h.
func (r *Registry) Bias(h Handle) (Bias, bool) {
	s, ok := r.lookup(h)
	if !ok {
		return Forward, false
	}
	return s.bias, true
}

// Valid reports whether h still refers to a live slot.
func (r *Registry) Valid(h Handle) bool {
	_, ok := r.lookup(h)
	return ok
}

// Release drops one reference to h. The slot is queued for Sweep once no
// references remain. It returns the references left.
func (r *Registry) Release(h Handle) (int, error) {
	s, ok := r.lookup(h)
	if !ok {
		return 0, ErrStaleHandle
	}
	s.refs--
	if s.refs > 0 {
		return s.refs, nil
	}
	s.state = slotPending
	r.pending = append(r.pending, h.ID)
	r.indexDirty = true
	if len(r.pending) >= r.sweepThreshold {
		r.Sweep()
	}
	return 0, nil
}

// Sweep reclaims released slots and returns how many were reclaimed.
// Reclaimed slots get a new generation so old handles become stale.
func (r *Registry) Sweep() int {
	n := len(r.pending)
	for _, id := range r.pending {
		s := &r.slots[id]
		s.state = slotFree
		s.gen++
		s.refs = 0
		s.displaced = 0
		r.free = append(r.free, id)
	}
	r.pending = r.pending[:0]
	if n > 0 && r.onSweep != nil {
		r.onSweep(n)
	}
	return n
}

// OnInsert moves positions after an insertion of n characters at offset.
func (r *Registry) OnInsert(offset, n int) {
	if n <= 0 {
		return
	}
	r.Sweep()
	for i := range r.slots {
		s := &r.slots[i]
		if s.state != slotLive {
			continue
		}
		switch s.bias {
		case Backward:
			if s.offset > offset {
				s.offset += n
			}
		default:
			// Offset 0 is the start of the document and never moves.
			if s.offset > 0 && s.offset >= offset {
				s.offset += n
			}
		}
	}
	r.indexDirty = true
}

// OnRemove moves positions after a removal of n characters at offset.
// Positions inside [offset, offset+n] collapse to offset; their former
// offsets are returned and the slots count as displaced until the updates
// are passed to Restore or Drop.
func (r *Registry) OnRemove(offset, n int) []MarkUpdate {
	if n <= 0 {
		return nil
	}
	r.Sweep()
	end := offset + n
	var updates []MarkUpdate
	for i := range r.slots {
		s := &r.slots[i]
		if s.state != slotLive {
			continue
		}
		switch {
		case s.offset > end:
			s.offset -= n
		case s.offset >= offset:
			updates = append(updates, MarkUpdate{
				Handle: Handle{ID: ID(i), Gen: s.gen},
				Offset: s.offset,
			})
			s.offset = offset
			s.displaced++
		}
	}
	r.indexDirty = true
	return updates
}

// Restore puts positions back to the offsets recorded by OnRemove and ends
// their displacement. Updates for released slots are skipped.
func (r *Registry) Restore(updates []MarkUpdate) {
	for _, u := range updates {
		s, ok := r.lookup(u.Handle)
		if !ok {
			continue
		}
		s.offset = u.Offset
		if s.displaced > 0 {
			s.displaced--
		}
	}
	if len(updates) > 0 {
		r.indexDirty = true
	}
}

// Drop ends the displacement recorded by updates without moving anything.
// It is used when the edit holding the updates leaves the history.
func (r *Registry) Drop(updates []MarkUpdate) {
	for _, u := range updates {
		s, ok := r.lookup(u.Handle)
		if !ok {
			continue
		}
		if s.displaced > 0 {
			s.displaced--
		}
	}
	if len(updates) > 0 {
		r.indexDirty = true
	}
}

// Live returns the number of live slots.
func (r *Registry) Live() int {
	n := 0
	for i := range r.slots {
		if r.slots[i].state == slotLive {
			n++
		}
	}
	return n
}

// Pending returns the number of released slots not yet swept.
func (r *Registry) Pending() int {
	return len(r.pending)
}

// Arena returns the number of slots ever allocated.
func (r *Registry) Arena() int {
	return len(r.slots)
}

// Entries returns the live slots ordered by ID.
func (r *Registry) Entries() []Entry {
	entries := make([]Entry, 0, len(r.slots))
	for i := range r.slots {
		s := &r.slots[i]
		if s.state != slotLive {
			continue
		}
		entries = append(entries, Entry{
			Handle:    Handle{ID: ID(i), Gen: s.gen},
			Offset:    s.offset,
			Bias:      s.bias,
			Refs:      s.refs,
			Displaced: s.displaced,
		})
	}
	return entries
}
