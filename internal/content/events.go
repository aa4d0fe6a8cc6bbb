package content

// EventType categorizes document change events.
type EventType uint8

const (
	EventInsert EventType = iota // text was inserted
	EventRemove                  // text was removed
	EventUndo                    // an edit or group was undone
	EventRedo                    // an edit or group was redone
)

// String returns a string representation of the event type.
func (t EventType) String() string {
	switch t {
	case EventInsert:
		return "insert"
	case EventRemove:
		return "remove"
	case EventUndo:
		return "undo"
	case EventRedo:
		return "redo"
	default:
		return "unknown"
	}
}

// Event describes a change that has been fully applied.
// For undo and redo of a single edit, Offset, Length and Text describe that
// edit; for groups only Description is set.
type Event struct {
	Type        EventType
	Offset      int
	Length      int
	Text        string
	Description string
}

// Listener receives change events. Listeners run after the document lock
// is released and may read the document.
type Listener func(Event)

// Subscribe registers l and returns a function that unregisters it.
func (c *Content) Subscribe(l Listener) func() {
	c.lmu.Lock()
	defer c.lmu.Unlock()

	id := c.nextID
	c.nextID++
	c.listeners[id] = l

	return func() {
		c.lmu.Lock()
		defer c.lmu.Unlock()
		delete(c.listeners, id)
	}
}

func (c *Content) notify(ev Event) {
	c.lmu.Lock()
	ls := make([]Listener, 0, len(c.listeners))
	for _, l := range c.listeners {
		ls = append(ls, l)
	}
	c.lmu.Unlock()

	for _, l := range ls {
		l(ev)
	}
}
