package content

import (
	"fmt"

	"github.com/dshills/doccontent/internal/content/position"
)

// Position is a stable reference to an offset in a Content.
// Every creator of a shared position receives the same *Position.
type Position struct {
	c *Content
	h position.Handle
}

// Offset returns the current offset, or -1 once the position is released.
func (p *Position) Offset() int {
	p.c.mu.RLock()
	defer p.c.mu.RUnlock()
	off, _ := p.c.reg.Offset(p.h)
	return off
}

// Bias returns the bias the position was created with.
func (p *Position) Bias() Bias {
	p.c.mu.RLock()
	defer p.c.mu.RUnlock()
	b, _ := p.c.reg.Bias(p.h)
	return b
}

// Valid reports whether the position has not been released.
func (p *Position) Valid() bool {
	p.c.mu.RLock()
	defer p.c.mu.RUnlock()
	return p.c.reg.Valid(p.h)
}

// Release drops one reference to the position.
func (p *Position) Release() error {
	return p.c.ReleasePosition(p)
}

// Handle returns the registry handle backing the position.
func (p *Position) Handle() position.Handle {
	return p.h
}

// String returns a representation such as "pos#3.1@7".
func (p *Position) String() string {
	return fmt.Sprintf("pos%s@%d", p.h, p.Offset())
}
