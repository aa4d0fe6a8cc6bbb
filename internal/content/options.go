package content

import (
	"github.com/charmbracelet/log"

	"github.com/dshills/doccontent/internal/content/history"
	"github.com/dshills/doccontent/internal/content/position"
)

// Default configuration values.
const (
	DefaultMaxUndo        = history.DefaultMaxEntries
	DefaultSweepThreshold = position.DefaultSweepThreshold
)

// Option configures a Content during creation.
type Option func(*Content)

// WithText sets the initial text. The initial text is not undoable.
func WithText(text string) Option {
	return func(c *Content) {
		c.initText = text
	}
}

// WithMaxUndo sets the maximum number of undo history entries.
func WithMaxUndo(max int) Option {
	return func(c *Content) {
		if max > 0 {
			c.maxUndo = max
		}
	}
}

// WithSweepThreshold sets how many released positions may wait before the
// registry reclaims them outside of an edit.
func WithSweepThreshold(n int) Option {
	return func(c *Content) {
		if n > 0 {
			c.sweepThreshold = n
		}
	}
}

// WithInitialCapacity preallocates room for n characters.
func WithInitialCapacity(n int) Option {
	return func(c *Content) {
		if n > 0 {
			c.initialCap = n
		}
	}
}

// WithSharingIncludesDisplaced lets position creation share positions that
// a removal in the undo history collapsed. Undoing that removal moves every
// holder of the shared position back to its interior offset.
func WithSharingIncludesDisplaced() Option {
	return func(c *Content) {
		c.shareDisplaced = true
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *log.Logger) Option {
	return func(c *Content) {
		if logger != nil {
			c.logger = logger
		}
	}
}
