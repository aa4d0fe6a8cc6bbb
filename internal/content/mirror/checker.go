package mirror

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"

	"github.com/dshills/doccontent/internal/content"
)

// ErrDiverged is matched by every *DivergenceError.
var ErrDiverged = errors.New("content diverged from expected model")

// DivergenceError reports the first step at which the real document and the
// model disagreed.
type DivergenceError struct {
	Step   int
	Op     string
	Reason string
	Diff   string
}

func (e *DivergenceError) Error() string {
	if e.Diff == "" {
		return fmt.Sprintf("step %d %s: %s", e.Step, e.Op, e.Reason)
	}
	return fmt.Sprintf("step %d %s: %s (-expected +real):\n%s", e.Step, e.Op, e.Reason, e.Diff)
}

// Is reports whether target is ErrDiverged.
func (e *DivergenceError) Is(target error) bool {
	return target == ErrDiverged
}

// Options configures a Checker.
type Options struct {
	Text                     string
	MaxUndo                  int
	SweepThreshold           int
	InitialCapacity          int
	SharingIncludesDisplaced bool
	Logger                   *log.Logger
}

// State is the observable part of a document used for comparison.
type State struct {
	Text      string
	CanUndo   bool
	CanRedo   bool
	Seq       uint64
	Positions []PositionState
}

// PositionState is one compared position.
type PositionState struct {
	Name   string
	Offset int
	Bias   string
}

// Checker applies every operation to a real Content and to an Expected
// model and verifies they agree afterwards.
type Checker struct {
	real  *content.Content
	exp   *Expected
	pairs *SyncList
	roots map[*content.Position]*Record

	shareDisplaced bool
	step           int
	logger         *log.Logger
}

// NewChecker creates a checker over a fresh document.
func NewChecker(o Options) *Checker {
	logger := o.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	opts := []content.Option{
		content.WithText(o.Text),
		content.WithLogger(logger),
	}
	if o.MaxUndo > 0 {
		opts = append(opts, content.WithMaxUndo(o.MaxUndo))
	}
	if o.SweepThreshold > 0 {
		opts = append(opts, content.WithSweepThreshold(o.SweepThreshold))
	}
	if o.InitialCapacity > 0 {
		opts = append(opts, content.WithInitialCapacity(o.InitialCapacity))
	}
	if o.SharingIncludesDisplaced {
		opts = append(opts, content.WithSharingIncludesDisplaced())
	}

	return &Checker{
		real:           content.New(opts...),
		exp:            NewExpected(o.Text, o.MaxUndo),
		pairs:          NewSyncList(),
		roots:          make(map[*content.Position]*Record),
		shareDisplaced: o.SharingIncludesDisplaced,
		logger:         logger,
	}
}

// Content returns the real document.
func (c *Checker) Content() *content.Content { return c.real }

// Expected returns the model.
func (c *Checker) Expected() *Expected { return c.exp }

// Pairs returns the position sync list.
func (c *Checker) Pairs() *SyncList { return c.pairs }

// Steps returns the number of operations applied so far.
func (c *Checker) Steps() int { return c.step }

// Insert inserts text at offset in both documents.
// The returned error is the document's own error when both agree, or a
// *DivergenceError when they do not.
func (c *Checker) Insert(offset int, text string) error {
	op := fmt.Sprintf("insert(%d,%q)", offset, text)
	return c.apply(op, c.real.Insert(offset, text), c.exp.Insert(offset, text))
}

// Remove removes length characters at offset in both documents.
func (c *Checker) Remove(offset, length int) error {
	op := fmt.Sprintf("remove(%d,%d)", offset, length)
	return c.apply(op, c.real.Remove(offset, length), c.exp.Remove(offset, length))
}

// Undo undoes in both documents.
func (c *Checker) Undo() error {
	return c.apply("undo", c.real.Undo(), c.exp.Undo())
}

// Redo redoes in both documents.
func (c *Checker) Redo() error {
	return c.apply("redo", c.real.Redo(), c.exp.Redo())
}

// SetMaxUndo changes the history limit of both documents.
func (c *Checker) SetMaxUndo(max int) error {
	c.step++
	op := fmt.Sprintf("max_undo(%d)", max)
	c.real.SetMaxUndo(max)
	c.exp.SetMaxUndo(max)
	return c.Verify(op)
}

// CreatePosition creates a position in both documents and pairs them.
func (c *Checker) CreatePosition(name string, offset int, bias content.Bias) (*Pair, error) {
	c.step++
	op := fmt.Sprintf("position(%d,%s)", offset, bias)

	// Find a record the real document must share with, before creating ours.
	want := c.shareCandidate(offset, bias)

	p, errR := c.real.CreatePositionWithBias(offset, bias)
	rec, errE := c.exp.CreatePosition(offset, bias)
	if err := c.agree(op, errR, errE); err != nil {
		return nil, err
	}
	if errR != nil {
		return nil, errR
	}

	if root, ok := c.roots[p]; ok {
		if c.exp.Alias(rec, root) {
			if !c.shareDisplaced {
				return nil, c.diverged(op, "real document shared a displaced position")
			}
			if rec.Bound > c.real.LastEditSeq() {
				return nil, c.diverged(op, fmt.Sprintf("bound to edit %d, newest is %d", rec.Bound, c.real.LastEditSeq()))
			}
			c.logger.Debug("position may differ", "name", name, "offset", offset, "bound", rec.Bound)
		}
	} else {
		c.roots[p] = rec
		if want != nil {
			return nil, c.diverged(op, fmt.Sprintf("position not shared with %s", want.Name))
		}
	}

	pair := c.pairs.Add(name, p, rec)
	if err := c.Verify(op); err != nil {
		return nil, err
	}
	return pair, nil
}

// Release releases pair in both documents.
func (c *Checker) Release(pair *Pair) error {
	c.step++
	op := fmt.Sprintf("release(%s)", pair.Name)
	if pair.Released {
		return fmt.Errorf("%s: %w", op, content.ErrReleased)
	}
	if err := c.real.ReleasePosition(pair.Real); err != nil {
		return c.diverged(op, err.Error())
	}
	pair.Released = true
	c.exp.Release(pair.Expected)
	return c.Verify(op)
}

// Verify compares the two documents.
func (c *Checker) Verify(op string) error {
	want, got := c.states()
	if diff := cmp.Diff(want, got); diff != "" {
		return &DivergenceError{Step: c.step, Op: op, Reason: "state mismatch", Diff: diff}
	}
	return nil
}

func (c *Checker) apply(op string, errR, errE error) error {
	c.step++
	if err := c.agree(op, errR, errE); err != nil {
		return err
	}
	if err := c.Verify(op); err != nil {
		return err
	}
	c.logger.Debug("step", "n", c.step, "op", op, "length", c.exp.Length(), "err", errR)
	return errR
}

func (c *Checker) agree(op string, errR, errE error) error {
	if (errR == nil) != (errE == nil) {
		return c.diverged(op, fmt.Sprintf("real error %v, expected error %v", errR, errE))
	}
	for _, sentinel := range []error{content.ErrOutOfBounds, content.ErrCannotUndo, content.ErrCannotRedo} {
		if errors.Is(errR, sentinel) != errors.Is(errE, sentinel) {
			return c.diverged(op, fmt.Sprintf("real error %v, expected error %v", errR, errE))
		}
	}
	return nil
}

func (c *Checker) diverged(op, reason string) error {
	return &DivergenceError{Step: c.step, Op: op, Reason: reason}
}

// shareCandidate returns a live pair that the real document must hand back
// for a position created at offset with bias.
func (c *Checker) shareCandidate(offset int, bias content.Bias) *Pair {
	for _, p := range c.pairs.pairs {
		r := p.Expected
		if !p.Comparable() || r.Offset != offset || r.Bias != bias {
			continue
		}
		if r.Displaced() && !c.shareDisplaced {
			continue
		}
		return p
	}
	return nil
}

func (c *Checker) states() (want, got State) {
	want = State{Text: c.exp.Text(), CanUndo: c.exp.CanUndo(), CanRedo: c.exp.CanRedo(), Seq: c.exp.Seq()}
	got = State{Text: c.real.Text(), CanUndo: c.real.CanUndo(), CanRedo: c.real.CanRedo(), Seq: c.real.LastEditSeq()}
	for _, p := range c.pairs.pairs {
		if !p.Comparable() {
			continue
		}
		want.Positions = append(want.Positions, PositionState{
			Name: p.Name, Offset: p.Expected.Offset, Bias: p.Expected.Bias.String(),
		})
		got.Positions = append(got.Positions, PositionState{
			Name: p.Name, Offset: p.Real.Offset(), Bias: p.Real.Bias().String(),
		})
	}
	return want, got
}
