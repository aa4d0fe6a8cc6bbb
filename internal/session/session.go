// Package session runs seeded random edit sessions through a mirror.Checker.
//
// A session draws inserts, removals, undos, redos, position creations and
// releases from a PCG generator and stops at the first divergence. The same
// seed and configuration always replay the same operations.
package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dshills/doccontent/internal/content"
	"github.com/dshills/doccontent/internal/content/mirror"
	"github.com/dshills/doccontent/internal/logging"
)

// Op is a kind of session step.
type Op uint8

const (
	OpInsert Op = iota
	OpRemove
	OpUndo
	OpRedo
	OpCreate
	OpRelease
	opCount
)

// String returns a string representation of the op.
func (o Op) String() string {
	switch o {
	case OpInsert:
		return "insert"
	case OpRemove:
		return "remove"
	case OpUndo:
		return "undo"
	case OpRedo:
		return "redo"
	case OpCreate:
		return "create"
	case OpRelease:
		return "release"
	default:
		return "unknown"
	}
}

// weights out of 100, indexed by Op.
var weights = [opCount]int{30, 20, 15, 10, 15, 10}

// Config configures one session.
type Config struct {
	Seed      uint64
	Steps     int
	MaxInsert int
	Alphabet  string
	Text      string

	// Checker configures the documents. Its Text field is ignored.
	Checker mirror.Options
}

// Report summarizes a finished session.
type Report struct {
	Seed          uint64
	Steps         int
	Ops           map[string]int
	Rejected      int
	Length        int
	LivePositions int
	MayDiffer     int
	Duration      time.Duration

	// Failure is the first divergence, or the context error if the
	// session was cancelled.
	Failure error
}

// OK reports whether the session finished without failure.
func (r Report) OK() bool {
	return r.Failure == nil
}

func (r Report) String() string {
	status := "ok"
	if r.Failure != nil {
		status = "FAIL"
	}
	return fmt.Sprintf("seed=%d steps=%d length=%d positions=%d %s",
		r.Seed, r.Steps, r.Length, r.LivePositions, status)
}

// Run executes one session. It logs every step at debug level to the
// logger carried by ctx.
func Run(ctx context.Context, cfg Config) Report {
	logger := logging.FromContext(ctx).With(logging.FieldSeed, cfg.Seed)
	start := time.Now()

	opts := cfg.Checker
	opts.Text = cfg.Text
	checker := mirror.NewChecker(opts)
	g := newGenerator(cfg)

	rep := Report{Seed: cfg.Seed, Ops: make(map[string]int)}
	for step := 0; step < cfg.Steps; step++ {
		if err := ctx.Err(); err != nil {
			rep.Failure = err
			break
		}

		op, err := g.step(checker)
		rep.Steps++
		rep.Ops[op]++
		logger.Debug("step", logging.FieldStep, step, logging.FieldOp, op, logging.FieldError, err)

		switch {
		case err == nil:
		case errors.Is(err, mirror.ErrDiverged):
			rep.Failure = err
		case expected(err):
			rep.Rejected++
		default:
			rep.Failure = fmt.Errorf("step %d %s: %w", step, op, err)
		}
		if rep.Failure != nil {
			break
		}
	}

	rep.Length = checker.Content().Length()
	rep.LivePositions = len(checker.Pairs().Live())
	rep.MayDiffer = checker.Pairs().MayDiffer()
	rep.Duration = time.Since(start)
	logResult(logger, rep)
	return rep
}

// expected reports whether err is a rejection the generator provokes on
// purpose.
func expected(err error) bool {
	return errors.Is(err, content.ErrOutOfBounds) ||
		errors.Is(err, content.ErrCannotUndo) ||
		errors.Is(err, content.ErrCannotRedo)
}

func logResult(logger *log.Logger, rep Report) {
	if rep.Failure != nil {
		logger.Error("session failed", logging.FieldSteps, rep.Steps, logging.FieldError, rep.Failure)
		return
	}
	logger.Debug("session done",
		logging.FieldSteps, rep.Steps,
		logging.FieldLength, rep.Length,
		logging.FieldPositions, rep.LivePositions,
		logging.FieldMayDiffer, rep.MayDiffer,
	)
}

type generator struct {
	rng       *rand.Rand
	maxInsert int
	alphabet  []rune
}

func newGenerator(cfg Config) *generator {
	alphabet := []rune(cfg.Alphabet)
	if len(alphabet) == 0 {
		alphabet = []rune("abc")
	}
	maxInsert := cfg.MaxInsert
	if maxInsert < 1 {
		maxInsert = 1
	}
	return &generator{
		rng:       rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
		maxInsert: maxInsert,
		alphabet:  alphabet,
	}
}

func (g *generator) pick() Op {
	n := g.rng.IntN(100)
	for op, w := range weights {
		if n < w {
			return Op(op)
		}
		n -= w
	}
	return OpInsert
}

// offset returns an offset in [0, n], or just past n one time in twenty.
func (g *generator) offset(n int) int {
	if g.rng.IntN(20) == 0 {
		return n + 1 + g.rng.IntN(3)
	}
	return g.rng.IntN(n + 1)
}

func (g *generator) text() string {
	var b strings.Builder
	for range 1 + g.rng.IntN(g.maxInsert) {
		b.WriteRune(g.alphabet[g.rng.IntN(len(g.alphabet))])
	}
	return b.String()
}

func (g *generator) step(c *mirror.Checker) (string, error) {
	n := c.Expected().Length()
	op := g.pick()
	switch op {
	case OpInsert:
		return op.String(), c.Insert(g.offset(n), g.text())
	case OpRemove:
		off := g.offset(n)
		length := 0
		if off <= n {
			length = g.rng.IntN(min(n-off, 2*g.maxInsert) + 1)
		} else {
			length = 1
		}
		return op.String(), c.Remove(off, length)
	case OpUndo:
		return op.String(), c.Undo()
	case OpRedo:
		return op.String(), c.Redo()
	case OpCreate:
		bias := content.Forward
		if g.rng.IntN(2) == 0 {
			bias = content.Backward
		}
		_, err := c.CreatePosition("", g.offset(n), bias)
		return op.String(), err
	default:
		live := c.Pairs().Live()
		if len(live) == 0 {
			return "release-none", nil
		}
		return op.String(), c.Release(live[g.rng.IntN(len(live))])
	}
}
