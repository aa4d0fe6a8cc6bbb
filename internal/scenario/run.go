package scenario

import (
	"context"
	"errors"
	"fmt"

	"github.com/dshills/doccontent/internal/content"
	"github.com/dshills/doccontent/internal/content/mirror"
	"github.com/dshills/doccontent/internal/content/position"
	"github.com/dshills/doccontent/internal/logging"
)

// Failure is a step whose outcome did not match.
type Failure struct {
	Step    int
	Op      string
	Message string
}

func (f Failure) String() string {
	return fmt.Sprintf("step %d (%s): %s", f.Step, f.Op, f.Message)
}

// Result is the outcome of one scenario.
type Result struct {
	Name     string
	Steps    int
	Text     string
	Failures []Failure
}

// OK reports whether every step matched.
func (r Result) OK() bool {
	return len(r.Failures) == 0
}

// Run replays sc on a document built from base and the scenario's own
// settings. A divergence between the document and the reference model stops
// the run; other failures are collected and the run goes on.
func Run(ctx context.Context, sc Scenario, base mirror.Options) Result {
	logger := logging.FromContext(ctx).With(logging.FieldName, sc.Name)
	c := mirror.NewChecker(sc.Options(base))

	res := Result{Name: sc.Name}
	for i, st := range sc.Steps {
		if ctx.Err() != nil {
			res.Failures = append(res.Failures, Failure{Step: i + 1, Op: st.Op, Message: ctx.Err().Error()})
			break
		}
		res.Steps++
		fails, stop := runStep(c, st)
		for _, msg := range fails {
			f := Failure{Step: i + 1, Op: st.Op, Message: msg}
			logger.Debug("step failed", logging.FieldStep, f.Step, logging.FieldOp, f.Op, logging.FieldError, f.Message)
			res.Failures = append(res.Failures, f)
		}
		if stop {
			break
		}
	}
	res.Text = c.Content().Text()
	return res
}

// RunAll replays every scenario in order.
func RunAll(ctx context.Context, scs []Scenario, base mirror.Options) []Result {
	results := make([]Result, 0, len(scs))
	for _, sc := range scs {
		results = append(results, Run(ctx, sc, base))
	}
	return results
}

func runStep(c *mirror.Checker, st Step) (fails []string, stop bool) {
	var err error
	switch st.Op {
	case OpInsert:
		err = c.Insert(st.Offset, st.Text)
	case OpRemove:
		err = c.Remove(st.Offset, st.Length)
	case OpUndo:
		err = c.Undo()
	case OpRedo:
		err = c.Redo()
	case OpPosition:
		var bias position.Bias
		bias, err = position.ParseBias(st.Bias)
		if err == nil {
			_, err = c.CreatePosition(st.Name, st.Offset, bias)
		}
	case OpRelease:
		p, ok := c.Pairs().Get(st.Name)
		if !ok {
			return []string{fmt.Sprintf("unknown position %q", st.Name)}, false
		}
		err = c.Release(p)
	case OpCheck:
		err = c.Verify(OpCheck)
	case OpMaxUndo:
		err = c.SetMaxUndo(st.Limit)
	}

	if errors.Is(err, mirror.ErrDiverged) {
		return []string{err.Error()}, true
	}
	if msg := matchError(st.ExpectError, err); msg != "" {
		fails = append(fails, msg)
	}
	if st.ExpectText != nil {
		if got := c.Content().Text(); got != *st.ExpectText {
			fails = append(fails, fmt.Sprintf("text %q, want %q", got, *st.ExpectText))
		}
	}
	if st.ExpectOffset != nil {
		p, ok := c.Pairs().Get(st.Name)
		switch {
		case !ok:
			fails = append(fails, fmt.Sprintf("unknown position %q", st.Name))
		case p.Real.Offset() != *st.ExpectOffset:
			fails = append(fails, fmt.Sprintf("position %s at %d, want %d", st.Name, p.Real.Offset(), *st.ExpectOffset))
		}
	}
	return fails, false
}

func matchError(want string, err error) string {
	if want == "" {
		if err != nil {
			return "unexpected error: " + err.Error()
		}
		return ""
	}
	if err == nil {
		return "expected error " + want
	}
	var target error
	switch want {
	case ErrNameOutOfBounds:
		target = content.ErrOutOfBounds
	case ErrNameCannotUndo:
		target = content.ErrCannotUndo
	case ErrNameCannotRedo:
		target = content.ErrCannotRedo
	case ErrNameReleased:
		target = content.ErrReleased
	}
	if !errors.Is(err, target) {
		return fmt.Sprintf("error %v, want %s", err, want)
	}
	return ""
}
