// Package scenario replays scripted edit sequences from YAML files.
//
// A file holds one or more YAML documents, each a Scenario:
//
//	name: backward position at removal boundary
//	text: hello world
//	steps:
//	  - {op: position, name: p, offset: 3, bias: backward}
//	  - {op: remove, offset: 2, length: 1, expect_text: helo world}
//	  - {op: check, name: p, expect_offset: 2}
//	  - {op: undo, expect_text: hello world}
//	  - {op: max_undo, limit: 1}
//
// Every step runs through a mirror.Checker, so a scenario also fails when
// the document disagrees with the reference model. max_undo and
// sharing_includes_displaced, when set, override the document options the
// scenario is run with.
package scenario

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dshills/doccontent/internal/content/mirror"
	"github.com/dshills/doccontent/internal/content/position"
)

// Step ops.
const (
	OpInsert   = "insert"
	OpRemove   = "remove"
	OpUndo     = "undo"
	OpRedo     = "redo"
	OpPosition = "position"
	OpRelease  = "release"
	OpCheck    = "check"
	OpMaxUndo  = "max_undo"
)

// Error names accepted by expect_error.
const (
	ErrNameOutOfBounds = "out_of_bounds"
	ErrNameCannotUndo  = "cannot_undo"
	ErrNameCannotRedo  = "cannot_redo"
	ErrNameReleased    = "released"
)

// ErrInvalid is matched by every scenario format error.
var ErrInvalid = errors.New("invalid scenario")

// Scenario is one scripted run.
type Scenario struct {
	Name                     string `yaml:"name"`
	Text                     string `yaml:"text"`
	MaxUndo                  int    `yaml:"max_undo,omitempty"`
	SharingIncludesDisplaced *bool  `yaml:"sharing_includes_displaced,omitempty"`
	Steps                    []Step `yaml:"steps"`
}

// Step is one operation plus optional expectations.
type Step struct {
	Op     string `yaml:"op"`
	Offset int    `yaml:"offset,omitempty"`
	Length int    `yaml:"length,omitempty"`
	Text   string `yaml:"text,omitempty"`
	Bias   string `yaml:"bias,omitempty"`
	Name   string `yaml:"name,omitempty"`
	Limit  int    `yaml:"limit,omitempty"`

	ExpectText   *string `yaml:"expect_text,omitempty"`
	ExpectOffset *int    `yaml:"expect_offset,omitempty"`
	ExpectError  string  `yaml:"expect_error,omitempty"`
}

// Options returns base with the scenario's own document settings applied.
func (sc Scenario) Options(base mirror.Options) mirror.Options {
	o := base
	o.Text = sc.Text
	if sc.MaxUndo > 0 {
		o.MaxUndo = sc.MaxUndo
	}
	if sc.SharingIncludesDisplaced != nil {
		o.SharingIncludesDisplaced = *sc.SharingIncludesDisplaced
	}
	return o
}

// LoadFile reads every scenario in path.
func LoadFile(path string) ([]Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scenario file: %w", err)
	}
	defer f.Close()

	scs, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return scs, nil
}

// Decode reads a stream of YAML scenario documents.
func Decode(r io.Reader) ([]Scenario, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var scs []Scenario
	for {
		var sc Scenario
		err := dec.Decode(&sc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode scenario %d: %w", len(scs)+1, err)
		}
		if err := sc.Validate(); err != nil {
			return nil, err
		}
		scs = append(scs, sc)
	}
	return scs, nil
}

// Encode writes scenarios as a YAML stream.
func Encode(w io.Writer, scs []Scenario) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	for _, sc := range scs {
		if err := enc.Encode(sc); err != nil {
			return fmt.Errorf("encode scenario %q: %w", sc.Name, err)
		}
	}
	return enc.Close()
}

// Validate checks ops and required fields.
func (sc Scenario) Validate() error {
	for i, st := range sc.Steps {
		if err := st.validate(); err != nil {
			return fmt.Errorf("%w: %q step %d: %v", ErrInvalid, sc.Name, i+1, err)
		}
	}
	return nil
}

func (st Step) validate() error {
	switch st.Op {
	case OpInsert, OpRemove, OpUndo, OpRedo:
	case OpPosition:
		if st.Name == "" {
			return errors.New("position needs a name")
		}
		if _, err := position.ParseBias(st.Bias); err != nil {
			return err
		}
	case OpRelease:
		if st.Name == "" {
			return errors.New("release needs a name")
		}
	case OpCheck:
		if st.ExpectOffset != nil && st.Name == "" {
			return errors.New("expect_offset needs a name")
		}
	case OpMaxUndo:
		if st.Limit < 1 {
			return errors.New("max_undo needs a positive limit")
		}
	default:
		return fmt.Errorf("unknown op %q", st.Op)
	}
	switch st.ExpectError {
	case "", ErrNameOutOfBounds, ErrNameCannotUndo, ErrNameCannotRedo, ErrNameReleased:
	default:
		return fmt.Errorf("unknown expect_error %q", st.ExpectError)
	}
	return nil
}
