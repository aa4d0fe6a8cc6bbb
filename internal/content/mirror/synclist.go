package mirror

import (
	"fmt"

	"github.com/dshills/doccontent/internal/content"
)

// Pair ties a real position to its expected record.
type Pair struct {
	Name     string
	Real     *content.Position
	Expected *Record
	Released bool
}

// Mismatch describes a pair whose real and expected offsets disagree.
type Mismatch struct {
	Name     string
	Real     int
	Expected int
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s: real %d, expected %d", m.Name, m.Real, m.Expected)
}

// SyncList keeps every position created through a Checker in creation order.
type SyncList struct {
	pairs  []*Pair
	byName map[string]*Pair
}

// NewSyncList creates an empty list.
func NewSyncList() *SyncList {
	return &SyncList{byName: make(map[string]*Pair)}
}

// Add appends a pair. An empty name is replaced by "p<index>".
func (l *SyncList) Add(name string, real *content.Position, rec *Record) *Pair {
	if name == "" {
		name = fmt.Sprintf("p%d", len(l.pairs))
	}
	p := &Pair{Name: name, Real: real, Expected: rec}
	l.pairs = append(l.pairs, p)
	l.byName[name] = p
	return p
}

// Get returns the pair registered under name.
func (l *SyncList) Get(name string) (*Pair, bool) {
	p, ok := l.byName[name]
	return p, ok
}

// At returns the i-th pair in creation order.
func (l *SyncList) At(i int) *Pair {
	return l.pairs[i]
}

// Len returns the number of pairs, released ones included.
func (l *SyncList) Len() int {
	return len(l.pairs)
}

// Live returns the pairs that have not been released.
func (l *SyncList) Live() []*Pair {
	var live []*Pair
	for _, p := range l.pairs {
		if !p.Released {
			live = append(live, p)
		}
	}
	return live
}

// Comparable reports whether p takes part in comparisons.
func (p *Pair) Comparable() bool {
	return !p.Released && !p.Expected.MayDiffer
}

// Compare returns every comparable pair whose offsets disagree.
func (l *SyncList) Compare() []Mismatch {
	var out []Mismatch
	for _, p := range l.pairs {
		if !p.Comparable() {
			continue
		}
		if got := p.Real.Offset(); got != p.Expected.Offset {
			out = append(out, Mismatch{Name: p.Name, Real: got, Expected: p.Expected.Offset})
		}
	}
	return out
}

// MayDiffer returns the number of live pairs currently excluded from
// comparison.
func (l *SyncList) MayDiffer() int {
	n := 0
	for _, p := range l.pairs {
		if !p.Released && p.Expected.MayDiffer {
			n++
		}
	}
	return n
}
