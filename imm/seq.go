package imm

import (
	"github.com/benbjohnson/immutable"
)

// Seq is a persistent sequence. The zero value is an empty sequence.
type Seq struct {
	l *immutable.List[Value]
}

func NewSeq(values ...Value) *Seq {
	l := immutable.NewList[Value]()
	for _, v := range values {
		l = l.Append(v)
	}
	return &Seq{l: l}
}

func (s *Seq) inner() *immutable.List[Value] {
	if s == nil || s.l == nil {
		return immutable.NewList[Value]()
	}
	return s.l
}

func (s *Seq) Len() int {
	if s == nil || s.l == nil {
		return 0
	}
	return s.l.Len()
}

// At returns the element at i, or nil when i is out of range.
func (s *Seq) At(i int) Value {
	if i < 0 || i >= s.Len() {
		return nil
	}
	return s.l.Get(i)
}

func (s *Seq) Set(i int, value Value) *Seq {
	if i < s.Len() && Equal(s.l.Get(i), value) {
		return s
	}
	l := s.inner()
	for l.Len() < i {
		l = l.Append(nil)
	}
	if i == l.Len() {
		return &Seq{l: l.Append(value)}
	}
	return &Seq{l: l.Set(i, value)}
}

func (s *Seq) Append(values ...Value) *Seq {
	if len(values) == 0 {
		return s
	}
	l := s.inner()
	for _, v := range values {
		l = l.Append(v)
	}
	return &Seq{l: l}
}

func (s *Seq) Prepend(values ...Value) *Seq {
	if len(values) == 0 {
		return s
	}
	l := s.inner()
	for i := len(values) - 1; i >= 0; i-- {
		l = l.Prepend(values[i])
	}
	return &Seq{l: l}
}

// Insert places values before position i. Positions past the end are
// rejected by returning the receiver unchanged.
func (s *Seq) Insert(i int, values ...Value) *Seq {
	n := s.Len()
	if i < 0 || i > n || len(values) == 0 {
		return s
	}
	if i == n {
		return s.Append(values...)
	}
	if i == 0 {
		return s.Prepend(values...)
	}
	l := s.inner().Slice(0, i)
	for _, v := range values {
		l = l.Append(v)
	}
	for j := i; j < n; j++ {
		l = l.Append(s.l.Get(j))
	}
	return &Seq{l: l}
}

// RemoveAt drops the element at i. Out of range positions are ignored.
func (s *Seq) RemoveAt(i int) *Seq {
	n := s.Len()
	if i < 0 || i >= n {
		return s
	}
	if i == n-1 {
		return &Seq{l: s.l.Slice(0, i)}
	}
	if i == 0 {
		return &Seq{l: s.l.Slice(1, n)}
	}
	l := s.l.Slice(0, i)
	for j := i + 1; j < n; j++ {
		l = l.Append(s.l.Get(j))
	}
	return &Seq{l: l}
}

// Slice returns elements in [start, end). Bounds are clamped.
func (s *Seq) Slice(start, end int) *Seq {
	n := s.Len()
	if start < 0 {
		start = 0
	}
	if end > n {
		end = n
	}
	if start == 0 && end == n {
		return s
	}
	if start >= end {
		return NewSeq()
	}
	return &Seq{l: s.l.Slice(start, end)}
}

// IndexOf returns the position of the first element equal to v, or -1.
func (s *Seq) IndexOf(v Value) int {
	found := -1
	s.Range(func(i int, item Value) bool {
		if Equal(item, v) {
			found = i
			return false
		}
		return true
	})
	return found
}

func (s *Seq) Contains(v Value) bool {
	return s.IndexOf(v) >= 0
}

// Range walks the elements in order until f returns false.
func (s *Seq) Range(f func(i int, value Value) bool) {
	if s == nil || s.l == nil {
		return
	}
	itr := s.l.Iterator()
	for !itr.Done() {
		i, value := itr.Next()
		if !f(i, value) {
			return
		}
	}
}

func (s *Seq) Values() []Value {
	values := make([]Value, 0, s.Len())
	s.Range(func(_ int, v Value) bool {
		values = append(values, v)
		return true
	})
	return values
}
