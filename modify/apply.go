package modify

import (
	"fmt"
	"math"

	"github.com/fulldump/bucketdb/filter"
	"github.com/fulldump/bucketdb/imm"
	"github.com/fulldump/bucketdb/record"
)

// Apply runs m against doc. The same *Record is returned when nothing
// changed. Removing a top level field that has a type default resets it.
func Apply(doc *record.Record, m Modifier) (*record.Record, error) {
	a := applier{defaults: doc.Type().Default}
	data, _, err := a.modifier(doc.Data(), true, m, true)
	if err != nil {
		return nil, err
	}
	return doc.WithData(data), nil
}

// ApplyValue runs m against an arbitrary value. The boolean is false when
// the value itself was removed.
func ApplyValue(v imm.Value, m Modifier) (imm.Value, bool, error) {
	return applier{}.modifier(v, v != nil, m, false)
}

type applier struct {
	defaults func(key string) (imm.Value, bool)
}

type opFunc func(current imm.Value, exists bool) (imm.Value, bool, error)

func (a applier) modifier(doc imm.Value, present bool, m Modifier, top bool) (imm.Value, bool, error) {
	var err error
	for _, e := range m {
		if len(e.Path) == 0 {
			return nil, false, ErrEmptyPath
		}
		doc, present, err = a.entry(doc, present, e.Path, e.Guard, e.Ops, top)
		if err != nil {
			return nil, false, err
		}
	}
	return doc, present, nil
}

func (a applier) entry(doc imm.Value, present bool, path imm.Path, guard imm.Value, ops []Op, top bool) (imm.Value, bool, error) {

	if w := path.HasWildcard(); w >= 0 {
		var failure error
		result, ok := imm.DoIn(doc, path[:w].Append(imm.Wildcard), func(item imm.Value, _ bool) (imm.Value, bool) {
			if failure != nil {
				return item, true
			}
			next, keep, err := a.entry(item, true, path[w+1:], guard, ops, false)
			if err != nil {
				failure = err
				return item, true
			}
			return next, keep
		})
		if failure != nil {
			return nil, false, failure
		}
		return result, ok, nil
	}

	if guard != nil {
		matched, err := guardMatches(doc, path, guard)
		if err != nil {
			return nil, false, err
		}
		if !matched {
			return doc, present, nil
		}
	}

	for _, op := range ops {
		f, err := operation(op)
		if err != nil {
			return nil, false, err
		}

		if len(path) == 0 {
			doc, present, err = f(doc, present)
			if err != nil {
				return nil, false, err
			}
			continue
		}

		var failure error
		doc, present = imm.DoIn(doc, path, func(current imm.Value, exists bool) (imm.Value, bool) {
			next, keep, err := f(current, exists)
			if err != nil {
				failure = err
				return current, exists
			}
			return next, keep
		})
		if failure != nil {
			return nil, false, failure
		}

		if top && len(path) == 1 && a.defaults != nil {
			key, _ := path[0].(string)
			if _, found := imm.Lookup(doc, path); !found {
				if def, ok := a.defaults(key); ok {
					doc = imm.Set(doc, key, def)
				}
			}
		}
	}

	return doc, present, nil
}

func guardMatches(doc imm.Value, path imm.Path, guard imm.Value) (bool, error) {
	if len(path) == 0 {
		f, err := filter.Compile(guard)
		if err != nil {
			return false, err
		}
		return f.Match(doc), nil
	}
	f, err := filter.CompileCondition(guard)
	if err != nil {
		return false, err
	}
	return f.MatchIn(doc, path), nil
}

func number(v imm.Value) float64 {
	if f, ok := v.(float64); ok {
		return f
	}
	return 0
}

func seqOf(v imm.Value) *imm.Seq {
	if s, ok := v.(*imm.Seq); ok {
		return s
	}
	return imm.NewSeq()
}

func numericParam(op Op) (float64, error) {
	f, ok := op.Params.Value.(float64)
	if !ok {
		return 0, fmt.Errorf("%w: %s expects a number, got %T", ErrInvalidParams, op.Code, op.Params.Value)
	}
	return f, nil
}

// clamp resolves a slice offset the way negative offsets work on arrays.
func clamp(offset, n int) int {
	if offset < 0 {
		return max(n+offset, 0)
	}
	return min(offset, n)
}

func operation(op Op) (opFunc, error) {
	p := op.Params

	switch op.Code {
	case OpSet:
		return func(imm.Value, bool) (imm.Value, bool, error) {
			return p.Value, true, nil
		}, nil

	case OpUnset, OpRemove:
		return func(imm.Value, bool) (imm.Value, bool, error) {
			return nil, false, nil
		}, nil

	case OpMerge:
		return func(current imm.Value, _ bool) (imm.Value, bool, error) {
			return imm.Merge(current, p.Value), true, nil
		}, nil

	case OpWithout:
		return func(current imm.Value, exists bool) (imm.Value, bool, error) {
			m, ok := current.(*imm.Map)
			if !ok {
				return current, exists, nil
			}
			for _, key := range p.Keys {
				m = m.Delete(key)
			}
			return m, true, nil
		}, nil

	case OpIncrease, OpDecrease, OpMax, OpMin:
		n, err := numericParam(op)
		if err != nil {
			return nil, err
		}
		combine := map[Code]func(a, b float64) float64{
			OpIncrease: func(a, b float64) float64 { return a + b },
			OpDecrease: func(a, b float64) float64 { return a - b },
			OpMax:      math.Max,
			OpMin:      math.Min,
		}[op.Code]
		return func(current imm.Value, _ bool) (imm.Value, bool, error) {
			return combine(number(current), n), true, nil
		}, nil

	case OpPushEnd:
		return func(current imm.Value, _ bool) (imm.Value, bool, error) {
			return seqOf(current).Append(p.Value), true, nil
		}, nil

	case OpPushStart:
		return func(current imm.Value, _ bool) (imm.Value, bool, error) {
			return seqOf(current).Prepend(p.Value), true, nil
		}, nil

	case OpJoinEnd:
		return func(current imm.Value, _ bool) (imm.Value, bool, error) {
			return seqOf(current).Append(p.Values...), true, nil
		}, nil

	case OpJoinStart:
		return func(current imm.Value, _ bool) (imm.Value, bool, error) {
			return seqOf(current).Prepend(p.Values...), true, nil
		}, nil

	case OpPushAt, OpJoinAt:
		inserted := p.Values
		if op.Code == OpPushAt {
			inserted = []imm.Value{p.Value}
		}
		return func(current imm.Value, exists bool) (imm.Value, bool, error) {
			s := seqOf(current)
			if p.Index < 0 || p.Index > s.Len() {
				return current, exists, nil
			}
			return s.Insert(p.Index, inserted...), true, nil
		}, nil

	case OpPullEnd:
		return func(current imm.Value, exists bool) (imm.Value, bool, error) {
			return imm.RemoveLast(current), exists, nil
		}, nil

	case OpPullStart:
		return func(current imm.Value, exists bool) (imm.Value, bool, error) {
			return imm.RemoveFirst(current), exists, nil
		}, nil

	case OpPullAt:
		return func(current imm.Value, exists bool) (imm.Value, bool, error) {
			return imm.RemoveAt(current, p.Index), exists, nil
		}, nil

	case OpPushToSet, OpPushToSetAll:
		candidates := p.Values
		if op.Code == OpPushToSet {
			candidates = []imm.Value{p.Value}
		}
		return func(current imm.Value, _ bool) (imm.Value, bool, error) {
			s := seqOf(current)
			for _, v := range candidates {
				if !s.Contains(v) {
					s = s.Append(v)
				}
			}
			return s, true, nil
		}, nil

	case OpPullFromSet, OpPullFromSetAll:
		removed := p.Values
		if op.Code == OpPullFromSet {
			removed = []imm.Value{p.Value}
		}
		return func(current imm.Value, exists bool) (imm.Value, bool, error) {
			return imm.Filter(current, func(item imm.Value, _ int) bool {
				for _, r := range removed {
					if imm.Equal(item, r) {
						return false
					}
				}
				return true
			}), exists, nil
		}, nil

	case OpSlice:
		return func(current imm.Value, exists bool) (imm.Value, bool, error) {
			s := seqOf(current)
			n := s.Len()
			end := n
			if p.End != nil {
				end = clamp(*p.End, n)
			}
			return s.Slice(clamp(p.Start, n), end), true, nil
		}, nil

	case OpModify:
		return func(current imm.Value, exists bool) (imm.Value, bool, error) {
			return applier{}.modifier(current, exists, p.Updates, false)
		}, nil
	}

	return nil, fmt.Errorf("%w '%s'", ErrUnknownOpcode, op.Code)
}
