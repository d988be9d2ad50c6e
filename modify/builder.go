package modify

import (
	"fmt"

	"github.com/fulldump/bucketdb/imm"
)

// Builder accumulates operations for one path. It is a value: every method
// returns a new Builder and never touches the receiver.
//
//	modify.Chain(
//		modify.At("balance").Increase(10),
//		modify.At("orders.*", map[string]any{"status": "open"}).Merge(map[string]any{"status": "closed"}),
//	)
type Builder struct {
	path  imm.Path
	guard imm.Value
	ops   []Op
}

// At starts a builder. path is a dotted string, an imm.Path or a list of
// segments. The optional guard is a condition on the value at path.
func At(path any, guard ...any) Builder {
	b := Builder{path: toPath(path)}
	if len(guard) > 0 {
		b.guard = imm.From(guard[0])
	}
	return b
}

func toPath(path any) imm.Path {
	switch p := path.(type) {
	case string:
		return imm.ParsePath(p)
	case imm.Path:
		return p
	case []any:
		result, err := imm.PathFrom(p)
		if err != nil {
			panic(err)
		}
		return result
	case []string:
		result := make(imm.Path, len(p))
		for i, segment := range p {
			result[i] = segment
		}
		return result
	}
	panic(fmt.Sprintf("modify: unsupported path %T", path))
}

func (b Builder) push(code Code, params Params) Builder {
	ops := make([]Op, len(b.ops), len(b.ops)+1)
	copy(ops, b.ops)
	b.ops = append(ops, Op{Code: code, Params: params})
	return b
}

func (b Builder) Entry() Entry {
	ops := make([]Op, len(b.ops))
	copy(ops, b.ops)
	return Entry{Path: b.path, Guard: b.guard, Ops: ops}
}

func (b Builder) Modifier() Modifier {
	return Modifier{b.Entry()}
}

func values(vs []any) []imm.Value {
	result := make([]imm.Value, len(vs))
	for i, v := range vs {
		result[i] = imm.From(v)
	}
	return result
}

func (b Builder) Set(value any) Builder {
	return b.push(OpSet, Params{Value: imm.From(value)})
}

func (b Builder) Unset() Builder {
	return b.push(OpUnset, Params{})
}

func (b Builder) Merge(value any) Builder {
	return b.push(OpMerge, Params{Value: imm.From(value)})
}

func (b Builder) Without(keys ...string) Builder {
	return b.push(OpWithout, Params{Keys: keys})
}

func (b Builder) Increase(n float64) Builder {
	return b.push(OpIncrease, Params{Value: n})
}

func (b Builder) Decrease(n float64) Builder {
	return b.push(OpDecrease, Params{Value: n})
}

func (b Builder) Max(n float64) Builder {
	return b.push(OpMax, Params{Value: n})
}

func (b Builder) Min(n float64) Builder {
	return b.push(OpMin, Params{Value: n})
}

func (b Builder) PushEnd(value any) Builder {
	return b.push(OpPushEnd, Params{Value: imm.From(value)})
}

func (b Builder) PushStart(value any) Builder {
	return b.push(OpPushStart, Params{Value: imm.From(value)})
}

func (b Builder) PushAt(index int, value any) Builder {
	return b.push(OpPushAt, Params{Index: index, Value: imm.From(value)})
}

func (b Builder) PullEnd() Builder {
	return b.push(OpPullEnd, Params{})
}

func (b Builder) PullStart() Builder {
	return b.push(OpPullStart, Params{})
}

func (b Builder) PullAt(index int) Builder {
	return b.push(OpPullAt, Params{Index: index})
}

func (b Builder) JoinEnd(vs ...any) Builder {
	return b.push(OpJoinEnd, Params{Values: values(vs)})
}

func (b Builder) JoinStart(vs ...any) Builder {
	return b.push(OpJoinStart, Params{Values: values(vs)})
}

func (b Builder) JoinAt(index int, vs ...any) Builder {
	return b.push(OpJoinAt, Params{Index: index, Values: values(vs)})
}

func (b Builder) PushToSet(value any) Builder {
	return b.push(OpPushToSet, Params{Value: imm.From(value)})
}

func (b Builder) PushToSetAll(vs ...any) Builder {
	return b.push(OpPushToSetAll, Params{Values: values(vs)})
}

func (b Builder) PullFromSet(value any) Builder {
	return b.push(OpPullFromSet, Params{Value: imm.From(value)})
}

func (b Builder) PullFromSetAll(vs ...any) Builder {
	return b.push(OpPullFromSetAll, Params{Values: values(vs)})
}

// Slice keeps [start, end). Negative offsets count from the end and a
// missing end means up to the last element.
func (b Builder) Slice(start int, end ...int) Builder {
	p := Params{Start: start}
	if len(end) > 0 {
		e := end[0]
		p.End = &e
	}
	return b.push(OpSlice, p)
}

func (b Builder) Remove() Builder {
	return b.push(OpRemove, Params{})
}

func (b Builder) Modify(updates ...Builder) Builder {
	return b.push(OpModify, Params{Updates: Chain(updates...)})
}
