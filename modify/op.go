// Package modify implements declarative modifiers: ordered lists of path
// scoped operations that can be logged, replicated and replayed.
package modify

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fulldump/bucketdb/imm"
)

var (
	ErrUnknownOpcode = errors.New("unknown opcode")
	ErrEmptyPath     = errors.New("empty path")
	ErrInvalidParams = errors.New("invalid params")
)

type Code string

const (
	OpSet            Code = "set"
	OpUnset          Code = "unset"
	OpMerge          Code = "merge"
	OpWithout        Code = "without"
	OpIncrease       Code = "increase"
	OpDecrease       Code = "decrease"
	OpMax            Code = "max"
	OpMin            Code = "min"
	OpPushEnd        Code = "pushEnd"
	OpPushStart      Code = "pushStart"
	OpPushAt         Code = "pushAt"
	OpPullEnd        Code = "pullEnd"
	OpPullStart      Code = "pullStart"
	OpPullAt         Code = "pullAt"
	OpJoinEnd        Code = "joinEnd"
	OpJoinStart      Code = "joinStart"
	OpJoinAt         Code = "joinAt"
	OpPushToSet      Code = "pushToSet"
	OpPushToSetAll   Code = "pushToSetAll"
	OpPullFromSet    Code = "pullFromSet"
	OpPullFromSetAll Code = "pullFromSetAll"
	OpSlice          Code = "slice"
	OpRemove         Code = "remove"
	OpModify         Code = "modify"
)

var codes = map[Code]bool{
	OpSet: true, OpUnset: true, OpMerge: true, OpWithout: true,
	OpIncrease: true, OpDecrease: true, OpMax: true, OpMin: true,
	OpPushEnd: true, OpPushStart: true, OpPushAt: true,
	OpPullEnd: true, OpPullStart: true, OpPullAt: true,
	OpJoinEnd: true, OpJoinStart: true, OpJoinAt: true,
	OpPushToSet: true, OpPushToSetAll: true, OpPullFromSet: true, OpPullFromSetAll: true,
	OpSlice: true, OpRemove: true, OpModify: true,
}

func (c Code) Valid() bool {
	return codes[c]
}

type Params struct {
	Value   imm.Value
	Values  []imm.Value
	Keys    []string
	Index   int
	Start   int
	End     *int
	Updates Modifier
}

// Op is one (opcode, params) tuple. It is encoded as a two element JSON
// array: ["increase", {"value": 3}].
type Op struct {
	Code   Code
	Params Params
}

type paramsJSON struct {
	Value   any      `json:"value,omitempty"`
	Values  []any    `json:"values,omitempty"`
	Keys    []string `json:"keys,omitempty"`
	Index   *int     `json:"index,omitempty"`
	Start   *int     `json:"start,omitempty"`
	End     *int     `json:"end,omitempty"`
	Updates Modifier `json:"updates,omitempty"`
}

func (o Op) MarshalJSON() ([]byte, error) {
	p := paramsJSON{
		Value:   imm.ToNative(o.Params.Value),
		Keys:    o.Params.Keys,
		End:     o.Params.End,
		Updates: o.Params.Updates,
	}
	for _, v := range o.Params.Values {
		p.Values = append(p.Values, imm.ToNative(v))
	}
	switch o.Code {
	case OpPushAt, OpPullAt, OpJoinAt:
		p.Index = &o.Params.Index
	case OpSlice:
		p.Start = &o.Params.Start
	}
	return json.Marshal([]any{o.Code, p})
}

func (o *Op) UnmarshalJSON(data []byte) error {
	tuple := []json.RawMessage{}
	if err := json.Unmarshal(data, &tuple); err != nil {
		return err
	}
	if len(tuple) == 0 || len(tuple) > 2 {
		return fmt.Errorf("%w: op must be [code, params]", ErrInvalidParams)
	}
	var code Code
	if err := json.Unmarshal(tuple[0], &code); err != nil {
		return err
	}
	if !code.Valid() {
		return fmt.Errorf("%w '%s'", ErrUnknownOpcode, code)
	}
	p := paramsJSON{}
	if len(tuple) == 2 && string(tuple[1]) != "null" {
		if err := json.Unmarshal(tuple[1], &p); err != nil {
			return err
		}
	}
	o.Code = code
	o.Params = Params{
		Value:   imm.From(p.Value),
		Keys:    p.Keys,
		End:     p.End,
		Updates: p.Updates,
	}
	for _, v := range p.Values {
		o.Params.Values = append(o.Params.Values, imm.From(v))
	}
	if p.Index != nil {
		o.Params.Index = *p.Index
	}
	if p.Start != nil {
		o.Params.Start = *p.Start
	}
	return nil
}

// Entry applies Ops at Path, only when Guard (if any) matches.
type Entry struct {
	Path  imm.Path
	Guard imm.Value
	Ops   []Op
}

type entryJSON struct {
	Path  []any `json:"path"`
	Guard any   `json:"guard,omitempty"`
	Ops   []Op  `json:"ops"`
}

func (e Entry) MarshalJSON() ([]byte, error) {
	ops := e.Ops
	if ops == nil {
		ops = []Op{}
	}
	return json.Marshal(entryJSON{
		Path:  e.Path.Native(),
		Guard: imm.ToNative(e.Guard),
		Ops:   ops,
	})
}

func (e *Entry) UnmarshalJSON(data []byte) error {
	raw := entryJSON{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	path, err := imm.PathFrom(raw.Path)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidParams, err)
	}
	e.Path = path
	e.Guard = imm.From(raw.Guard)
	e.Ops = raw.Ops
	return nil
}

// Modifier is applied entry by entry, each one against the output of the
// previous one.
type Modifier []Entry

// Chain joins builders into a Modifier.
func Chain(builders ...Builder) Modifier {
	m := make(Modifier, 0, len(builders))
	for _, b := range builders {
		m = append(m, b.Entry())
	}
	return m
}

// Parse decodes a JSON modifier. A single entry object is accepted too.
func Parse(data []byte) (Modifier, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		m := Modifier{}
		if err := json.Unmarshal(trimmed, &m); err != nil {
			return nil, err
		}
		return m, nil
	}
	e := Entry{}
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return Modifier{e}, nil
}
