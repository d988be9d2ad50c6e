// Package record implements the immutable document stored in buckets.
package record

import (
	"strconv"

	"github.com/fulldump/bucketdb/imm"
)

const IDField = "id"

// Type groups documents sharing a name and a set of default fields.
type Type struct {
	Name     string
	Defaults *imm.Map
}

func NewType(name string, defaults map[string]any) *Type {
	return &Type{
		Name:     name,
		Defaults: imm.MapOf(defaults),
	}
}

// New builds a document of this type, declared defaults are layered under
// fields.
func (t *Type) New(fields any) *Record {
	data := toMap(fields)
	if t != nil && t.Defaults.Len() > 0 {
		data = imm.Merge(t.Defaults, data).(*imm.Map)
	}
	return &Record{t: t, data: data}
}

func (t *Type) Default(key string) (imm.Value, bool) {
	if t == nil {
		return nil, false
	}
	return t.Defaults.Get(key)
}

// Record is an immutable field map identified by its "id" field. Every
// method returns the receiver itself when the requested change is a no-op.
type Record struct {
	t    *Type
	data *imm.Map
}

// New builds an untyped document.
func New(fields any) *Record {
	return (*Type)(nil).New(fields)
}

func toMap(fields any) *imm.Map {
	switch v := imm.From(fields).(type) {
	case *imm.Map:
		return v
	case nil:
		return imm.NewMap()
	}
	return imm.NewMap()
}

func (r *Record) Type() *Type {
	return r.t
}

func (r *Record) Data() *imm.Map {
	return r.data
}

// ID renders the id field as a string, numbers without trailing zeros.
func (r *Record) ID() string {
	return IDString(r.Get(IDField))
}

func (r *Record) HasID() bool {
	v, ok := r.data.Get(IDField)
	return ok && v != nil && IDString(v) != ""
}

func IDString(v imm.Value) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case nil:
		return ""
	}
	return ""
}

func (r *Record) Native() map[string]any {
	return imm.ToNative(r.data).(map[string]any)
}

func (r *Record) Equal(other *Record) bool {
	if r == other {
		return true
	}
	if r == nil || other == nil {
		return false
	}
	return imm.Equal(r.data, other.data)
}

func (r *Record) MarshalJSON() ([]byte, error) {
	return r.data.MarshalJSON()
}

// WithData swaps the whole field map. Anything that is not a map is
// replaced by an empty map.
func (r *Record) WithData(data imm.Value) *Record {
	m, ok := data.(*imm.Map)
	if !ok {
		m = imm.NewMap()
	}
	if m == r.data || imm.Equal(m, r.data) {
		return r
	}
	return &Record{t: r.t, data: m}
}

// Clone returns a distinct Record sharing the same data.
func (r *Record) Clone() *Record {
	return &Record{t: r.t, data: r.data}
}

// Extend layers the fields of partial over the document.
func (r *Record) Extend(partial any) *Record {
	fields, ok := imm.From(partial).(*imm.Map)
	if !ok {
		return r
	}
	data := r.data
	fields.Range(func(key string, value imm.Value) bool {
		data = data.Set(key, value)
		return true
	})
	return r.WithData(data)
}

func (r *Record) Get(key string, alt ...imm.Value) imm.Value {
	return imm.Get(r.data, key, alt...)
}

func (r *Record) GetIn(path imm.Path, alt ...imm.Value) imm.Value {
	return imm.GetIn(r.data, path, alt...)
}

func (r *Record) Has(key string) bool {
	return r.data.Has(key)
}

func (r *Record) Set(key string, value imm.Value) *Record {
	return r.WithData(imm.Set(r.data, key, value))
}

func (r *Record) SetIn(path imm.Path, value imm.Value) *Record {
	return r.WithData(imm.SetIn(r.data, path, value))
}

func (r *Record) Update(key string, f func(imm.Value) imm.Value) *Record {
	return r.WithData(imm.Update(r.data, key, f))
}

func (r *Record) UpdateIn(path imm.Path, f func(imm.Value) imm.Value) *Record {
	return r.WithData(imm.UpdateIn(r.data, path, f))
}

func (r *Record) Merge(partial any) *Record {
	return r.WithData(imm.Merge(r.data, imm.From(partial)))
}

func (r *Record) MergeIn(path imm.Path, partial any) *Record {
	return r.WithData(imm.MergeIn(r.data, path, imm.From(partial)))
}

// Unset removes a field, or resets it when the type declares a default.
func (r *Record) Unset(key string) *Record {
	if def, ok := r.t.Default(key); ok {
		return r.Set(key, def)
	}
	return r.WithData(imm.Remove(r.data, key))
}

func (r *Record) UnsetIn(path imm.Path) *Record {
	if len(path) == 1 {
		if key, ok := path[0].(string); ok {
			return r.Unset(key)
		}
	}
	return r.WithData(imm.RemoveIn(r.data, path))
}

func (r *Record) MapIn(path imm.Path, f func(item imm.Value, i int) imm.Value) *Record {
	return r.WithData(imm.MapIn(r.data, path, f))
}

func (r *Record) FilterIn(path imm.Path, keep func(item imm.Value, i int) bool) *Record {
	return r.WithData(imm.FilterIn(r.data, path, keep))
}

func (r *Record) ItemIn(path imm.Path, i int, value imm.Value) *Record {
	return r.WithData(imm.ItemIn(r.data, path, i, value))
}

func (r *Record) AddLastIn(path imm.Path, values ...imm.Value) *Record {
	return r.WithData(imm.AddLastIn(r.data, path, values...))
}

func (r *Record) AddFirstIn(path imm.Path, values ...imm.Value) *Record {
	return r.WithData(imm.AddFirstIn(r.data, path, values...))
}

func (r *Record) RemoveLastIn(path imm.Path) *Record {
	return r.WithData(imm.RemoveLastIn(r.data, path))
}

func (r *Record) RemoveFirstIn(path imm.Path) *Record {
	return r.WithData(imm.RemoveFirstIn(r.data, path))
}

func (r *Record) RemoveAtIn(path imm.Path, i int) *Record {
	return r.WithData(imm.RemoveAtIn(r.data, path, i))
}
