package filter

import (
	"sync"

	"github.com/SierraSoftworks/connor"
	lru "github.com/hashicorp/golang-lru"

	"github.com/fulldump/bucketdb/imm"
)

// Filter is a compiled query.
type Filter struct {
	query imm.Value
	root  *Node
	match func(doc imm.Value) bool
	cond  func(value imm.Value, found bool) bool
}

func (f *Filter) Match(doc imm.Value) bool {
	return f.match(doc)
}

// MatchIn tests the value found at path. Condition filters see missing
// values as missing, document filters never match them.
func (f *Filter) MatchIn(doc imm.Value, path imm.Path) bool {
	value, found := imm.Lookup(doc, path)
	if f.cond != nil {
		return f.cond(value, found)
	}
	return found && f.match(value)
}

// All tells whether the filter matches every document.
func (f *Filter) All() bool {
	return f.root.Kind == KindAll
}

func (f *Filter) Root() *Node {
	return f.root
}

const CacheSize = 1024

type cacheKey struct {
	hash      uint64
	condition bool
}

var (
	cacheOnce sync.Once
	cache     *lru.Cache
)

func compiled() *lru.Cache {
	cacheOnce.Do(func() {
		cache, _ = lru.New(CacheSize)
	})
	return cache
}

func lookup(key cacheKey, query imm.Value) (*Filter, bool) {
	cached, ok := compiled().Get(key)
	if !ok {
		return nil, false
	}
	for _, f := range cached.([]*Filter) {
		if imm.Equal(f.query, query) {
			return f, true
		}
	}
	return nil, false
}

func store(key cacheKey, f *Filter) {
	var bucket []*Filter
	if cached, ok := compiled().Get(key); ok {
		bucket = cached.([]*Filter)
	}
	compiled().Add(key, append(bucket[:len(bucket):len(bucket)], f))
}

// Compile parses and compiles a document filter. Compiled filters are
// memoized by the structural hash of the query.
func Compile(query any) (*Filter, error) {
	v := imm.From(query)
	key := cacheKey{hash: imm.Hash(v)}
	if f, ok := lookup(key, v); ok {
		return f, nil
	}
	root, err := Parse(v)
	if err != nil {
		return nil, err
	}
	f := &Filter{query: v, root: root, match: compileNode(root)}
	store(key, f)
	return f, nil
}

// CompileCondition compiles a condition that is tested against a value
// directly instead of against a field of a document.
func CompileCondition(condition any) (*Filter, error) {
	v := imm.From(condition)
	key := cacheKey{hash: imm.Hash(v), condition: true}
	if f, ok := lookup(key, v); ok {
		return f, nil
	}
	cond, err := ParseCondition(v)
	if err != nil {
		return nil, err
	}
	root := &Node{Kind: KindField, Path: imm.Path{}, Cond: cond}
	f := &Filter{query: v, root: root, match: compileNode(root), cond: compileCondition(cond)}
	store(key, f)
	return f, nil
}

func MustCompile(query any) *Filter {
	f, err := Compile(query)
	if err != nil {
		panic(err)
	}
	return f
}

func compileNode(n *Node) func(imm.Value) bool {
	switch n.Kind {
	case KindAll:
		return func(imm.Value) bool { return true }
	case KindAnd:
		children := compileChildren(n.Children)
		return func(doc imm.Value) bool {
			for _, child := range children {
				if !child(doc) {
					return false
				}
			}
			return true
		}
	case KindOr:
		children := compileChildren(n.Children)
		return func(doc imm.Value) bool {
			for _, child := range children {
				if child(doc) {
					return true
				}
			}
			return false
		}
	case KindNot:
		child := compileNode(n.Children[0])
		return func(doc imm.Value) bool {
			return !child(doc)
		}
	}

	path := n.Path
	cond := compileCondition(n.Cond)
	return func(doc imm.Value) bool {
		value, found := imm.Lookup(doc, path)
		return cond(value, found)
	}
}

func compileChildren(nodes []*Node) []func(imm.Value) bool {
	result := make([]func(imm.Value) bool, len(nodes))
	for i, node := range nodes {
		result[i] = compileNode(node)
	}
	return result
}

func compileCondition(c *Condition) func(value imm.Value, found bool) bool {

	if c.HasEquals {
		expected := c.Equals
		return func(value imm.Value, found bool) bool {
			return equals(value, found, expected)
		}
	}

	if c.Nested != nil {
		nested := compileNode(c.Nested)
		return func(value imm.Value, found bool) bool {
			return found && anyElement(value, nested)
		}
	}

	ops := make([]func(imm.Value, bool) bool, len(c.Ops))
	for i, op := range c.Ops {
		ops[i] = compileOperator(op)
	}
	return func(value imm.Value, found bool) bool {
		for _, op := range ops {
			if !op(value, found) {
				return false
			}
		}
		return true
	}
}

func compileOperator(op Operator) func(imm.Value, bool) bool {
	arg := op.Arg
	switch op.Name {
	case "$exists":
		want := arg.(bool)
		return func(_ imm.Value, found bool) bool {
			return found == want
		}
	case "$eq":
		return func(value imm.Value, found bool) bool {
			return equals(value, found, arg)
		}
	case "$ne":
		return func(value imm.Value, found bool) bool {
			return !equals(value, found, arg)
		}
	case "$in":
		set := arg.(*imm.Seq).Values()
		return func(value imm.Value, found bool) bool {
			return in(value, found, set)
		}
	case "$nin":
		set := arg.(*imm.Seq).Values()
		return func(value imm.Value, found bool) bool {
			return !in(value, found, set)
		}
	}

	conditions := map[string]interface{}{
		"v": map[string]interface{}{op.Name: imm.ToNative(arg)},
	}
	compare := func(value imm.Value) bool {
		if !orderable(value, arg) {
			return false
		}
		match, err := connor.Match(conditions, map[string]interface{}{"v": value})
		return err == nil && match
	}
	return func(value imm.Value, found bool) bool {
		if !found {
			return false
		}
		if compare(value) {
			return true
		}
		return anyElement(value, compare)
	}
}

// orderable only lets same kind scalars reach ordering operators.
func orderable(value, arg imm.Value) bool {
	switch value.(type) {
	case float64:
		_, ok := arg.(float64)
		return ok
	case string:
		_, ok := arg.(string)
		return ok
	}
	return false
}

func equals(value imm.Value, found bool, expected imm.Value) bool {
	if !found {
		return expected == nil
	}
	if imm.Equal(value, expected) {
		return true
	}
	return anyElement(value, func(item imm.Value) bool {
		return imm.Equal(item, expected)
	})
}

func in(value imm.Value, found bool, set []imm.Value) bool {
	for _, candidate := range set {
		if equals(value, found, candidate) {
			return true
		}
	}
	return false
}

func anyElement(value imm.Value, f func(imm.Value) bool) bool {
	s, ok := value.(*imm.Seq)
	if !ok {
		return false
	}
	matched := false
	s.Range(func(_ int, item imm.Value) bool {
		matched = f(item)
		return !matched
	})
	return matched
}
