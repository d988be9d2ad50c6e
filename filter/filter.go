// Package filter implements the query mini-language used to select
// documents: implicit equality per field, comparison and membership
// operators, nested field paths and $and / $or / $not composition.
//
//	{"active": true, "balance": {"$gte": 10}, "profile.country": {"$in": ["es", "pt"]}}
package filter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fulldump/bucketdb/imm"
)

var ErrInvalidFilter = errors.New("invalid filter")

type Kind int

const (
	KindAll Kind = iota
	KindAnd
	KindOr
	KindNot
	KindField
)

// Node is the parsed form of a filter.
type Node struct {
	Kind     Kind
	Children []*Node
	Path     imm.Path
	Cond     *Condition
}

// Condition is what a single field must satisfy.
type Condition struct {
	Equals    imm.Value
	HasEquals bool
	Ops       []Operator
	Nested    *Node
}

type Operator struct {
	Name string
	Arg  imm.Value
}

var aliases = map[string]string{
	"$gte": "$ge",
	"$lte": "$le",
}

var operators = map[string]bool{
	"$eq":        true,
	"$ne":        true,
	"$gt":        true,
	"$ge":        true,
	"$lt":        true,
	"$le":        true,
	"$in":        true,
	"$nin":       true,
	"$exists":    true,
	"$elemMatch": true,
}

// Parse validates a query and returns its tree. nil and {} match all.
func Parse(query any) (*Node, error) {
	v := imm.From(query)
	if v == nil {
		return &Node{Kind: KindAll}, nil
	}
	m, ok := v.(*imm.Map)
	if !ok {
		return nil, fmt.Errorf("%w: expected object, got %T", ErrInvalidFilter, query)
	}
	return parseDocument(m)
}

func parseDocument(m *imm.Map) (*Node, error) {
	children := []*Node{}
	var err error
	m.Range(func(key string, value imm.Value) bool {
		var child *Node
		child, err = parseEntry(key, value)
		if err != nil {
			return false
		}
		children = append(children, child)
		return true
	})
	if err != nil {
		return nil, err
	}
	switch len(children) {
	case 0:
		return &Node{Kind: KindAll}, nil
	case 1:
		return children[0], nil
	}
	return &Node{Kind: KindAnd, Children: children}, nil
}

func parseEntry(key string, value imm.Value) (*Node, error) {
	switch key {
	case "$and", "$or":
		list, ok := value.(*imm.Seq)
		if !ok {
			return nil, fmt.Errorf("%w: %s expects a list", ErrInvalidFilter, key)
		}
		node := &Node{Kind: KindAnd}
		if key == "$or" {
			node.Kind = KindOr
		}
		for _, item := range list.Values() {
			sub, ok := item.(*imm.Map)
			if !ok {
				return nil, fmt.Errorf("%w: %s expects a list of objects", ErrInvalidFilter, key)
			}
			child, err := parseDocument(sub)
			if err != nil {
				return nil, err
			}
			node.Children = append(node.Children, child)
		}
		return node, nil
	case "$not":
		sub, ok := value.(*imm.Map)
		if !ok {
			return nil, fmt.Errorf("%w: $not expects an object", ErrInvalidFilter)
		}
		child, err := parseDocument(sub)
		if err != nil {
			return nil, err
		}
		return &Node{Kind: KindNot, Children: []*Node{child}}, nil
	}
	if strings.HasPrefix(key, "$") {
		return nil, fmt.Errorf("%w: unknown operator '%s'", ErrInvalidFilter, key)
	}
	cond, err := ParseCondition(value)
	if err != nil {
		return nil, fmt.Errorf("field '%s': %w", key, err)
	}
	return &Node{Kind: KindField, Path: imm.ParsePath(key), Cond: cond}, nil
}

// ParseCondition parses the right hand side of a field filter: an operator
// object or a literal compared by deep equality. Objects without operators
// are literals too; sub fields are reached with dotted paths and array
// elements with $elemMatch.
func ParseCondition(value any) (*Condition, error) {
	v := imm.From(value)
	m, ok := v.(*imm.Map)
	if !ok || m.Len() == 0 {
		return &Condition{Equals: v, HasEquals: true}, nil
	}

	keys := m.Keys()
	dollars := 0
	for _, key := range keys {
		if strings.HasPrefix(key, "$") {
			dollars++
		}
	}
	if dollars == 0 {
		return &Condition{Equals: v, HasEquals: true}, nil
	}
	if dollars != len(keys) {
		return nil, fmt.Errorf("%w: operators and fields mixed in %v", ErrInvalidFilter, keys)
	}

	cond := &Condition{}
	for _, key := range keys {
		arg, _ := m.Get(key)
		name := key
		if alias, ok := aliases[name]; ok {
			name = alias
		}
		if !operators[name] {
			return nil, fmt.Errorf("%w: unknown operator '%s'", ErrInvalidFilter, key)
		}
		switch name {
		case "$in", "$nin":
			if _, ok := arg.(*imm.Seq); !ok {
				return nil, fmt.Errorf("%w: %s expects a list", ErrInvalidFilter, key)
			}
		case "$exists":
			if _, ok := arg.(bool); !ok {
				return nil, fmt.Errorf("%w: $exists expects a boolean", ErrInvalidFilter)
			}
		case "$elemMatch":
			doc, ok := arg.(*imm.Map)
			if !ok {
				return nil, fmt.Errorf("%w: $elemMatch expects an object", ErrInvalidFilter)
			}
			if len(keys) > 1 {
				return nil, fmt.Errorf("%w: $elemMatch cannot be combined with other operators", ErrInvalidFilter)
			}
			nested, err := parseDocument(doc)
			if err != nil {
				return nil, err
			}
			return &Condition{Nested: nested}, nil
		}
		cond.Ops = append(cond.Ops, Operator{Name: name, Arg: arg})
	}
	return cond, nil
}
