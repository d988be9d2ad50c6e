package imm

import (
	"fmt"
	"strconv"
	"strings"
)

// WildcardSegment broadcasts the rest of a path over every element of the
// sequence found at its position.
type WildcardSegment struct{}

var Wildcard = WildcardSegment{}

func (WildcardSegment) String() string {
	return "*"
}

// Path is a list of segments: string (map field), int (sequence position)
// or Wildcard. Any other segment type is a programmer error.
type Path []any

// ParsePath splits a dotted path. Numeric parts become positions and "*"
// becomes Wildcard.
//
//	ParsePath("orders.*.items.0") => {"orders", Wildcard, "items", 0}
func ParsePath(s string) Path {
	if s == "" {
		return Path{}
	}
	parts := strings.Split(s, ".")
	path := make(Path, 0, len(parts))
	for _, part := range parts {
		if part == "*" {
			path = append(path, Wildcard)
			continue
		}
		if i, err := strconv.Atoi(part); err == nil && i >= 0 {
			path = append(path, i)
			continue
		}
		path = append(path, part)
	}
	return path
}

// PathFrom converts a decoded JSON path (strings, numbers and "*") into a
// Path.
func PathFrom(segments []any) (Path, error) {
	path := make(Path, 0, len(segments))
	for _, segment := range segments {
		switch s := segment.(type) {
		case string:
			if s == "*" {
				path = append(path, Wildcard)
			} else {
				path = append(path, s)
			}
		case WildcardSegment:
			path = append(path, Wildcard)
		default:
			f, ok := From(s).(float64)
			if !ok || f < 0 || f != float64(int(f)) {
				return nil, fmt.Errorf("invalid path segment %v", segment)
			}
			path = append(path, int(f))
		}
	}
	return path, nil
}

// HasWildcard returns the position of the first wildcard or -1.
func (p Path) HasWildcard() int {
	for i, segment := range p {
		if _, ok := segment.(WildcardSegment); ok {
			return i
		}
	}
	return -1
}

func (p Path) Append(segments ...any) Path {
	result := make(Path, 0, len(p)+len(segments))
	result = append(result, p...)
	return append(result, segments...)
}

func (p Path) String() string {
	parts := make([]string, len(p))
	for i, segment := range p {
		parts[i] = fmt.Sprint(segment)
	}
	return strings.Join(parts, ".")
}

// Native renders the path as JSON friendly segments.
func (p Path) Native() []any {
	result := make([]any, len(p))
	for i, segment := range p {
		if _, ok := segment.(WildcardSegment); ok {
			result[i] = "*"
			continue
		}
		result[i] = segment
	}
	return result
}

func invalidSegment(segment any) {
	panic(fmt.Sprintf("imm: invalid path segment %T(%v)", segment, segment))
}
