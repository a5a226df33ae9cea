// Package configtree resolves dotted paths and applies copy-on-write edits
// to nested configuration trees.
//
// A Tree is never mutated once it has been handed out. Set and its variants
// copy only the records along the edited path; every sibling subtree is shared
// with the input tree.
package configtree

import "strings"

// Tree is a nested configuration record. Values are bools, strings or Trees.
type Tree map[string]any

// Path is an ordered list of keys into a Tree.
type Path []string

// String returns the dotted form of the path.
func (p Path) String() string {
	return strings.Join(p, ".")
}

// Resolve splits a dotted path, drops empty segments and appends leaf.
// An empty path resolves to the leaf alone.
func Resolve(path, leaf string) Path {
	parts := strings.Split(path, ".")
	out := make(Path, 0, len(parts)+1)
	for _, part := range parts {
		if part != "" {
			out = append(out, part)
		}
	}
	if leaf != "" {
		out = append(out, leaf)
	}
	return out
}

// Get retrieves the value at p.
func Get(t Tree, p Path) (any, bool) {
	if t == nil || len(p) == 0 {
		return nil, false
	}

	current := t
	for i, key := range p {
		val, ok := current[key]
		if !ok {
			return nil, false
		}
		if i == len(p)-1 {
			return val, true
		}
		next, ok := asTree(val)
		if !ok {
			return nil, false
		}
		current = next
	}
	return nil, false
}

// Set returns a new tree with v stored at p.
// Missing or non-record intermediates are replaced by empty records.
func Set(t Tree, p Path, v any) Tree {
	if len(p) == 0 {
		return t
	}

	out := shallowCopy(t)
	key := p[0]
	if len(p) == 1 {
		out[key] = v
		return out
	}

	child, _ := asTree(t[key])
	out[key] = Set(child, p[1:], v)
	return out
}

// Toggle negates the boolean at p. A missing or non-bool value reads as false.
func Toggle(t Tree, p Path) Tree {
	current, _ := Get(t, p)
	enabled, _ := current.(bool)
	return Set(t, p, !enabled)
}

// SetText stores s at p, keeping the other fields of the enclosing record.
func SetText(t Tree, p Path, s string) Tree {
	return Set(t, p, s)
}

// Clone makes a deep copy of t.
func Clone(t Tree) Tree {
	if t == nil {
		return nil
	}
	out := make(Tree, len(t))
	for k, v := range t {
		if child, ok := asTree(v); ok {
			out[k] = Clone(child)
			continue
		}
		out[k] = v
	}
	return out
}

func shallowCopy(t Tree) Tree {
	out := make(Tree, len(t)+1)
	for k, v := range t {
		out[k] = v
	}
	return out
}

// asTree accepts both Tree and plain maps so decoded JSON can be edited.
func asTree(v any) (Tree, bool) {
	switch m := v.(type) {
	case Tree:
		return m, true
	case map[string]any:
		return Tree(m), true
	default:
		return nil, false
	}
}
