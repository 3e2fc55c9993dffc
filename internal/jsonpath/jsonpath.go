// package jsonpath walks documents decoded by encoding/json into [any].
//
// Lookups are chained on a [Node]; the first failure sticks to the node and is
// reported by the terminal accessor with the full path that was being read,
// e.g. "title.runs[0].text", so schema drift in a scraped payload can be
// pinned to the exact field that moved.
package jsonpath

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrMissing  = errors.New("missing field")
	ErrMismatch = errors.New("type mismatch")
)

// Error reports a failed lookup. Kind is [ErrMissing] or [ErrMismatch].
type Error struct {
	Path string
	Kind error
	Want string // expected JSON type, set for mismatches
}

func (e *Error) Error() string {
	if e.Want != "" {
		return fmt.Sprintf("%v at %s: want %s", e.Kind, e.Path, e.Want)
	}
	return fmt.Sprintf("%v: %s", e.Kind, e.Path)
}

func (e *Error) Unwrap() error { return e.Kind }

// Node is a position inside a decoded JSON document.
type Node struct {
	value any
	path  string
	err   error
}

// New returns the root node of v.
func New(v any) Node {
	return Node{value: v}
}

// At returns a node for v whose reported paths are prefixed with root.
func At(v any, root string) Node {
	return Node{value: v, path: root}
}

// Path returns the path of the node, "$" for an unnamed root.
func (n Node) Path() string {
	if n.path == "" {
		return "$"
	}
	return n.path
}

// Err returns the first lookup error recorded on the way to this node.
func (n Node) Err() error {
	return n.err
}

// Key descends into the object member name.
func (n Node) Key(name string) Node {
	if n.err != nil {
		return n
	}

	path := name
	if n.path != "" {
		path = n.path + "." + name
	}

	obj, ok := n.value.(map[string]any)
	if !ok {
		return Node{path: path, err: n.mismatch("object")}
	}

	v, ok := obj[name]
	if !ok {
		return Node{path: path, err: &Error{Path: path, Kind: ErrMissing}}
	}

	return Node{value: v, path: path}
}

// Index descends into element i of an array.
func (n Node) Index(i int) Node {
	if n.err != nil {
		return n
	}

	path := n.path + "[" + strconv.Itoa(i) + "]"

	arr, ok := n.value.([]any)
	if !ok {
		return Node{path: path, err: n.mismatch("array")}
	}
	if i < 0 || i >= len(arr) {
		return Node{path: path, err: &Error{Path: path, Kind: ErrMissing}}
	}

	return Node{value: arr[i], path: path}
}

// Has reports whether the node is an object with member name.
func (n Node) Has(name string) bool {
	if n.err != nil {
		return false
	}
	obj, ok := n.value.(map[string]any)
	if !ok {
		return false
	}
	_, ok = obj[name]
	return ok
}

// Array returns the elements of an array node, each addressed by its index.
func (n Node) Array() ([]Node, error) {
	if n.err != nil {
		return nil, n.err
	}

	arr, ok := n.value.([]any)
	if !ok {
		return nil, n.mismatch("array")
	}

	nodes := make([]Node, len(arr))
	for i := range arr {
		nodes[i] = n.Index(i)
	}
	return nodes, nil
}

// String returns the value of a string node.
func (n Node) String() (string, error) {
	if n.err != nil {
		return "", n.err
	}

	s, ok := n.value.(string)
	if !ok {
		return "", n.mismatch("string")
	}
	return s, nil
}

func (n Node) mismatch(want string) error {
	return &Error{Path: n.Path(), Kind: ErrMismatch, Want: want}
}
