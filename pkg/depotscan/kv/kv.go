// Package kv reads Valve KeyValues text documents (libraryfolders.vdf,
// appmanifest_<id>.acf, config.vdf) into a navigable tree.
//
// Parsing is delegated to github.com/andygrunwald/vdf. The tree exposes
// optional-path accessors that never fail, so callers drill into documents
// without type assertions:
//
//	doc, err := kv.ReadFile(fs, path)
//	if err != nil {
//	    return err
//	}
//	name, ok := doc.Text("AppState", "name")
package kv

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/andygrunwald/vdf"
	"github.com/jamesainslie/depotscan/pkg/depotscan/types"
	"github.com/spf13/afero"
)

// Node is one level of a parsed document. Values are either strings or
// nested maps.
type Node map[string]interface{}

// Parse parses a KeyValues document. Malformed input yields an error
// wrapping types.ErrParse.
func Parse(r io.Reader) (node Node, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			node = nil
			err = fmt.Errorf("%w: %v", types.ErrParse, rec)
		}
	}()

	m, err := vdf.NewParser(r).Parse()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrParse, err)
	}
	if m == nil {
		return Node{}, nil
	}
	return Node(m), nil
}

// ParseString parses a document held in memory.
func ParseString(s string) (Node, error) {
	return Parse(strings.NewReader(s))
}

// ReadFile reads and parses a document from fs. Missing files wrap
// types.ErrNotFound, unreadable ones types.ErrIO.
func ReadFile(fs afero.Fs, path string) (Node, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, types.WrapFS("reading", path, err)
	}

	// Strip a UTF-8 BOM; Steam occasionally writes one on Windows.
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	node, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return node, nil
}

// lookup finds a child by exact key, falling back to a case-insensitive
// match. Steam writes both "Valve" and "valve" depending on version. When
// several case variants match, the lexically smallest key wins.
func (n Node) lookup(key string) (interface{}, bool) {
	if v, ok := n[key]; ok {
		return v, true
	}
	match, found := "", false
	for k := range n {
		if strings.EqualFold(k, key) && (!found || k < match) {
			match, found = k, true
		}
	}
	if !found {
		return nil, false
	}
	return n[match], true
}

// Get drills into nested maps along keys. It returns false when any level
// is missing or is not a map.
func (n Node) Get(keys ...string) (Node, bool) {
	cur := n
	for _, key := range keys {
		if cur == nil {
			return nil, false
		}
		v, ok := cur.lookup(key)
		if !ok {
			return nil, false
		}
		child, ok := asNode(v)
		if !ok {
			return nil, false
		}
		cur = child
	}
	return cur, cur != nil
}

// Text returns the string value at the end of keys.
func (n Node) Text(keys ...string) (string, bool) {
	if len(keys) == 0 {
		return "", false
	}
	parent, ok := n.Get(keys[:len(keys)-1]...)
	if !ok {
		return "", false
	}
	v, ok := parent.lookup(keys[len(keys)-1])
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Int returns the integer value at the end of keys.
func (n Node) Int(keys ...string) (int64, bool) {
	s, ok := n.Text(keys...)
	if !ok {
		return 0, false
	}
	i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, false
	}
	return i, true
}

// Keys returns the child keys in a stable order: numeric keys ascending,
// then the rest lexically. The underlying parser does not keep source order.
func (n Node) Keys() []string {
	keys := make([]string, 0, len(n))
	for k := range n {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ni, iNum := numeric(keys[i])
		nj, jNum := numeric(keys[j])
		switch {
		case iNum && jNum:
			if ni != nj {
				return ni < nj
			}
			return keys[i] < keys[j]
		case iNum:
			return true
		case jNum:
			return false
		default:
			return keys[i] < keys[j]
		}
	})
	return keys
}

// Child returns the raw value of a direct child.
func (n Node) Child(key string) (interface{}, bool) {
	return n.lookup(key)
}

func asNode(v interface{}) (Node, bool) {
	switch t := v.(type) {
	case Node:
		return t, true
	case map[string]interface{}:
		return Node(t), true
	default:
		return nil, false
	}
}

func numeric(s string) (uint64, bool) {
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseUint(s, 10, 64)
	return n, err == nil
}

// IsNumeric reports whether s is a decimal identifier.
func IsNumeric(s string) bool {
	_, ok := numeric(s)
	return ok
}

// Unescape collapses doubled backslashes in a path value. Registry values
// escape the separator ("D:\\SteamLibrary").
func Unescape(s string) string {
	return strings.ReplaceAll(s, `\\`, `\`)
}
