package action

import (
	"sort"
	"strings"
)

// ObjectTree records which fields (possibly nested) of a structured value are
// touched by an action on its root variable. It is a rooted tree of field
// names; the sentinel root carries no name. Merging two trees is a union of
// their paths, which makes the merge idempotent, commutative and associative.
type ObjectTree struct {
	root *treeNode
}

type treeNode struct {
	name     string
	children map[string]*treeNode
}

func newTreeNode(name string) *treeNode {
	return &treeNode{name: name, children: make(map[string]*treeNode)}
}

// NewObjectTree creates an empty object tree.
func NewObjectTree() *ObjectTree {
	return &ObjectTree{root: newTreeNode("")}
}

// AddField inserts the chain of fields named by the dotted path, relative to
// the root variable ("a.b" inserts root→a→b). Inserting a prefix of an
// already-present path is a no-op.
func (t *ObjectTree) AddField(path string) {
	if path == "" {
		return
	}
	node := t.root
	for _, seg := range strings.Split(path, ".") {
		child, ok := node.children[seg]
		if !ok {
			child = newTreeNode(seg)
			node.children[seg] = child
		}
		node = child
	}
}

// AddAll unions the other tree's paths into this one.
func (t *ObjectTree) AddAll(other *ObjectTree) {
	if other == nil {
		return
	}
	mergeTreeNode(t.root, other.root)
}

func mergeTreeNode(dst, src *treeNode) {
	for name, sc := range src.children {
		dc, ok := dst.children[name]
		if !ok {
			dc = newTreeNode(name)
			dst.children[name] = dc
		}
		mergeTreeNode(dc, sc)
	}
}

// AddAllAt grafts the other tree's paths below the given dotted path,
// inserting the path itself if absent.
func (t *ObjectTree) AddAllAt(path string, other *ObjectTree) {
	if path == "" {
		t.AddAll(other)
		return
	}
	t.AddField(path)
	node := t.root
	for _, seg := range strings.Split(path, ".") {
		node = node.children[seg]
	}
	if other != nil {
		mergeTreeNode(node, other.root)
	}
}

// Clone returns a deep copy of the tree.
func (t *ObjectTree) Clone() *ObjectTree {
	c := NewObjectTree()
	c.AddAll(t)
	return c
}

// Has reports whether the dotted path is present in the tree.
func (t *ObjectTree) Has(path string) bool {
	node := t.root
	for _, seg := range strings.Split(path, ".") {
		child, ok := node.children[seg]
		if !ok {
			return false
		}
		node = child
	}
	return true
}

// Size returns the number of field nodes in the tree, excluding the sentinel
// root. A growing size is the engine's signal that a fixed point has not been
// reached yet.
func (t *ObjectTree) Size() int {
	return countTreeNodes(t.root) - 1
}

func countTreeNodes(n *treeNode) int {
	total := 1
	for _, c := range n.children {
		total += countTreeNodes(c)
	}
	return total
}

// Fields returns every dotted path in the tree, sorted.
func (t *ObjectTree) Fields() []string {
	var paths []string
	collectTreePaths(t.root, "", &paths)
	sort.Strings(paths)
	return paths
}

func collectTreePaths(n *treeNode, prefix string, out *[]string) {
	for name, c := range n.children {
		path := name
		if prefix != "" {
			path = prefix + "." + name
		}
		*out = append(*out, path)
		collectTreePaths(c, path, out)
	}
}
