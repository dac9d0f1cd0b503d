package structure

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"slices"
)

// Node is a single documentation page in the planned structure.
type Node struct {
	Slug       string   `json:"slug"`
	Title      string   `json:"title"`
	ParentSlug string   `json:"parent_slug,omitempty"`
	ChildSlugs []string `json:"child_slugs"`
	Order      int      `json:"order"`
	Depth      int      `json:"depth"`
}

// IsRoot reports whether n is the index node.
func (n Node) IsRoot() bool { return n.ParentSlug == "" }

func (n Node) clone() Node {
	n.ChildSlugs = slices.Clone(n.ChildSlugs)
	if n.ChildSlugs == nil {
		n.ChildSlugs = []string{}
	}
	return n
}

// Tree is a frozen structure. Only the planner (and FromRecords) build
// trees; every accessor hands out copies so callers cannot mutate it.
type Tree struct {
	root  string
	nodes map[string]Node
	order []string // pre-order
}

func newTree() *Tree {
	return &Tree{nodes: map[string]Node{}}
}

func (t *Tree) add(n Node) {
	if n.ChildSlugs == nil {
		n.ChildSlugs = []string{}
	}
	if n.ParentSlug == "" && t.root == "" {
		t.root = n.Slug
	}
	t.nodes[n.Slug] = n
	t.order = append(t.order, n.Slug)
}

func (t *Tree) appendChild(parent, child string) {
	p := t.nodes[parent]
	p.ChildSlugs = append(p.ChildSlugs, child)
	t.nodes[parent] = p
}

// Root returns the index node slug.
func (t *Tree) Root() string { return t.root }

// Len returns the number of nodes including the root.
func (t *Tree) Len() int { return len(t.order) }

// Node returns a copy of the node with slug.
func (t *Tree) Node(slug string) (Node, bool) {
	n, ok := t.nodes[slug]
	if !ok {
		return Node{}, false
	}
	return n.clone(), true
}

// Nodes returns copies of all nodes in pre-order.
func (t *Tree) Nodes() []Node {
	out := make([]Node, 0, len(t.order))
	for _, s := range t.order {
		out = append(out, t.nodes[s].clone())
	}
	return out
}

// Slugs returns all slugs in pre-order.
func (t *Tree) Slugs() []string { return slices.Clone(t.order) }

// Children returns copies of the direct children of slug in order.
// Child slugs that are not in the tree are skipped.
func (t *Tree) Children(slug string) []Node {
	n, ok := t.nodes[slug]
	if !ok {
		return nil
	}
	out := make([]Node, 0, len(n.ChildSlugs))
	for _, c := range n.ChildSlugs {
		if child, ok := t.nodes[c]; ok {
			out = append(out, child.clone())
		}
	}
	return out
}

// Ancestors returns the titles from the root down to slug's parent.
func (t *Tree) Ancestors(slug string) []string {
	var chain []string
	seen := map[string]bool{}
	n, ok := t.nodes[slug]
	for ok && n.ParentSlug != "" && !seen[n.ParentSlug] {
		seen[n.ParentSlug] = true
		n, ok = t.nodes[n.ParentSlug]
		if ok {
			chain = append(chain, n.Title)
		}
	}
	slices.Reverse(chain)
	return chain
}

// MarshalJSON encodes the nodes in pre-order.
func (t *Tree) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Nodes())
}

// Hash is the sha256 of the canonical node encoding. Equal structure means
// equal hash regardless of content or metadata timestamps.
func (t *Tree) Hash() string {
	data, _ := t.MarshalJSON()
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// FromRecords rebuilds a tree from persisted nodes without validating
// edges. Link resolution owns integrity checks. The first node without a
// parent is the root; records keep their given order.
func FromRecords(records []Node) *Tree {
	t := newTree()
	for _, r := range records {
		t.add(r.clone())
	}
	return t
}
