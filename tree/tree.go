package tree

import (
	"github.com/TuftsBCB/phylo/taxa"
)

// Rootedness describes whether a tree's seed node is a true root, an
// arbitrary anchor on an unrooted tree, or simply unspecified.
type Rootedness int

const (
	RootednessUndefined Rootedness = iota
	Rooted
	Unrooted
)

func (r Rootedness) String() string {
	switch r {
	case Rooted:
		return "rooted"
	case Unrooted:
		return "unrooted"
	}
	return "undefined"
}

// An Annotation is a key/value pair extracted from a metadata comment
// (NHX or FigTree/BEAST style). List-valued fields fill Values and
// leave Value empty.
type Annotation struct {
	Name   string
	Value  string
	Values []string
}

// A Tree owns a seed node and the node/edge graph hanging off it.
//
// Trees are built incrementally by the newick parser and handed to the
// caller complete; they are plain data and carry no parsing state.
type Tree struct {
	// Seed is the starting node of the tree: the root if the tree is
	// rooted, otherwise an arbitrary anchor node.
	Seed *Node

	Rootedness Rootedness

	// Weight is the tree weight, e.g. from a [&W 1/4] comment. Nil if
	// no weight was assigned.
	Weight *float64

	Label string

	// Comments holds tree-level comment text that was not interpreted
	// as a rooting, weight, or metadata directive.
	Comments []string

	Annotations []Annotation
}

// New returns a tree with a fresh seed node and undefined rootedness.
// It is the canonical TreeFactory for the newick parser.
func New() *Tree {
	return &Tree{Seed: NewNode()}
}

// Leaves returns the leaf nodes of the tree in left-to-right order.
func (t *Tree) Leaves() []*Node {
	if t.Seed == nil {
		return nil
	}
	return t.Seed.appendLeaves(nil)
}

// A Node is a single vertex of the tree. It owns its ordered child
// list and exactly one Edge (the edge to its parent; the seed node's
// edge has no tail).
type Node struct {
	Children []*Node

	// Parent is a back-reference only; the parent owns this node.
	Parent *Node

	// Label is a free-form label, used when the node's label was not
	// mapped to a Taxon.
	Label string

	// Taxon is the resolved identity of this node, if label-to-taxon
	// mapping was in effect when it was read.
	Taxon *taxa.Taxon

	Edge *Edge

	Comments    []string
	Annotations []Annotation
}

// NewNode returns a node with its edge allocated and wired.
func NewNode() *Node {
	nd := &Node{}
	nd.Edge = &Edge{Head: nd}
	return nd
}

// AddChild appends c to the node's child list and wires c's parent
// back-reference and edge tail.
func (nd *Node) AddChild(c *Node) {
	c.Parent = nd
	if c.Edge == nil {
		c.Edge = &Edge{Head: c}
	}
	c.Edge.Tail = nd
	nd.Children = append(nd.Children, c)
}

// NewChild allocates a node, attaches it as the last child, and
// returns it.
func (nd *Node) NewChild() *Node {
	c := NewNode()
	nd.AddChild(c)
	return c
}

// IsLeaf reports whether the node has no children.
func (nd *Node) IsLeaf() bool {
	return len(nd.Children) == 0
}

func (nd *Node) appendLeaves(leaves []*Node) []*Node {
	if nd.IsLeaf() {
		return append(leaves, nd)
	}
	for _, c := range nd.Children {
		leaves = c.appendLeaves(leaves)
	}
	return leaves
}

// An Edge connects a node (Head, the owner) to its parent (Tail,
// absent for the seed node's edge).
type Edge struct {
	Head *Node
	Tail *Node

	// Length is the branch length. Nil if no length was given.
	Length *float64

	// Number is the jplace-style edge number from a {n} suffix. Nil if
	// none was given.
	Number *int

	Comments    []string
	Annotations []Annotation
}
