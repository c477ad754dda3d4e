package core

// StructureType tags an edge (or a head marker) with the structural
// role it belongs to. One physical edge can carry several types at
// once, each bound to its own head node, which is what lets a node
// sit inside multiple independent structural graphs simultaneously.
type StructureType int

const (
	StructureDefault StructureType = iota
	StructureMirror                 // flat mirror group (fully-/n-connected)
	StructureTree
	StructureRing
	StructureLine
	StructureStar
)

func (t StructureType) String() string {
	switch t {
	case StructureDefault:
		return "default"
	case StructureMirror:
		return "mirror"
	case StructureTree:
		return "tree"
	case StructureRing:
		return "ring"
	case StructureLine:
		return "line"
	case StructureStar:
		return "star"
	default:
		return "unknown"
	}
}

// AnyHead is a wildcard head id for traversals that should follow an
// edge of a given type regardless of which head region it belongs to.
const AnyHead = -1

// edgeKey identifies a directed parent→child edge in the graph.
type edgeKey struct {
	parent, child int
}

// Node is a structural node. It carries no mirror or link state; the
// MirrorID field is an opaque binding resolved by the Network. All
// topology-specific behaviour lives in the strategies, keyed off the
// edge type overlay, not in node subtypes.
type Node struct {
	ID int

	// MaxChildren caps AddChild; zero or negative means unlimited.
	MaxChildren int

	// MirrorID binds the node to a physical mirror, 0 when unbound.
	MirrorID int

	parent   int
	children []int
	heads    map[StructureType]bool
}

// Parent returns the parent node id, 0 when the node is a root.
func (n *Node) Parent() int { return n.parent }

// Children returns a copy of the ordered child id list.
func (n *Node) Children() []int {
	out := make([]int, len(n.children))
	copy(out, n.children)
	return out
}

// NumChildren returns the child count.
func (n *Node) NumChildren() int { return len(n.children) }

// SetHead marks or unmarks the node as the head of a structural
// region for the given type.
func (n *Node) SetHead(t StructureType, isHead bool) {
	if n.heads == nil {
		n.heads = make(map[StructureType]bool)
	}
	if isHead {
		n.heads[t] = true
	} else {
		delete(n.heads, t)
	}
}

// IsHead reports whether the node is a head for the given type.
func (n *Node) IsHead(t StructureType) bool { return n.heads[t] }

// IsHeadOfAny reports whether the node heads a region of any type,
// which is how nested child-heads are recognized inside a star.
func (n *Node) IsHeadOfAny() bool { return len(n.heads) > 0 }

// Graph is the arena holding all structure nodes and the per-edge
// membership overlay. Edges are identified by (parent, child) id
// pairs; the overlay maps each edge to the set of structure types it
// participates in and, per type, the head node of that region.
type Graph struct {
	nodes       map[int]*Node
	memberships map[edgeKey]map[StructureType]int
}

// NewGraph constructs an empty structure graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:       make(map[int]*Node),
		memberships: make(map[edgeKey]map[StructureType]int),
	}
}

// NewNode allocates a node in the arena. A node with the same id
// already present is returned unchanged.
func (g *Graph) NewNode(id, maxChildren int) *Node {
	if n, ok := g.nodes[id]; ok {
		return n
	}
	n := &Node{ID: id, MaxChildren: maxChildren, heads: make(map[StructureType]bool)}
	g.nodes[id] = n
	return n
}

// Node returns the node with the given id, or nil.
func (g *Graph) Node(id int) *Node { return g.nodes[id] }

// Len returns the number of nodes in the arena.
func (g *Graph) Len() int { return len(g.nodes) }

// BindMirror attaches a mirror id to a node. Binding an unknown node
// is a no-op.
func (g *Graph) BindMirror(nodeID, mirrorID int) {
	if n := g.nodes[nodeID]; n != nil {
		n.MirrorID = mirrorID
	}
}

// AddChild records a parent→child edge tagged with the given
// (type → head id) memberships. It is a silent no-op, returning
// false, when either node is unknown, the child is the parent
// itself, the child is already attached to this or another parent,
// or the parent's child capacity is exhausted.
func (g *Graph) AddChild(parentID, childID int, heads map[StructureType]int) bool {
	parent := g.nodes[parentID]
	child := g.nodes[childID]
	if parent == nil || child == nil || parentID == childID {
		return false
	}
	if child.parent != 0 {
		return false
	}
	for _, c := range parent.children {
		if c == childID {
			return false
		}
	}
	if parent.MaxChildren > 0 && len(parent.children) >= parent.MaxChildren {
		return false
	}

	parent.children = append(parent.children, childID)
	child.parent = parentID

	key := edgeKey{parent: parentID, child: childID}
	m := g.memberships[key]
	if m == nil {
		m = make(map[StructureType]int)
		g.memberships[key] = m
	}
	for t, head := range heads {
		m[t] = head
	}
	return true
}

// RemoveChild removes the edge's membership in the given types only.
// When no memberships remain on the edge, the parent/child link
// itself is cleared. Removing an edge that does not exist is a no-op.
func (g *Graph) RemoveChild(parentID, childID int, types ...StructureType) {
	parent := g.nodes[parentID]
	child := g.nodes[childID]
	if parent == nil || child == nil {
		return
	}
	key := edgeKey{parent: parentID, child: childID}
	m, ok := g.memberships[key]
	if !ok {
		return
	}
	for _, t := range types {
		delete(m, t)
	}
	if len(m) > 0 {
		return
	}

	delete(g.memberships, key)
	for i, c := range parent.children {
		if c == childID {
			parent.children = append(parent.children[:i], parent.children[i+1:]...)
			break
		}
	}
	if child.parent == parentID {
		child.parent = 0
	}
}

// RemoveNode detaches a node from its parent and children across all
// types and removes it from the arena.
func (g *Graph) RemoveNode(id int) {
	n := g.nodes[id]
	if n == nil {
		return
	}
	if n.parent != 0 {
		g.RemoveChild(n.parent, id, allStructureTypes...)
	}
	for _, c := range n.Children() {
		g.RemoveChild(id, c, allStructureTypes...)
	}
	delete(g.nodes, id)
}

// Membership returns a copy of the type→head overlay on the
// parent→child edge, or nil if the edge does not exist.
func (g *Graph) Membership(parentID, childID int) map[StructureType]int {
	m, ok := g.memberships[edgeKey{parent: parentID, child: childID}]
	if !ok {
		return nil
	}
	out := make(map[StructureType]int, len(m))
	for t, h := range m {
		out[t] = h
	}
	return out
}

// HasEdge reports whether an edge between a and b (in either
// direction) carries the given type for the given head. Pass AnyHead
// to match regardless of head.
func (g *Graph) HasEdge(a, b int, t StructureType, head int) bool {
	return g.edgeMember(edgeKey{parent: a, child: b}, t, head) ||
		g.edgeMember(edgeKey{parent: b, child: a}, t, head)
}

func (g *Graph) edgeMember(key edgeKey, t StructureType, head int) bool {
	m, ok := g.memberships[key]
	if !ok {
		return false
	}
	h, ok := m[t]
	if !ok {
		return false
	}
	return head == AnyHead || h == head
}

// structuralNeighbors returns the ids reachable from id over one
// parent or child edge restricted to (t, head), in deterministic
// order (parent first, then children in insertion order).
func (g *Graph) structuralNeighbors(id int, t StructureType, head int) []int {
	n := g.nodes[id]
	if n == nil {
		return nil
	}
	var out []int
	if n.parent != 0 && g.edgeMember(edgeKey{parent: n.parent, child: id}, t, head) {
		out = append(out, n.parent)
	}
	for _, c := range n.children {
		if g.edgeMember(edgeKey{parent: id, child: c}, t, head) {
			out = append(out, c)
		}
	}
	return out
}

// StructuralDegree counts the node's edges that carry (t, head).
func (g *Graph) StructuralDegree(id int, t StructureType, head int) int {
	return len(g.structuralNeighbors(id, t, head))
}

// typedChildren returns the children of id whose edge carries (t, head).
func (g *Graph) typedChildren(id int, t StructureType, head int) []int {
	n := g.nodes[id]
	if n == nil {
		return nil
	}
	var out []int
	for _, c := range n.children {
		if g.edgeMember(edgeKey{parent: id, child: c}, t, head) {
			out = append(out, c)
		}
	}
	return out
}

// typedParent returns the parent of id if that edge carries (t,
// head), else 0.
func (g *Graph) typedParent(id int, t StructureType, head int) int {
	n := g.nodes[id]
	if n == nil || n.parent == 0 {
		return 0
	}
	if g.edgeMember(edgeKey{parent: n.parent, child: id}, t, head) {
		return n.parent
	}
	return 0
}

var allStructureTypes = []StructureType{
	StructureDefault, StructureMirror, StructureTree, StructureRing, StructureLine, StructureStar,
}
