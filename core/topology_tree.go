package core

// treeTopology keeps the mirrors in a balanced tree. The root is the
// head of the structure; the child capacity per node is the
// network's links-per-mirror target. Growth attaches new leaves to
// the shallowest node with spare capacity, and shrinking removes
// leaves only, because removing an internal node would disconnect
// its subtree.
type treeTopology struct{}

// NewTreeTopology returns the balanced-tree strategy.
func NewTreeTopology() TopologyStrategy { return &treeTopology{} }

func (s *treeTopology) Kind() TopologyKind { return TopologyTree }

func (s *treeTopology) childCapacity(n *Network) int {
	cap := n.NumTargetLinksPerMirror()
	if cap < 1 {
		cap = 1
	}
	return cap
}

func (s *treeTopology) BuildStructure(n *Network) LinkDiff {
	ids := n.NodeIDs()
	if len(ids) == 0 {
		return LinkDiff{}
	}
	root := ids[0]
	n.graph.Node(root).SetHead(StructureTree, true)
	n.setHead(root)

	cap := s.childCapacity(n)
	queue := []int{root}
	for _, id := range ids[1:] {
		for len(queue) > 0 && n.graph.Node(queue[0]).NumChildren() >= cap {
			queue = queue[1:]
		}
		if len(queue) == 0 {
			break
		}
		n.graph.AddChild(queue[0], id, map[StructureType]int{StructureTree: root})
		queue = append(queue, id)
	}

	nodes := n.graph.NodesInStructure(root, StructureTree, root)
	return LinkDiff{Create: structureLinks(n.graph, nodes, StructureTree, root)}
}

func (s *treeTopology) GrowStructure(n *Network, nodeIDs []int) (LinkDiff, int) {
	root := n.Head()
	if root == 0 || n.graph.Node(root) == nil {
		return s.BuildStructure(n), len(nodeIDs)
	}

	cap := s.childCapacity(n)
	var diff LinkDiff
	placed := 0
	for _, id := range nodeIDs {
		parent := s.openSlot(n, root, cap)
		if parent == 0 {
			break
		}
		if !n.graph.AddChild(parent, id, map[StructureType]int{StructureTree: root}) {
			break
		}
		diff.Create = append(diff.Create, PlannedLink{A: parent, B: id})
		placed++
	}
	return diff, placed
}

// openSlot finds the shallowest tree node with spare child capacity,
// walking breadth-first from the root so the tree stays balanced.
func (s *treeTopology) openSlot(n *Network, root, cap int) int {
	queue := []int{root}
	visited := map[int]bool{root: true}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		children := n.graph.typedChildren(id, StructureTree, root)
		if len(children) < cap {
			return id
		}
		for _, c := range children {
			if !visited[c] {
				visited[c] = true
				queue = append(queue, c)
			}
		}
	}
	return 0
}

func (s *treeTopology) ShrinkStructure(n *Network, count int) (LinkDiff, []int) {
	root := n.Head()
	if root == 0 {
		return LinkDiff{}, nil
	}

	var removed []int
	for len(removed) < count {
		leaf := s.deepestLeaf(n, root)
		if leaf == 0 {
			break
		}
		parent := n.graph.typedParent(leaf, StructureTree, root)
		n.graph.RemoveChild(parent, leaf, StructureTree)
		removed = append(removed, leaf)
	}
	return LinkDiff{}, removed
}

// deepestLeaf returns the leaf with the highest id at the deepest
// level, or 0 when only the root remains. Removing leaves in that
// order unwinds the balanced build.
func (s *treeTopology) deepestLeaf(n *Network, root int) int {
	type entry struct{ id, depth int }
	best := entry{}
	stack := []entry{{id: root, depth: 0}}
	visited := map[int]bool{root: true}
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		children := n.graph.typedChildren(e.id, StructureTree, root)
		if len(children) == 0 && e.id != root {
			if e.depth > best.depth || (e.depth == best.depth && e.id > best.id) {
				best = e
			}
		}
		for _, c := range children {
			if !visited[c] {
				visited[c] = true
				stack = append(stack, entry{id: c, depth: e.depth + 1})
			}
		}
	}
	return best.id
}

func (s *treeTopology) Validate(n *Network) bool {
	root := n.Head()
	if root == 0 || n.graph.Node(root) == nil {
		return n.NumMirrors() == 0
	}
	nodes := n.graph.NodesInStructure(root, StructureTree, root)
	return n.validTree(nodes, root)
}

// validTree checks the tree invariants over a substructure: a single
// head, edge count of n-1 with full connectivity (which rules out
// cycles), parents inside the set for every non-root, and an
// outside connection on the root when an outside exists.
func (n *Network) validTree(nodes []int, root int) bool {
	if len(nodes) == 0 {
		return false
	}
	heads := 0
	for _, id := range nodes {
		node := n.graph.Node(id)
		if node == nil {
			return false
		}
		if node.IsHead(StructureTree) {
			heads++
		}
		if id == root {
			continue
		}
		parent := n.graph.typedParent(id, StructureTree, root)
		if parent == 0 || !containsID(nodes, parent) {
			return false
		}
	}
	if heads != 1 {
		return false
	}
	if len(structureLinks(n.graph, nodes, StructureTree, root)) != len(nodes)-1 {
		return false
	}
	if !n.graph.ConnectedUnder(nodes, StructureTree, root) {
		return false
	}
	return n.headHasOutsideConnection(nodes)
}

func (s *treeTopology) TargetLinkCount(n *Network) int {
	return closedFormLinkCount(TopologyTree, n.NumMirrors(), n.NumTargetLinksPerMirror())
}

func (s *treeTopology) PredictedTargetLinkCount(n *Network, a *Action) int {
	return predictedTargetLinks(n, a, TopologyTree)
}

// TreeRoot returns the root node id of the active tree structure.
func (n *Network) TreeRoot() int {
	if n.strategy != nil && n.strategy.Kind() == TopologyTree {
		return n.Head()
	}
	return 0
}

// TreeDepth returns a node's distance from the root, or -1 when the
// node is not part of the tree.
func (n *Network) TreeDepth(nodeID int) int {
	root := n.TreeRoot()
	if root == 0 {
		return -1
	}
	depth := 0
	current := nodeID
	visited := map[int]bool{}
	for current != 0 && !visited[current] {
		if current == root {
			return depth
		}
		visited[current] = true
		current = n.graph.typedParent(current, StructureTree, root)
		depth++
	}
	return -1
}

func containsID(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
