package core

import "sort"

// NodesInStructure returns the ids of every node reachable from
// start over parent and child edges restricted to (t, head). Nodes
// marked as head for t bound the region: they are included but not
// expanded past, so a substructure can be extracted without global
// graph knowledge. The start node itself is always expanded, even
// when it is the head. The result is sorted ascending, and the
// traversal keeps an explicit visited set because rings are a legal
// topology.
func (g *Graph) NodesInStructure(start int, t StructureType, head int) []int {
	if g.nodes[start] == nil {
		return nil
	}

	visited := map[int]bool{start: true}
	queue := []int{start}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		// A foreign head bounds the region: keep it, don't cross
		// it. The region's own head is expanded normally, since the
		// rest of the structure hangs off it.
		if id != start && id != head && g.nodes[id].IsHead(t) {
			continue
		}
		for _, next := range g.structuralNeighbors(id, t, head) {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}

	out := make([]int, 0, len(visited))
	for id := range visited {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

// EndpointsOfStructure returns the substructure's terminal nodes:
// members with exactly one structural connection under (t, head).
// This is the topology-agnostic notion of "endpoint" shared by the
// line and tree validators.
func (g *Graph) EndpointsOfStructure(start int, t StructureType, head int) []int {
	var out []int
	for _, id := range g.NodesInStructure(start, t, head) {
		if g.StructuralDegree(id, t, head) == 1 {
			out = append(out, id)
		}
	}
	return out
}

// HasClosedCycle walks the child chain from the first node of nodes,
// assuming single-child degree, and reports whether the walk returns
// to its start after visiting exactly len(nodes) distinct nodes. A
// partial cycle, a branching node, or a chain that runs off the set
// all yield false, so only a true ring passes.
func (g *Graph) HasClosedCycle(nodes []int, t StructureType, head int) bool {
	if len(nodes) == 0 {
		return false
	}
	inSet := make(map[int]bool, len(nodes))
	for _, id := range nodes {
		inSet[id] = true
	}

	start := nodes[0]
	visited := map[int]bool{}
	current := start
	for steps := 0; steps <= len(nodes); steps++ {
		children := g.typedChildren(current, t, head)
		if len(children) != 1 {
			return false
		}
		next := children[0]
		if !inSet[next] {
			return false
		}
		visited[current] = true
		if next == start {
			return len(visited) == len(nodes)
		}
		if visited[next] {
			return false
		}
		current = next
	}
	return false
}

// FindHead returns the nearest node marked head for t, searching
// outward from start over edges of that type with an explicit stack
// (no recursion, so arbitrarily large structures cannot overflow).
// When no head is marked, the structural root above start is
// returned instead.
func (g *Graph) FindHead(start int, t StructureType) int {
	if g.nodes[start] == nil {
		return 0
	}

	visited := map[int]bool{start: true}
	stack := []int{start}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if g.nodes[id].IsHead(t) {
			return id
		}
		for _, next := range g.structuralNeighbors(id, t, AnyHead) {
			if !visited[next] {
				visited[next] = true
				stack = append(stack, next)
			}
		}
	}

	// No explicit head: fall back to the structural root. The
	// visited guard keeps this loop finite on rings.
	visited = map[int]bool{start: true}
	root := start
	for {
		parent := g.nodes[root].parent
		if parent == 0 || visited[parent] || g.nodes[parent] == nil {
			return root
		}
		visited[parent] = true
		root = parent
	}
}

// ConnectedUnder reports whether every node in nodes is reachable
// from the first one over (t, head) edges without leaving the set.
// It is the base connectivity check shared by all validators.
func (g *Graph) ConnectedUnder(nodes []int, t StructureType, head int) bool {
	if len(nodes) == 0 {
		return false
	}
	if len(nodes) == 1 {
		return g.nodes[nodes[0]] != nil
	}
	inSet := make(map[int]bool, len(nodes))
	for _, id := range nodes {
		if g.nodes[id] == nil {
			return false
		}
		inSet[id] = true
	}

	visited := map[int]bool{nodes[0]: true}
	stack := []int{nodes[0]}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, next := range g.structuralNeighbors(id, t, head) {
			if inSet[next] && !visited[next] {
				visited[next] = true
				stack = append(stack, next)
			}
		}
	}
	return len(visited) == len(nodes)
}
