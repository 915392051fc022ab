package autodiff

// compact produces the final node array of a graph from a recorded tape.
//
// It drops nodes the output does not need (according to cfg.Prune) and, if
// cfg.HoistConstants is set, moves constant roots ahead of all operations.
// Both steps are done in a single remapping pass into a fresh slice: every
// kept node is assigned its new index in order, and parent references are
// rewritten through the same table. Relative order within variables,
// constants and operations is preserved, so parents still precede children.
//
// Returns the new nodes, the new output index and the number of leading roots.
func compact(t *Tape, output int, cfg Config) (nodes []Node, newOutput, numRoots int) {
	keep := liveNodes(t, output, cfg.Prune)

	order := make([]int, 0, len(keep))
	for i := range t.numVars {
		order = append(order, i)
	}
	if cfg.HoistConstants {
		for i := t.numVars; i < len(keep); i++ {
			if keep[i] && t.nodes[i].IsRoot() {
				order = append(order, i)
			}
		}
		for i := t.numVars; i < len(keep); i++ {
			if keep[i] && !t.nodes[i].IsRoot() {
				order = append(order, i)
			}
		}
	} else {
		for i := t.numVars; i < len(keep); i++ {
			if keep[i] {
				order = append(order, i)
			}
		}
	}

	remap := make([]int, len(t.nodes))
	for i := range remap {
		remap[i] = NoIndex
	}
	for newIdx, oldIdx := range order {
		remap[oldIdx] = newIdx
	}

	nodes = make([]Node, len(order))
	for newIdx, oldIdx := range order {
		n := t.nodes[oldIdx]
		for slot, p := range n.Parents {
			if p != NoIndex {
				n.Parents[slot] = remap[p]
			}
		}
		nodes[newIdx] = n
	}

	for numRoots < len(nodes) && nodes[numRoots].IsRoot() {
		numRoots++
	}
	return nodes, remap[output], numRoots
}

// liveNodes marks the nodes that survive pruning. Independent variables are
// always kept.
func liveNodes(t *Tape, output int, mode PruneMode) []bool {
	keep := make([]bool, max(output+1, t.numVars))
	for i := range t.numVars {
		keep[i] = true
	}

	if mode == PruneTruncate {
		for i := range output + 1 {
			keep[i] = true
		}
		return keep
	}

	keep[output] = true
	for i := output; i >= t.numVars; i-- {
		if !keep[i] {
			continue
		}
		for _, p := range t.nodes[i].Parents {
			if p != NoIndex {
				keep[p] = true
			}
		}
	}
	return keep
}
