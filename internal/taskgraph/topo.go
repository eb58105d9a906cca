package taskgraph

import (
	"fmt"
	"slices"

	"fortio.org/safecast"
)

type Topo struct {
	Order   []NodeID   // every task once, dependencies first
	Batches [][]NodeID // waves of tasks whose dependencies are all done
	Cyclic  bool
	Cycles  []NodeID // tasks left with unmet dependencies
}

func ToposortKahn(g *Graph) *Topo {
	count := len(g.nodes)
	indeg := make([]int, count)
	for i := range count {
		indeg[i] = len(g.pred[i])
	}

	topo := &Topo{
		Order:   make([]NodeID, 0, count),
		Batches: make([][]NodeID, 0),
	}
	current := make([]NodeID, 0, count)
	for i := range count {
		if indeg[i] == 0 {
			current = append(current, nodeID(i))
		}
	}

	visited := 0
	for len(current) > 0 {
		batch := slices.Clone(current)
		topo.Batches = append(topo.Batches, batch)

		next := make([]NodeID, 0)
		for _, id := range batch {
			topo.Order = append(topo.Order, id)
			visited++
			for _, to := range g.succ[id] {
				indeg[to]--
				if indeg[to] == 0 {
					next = append(next, to)
				}
			}
		}
		slices.Sort(next)
		current = next
	}

	if visited != count {
		topo.Cyclic = true
		for i := range count {
			if indeg[i] > 0 {
				topo.Cycles = append(topo.Cycles, nodeID(i))
			}
		}
	}
	return topo
}

func nodeID(i int) NodeID {
	value, err := safecast.Conv[uint32](i)
	if err != nil {
		panic(fmt.Errorf("task node overflow: %w", err))
	}
	return NodeID(value)
}
