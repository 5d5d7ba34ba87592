package pushrelabel_test

import "flowsolver/internal/graph"

// edmondsKarp is a reference max-flow oracle used only by tests, grounded on
// the same augmenting-path idea as a classic BFS-based solver: repeatedly
// find a shortest augmenting path in the residual graph and saturate it.
// It is intentionally independent of the push-relabel engine so the two can
// be cross-checked against each other (P4).
func edmondsKarp(g *graph.Graph, source, sink graph.NodeIndex) int64 {
	n := g.NumNodes()
	var total int64

	for {
		parentArc := make([]graph.ArcIndex, n)
		parentVia := make([]bool, n) // true if arc traversed forward
		visited := make([]bool, n)
		visited[source] = true

		queue := make([]graph.NodeIndex, 0, n)
		queue = append(queue, source)

		for head := 0; head < len(queue) && !visited[sink]; head++ {
			u := queue[head]
			for _, ai := range g.Node(u).Out {
				a := g.Arc(ai)
				if a.ResidualForward() > 0 && !visited[a.Head] {
					visited[a.Head] = true
					parentArc[a.Head] = ai
					parentVia[a.Head] = true
					queue = append(queue, a.Head)
				}
			}
			for _, ai := range g.Node(u).In {
				a := g.Arc(ai)
				if a.ResidualBackward() > 0 && !visited[a.Tail] {
					visited[a.Tail] = true
					parentArc[a.Tail] = ai
					parentVia[a.Tail] = false
					queue = append(queue, a.Tail)
				}
			}
		}

		if !visited[sink] {
			return total
		}

		bottleneck := int64(-1)
		for v := sink; v != source; {
			ai := parentArc[v]
			a := g.Arc(ai)
			var residual int64
			var prev graph.NodeIndex
			if parentVia[v] {
				residual = a.ResidualForward()
				prev = a.Tail
			} else {
				residual = a.ResidualBackward()
				prev = a.Head
			}
			if bottleneck < 0 || residual < bottleneck {
				bottleneck = residual
			}
			v = prev
		}

		for v := sink; v != source; {
			ai := parentArc[v]
			a := g.Arc(ai)
			var prev graph.NodeIndex
			if parentVia[v] {
				a.Flow += bottleneck
				prev = a.Tail
			} else {
				a.Flow -= bottleneck
				prev = a.Head
			}
			v = prev
		}

		total += bottleneck
	}
}
