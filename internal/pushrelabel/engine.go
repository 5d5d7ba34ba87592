// Package pushrelabel implements the highest-label preflow-push maximum-flow
// algorithm over an internal/graph.Graph.
//
// The engine is organised exactly as the two-phase algorithm it implements:
// a preprocess step that seeds distance labels and saturates the source's
// out-arcs, a main discharge loop driven by a highest-label active-node
// selection rule, and a postprocess phase that returns excess trapped away
// from the sink back to the source. Active-node buckets are plain FIFO
// queues (one per label); distance buckets (DLIST) are array-based doubly
// linked lists keyed by label, giving O(1) membership insert/remove for the
// gap heuristic without allocating per operation.
package pushrelabel

import (
	"fmt"

	"flowsolver/internal/graph"
	"flowsolver/pkg/apperror"
)

// Recorder receives a callback for each notable engine event. Implementations
// must be cheap; the hot loop calls these unconditionally when non-nil. A nil
// Recorder disables recording entirely.
type Recorder interface {
	Push()
	Relabel()
	Gap()
	ArcScan()
	Discharge()
}

const noNode = graph.NodeIndex(-1)

// fifo is a slice-backed FIFO queue, grounded on the same head-pointer
// reuse trick used for BFS frontiers: appends are amortised O(1) and popped
// elements are never physically removed until the whole queue resets.
type fifo struct {
	data []graph.NodeIndex
	head int
}

func (q *fifo) push(v graph.NodeIndex) { q.data = append(q.data, v) }

func (q *fifo) pop() graph.NodeIndex {
	v := q.data[q.head]
	q.head++
	return v
}

func (q *fifo) empty() bool { return q.head >= len(q.data) }

func (q *fifo) reset() {
	q.data = q.data[:0]
	q.head = 0
}

// dbuckets is the DLIST component from the data model: for each label, the
// set of nodes currently carrying it. Backed by an array-indexed doubly
// linked list (head per label, prev/next per node) so insert, remove, and
// emptiness checks are all O(1); the gap heuristic's bucket-clearing sweep
// walks the list directly instead of rescanning every node in the graph.
type dbuckets struct {
	head []graph.NodeIndex // head[label]
	prev []graph.NodeIndex // prev[node]
	next []graph.NodeIndex // next[node]
}

func newDBuckets(numNodes, maxLabel int) *dbuckets {
	head := make([]graph.NodeIndex, maxLabel+1)
	for i := range head {
		head[i] = noNode
	}
	prev := make([]graph.NodeIndex, numNodes)
	next := make([]graph.NodeIndex, numNodes)
	for i := range prev {
		prev[i] = noNode
		next[i] = noNode
	}
	return &dbuckets{head: head, prev: prev, next: next}
}

func (d *dbuckets) insert(label int, v graph.NodeIndex) {
	d.next[v] = d.head[label]
	d.prev[v] = noNode
	if d.head[label] != noNode {
		d.prev[d.head[label]] = v
	}
	d.head[label] = v
}

func (d *dbuckets) remove(label int, v graph.NodeIndex) {
	if d.prev[v] != noNode {
		d.next[d.prev[v]] = d.next[v]
	} else {
		d.head[label] = d.next[v]
	}
	if d.next[v] != noNode {
		d.prev[d.next[v]] = d.prev[v]
	}
	d.prev[v] = noNode
	d.next[v] = noNode
}

func (d *dbuckets) empty(label int) bool { return d.head[label] == noNode }

func (d *dbuckets) first(label int) graph.NodeIndex { return d.head[label] }

// engine holds the per-phase working state: the level cursor, the
// active-node buckets, and the distance buckets. It is rebuilt at the start
// of each phase (per the ownership rule in the data model: the graph owns
// nodes and arcs, the engine owns A and D).
type engine struct {
	g *graph.Graph
	n int // node count; also the label cap

	source, sink graph.NodeIndex

	level  int
	active []fifo
	d      *dbuckets

	rec  Recorder
	opts Options

	dischargeRounds int
	roundsExceeded  bool
}

func newEngine(g *graph.Graph, source, sink graph.NodeIndex, rec Recorder, opts Options) *engine {
	n := g.NumNodes()
	return &engine{
		g:      g,
		n:      n,
		source: source,
		sink:   sink,
		active: make([]fifo, n+1),
		d:      newDBuckets(n, n),
		rec:    rec,
		opts:   opts,
	}
}

func (e *engine) resetBuckets() {
	for i := range e.active {
		e.active[i].reset()
	}
	e.d = newDBuckets(e.n, e.n)
	e.level = 0
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

// enqueueActive puts v into its label's active bucket and advances the
// level cursor if v now holds the highest label seen. Never called for
// source or sink.
func (e *engine) enqueueActive(v graph.NodeIndex) {
	label := e.g.Node(v).Label
	e.active[label].push(v)
	if label > e.level {
		e.level = label
	}
}

// nextActive scans downward from the level cursor, skipping
// nodes that were disabled (label raised to n) after being enqueued.
func (e *engine) nextActive() (graph.NodeIndex, bool) {
	for k := e.level; k >= 1; k-- {
		e.level = k
		for !e.active[k].empty() {
			v := e.active[k].pop()
			if e.g.Node(v).Label == e.n {
				continue // disabled by a gap since being enqueued
			}
			return v, true
		}
	}
	e.level = 0
	return 0, false
}

// findAdmissible scans out-arcs then in-arcs, in adjacency
// insertion order, for the first admissible residual arc.
func (e *engine) findAdmissible(i graph.NodeIndex) (arc graph.ArcIndex, backward bool, ok bool) {
	ni := e.g.Node(i)
	di := ni.Label
	for _, ai := range ni.Out {
		if e.rec != nil {
			e.rec.ArcScan()
		}
		a := e.g.Arc(ai)
		if a.ResidualForward() > 0 && di == e.g.Node(a.Head).Label+1 {
			return ai, false, true
		}
	}
	for _, ai := range ni.In {
		if e.rec != nil {
			e.rec.ArcScan()
		}
		a := e.g.Arc(ai)
		if a.ResidualBackward() > 0 && di == e.g.Node(a.Tail).Label+1 {
			return ai, true, true
		}
	}
	return 0, false, false
}

// push moves flow across a single admissible arc.
func (e *engine) push(i graph.NodeIndex, arcIdx graph.ArcIndex, backward bool) {
	a := e.g.Arc(arcIdx)
	ni := e.g.Node(i)

	var j graph.NodeIndex
	var residual int64
	if !backward {
		j = a.Head
		residual = a.ResidualForward()
	} else {
		j = a.Tail
		residual = a.ResidualBackward()
	}

	gamma := min64(ni.Excess, residual)
	if gamma <= 0 {
		return
	}

	if !backward {
		a.Flow += gamma
	} else {
		a.Flow -= gamma
	}

	nj := e.g.Node(j)
	priorZero := nj.Excess == 0

	ni.Excess -= gamma
	nj.Excess += gamma

	if priorZero && j != e.source && j != e.sink {
		e.enqueueActive(j)
	}

	if e.rec != nil {
		e.rec.Push()
	}
}

// relabel recomputes a node's distance label and applies the gap heuristic.
func (e *engine) relabel(i graph.NodeIndex) {
	ni := e.g.Node(i)
	dOld := ni.Label

	minNeighbour := e.n
	found := false
	for _, ai := range ni.Out {
		a := e.g.Arc(ai)
		if a.ResidualForward() > 0 {
			if l := e.g.Node(a.Head).Label; !found || l < minNeighbour {
				minNeighbour, found = l, true
			}
		}
	}
	for _, ai := range ni.In {
		a := e.g.Arc(ai)
		if a.ResidualBackward() > 0 {
			if l := e.g.Node(a.Tail).Label; !found || l < minNeighbour {
				minNeighbour, found = l, true
			}
		}
	}

	newLabel := e.n
	if found {
		newLabel = minNeighbour + 1
		if newLabel > e.n {
			newLabel = e.n
		}
	}

	e.d.remove(dOld, i)
	gapped := e.d.empty(dOld)

	if newLabel < e.n {
		e.d.insert(newLabel, i)
	}
	ni.Label = newLabel

	if newLabel > dOld && newLabel < e.n && newLabel > e.level {
		e.level = newLabel
	}

	if gapped && e.opts.GapHeuristic {
		e.applyGapHeuristic(dOld)
	}

	if e.rec != nil {
		e.rec.Relabel()
	}
}

// applyGapHeuristic implements the gap-heuristic bookkeeping: once
// D[gapLevel] empties, every node at a strictly higher label is provably
// disconnected from the sink (phase 1) or source (phase 2) and is disabled.
// The outer sweep variable is named distinctly from the inner bucket-walk
// variable throughout, per the source-material caveat in the design notes.
func (e *engine) applyGapHeuristic(gapLevel int) {
	for sweepLevel := gapLevel + 1; sweepLevel < e.n; sweepLevel++ {
		for !e.d.empty(sweepLevel) {
			v := e.d.first(sweepLevel)
			e.d.remove(sweepLevel, v)
			e.g.Node(v).Label = e.n
		}
	}
	e.level = gapLevel - 1
	if e.rec != nil {
		e.rec.Gap()
	}
}

// discharge repeatedly pushes or relabels a single active node until its
// excess is gone or it is disabled.
func (e *engine) discharge(i graph.NodeIndex) {
	for {
		ni := e.g.Node(i)
		if ni.Excess <= 0 || ni.Label >= e.n {
			return
		}
		if e.opts.MaxDischargeRounds > 0 {
			e.dischargeRounds++
			if e.dischargeRounds > e.opts.MaxDischargeRounds {
				e.roundsExceeded = true
				return
			}
		}
		if e.rec != nil {
			e.rec.Discharge()
		}

		if arcIdx, backward, ok := e.findAdmissible(i); ok {
			e.push(i, arcIdx, backward)
			if e.g.Node(i).Excess == 0 {
				return
			}
			continue
		}

		e.relabel(i)
		if e.g.Node(i).Label < e.n {
			e.enqueueActive(i)
		}
		return
	}
}

// mainLoop repeatedly discharges the highest-label active
// node until none remains.
func (e *engine) mainLoop() {
	for {
		if e.roundsExceeded {
			return
		}
		v, ok := e.nextActive()
		if !ok {
			return
		}
		e.discharge(v)
	}
}

// bfsLabel runs a BFS over the given neighbour function and returns, for
// every reachable node, its BFS layer distance from start. Nodes not
// reached are left at maxLabel. neighbours(u) must yield the node at the
// far end of each arc to traverse from u.
func bfsLabel(n int, start graph.NodeIndex, maxLabel int, neighbours func(graph.NodeIndex) []graph.NodeIndex) []int {
	label := make([]int, n)
	visited := make([]bool, n)
	for i := range label {
		label[i] = maxLabel
	}

	queue := make([]graph.NodeIndex, 0, n)
	queue = append(queue, start)
	visited[start] = true
	label[start] = 0

	for head := 0; head < len(queue); head++ {
		u := queue[head]
		for _, v := range neighbours(u) {
			if visited[v] {
				continue
			}
			visited[v] = true
			label[v] = label[u] + 1
			queue = append(queue, v)
		}
	}
	return label
}

func outNeighbours(g *graph.Graph) func(graph.NodeIndex) []graph.NodeIndex {
	return func(u graph.NodeIndex) []graph.NodeIndex {
		arcs := g.Node(u).Out
		out := make([]graph.NodeIndex, len(arcs))
		for i, ai := range arcs {
			out[i] = g.Arc(ai).Head
		}
		return out
	}
}

func inNeighbours(g *graph.Graph) func(graph.NodeIndex) []graph.NodeIndex {
	return func(u graph.NodeIndex) []graph.NodeIndex {
		arcs := g.Node(u).In
		out := make([]graph.NodeIndex, len(arcs))
		for i, ai := range arcs {
			out[i] = g.Arc(ai).Tail
		}
		return out
	}
}

// preprocessPhase1 seeds distance labels from the sink and saturates the
// source's out-arcs, producing the initial preflow.
func (e *engine) preprocessPhase1() {
	e.resetBuckets()

	labels := bfsLabel(e.n, e.sink, e.n, inNeighbours(e.g))
	for i := 0; i < e.n; i++ {
		idx := graph.NodeIndex(i)
		e.g.Node(idx).Label = labels[i]
		if idx != e.source && labels[i] < e.n {
			e.d.insert(labels[i], idx)
		}
	}

	e.g.Node(e.source).Label = e.n

	for _, ai := range e.g.Node(e.source).Out {
		a := e.g.Arc(ai)
		if a.Capacity <= 0 {
			continue
		}
		w := a.Head
		nw := e.g.Node(w)
		priorZero := nw.Excess == 0
		a.Flow = a.Capacity
		nw.Excess += a.Capacity
		if priorZero && w != e.source && w != e.sink {
			e.enqueueActive(w)
		}
	}
}

// preprocessPhase2 reseeds distance labels from the source so that the
// second mainLoop call returns trapped excess to it; the discharge loop that
// follows is the same mainLoop used by phase 1. Every node with a finite
// label is inserted into the D distance buckets here, mirroring
// preprocessPhase1's reverse-BFS seeding, so relabel's gap-heuristic
// bookkeeping has a real D membership to remove on a node's first phase-2
// relabel instead of finding an always-empty bucket.
func (e *engine) preprocessPhase2() {
	e.resetBuckets()

	labels := bfsLabel(e.n, e.source, e.n, outNeighbours(e.g))
	for i := 0; i < e.n; i++ {
		idx := graph.NodeIndex(i)
		e.g.Node(idx).Label = labels[i]
		if idx != e.sink && labels[i] < e.n {
			e.d.insert(labels[i], idx)
		}
	}

	for i := 0; i < e.n; i++ {
		idx := graph.NodeIndex(i)
		if idx == e.source || idx == e.sink {
			continue
		}
		if e.g.Node(idx).Excess > 0 {
			e.enqueueActive(idx)
		}
	}

	e.g.Node(e.sink).Label = e.n
}

// Options configures optional engine behavior that does not change the
// algorithm's result, only how it gets there or how long it is allowed to
// run.
type Options struct {
	// GapHeuristic enables the gap-heuristic node disabling described in
	// applyGapHeuristic. The algorithm is correct with it disabled too;
	// disabling it is useful only for measuring its effect on adversarial
	// inputs.
	GapHeuristic bool
	// MaxDischargeRounds caps the number of discharge-loop iterations
	// across both phases combined. Zero means unbounded.
	MaxDischargeRounds int
}

// DefaultOptions returns the engine's default behavior: gap heuristic on,
// no discharge round cap.
func DefaultOptions() Options {
	return Options{GapHeuristic: true}
}

// DegenerateInputReason classifies why g is degenerate input per §7
// (MissingEndpoints / DegenerateInput: no source, no sink, source equal to
// sink, or fewer than two nodes), or returns nil if g is well-formed. Run
// itself already treats every one of these cases as a silent zero-flow
// result with no error; this classification exists so a caller (the CLI)
// can log *why* without duplicating the checks.
func DegenerateInputReason(g *graph.Graph) *apperror.Error {
	if g.NumNodes() < 2 {
		return apperror.ErrEmptyGraph
	}
	source, hasSource := g.Source()
	sink, hasSink := g.Sink()
	if !hasSource {
		return apperror.ErrInvalidSource
	}
	if !hasSink {
		return apperror.ErrInvalidSink
	}
	if source == sink {
		return apperror.ErrSourceEqualsSink
	}
	return nil
}

// Run computes the maximum s-t flow on g using the highest-label
// preflow-push algorithm and returns its value. It mutates g in place,
// leaving a valid flow assignment (0 <= f <= c, conservation at every node
// other than source and sink) on return.
//
// A graph with no source, no sink, fewer than two nodes, or a
// source equal to its sink is treated as degenerate input (see
// DegenerateInputReason); Run returns a flow of 0 without mutating the
// graph, since §7 classifies this as MissingEndpoints/DegenerateInput, not
// an error.
//
// An optional Options value overrides the engine's defaults; omitting it
// runs with the gap heuristic enabled and no discharge round cap.
func Run(g *graph.Graph, rec Recorder, opts ...Options) (int64, error) {
	opt := DefaultOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}

	if DegenerateInputReason(g) != nil {
		return 0, nil
	}

	source, _ := g.Source()
	sink, _ := g.Sink()

	g.ResetFlows()

	e := newEngine(g, source, sink, rec, opt)

	e.preprocessPhase1()
	e.mainLoop()
	if e.roundsExceeded {
		return 0, fmt.Errorf("pushrelabel: exceeded discharge round cap of %d", opt.MaxDischargeRounds)
	}

	e.preprocessPhase2()
	e.mainLoop()
	if e.roundsExceeded {
		return 0, fmt.Errorf("pushrelabel: exceeded discharge round cap of %d", opt.MaxDischargeRounds)
	}

	return g.Node(sink).Excess, nil
}
