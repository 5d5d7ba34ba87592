// Package dimacs reads and writes the DIMACS maximum-flow text format: a
// line-oriented format with a 'p' problem line declaring node and arc
// counts, 'n' lines naming the source and sink, 'a' lines declaring
// capacitated arcs, and 'c' comment lines ignored throughout.
package dimacs

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"flowsolver/internal/graph"
	"flowsolver/pkg/apperror"
)

// lineErr builds a *apperror.Error for a malformed line, tagging it with the
// 1-based line number so a caller can report exactly where parsing failed.
func lineErr(lineNo int, code apperror.ErrorCode, format string, args ...any) *apperror.Error {
	return apperror.New(code, fmt.Sprintf(format, args...)).WithDetails("line", lineNo)
}

// wrapLineErr is lineErr for failures that wrap an underlying cause (a
// strconv or bufio.Scanner error).
func wrapLineErr(lineNo int, code apperror.ErrorCode, cause error, format string, args ...any) *apperror.Error {
	return apperror.Wrap(cause, code, fmt.Sprintf(format, args...)).WithDetails("line", lineNo)
}

// ReadGraph parses a DIMACS maximum-flow problem from r into a graph, along
// with the declared source and sink node ids. Node ids are whatever the 'p'
// and 'a' lines declare; the graph does not require them to be dense or to
// start at 1. Malformed lines are reported as a wrapped *apperror.Error with
// CodeInvalidGraph (or a more specific code where one applies).
func ReadGraph(r io.Reader) (g *graph.Graph, source, sink int64, err error) {
	g = graph.New()

	var haveSource, haveSink, haveProblem bool
	var declaredArcs int

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch line[0] {
		case 'c':
			continue

		case 'p':
			fields := strings.Fields(line)
			if len(fields) != 4 || fields[1] != "max" {
				return nil, 0, 0, lineErr(lineNo, apperror.CodeInvalidGraph, "malformed problem line %q", line)
			}
			numNodes, perr := strconv.ParseInt(fields[2], 10, 64)
			if perr != nil {
				return nil, 0, 0, wrapLineErr(lineNo, apperror.CodeInvalidGraph, perr, "bad node count")
			}
			declared, perr := strconv.ParseInt(fields[3], 10, 64)
			if perr != nil {
				return nil, 0, 0, wrapLineErr(lineNo, apperror.CodeInvalidGraph, perr, "bad arc count")
			}
			declaredArcs = int(declared)
			for id := int64(1); id <= numNodes; id++ {
				g.AddNode(id)
			}
			haveProblem = true

		case 'n':
			if !haveProblem {
				return nil, 0, 0, lineErr(lineNo, apperror.CodeInvalidGraph, "'n' line before 'p' line")
			}
			fields := strings.Fields(line)
			if len(fields) != 3 {
				return nil, 0, 0, lineErr(lineNo, apperror.CodeInvalidGraph, "malformed node designation %q", line)
			}
			id, perr := strconv.ParseInt(fields[1], 10, 64)
			if perr != nil {
				return nil, 0, 0, wrapLineErr(lineNo, apperror.CodeInvalidGraph, perr, "bad node id")
			}
			switch fields[2] {
			case "s":
				if haveSource {
					return nil, 0, 0, lineErr(lineNo, apperror.CodeDuplicateNode, "multiple source designations")
				}
				source = id
				haveSource = true
			case "t":
				if haveSink {
					return nil, 0, 0, lineErr(lineNo, apperror.CodeDuplicateNode, "multiple sink designations")
				}
				sink = id
				haveSink = true
			default:
				return nil, 0, 0, lineErr(lineNo, apperror.CodeInvalidGraph, "unrecognized node designation %q", fields[2])
			}

		case 'a':
			if !haveProblem {
				return nil, 0, 0, lineErr(lineNo, apperror.CodeInvalidGraph, "'a' line before 'p' line")
			}
			fields := strings.Fields(line)
			if len(fields) != 4 {
				return nil, 0, 0, lineErr(lineNo, apperror.CodeInvalidGraph, "malformed arc line %q", line)
			}
			tailID, perr := strconv.ParseInt(fields[1], 10, 64)
			if perr != nil {
				return nil, 0, 0, wrapLineErr(lineNo, apperror.CodeInvalidGraph, perr, "bad tail id")
			}
			headID, perr := strconv.ParseInt(fields[2], 10, 64)
			if perr != nil {
				return nil, 0, 0, wrapLineErr(lineNo, apperror.CodeInvalidGraph, perr, "bad head id")
			}
			capacity, perr := strconv.ParseInt(fields[3], 10, 64)
			if perr != nil {
				return nil, 0, 0, wrapLineErr(lineNo, apperror.CodeInvalidGraph, perr, "bad capacity")
			}
			if capacity < 0 {
				return nil, 0, 0, lineErr(lineNo, apperror.CodeNegativeCapacity, "negative capacity %d", capacity)
			}
			tail := g.AddNode(tailID)
			head := g.AddNode(headID)
			g.AddArc(tail, head, capacity)

		default:
			return nil, 0, 0, lineErr(lineNo, apperror.CodeInvalidGraph, "unrecognized line type %q", line[:1])
		}
	}
	if serr := scanner.Err(); serr != nil {
		return nil, 0, 0, apperror.Wrap(serr, apperror.CodeInternal, "scanning dimacs input")
	}

	if !haveProblem {
		return nil, 0, 0, apperror.New(apperror.CodeInvalidGraph, "missing 'p max' problem line")
	}
	if !haveSource {
		return nil, 0, 0, apperror.New(apperror.CodeInvalidSource, "missing source designation")
	}
	if !haveSink {
		return nil, 0, 0, apperror.New(apperror.CodeInvalidSink, "missing sink designation")
	}
	if g.NumArcs() != declaredArcs {
		return nil, 0, 0, apperror.New(apperror.CodeInvalidGraph, fmt.Sprintf("declared %d arcs, read %d", declaredArcs, g.NumArcs()))
	}

	if err := g.SetSource(source); err != nil {
		return nil, 0, 0, apperror.Wrap(err, apperror.CodeInvalidSource, "resolving source node")
	}
	if err := g.SetSink(sink); err != nil {
		return nil, 0, 0, apperror.Wrap(err, apperror.CodeInvalidSink, "resolving sink node")
	}

	return g, source, sink, nil
}

// WriteFlow writes a DIMACS-style flow solution: a summary 's <value>' line
// followed by one 'f TAIL HEAD FLOW' line per arc, in the graph's arc
// insertion order. Unlike some DIMACS producers, it does not special-case
// or drop arcs whose tail is the sink or whose head is the source; every
// arc the graph holds is reported, matching what the solver actually saw.
func WriteFlow(w io.Writer, g *graph.Graph, maxFlow int64) error {
	bw := bufio.NewWriter(w)

	if _, err := fmt.Fprintf(bw, "c flow solution\n"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(bw, "s %d\n", maxFlow); err != nil {
		return err
	}

	for _, a := range g.Arcs() {
		tailID := g.Node(a.Tail).ID
		headID := g.Node(a.Head).ID
		if _, err := fmt.Fprintf(bw, "f %d %d %d\n", tailID, headID, a.Flow); err != nil {
			return err
		}
	}

	return bw.Flush()
}
