package graph

import (
	"fmt"
	"io"
)

// WriteDOT writes the graph in Graphviz DOT format. Edges point from a
// node to its dependencies. Service nodes are boxes, named nodes ellipses.
func (g *DependencyGraph) WriteDOT(w io.Writer) error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, err := fmt.Fprintln(w, "digraph dependencies {"); err != nil {
		return err
	}
	fmt.Fprintln(w, "  rankdir=LR;")

	ids := make(map[NodeKey]string, len(g.order))
	for i, key := range g.order {
		id := fmt.Sprintf("n%d", i)
		ids[key] = id

		shape := "box"
		if key.Type == nil {
			shape = "ellipse"
		}
		fmt.Fprintf(w, "  %s [label=%q, shape=%s];\n", id, key.String(), shape)
	}

	for _, key := range g.order {
		for _, dep := range g.nodes[key].Dependencies {
			fmt.Fprintf(w, "  %s -> %s;\n", ids[key], ids[dep])
		}
	}

	_, err := fmt.Fprintln(w, "}")
	return err
}
