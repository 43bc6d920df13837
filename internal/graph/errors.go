package graph

import (
	"fmt"
	"strings"
)

// CircularDependencyError represents a service that depends on itself,
// directly or through other services.
type CircularDependencyError struct {
	Node NodeKey
	Path []NodeKey
}

func (e CircularDependencyError) Error() string {
	var b strings.Builder
	b.WriteString("circular dependency detected:\n\n")

	if len(e.Path) == 0 {
		b.WriteString(fmt.Sprintf("    %s\n", e.Node))
		b.WriteString("      ↓\n")
		b.WriteString(fmt.Sprintf("    %s (cycle)\n", e.Node))
	} else {
		for _, node := range e.Path {
			b.WriteString(fmt.Sprintf("    %s\n", node))
			b.WriteString("      ↓\n")
		}
		b.WriteString(fmt.Sprintf("    %s (cycle)\n", e.Node))
	}

	b.WriteString("\nTo resolve this:\n")
	b.WriteString("  • Resolve one side lazily from a post-constructor\n")
	b.WriteString("  • Inject a function that returns the dependency instead of the dependency\n")
	b.WriteString("  • Restructure to remove the circular relationship\n")

	return b.String()
}
