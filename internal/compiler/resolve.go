package compiler

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/roach88/geometrix/internal/ir"
	"github.com/roach88/geometrix/internal/symbolic"
)

// CycleError reports scalar definitions that reference each other.
type CycleError struct {
	Path []string `json:"path"` // e.g. ["a", "b", "a"]
}

func (e *CycleError) Error() string {
	return "definition cycle: " + strings.Join(e.Path, " -> ")
}

// ResolveDefinitions returns bindings extended with every argument-free
// scalar definition that body references, directly or through other such
// definitions. Each definition is parsed once with symbols as its free
// symbols, after the definitions it depends on.
//
// The algorithm:
//  1. Build a name -> referenced-names graph over inlinable definitions
//  2. Use Tarjan's algorithm to find strongly connected components
//  3. Any SCC with more than one member, or a self-loop, is a CycleError
//  4. Parse definitions in SCC emission order, which puts dependencies first
func ResolveDefinitions(prog *ir.SymbolicIR, body string, symbols []string, bindings map[string]symbolic.Expr) (map[string]symbolic.Expr, error) {
	out := maps.Clone(bindings)
	if out == nil {
		out = map[string]symbolic.Expr{}
	}

	inlinable := map[string]ir.Definition{}
	for name, def := range prog.Definitions {
		if def.Kind == ir.KindScalar && len(def.Args) == 0 && !slices.Contains(symbols, name) {
			inlinable[name] = def
		}
	}

	graph := buildDependencyGraph(body, inlinable)
	for _, scc := range tarjanSCC(graph) {
		if len(scc) > 1 || hasSelfLoop(scc[0], graph) {
			return nil, &CycleError{Path: reconstructCyclePath(scc, graph)}
		}
		name := scc[0]
		def, ok := inlinable[name]
		if !ok {
			// The synthetic root for body.
			continue
		}
		e, err := symbolic.Parse(def.Expression, symbolic.ParseOptions{Symbols: symbols, Bindings: out})
		if err != nil {
			return nil, fmt.Errorf("definition %s: %w", name, err)
		}
		out[name] = e
	}
	return out, nil
}

// rootNode stands for the body being resolved. It cannot collide with a
// definition name because names never contain spaces.
const rootNode = "<body> "

// dependencyGraph maps a definition name to the definitions it references.
type dependencyGraph map[string][]string

// buildDependencyGraph walks references from body through the inlinable
// definitions. Only reachable definitions become nodes.
func buildDependencyGraph(body string, defs map[string]ir.Definition) dependencyGraph {
	graph := dependencyGraph{}
	queue := []string{rootNode}
	texts := map[string]string{rootNode: body}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		if _, seen := graph[node]; seen {
			continue
		}
		graph[node] = []string{}
		for _, name := range identifiers(texts[node]) {
			def, ok := defs[name]
			if !ok {
				continue
			}
			graph[node] = append(graph[node], name)
			texts[name] = def.Expression
			queue = append(queue, name)
		}
	}
	return graph
}

// identifiers returns the distinct names in an expression, in order of
// first appearance.
func identifiers(expr string) []string {
	var out []string
	for i := 0; i < len(expr); {
		c := expr[i]
		if !isNameStart(c) {
			i++
			continue
		}
		j := i + 1
		for j < len(expr) && (isNameStart(expr[j]) || (expr[j] >= '0' && expr[j] <= '9')) {
			j++
		}
		if name := expr[i:j]; !slices.Contains(out, name) {
			out = append(out, name)
		}
		i = j
	}
	return out
}

func isNameStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// hasSelfLoop checks if a node has an edge to itself.
func hasSelfLoop(node string, graph dependencyGraph) bool {
	return slices.Contains(graph[node], node)
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
//
// Components are emitted in reverse topological order: every component
// comes after the components it references. Nodes are visited in sorted
// order so the result is deterministic.
func tarjanSCC(graph dependencyGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// v is a root node: pop its component
		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, node := range slices.Sorted(maps.Keys(graph)) {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

// reconstructCyclePath follows edges inside an SCC from its first member
// until it returns there.
func reconstructCyclePath(scc []string, graph dependencyGraph) []string {
	members := make(map[string]bool, len(scc))
	for _, node := range scc {
		members[node] = true
	}

	start := scc[len(scc)-1]
	current := start
	path := []string{current}
	visited := map[string]bool{}
	for {
		visited[current] = true
		next := ""
		for _, neighbor := range graph[current] {
			if members[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}
		if next == "" {
			break
		}
		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}
	return path
}
