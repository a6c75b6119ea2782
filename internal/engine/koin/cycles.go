package koin

import (
	"fmt"
	"strings"
)

// CycleReport is one detected inclusion cycle. Path starts at the module the
// finding is attributed to and does not repeat it at the end. A self-loop has a
// single-element path.
type CycleReport struct {
	Module string
	Path   []string
}

// SelfLoop reports whether the cycle is a module including itself.
func (c CycleReport) SelfLoop() bool { return len(c.Path) == 1 }

// DetectCycles walks the modules in declaration order. A module including itself
// yields a self-loop report and is not searched further. Otherwise a depth-first
// search looks for a path back to the module; each cycle is reported once, by the
// first module of the walk that participates in it.
func DetectCycles(g *Graph) []CycleReport {
	var reports []CycleReport
	reported := make(map[string]bool)
	for _, id := range g.Order {
		if reported[id] {
			continue
		}
		node := g.nodes[id]
		if node.IncludesSelf() {
			reports = append(reports, CycleReport{Module: id, Path: []string{id}})
			continue
		}
		path := g.cycleFrom(id)
		if path == nil {
			continue
		}
		reports = append(reports, CycleReport{Module: id, Path: path})
		for _, member := range path {
			reported[member] = true
		}
	}
	return reports
}

type frame struct {
	id   string
	next int
}

// cycleFrom returns the first path leading back to start, or nil. The search uses
// an explicit frame stack so long include chains cannot exhaust the goroutine stack.
func (g *Graph) cycleFrom(start string) []string {
	visited := map[string]bool{start: true}
	path := []string{start}
	stack := []frame{{id: start}}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		edges := g.Edges(top.id)
		if top.next >= len(edges) {
			stack = stack[:len(stack)-1]
			path = path[:len(path)-1]
			continue
		}
		dep := edges[top.next]
		top.next++

		if dep == start && len(path) > 1 {
			out := make([]string, len(path))
			copy(out, path)
			return out
		}
		if _, known := g.nodes[dep]; known && !visited[dep] {
			visited[dep] = true
			path = append(path, dep)
			stack = append(stack, frame{id: dep})
		}
	}
	return nil
}

func (g *Graph) cycleFindings(reports []CycleReport) []Finding {
	findings := make([]Finding, 0, len(reports))
	for _, r := range reports {
		node := g.nodes[r.Module]
		findings = append(findings, Finding{
			RuleID:  RuleCircularModuleDependency,
			Message: cycleMessage(r),
			Span:    node.DeclarationSite,
		})
	}
	return findings
}

func cycleMessage(r CycleReport) string {
	if r.SelfLoop() {
		return message(
			"Module includes itself → Causes initialization errors\n→ Remove self-reference from includes()",
			fmt.Sprintf("val %s = module { includes(%s) }", r.Module, r.Module),
			fmt.Sprintf("val %s = module { /* no self-reference */ }", r.Module),
		)
	}
	quoted := make([]string, 0, len(r.Path)+1)
	bad := make([]string, 0, len(r.Path))
	for i, id := range r.Path {
		quoted = append(quoted, "'"+id+"'")
		next := r.Path[(i+1)%len(r.Path)]
		bad = append(bad, fmt.Sprintf("val %s = module { includes(%s) }", id, next))
	}
	quoted = append(quoted, "'"+r.Path[0]+"'")
	return message(
		"Circular dependency: "+strings.Join(quoted, " → ")+" → Causes initialization errors\n"+
			"→ Refactor to hierarchical structure (A → B, not A ↔ B)",
		strings.Join(bad, "; "),
		"val coreModule = module { }; val featureModule = module { includes(coreModule) }",
	)
}
