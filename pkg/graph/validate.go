package graph

import "fmt"

// ValidationSeverity indicates whether a validation finding blocks analysis
// or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks analysis
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	NodeID   NodeID             // which node has the problem (zero if scene-level)
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.NodeID.IsZero() {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] node %s: %s", e.Severity, e.NodeID.Short(), e.Message)
}

// ValidationResult bundles errors (blocking) and warnings (advisory)
// from all validation tiers.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// OK reports whether no blocking errors were found.
func (r ValidationResult) OK() bool { return len(r.Errors) == 0 }

// Validate runs the structural checks on the scene and returns every
// finding. This function is read-only and never mutates the scene.
func Validate(g *Scene) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateDAG(g)...)
	errs = append(errs, validateReferences(g)...)
	errs = append(errs, validateNames(g)...)
	errs = append(errs, validateRoots(g)...)
	errs = append(errs, validateKinds(g)...)
	return errs
}

// ValidateAll runs the structural and geometric tiers and separates
// errors from warnings.
func ValidateAll(g *Scene) ValidationResult {
	var result ValidationResult
	all := append(Validate(g), validateGeometry(g)...)
	all = append(all, validateAttributes(g)...)
	for _, e := range all {
		if e.Severity == SeverityWarning {
			result.Warnings = append(result.Warnings, e)
		} else {
			result.Errors = append(result.Errors, e)
		}
	}
	return result
}

// validateDAG checks for cycles using DFS with 3-color marking.
// White (0) = unvisited, gray (1) = in current DFS path, black (2) = fully explored.
func validateDAG(g *Scene) []ValidationError {
	const (
		white = iota
		gray
		black
	)

	color := make(map[NodeID]int)
	var errs []ValidationError

	var visit func(id NodeID) bool // returns true if cycle found
	visit = func(id NodeID) bool {
		switch color[id] {
		case black:
			return false
		case gray:
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  fmt.Sprintf("cycle detected: node %s is part of a cycle", id.Short()),
				Severity: SeverityError,
			})
			return true
		}

		color[id] = gray
		node, ok := g.Nodes[id]
		if !ok {
			// Dangling reference; handled by validateReferences.
			color[id] = black
			return false
		}
		for _, childID := range node.Children {
			if visit(childID) {
				return true
			}
		}
		color[id] = black
		return false
	}

	for id := range g.Nodes {
		if color[id] == white {
			if visit(id) {
				break // one cycle error is sufficient
			}
		}
	}
	return errs
}

// validateReferences checks that every child ID points to an existing node.
func validateReferences(g *Scene) []ValidationError {
	var errs []ValidationError
	for _, node := range g.Nodes {
		for _, childID := range node.Children {
			if _, ok := g.Nodes[childID]; !ok {
				errs = append(errs, ValidationError{
					NodeID:   node.ID,
					Message:  fmt.Sprintf("child reference %s does not exist", childID.Short()),
					Severity: SeverityError,
				})
			}
		}
	}
	return errs
}

// validateNames checks that the NameIndex is injective and that every
// entry in it points to an existing node.
func validateNames(g *Scene) []ValidationError {
	var errs []ValidationError

	for name, id := range g.NameIndex {
		if _, ok := g.Nodes[id]; !ok {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("name index entry %q references non-existent node %s", name, id.Short()),
				Severity: SeverityError,
			})
		}
	}

	nameToNodes := make(map[string][]NodeID)
	for id, node := range g.Nodes {
		if node.Name != "" {
			nameToNodes[node.Name] = append(nameToNodes[node.Name], id)
		}
	}
	for name, ids := range nameToNodes {
		if len(ids) > 1 {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("duplicate name %q assigned to %d nodes", name, len(ids)),
				Severity: SeverityError,
			})
		}
	}
	return errs
}

// validateRoots checks that every root exists and warns about nodes that
// no root reaches. Orphans are never tessellated, so they cast no shadow.
func validateRoots(g *Scene) []ValidationError {
	var errs []ValidationError

	for _, rid := range g.Roots {
		if _, ok := g.Nodes[rid]; !ok {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("root reference %s does not exist", rid.Short()),
				Severity: SeverityError,
			})
		}
	}
	if len(g.Nodes) == 0 {
		return errs
	}

	reachable := make(map[NodeID]bool)
	queue := make([]NodeID, 0, len(g.Roots))
	for _, rid := range g.Roots {
		if _, ok := g.Nodes[rid]; ok && !reachable[rid] {
			reachable[rid] = true
			queue = append(queue, rid)
		}
	}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		node := g.Nodes[current]
		if node == nil {
			continue
		}
		for _, childID := range node.Children {
			if !reachable[childID] {
				reachable[childID] = true
				queue = append(queue, childID)
			}
		}
	}

	for id, node := range g.Nodes {
		if !reachable[id] {
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  fmt.Sprintf("node %q is not reachable from any root (orphan)", node.Label()),
				Severity: SeverityWarning,
			})
		}
	}
	return errs
}

// validateKinds checks that each node's Data matches its Kind, that leaf
// kinds have no children, and that boolean operands are solids.
func validateKinds(g *Scene) []ValidationError {
	var errs []ValidationError
	add := func(n *Node, format string, args ...any) {
		errs = append(errs, ValidationError{
			NodeID:   n.ID,
			Message:  fmt.Sprintf(format, args...),
			Severity: SeverityError,
		})
	}

	for _, n := range g.Nodes {
		var ok bool
		switch n.Kind {
		case NodeSolid:
			switch n.Data.(type) {
			case BoxData, CylinderData:
				ok = true
			}
		case NodeSurface:
			_, ok = n.Data.(PolygonData)
		case NodePath:
			_, ok = n.Data.(PolylineData)
		case NodePoint:
			_, ok = n.Data.(PointData)
		case NodeTransform:
			_, ok = n.Data.(TransformData)
		case NodeBoolean:
			_, ok = n.Data.(BooleanData)
		case NodeGroup:
			_, ok = n.Data.(GroupData)
		}
		if !ok {
			add(n, "%s node carries %T data", n.Kind, n.Data)
			continue
		}

		switch n.Kind {
		case NodeSolid, NodeSurface, NodePath, NodePoint:
			if len(n.Children) > 0 {
				add(n, "%s node cannot have children", n.Kind)
			}
		case NodeBoolean:
			if len(n.Children) < 2 {
				add(n, "%s needs at least 2 operands, got %d", n.Data.(BooleanData).Op, len(n.Children))
			}
			for _, c := range g.Children(n) {
				if !isSolidTree(g, c, map[NodeID]bool{n.ID: true}) {
					add(n, "boolean operand %q is not a solid", c.Label())
				}
			}
		}
	}
	return errs
}

// isSolidTree reports whether n evaluates to a kernel solid: a solid, a
// boolean, or a transform or group whose children are all solid trees.
// seen holds the current path and guards against cycles, which
// validateDAG reports separately.
func isSolidTree(g *Scene, n *Node, seen map[NodeID]bool) bool {
	if seen[n.ID] {
		return false
	}
	seen[n.ID] = true
	defer delete(seen, n.ID)
	switch n.Kind {
	case NodeSolid, NodeBoolean:
		return true
	case NodeTransform, NodeGroup:
		if len(n.Children) == 0 {
			return false
		}
		for _, c := range g.Children(n) {
			if !isSolidTree(g, c, seen) {
				return false
			}
		}
		return true
	}
	return false
}
