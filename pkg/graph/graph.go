package graph

import "fmt"

// Defaults contains scene-wide settings.
type Defaults struct {
	Units string `json:"units"` // "m" (only option for now)
}

// Scene is the top-level immutable data structure produced by DSL evaluation.
// It is never mutated in place; each evaluation produces a new scene.
type Scene struct {
	Nodes     map[NodeID]*Node  `json:"nodes"`
	Roots     []NodeID          `json:"roots"`
	NameIndex map[string]NodeID `json:"name_index"`
	Attrs     map[string]any    `json:"attrs,omitempty"` // scene-scope attributes
	Defaults  Defaults          `json:"defaults"`
	Version   uint64            `json:"version"`
}

// New creates an empty Scene with default settings.
func New() *Scene {
	return &Scene{
		Nodes:     make(map[NodeID]*Node),
		NameIndex: make(map[string]NodeID),
		Attrs:     make(map[string]any),
		Defaults:  Defaults{Units: "m"},
	}
}

// AddNode adds a node to the scene. It does not check for duplicates.
func (g *Scene) AddNode(n *Node) {
	g.Nodes[n.ID] = n
	if n.Name != "" {
		g.NameIndex[n.Name] = n.ID
	}
}

// AddRoot registers a node ID as a root of the scene. Adding the same
// root twice is a no-op.
func (g *Scene) AddRoot(id NodeID) {
	for _, r := range g.Roots {
		if r == id {
			return
		}
	}
	g.Roots = append(g.Roots, id)
}

// SetAttr sets a scene-scope attribute.
func (g *Scene) SetAttr(name string, v any) {
	g.Attrs[name] = v
}

// Attr returns a scene-scope attribute.
func (g *Scene) Attr(name string) (any, bool) {
	v, ok := g.Attrs[name]
	return v, ok
}

// Lookup returns the node with the given user-assigned name, or nil.
func (g *Scene) Lookup(name string) *Node {
	id, ok := g.NameIndex[name]
	if !ok {
		return nil
	}
	return g.Nodes[id]
}

// MustLookup returns the node with the given name, or panics.
func (g *Scene) MustLookup(name string) *Node {
	n := g.Lookup(name)
	if n == nil {
		panic(fmt.Sprintf("graph: no node named %q", name))
	}
	return n
}

// Get returns the node with the given ID, or nil.
func (g *Scene) Get(id NodeID) *Node {
	return g.Nodes[id]
}

// OfKind returns all nodes of the given kind, in no particular order.
func (g *Scene) OfKind(kind NodeKind) []*Node {
	var out []*Node
	for _, n := range g.Nodes {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

// Children returns the child nodes of the given node.
func (g *Scene) Children(n *Node) []*Node {
	children := make([]*Node, 0, len(n.Children))
	for _, cid := range n.Children {
		if c := g.Nodes[cid]; c != nil {
			children = append(children, c)
		}
	}
	return children
}

// NodeCount returns the total number of nodes.
func (g *Scene) NodeCount() int {
	return len(g.Nodes)
}
