package graph

// NodeKind enumerates the types of nodes in the scene graph.
type NodeKind int

const (
	NodeSolid     NodeKind = iota // closed obstruction (box, cylinder)
	NodeSurface                   // planar obstruction (polygon)
	NodePath                      // polyline, e.g. a road centre line
	NodePoint                     // target point for visibility
	NodeTransform                 // spatial transformation (place)
	NodeBoolean                   // CSG combination of child solids
	NodeGroup                     // logical grouping (entity, group)
)

func (k NodeKind) String() string {
	switch k {
	case NodeSolid:
		return "solid"
	case NodeSurface:
		return "surface"
	case NodePath:
		return "path"
	case NodePoint:
		return "point"
	case NodeTransform:
		return "transform"
	case NodeBoolean:
		return "boolean"
	case NodeGroup:
		return "group"
	default:
		return "unknown"
	}
}

// Node is the fundamental element of the scene graph.
type Node struct {
	ID          NodeID         `json:"id"`
	Kind        NodeKind       `json:"kind"`
	Name        string         `json:"name,omitempty"`
	Source      SourceRef      `json:"source"`
	ContentHash ContentHash    `json:"content_hash"`
	Children    []NodeID       `json:"children,omitempty"`
	Data        NodeData       `json:"data"`
	Attrs       map[string]any `json:"attrs,omitempty"`
}

// Attr returns a node attribute.
func (n *Node) Attr(name string) (any, bool) {
	v, ok := n.Attrs[name]
	return v, ok
}

// Label is the name used when reporting a node: its Name, or its short ID.
func (n *Node) Label() string {
	if n.Name != "" {
		return n.Name
	}
	return n.ID.Short()
}

// NodeData is the interface for kind-specific node payloads.
type NodeData interface {
	nodeData() // marker method restricting implementations to this package
}
