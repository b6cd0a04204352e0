package engine

import (
	"fmt"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/umbra/pkg/graph"
)

// builder accumulates the scene for one evaluation. Anonymous node ids
// come from a per-evaluation counter, so evaluating the same source twice
// yields identical ids.
type builder struct {
	g     *graph.Scene
	order []graph.NodeID
	anon  int
}

func newBuilder() *builder {
	return &builder{g: graph.New()}
}

func (b *builder) add(n *graph.Node) {
	if b.g.Get(n.ID) == nil {
		b.order = append(b.order, n.ID)
	}
	b.g.AddNode(n)
}

func (b *builder) anonPath(prefix string) string {
	b.anon++
	return fmt.Sprintf("%s/_anon_%d", prefix, b.anon)
}

// nodeOf turns a builtin argument into a node: references pass through,
// shapes become anonymous nodes.
func (b *builder) nodeOf(s zygo.Sexp) (graph.NodeID, error) {
	switch v := s.(type) {
	case *sexpNodeRef:
		return v.id, nil
	case *sexpShape:
		id := graph.NewNodeID(b.anonPath(v.kind.String()))
		b.add(&graph.Node{ID: id, Kind: v.kind, Data: v.data})
		return id, nil
	}
	return graph.ZeroID, fmt.Errorf("expected entity or shape, got %T (%s)", s, s.SexpString(nil))
}

// named creates a named node from body and applies keyword attributes.
func (b *builder) named(name string, body zygo.Sexp, pa kwArgs) (zygo.Sexp, error) {
	if b.g.Lookup(name) != nil {
		return zygo.SexpNull, fmt.Errorf("duplicate entity name %q", name)
	}

	id := graph.NewNodeID("entity/" + name)
	var n *graph.Node
	switch v := body.(type) {
	case *sexpShape:
		n = &graph.Node{ID: id, Kind: v.kind, Name: name, Data: v.data}
	case *sexpNodeRef:
		n = &graph.Node{
			ID:       id,
			Kind:     graph.NodeGroup,
			Name:     name,
			Children: []graph.NodeID{v.id},
			Data:     graph.GroupData{Description: name},
		}
	default:
		return zygo.SexpNull, fmt.Errorf("%q: expected shape or entity body, got %T (%s)", name, body, body.SexpString(nil))
	}
	if err := applyAttrs(n, pa); err != nil {
		return zygo.SexpNull, fmt.Errorf("%q: %w", name, err)
	}
	b.add(n)
	return &sexpNodeRef{id: id, name: name}, nil
}

// finish roots every node that no other node references, in creation
// order, and returns the scene.
func (b *builder) finish() *graph.Scene {
	referenced := make(map[graph.NodeID]bool)
	for _, n := range b.g.Nodes {
		for _, c := range n.Children {
			referenced[c] = true
		}
	}
	for _, id := range b.order {
		if !referenced[id] {
			b.g.AddRoot(id)
		}
	}
	b.g.Version++
	return b.g
}
