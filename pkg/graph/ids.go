package graph

import (
	"crypto/sha256"
	"encoding/hex"
)

// NodeID is a content-addressed node identifier: the SHA-256 of the
// path string that created the node.
type NodeID [32]byte

// ZeroID is the unset NodeID.
var ZeroID NodeID

// NewNodeID derives a deterministic NodeID from a creation path such as
// "entity/tower" or "place/tower".
func NewNodeID(path string) NodeID {
	return NodeID(sha256.Sum256([]byte(path)))
}

// IsZero reports whether id is unset.
func (id NodeID) IsZero() bool { return id == ZeroID }

func (id NodeID) String() string { return hex.EncodeToString(id[:]) }

// Short returns the first eight hex digits, for messages.
func (id NodeID) Short() string { return hex.EncodeToString(id[:4]) }

// ContentHash fingerprints a node's data.
type ContentHash [32]byte

// SourceRef points back at the DSL form that produced a node.
type SourceRef struct {
	Line int `json:"line,omitempty"`
	Col  int `json:"col,omitempty"`
}

// Vec3 is a plain 3-component vector used in node payloads.
type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

func (v Vec3) Scale(f float64) Vec3 { return Vec3{v.X * f, v.Y * f, v.Z * f} }

// IsZero reports whether all components are zero.
func (v Vec3) IsZero() bool { return v.X == 0 && v.Y == 0 && v.Z == 0 }
