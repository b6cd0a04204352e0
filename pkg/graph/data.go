package graph

// ---------------------------------------------------------------------------
// Solids
// ---------------------------------------------------------------------------

// BoxData is an axis-aligned box with its minimum corner at the local origin.
type BoxData struct {
	Dimensions Vec3 `json:"dimensions"` // x, y, z extents in model units
}

func (BoxData) nodeData() {}

// CylinderData is a Z-aligned cylinder centred on the local origin.
type CylinderData struct {
	Height   float64 `json:"height"`
	Radius   float64 `json:"radius"`
	Segments int     `json:"segments,omitempty"` // facet count for polyhedral kernels
}

func (CylinderData) nodeData() {}

// DefaultSegments is used when a cylinder does not set Segments.
const DefaultSegments = 32

// ---------------------------------------------------------------------------
// Surfaces and paths
// ---------------------------------------------------------------------------

// PolygonData is a planar polygon, e.g. a facade or a ground patch.
// Vertices are in order; the polygon is implicitly closed.
type PolygonData struct {
	Vertices []Vec3 `json:"vertices"`
}

func (PolygonData) nodeData() {}

// PolylineData is an open polyline. Roads carry a "traffic" attribute.
type PolylineData struct {
	Points []Vec3 `json:"points"`
}

func (PolylineData) nodeData() {}

// PointData is a single position, used as a visibility target.
type PointData struct {
	At Vec3 `json:"at"`
}

func (PointData) nodeData() {}

// ---------------------------------------------------------------------------
// Transform
// ---------------------------------------------------------------------------

// TransformData represents a spatial transformation applied to child nodes.
// Rotation is applied before Translation. Created by the (place ...) form.
type TransformData struct {
	Translation *Vec3 `json:"translation,omitempty"`
	Rotation    *Vec3 `json:"rotation,omitempty"` // Euler angles in degrees
}

func (TransformData) nodeData() {}

// ---------------------------------------------------------------------------
// Boolean
// ---------------------------------------------------------------------------

// BoolOp enumerates CSG operations.
type BoolOp int

const (
	OpUnion BoolOp = iota
	OpDifference
	OpIntersection
)

func (op BoolOp) String() string {
	switch op {
	case OpUnion:
		return "union"
	case OpDifference:
		return "difference"
	case OpIntersection:
		return "intersection"
	default:
		return "unknown"
	}
}

// BooleanData combines child solids. For difference, the first child is
// the base and every later child is subtracted from it.
type BooleanData struct {
	Op BoolOp `json:"op"`
}

func (BooleanData) nodeData() {}

// ---------------------------------------------------------------------------
// Group
// ---------------------------------------------------------------------------

// GroupData represents a logical grouping. Named groups are entities that
// analyses can reference by name.
type GroupData struct {
	Description string `json:"description,omitempty"`
}

func (GroupData) nodeData() {}
