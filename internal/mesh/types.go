// Package mesh turns a normalized heightmap into an indexed triangle mesh and
// converts meshes to and from the on-disk formats in pkg/formats.
package mesh

import (
	"errors"

	"github.com/Faultbox/dsterrain/internal/biome"
	"github.com/Faultbox/dsterrain/pkg/math"
)

// Mesh errors.
var (
	ErrVertexColorMismatch = errors.New("vertex color count does not match vertex count")
	ErrExportFailed        = errors.New("mesh export failed")
)

// Vertex is a mesh vertex with an optional color.
type Vertex struct {
	Position math.Vec3
	Color    biome.RGB
	Colored  bool
}

// Face is a triangle of 0-based vertex indices in construction order.
type Face [3]uint32

// Edge is an undirected pair of vertex indices.
type Edge [2]uint32

// Mesh holds vertex and topology buffers. Buffers are owned by the mesh.
type Mesh struct {
	Vertices   []Vertex
	Faces      []Face
	Edges      []Edge      // optional, 5 per grid quad
	FaceColors []biome.RGB // optional, one per face
	Size       int         // side of the source grid, 0 if unknown
}

// Bounds holds the axis-aligned bounding box of a mesh.
type Bounds struct {
	Min math.Vec3
	Max math.Vec3
}

// Layout places grid cells in model space.
type Layout struct {
	Base      math.Vec3 // position of cell (0, 0) at height 0
	Size      float64   // extent along x and z
	MaxHeight float64   // y offset of a cell with height 1
}

// DefaultLayout returns the layout used by the reference exporter: a 2x2
// square centred on the origin in x and z, heights in [-0.75, -0.25].
func DefaultLayout() Layout {
	return Layout{
		Base:      math.Vec3{X: -1, Y: -0.75, Z: -1},
		Size:      2,
		MaxHeight: 0.5,
	}
}

// Colored reports whether every vertex carries a color.
func (m *Mesh) Colored() bool {
	if len(m.Vertices) == 0 {
		return false
	}
	for _, v := range m.Vertices {
		if !v.Colored {
			return false
		}
	}
	return true
}

// SetColors attaches one color per vertex.
func (m *Mesh) SetColors(colors []biome.RGB) error {
	if len(colors) != len(m.Vertices) {
		return errVertexColors(len(colors), len(m.Vertices))
	}
	for i := range m.Vertices {
		m.Vertices[i].Color = colors[i]
		m.Vertices[i].Colored = true
	}
	return nil
}

// Bounds returns the bounding box of all vertex positions.
func (m *Mesh) Bounds() Bounds {
	if len(m.Vertices) == 0 {
		return Bounds{}
	}
	b := Bounds{Min: m.Vertices[0].Position, Max: m.Vertices[0].Position}
	for _, v := range m.Vertices[1:] {
		b.Min = b.Min.Min(v.Position)
		b.Max = b.Max.Max(v.Position)
	}
	return b
}

// FaceNormal returns the unit normal of face f following its winding.
func (m *Mesh) FaceNormal(f Face) math.Vec3 {
	a := m.Vertices[f[0]].Position
	b := m.Vertices[f[1]].Position
	c := m.Vertices[f[2]].Position
	return b.Sub(a).Cross(c.Sub(a)).Normalize()
}
