package mesh

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/dsterrain/internal/biome"
	"github.com/Faultbox/dsterrain/internal/grid"
	"github.com/Faultbox/dsterrain/internal/heightmap"
	"github.com/Faultbox/dsterrain/internal/logger"
	"github.com/Faultbox/dsterrain/pkg/math"
	"github.com/Faultbox/dsterrain/pkg/parallel"
)

// Options configures Build.
type Options struct {
	Layout     Layout
	Colored    bool // per-vertex biome colors
	FaceColors bool // flat per-face biome colors
	Edges      bool
	Workers    int
}

// DefaultOptions returns a colored mesh in the default layout.
func DefaultOptions() Options {
	return Options{Layout: DefaultLayout(), Colored: true, Workers: 1}
}

// FaceOptions selects the optional outputs of BuildFaces.
type FaceOptions struct {
	Edges   bool
	Colors  *heightmap.ColorMap // non-nil to produce per-face colors
	Workers int
}

func errVertexColors(colors, vertices int) error {
	return fmt.Errorf("%w: %d colors for %d vertices", ErrVertexColorMismatch, colors, vertices)
}

// Build creates the full mesh for heightmap h. colors may be nil when neither
// vertex nor face colors are requested.
func Build(h *grid.Grid, colors *heightmap.ColorMap, opts Options) (*Mesh, error) {
	n := h.Size()
	done := logger.Stage("mesh", zap.Int("size", n))
	defer done()

	var vertexColors *heightmap.ColorMap
	if opts.Colored {
		vertexColors = colors
		if vertexColors == nil {
			return nil, fmt.Errorf("%w: vertex colors requested without a color map", ErrVertexColorMismatch)
		}
	}
	vertices, err := buildVertices(h, vertexColors, opts.Layout, opts.Workers)
	if err != nil {
		return nil, err
	}

	fo := FaceOptions{Edges: opts.Edges, Workers: opts.Workers}
	if opts.FaceColors {
		if colors == nil {
			return nil, fmt.Errorf("%w: face colors requested without a color map", ErrVertexColorMismatch)
		}
		fo.Colors = colors
	}
	faces, edges, faceColors, err := BuildFaces(n, fo)
	if err != nil {
		return nil, err
	}

	return &Mesh{
		Vertices:   vertices,
		Faces:      faces,
		Edges:      edges,
		FaceColors: faceColors,
		Size:       n,
	}, nil
}

// BuildVertices places one vertex per cell. Vertex x*n+y sits at
// base + (step*x, maxHeight*h[x][y], step*y) with step = size/(n-1).
// colors is optional; when given it must match the shape of h.
func BuildVertices(h *grid.Grid, colors *heightmap.ColorMap, layout Layout) ([]Vertex, error) {
	return buildVertices(h, colors, layout, 1)
}

func buildVertices(h *grid.Grid, colors *heightmap.ColorMap, layout Layout, workers int) ([]Vertex, error) {
	n := h.Size()
	if colors != nil && colors.Size() != n {
		return nil, errVertexColors(colors.Size()*colors.Size(), n*n)
	}

	step := layout.Size / float64(n-1)
	vertices := make([]Vertex, n*n)
	err := parallel.Rows(n, workers, func(x int) error {
		row := h.Row(x)
		for y := 0; y < n; y++ {
			v := &vertices[x*n+y]
			v.Position = layout.Base.Add(math.Vec3{
				X: step * float64(x),
				Y: layout.MaxHeight * row[y],
				Z: step * float64(y),
			})
			if colors != nil {
				v.Color = colors.At(x, y)
				v.Colored = true
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return vertices, nil
}

// BuildFaces triangulates an n x n vertex lattice. Each quad with top-left
// vertex a = x*n+y yields faces (a, a+1, a+n+1) and (a, a+n+1, a+n), and
// optionally five edges and one flat color (of cell a) per face.
// opts.Colors, when set, must be n x n.
func BuildFaces(n int, opts FaceOptions) ([]Face, []Edge, []biome.RGB, error) {
	if opts.Colors != nil && opts.Colors.Size() != n {
		return nil, nil, nil, fmt.Errorf("%w: face colors need a %dx%d color map, got %dx%d",
			ErrVertexColorMismatch, n, n, opts.Colors.Size(), opts.Colors.Size())
	}
	if n < 2 {
		return nil, nil, nil, nil
	}
	quads := n - 1

	faces := make([]Face, 2*quads*quads)
	var edges []Edge
	if opts.Edges {
		edges = make([]Edge, 5*quads*quads)
	}
	var colors []biome.RGB
	if opts.Colors != nil {
		colors = make([]biome.RGB, len(faces))
	}

	// Rows write disjoint index ranges, so no locking is needed.
	err := parallel.Rows(quads, opts.Workers, func(x int) error {
		for y := 0; y < quads; y++ {
			q := x*quads + y
			a := uint32(x*n + y)
			b := a + 1
			c := a + uint32(n) + 1
			d := a + uint32(n)

			faces[2*q] = Face{a, b, c}
			faces[2*q+1] = Face{a, c, d}

			if edges != nil {
				e := edges[5*q : 5*q+5]
				e[0] = Edge{a, b}
				e[1] = Edge{b, c}
				e[2] = Edge{c, a}
				e[3] = Edge{c, d}
				e[4] = Edge{d, a}
			}
			if colors != nil {
				color := opts.Colors.At(x, y)
				colors[2*q] = color
				colors[2*q+1] = color
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, nil, err
	}
	return faces, edges, colors, nil
}
