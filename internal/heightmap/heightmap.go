// Package heightmap turns a raw heightfield into normalized heights, a slope
// field and a biome color map.
package heightmap

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/Faultbox/dsterrain/internal/grid"
)

// Heightmap errors.
var (
	ErrDegenerateRange  = errors.New("degenerate height range")
	ErrShapeMismatch    = errors.New("grid shapes differ")
	ErrUnknownTransform = errors.New("unknown height transform")
)

// Transform is a nonlinear pre-transform applied before normalization.
type Transform string

// Supported transforms.
const (
	TransformNone   Transform = "none"
	TransformSquare Transform = "square"
)

// ParseTransform validates a transform name. The empty string means none.
func ParseTransform(name string) (Transform, error) {
	switch t := Transform(strings.ToLower(strings.TrimSpace(name))); t {
	case "", TransformNone:
		return TransformNone, nil
	case TransformSquare:
		return TransformSquare, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTransform, name)
	}
}

// Apply returns a transformed copy of g.
func (t Transform) Apply(g *grid.Grid) *grid.Grid {
	if t == TransformSquare {
		return Square(g)
	}
	return g.Clone()
}

// Square returns a copy of g with every value squared, flattening lowlands
// and sharpening peaks.
func Square(g *grid.Grid) *grid.Grid {
	return g.Map(func(v float64) float64 { return v * v })
}

// Normalize rescales a copy of g to [0, 1] via (v - min) / (max - min).
// A flat grid has no range to rescale and returns ErrDegenerateRange.
func Normalize(g *grid.Grid) (*grid.Grid, error) {
	out := g.Clone()
	vals := out.Values()

	lo, hi := floats.Min(vals), floats.Max(vals)
	span := hi - lo
	if !(span > 0) || math.IsInf(span, 0) {
		return nil, fmt.Errorf("%w: min %v, max %v", ErrDegenerateRange, lo, hi)
	}

	floats.AddConst(-lo, vals)
	for i := range vals {
		vals[i] /= span
	}
	return out, nil
}

// Slope returns the signed first difference of h along the row axis:
// forward at the first row, backward at the last, central elsewhere.
func Slope(h *grid.Grid) *grid.Grid {
	n := h.Size()
	out := h.Clone()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			var d float64
			switch i {
			case 0:
				d = h.At(1, j) - h.At(0, j)
			case n - 1:
				d = h.At(n-1, j) - h.At(n-2, j)
			default:
				d = (h.At(i+1, j) - h.At(i-1, j)) / 2
			}
			out.Set(i, j, d)
		}
	}
	return out
}
