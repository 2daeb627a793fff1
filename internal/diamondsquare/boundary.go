// Package diamondsquare synthesizes fractal heightfields by midpoint displacement.
package diamondsquare

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Faultbox/dsterrain/internal/grid"
)

// Boundary errors.
var (
	ErrBoundaryUnderflow = errors.New("boundary policy found no valid neighbors")
	ErrUnknownBoundary   = errors.New("unknown boundary mode")
)

// Offset is a (row, column) neighbor direction, scaled by the step radius.
type Offset struct {
	DI, DJ int
}

// Offsets is the neighbor set averaged for one target cell.
type Offsets [4]Offset

// Neighbor sets for the two passes.
var (
	DiamondOffsets = Offsets{{-1, -1}, {-1, 1}, {1, 1}, {1, -1}}
	SquareOffsets  = Offsets{{-1, 0}, {0, -1}, {1, 0}, {0, 1}}
)

// BoundaryPolicy decides how neighbors past the grid edge are averaged.
type BoundaryPolicy interface {
	// Name returns the config name of the policy.
	Name() string
	// Average returns the mean of the grid values at (i, j) + v*offset.
	Average(g *grid.Grid, i, j, v int, offsets Offsets) (float64, error)
	// Computes reports whether cell (i, j) of an n-sided grid is a target of
	// its own; cells it rejects are derived by Finish.
	Computes(n, i, j int) bool
	// Finish runs after every pass.
	Finish(g *grid.Grid)
}

// ParseBoundary returns the policy registered under name.
func ParseBoundary(name string) (BoundaryPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "periodic", "wrap":
		return Periodic{}, nil
	case "fixed", "clamp":
		return Fixed{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBoundary, name)
	}
}

// Periodic wraps neighbor coordinates modulo n-1, producing tileable terrain.
// The last row and column alias row and column 0.
type Periodic struct{}

// Name implements BoundaryPolicy.
func (Periodic) Name() string { return "periodic" }

// Average implements BoundaryPolicy.
func (Periodic) Average(g *grid.Grid, i, j, v int, offsets Offsets) (float64, error) {
	m := g.Size() - 1
	var sum float64
	for _, o := range offsets {
		sum += g.At(wrap(i+o.DI*v, m), wrap(j+o.DJ*v, m))
	}
	return sum / 4.0, nil
}

// Computes implements BoundaryPolicy.
func (Periodic) Computes(n, i, j int) bool {
	return i < n-1 && j < n-1
}

// Finish copies row 0 onto row n-1 and column 0 onto column n-1.
func (Periodic) Finish(g *grid.Grid) {
	n := g.Size()
	copy(g.Row(n-1), g.Row(0))
	for i := 0; i < n; i++ {
		g.Set(i, n-1, g.At(i, 0))
	}
}

// wrap is a non-negative modulo.
func wrap(x, m int) int {
	return ((x % m) + m) % m
}

// Fixed ignores neighbors outside the grid and divides by the number of
// neighbors actually present, biasing values near the edges.
type Fixed struct{}

// Name implements BoundaryPolicy.
func (Fixed) Name() string { return "fixed" }

// Average implements BoundaryPolicy.
func (Fixed) Average(g *grid.Grid, i, j, v int, offsets Offsets) (float64, error) {
	var sum float64
	var count int
	for _, o := range offsets {
		pi, pj := i+o.DI*v, j+o.DJ*v
		if g.InBounds(pi, pj) {
			sum += g.At(pi, pj)
			count++
		}
	}
	if count == 0 {
		return 0, fmt.Errorf("%w: cell (%d, %d) radius %d", ErrBoundaryUnderflow, i, j, v)
	}
	return sum / float64(count), nil
}

// Computes implements BoundaryPolicy.
func (Fixed) Computes(n, i, j int) bool { return true }

// Finish implements BoundaryPolicy.
func (Fixed) Finish(*grid.Grid) {}
