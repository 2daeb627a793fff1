// Package grid provides the square heightfield buffer shared by every stage.
package grid

import (
	"errors"
	"fmt"
	"math/bits"
)

// ErrInvalidGridSize is returned when a side length is not of the form 2^k+1 (k >= 1).
var ErrInvalidGridSize = errors.New("invalid grid size: side must be 2^k+1 with k >= 1")

// MaxOrder bounds the grid order so n*n stays addressable.
const MaxOrder = 14

// Grid is a square, row-major float64 buffer with side n = 2^k + 1.
type Grid struct {
	n    int
	data []float64
}

// New allocates a zero-filled grid with side n.
func New(n int) (*Grid, error) {
	if _, err := OrderOf(n); err != nil {
		return nil, err
	}
	return &Grid{n: n, data: make([]float64, n*n)}, nil
}

// NewOrder allocates a zero-filled grid with side 2^k + 1.
func NewOrder(k int) (*Grid, error) {
	if k < 1 || k > MaxOrder {
		return nil, fmt.Errorf("%w: order %d out of range [1, %d]", ErrInvalidGridSize, k, MaxOrder)
	}
	return New(SideForOrder(k))
}

// FromValues wraps a copy of values as an n x n grid.
func FromValues(n int, values []float64) (*Grid, error) {
	g, err := New(n)
	if err != nil {
		return nil, err
	}
	if len(values) != n*n {
		return nil, fmt.Errorf("%w: %d values for side %d", ErrInvalidGridSize, len(values), n)
	}
	copy(g.data, values)
	return g, nil
}

// SideForOrder returns 2^k + 1.
func SideForOrder(k int) int {
	return 1<<k + 1
}

// OrderOf returns k for a side n = 2^k + 1.
func OrderOf(n int) (int, error) {
	m := n - 1
	if m < 2 || m&(m-1) != 0 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidGridSize, n)
	}
	k := bits.TrailingZeros(uint(m))
	if k > MaxOrder {
		return 0, fmt.Errorf("%w: order %d exceeds %d", ErrInvalidGridSize, k, MaxOrder)
	}
	return k, nil
}

// Size returns the side length n.
func (g *Grid) Size() int { return g.n }

// Order returns k where n = 2^k + 1.
func (g *Grid) Order() int {
	return bits.TrailingZeros(uint(g.n - 1))
}

// Index returns the linear slice index for (i, j).
func (g *Grid) Index(i, j int) int { return i*g.n + j }

// InBounds reports whether (i, j) addresses a cell.
func (g *Grid) InBounds(i, j int) bool {
	return i >= 0 && j >= 0 && i < g.n && j < g.n
}

// At returns the value at row i, column j.
func (g *Grid) At(i, j int) float64 { return g.data[i*g.n+j] }

// Set stores v at row i, column j.
func (g *Grid) Set(i, j int, v float64) { g.data[i*g.n+j] = v }

// Values exposes the backing slice so callers can read/write values directly.
func (g *Grid) Values() []float64 { return g.data }

// Row returns the backing sub-slice of row i.
func (g *Grid) Row(i int) []float64 { return g.data[i*g.n : (i+1)*g.n] }

// Clone returns a deep copy.
func (g *Grid) Clone() *Grid {
	data := make([]float64, len(g.data))
	copy(data, g.data)
	return &Grid{n: g.n, data: data}
}

// SameShape reports whether other has the same side length.
func (g *Grid) SameShape(other *Grid) bool {
	return other != nil && g.n == other.n
}

// MinMax returns the smallest and largest values.
func (g *Grid) MinMax() (lo, hi float64) {
	lo, hi = g.data[0], g.data[0]
	for _, v := range g.data[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// Fill sets every cell to v.
func (g *Grid) Fill(v float64) {
	for i := range g.data {
		g.data[i] = v
	}
}

// Map returns a new grid with fn applied to every value.
func (g *Grid) Map(fn func(v float64) float64) *Grid {
	out := &Grid{n: g.n, data: make([]float64, len(g.data))}
	for i, v := range g.data {
		out.data[i] = fn(v)
	}
	return out
}
