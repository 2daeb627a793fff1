package heightmap

import (
	"fmt"

	"github.com/Faultbox/dsterrain/internal/biome"
	"github.com/Faultbox/dsterrain/internal/grid"
	"github.com/Faultbox/dsterrain/pkg/parallel"
)

// ColorMap holds the biome of every grid cell, row-major.
type ColorMap struct {
	n      int
	biomes []biome.Biome
}

// NewColorMap allocates an n x n map filled with Water.
func NewColorMap(n int) *ColorMap {
	return &ColorMap{n: n, biomes: make([]biome.Biome, n*n)}
}

// Size returns the side length.
func (c *ColorMap) Size() int { return c.n }

// Biome returns the biome of cell (i, j).
func (c *ColorMap) Biome(i, j int) biome.Biome { return c.biomes[i*c.n+j] }

// Set assigns the biome of cell (i, j).
func (c *ColorMap) Set(i, j int, b biome.Biome) { c.biomes[i*c.n+j] = b }

// At returns the color of cell (i, j).
func (c *ColorMap) At(i, j int) biome.RGB { return c.Biome(i, j).Color() }

// Colors returns the per-cell colors in row-major order.
func (c *ColorMap) Colors() []biome.RGB {
	out := make([]biome.RGB, len(c.biomes))
	for k, b := range c.biomes {
		out[k] = b.Color()
	}
	return out
}

// Histogram counts the cells of each biome.
func (c *ColorMap) Histogram() map[biome.Biome]int {
	counts := make(map[biome.Biome]int, len(biome.All))
	for _, b := range c.biomes {
		counts[b]++
	}
	return counts
}

// Classify assigns a biome to every cell of h using |slope| and t.
// The last row and column are classified like any other cell.
func Classify(h, slope *grid.Grid, t biome.Thresholds, workers int) (*ColorMap, error) {
	if !h.SameShape(slope) {
		return nil, fmt.Errorf("%w: heights %d, slope %d", ErrShapeMismatch, h.Size(), slope.Size())
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}

	n := h.Size()
	cm := NewColorMap(n)
	err := parallel.Rows(n, workers, func(i int) error {
		hs, ss := h.Row(i), slope.Row(i)
		for j := 0; j < n; j++ {
			cm.biomes[i*n+j] = biome.Classify(t, hs[j], ss[j])
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cm, nil
}
