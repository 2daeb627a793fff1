package heightsource

import (
	"math"

	"github.com/aquilax/go-perlin"
	"github.com/ojrac/opensimplex-go"

	"github.com/Faultbox/dsterrain/internal/grid"
	"github.com/Faultbox/dsterrain/pkg/parallel"
)

// PerlinOptions configures the Perlin source.
type PerlinOptions struct {
	Alpha     float64 `yaml:"alpha"`     // weight divisor per octave
	Beta      float64 `yaml:"beta"`      // frequency multiplier per octave
	Octaves   int32   `yaml:"octaves"`   // number of octaves summed
	Frequency float64 `yaml:"frequency"` // noise periods across the grid
}

// DefaultPerlinOptions returns alpha=2, beta=2 and three octaves.
func DefaultPerlinOptions() PerlinOptions {
	return PerlinOptions{Alpha: 2, Beta: 2, Octaves: 3, Frequency: 4}
}

const perlinOffset = 0.37

// Perlin samples aquilax/go-perlin noise over [0, Frequency]^2.
type Perlin struct {
	noise   *perlin.Perlin
	opts    PerlinOptions
	workers int
}

// NewPerlin returns a seeded Perlin source.
func NewPerlin(seed int64, opts PerlinOptions, workers int) *Perlin {
	return &Perlin{
		noise:   perlin.NewPerlin(opts.Alpha, opts.Beta, opts.Octaves, seed),
		opts:    opts,
		workers: workers,
	}
}

// Name implements HeightSource.
func (p *Perlin) Name() string { return KindPerlin }

// Generate implements HeightSource.
func (p *Perlin) Generate(order int) (*grid.Grid, error) {
	// Gradient noise is zero on integer lattice points; sample off the lattice.
	return sample(order, p.opts.Frequency, p.workers, func(x, y float64) float64 {
		return p.noise.Noise2D(x+perlinOffset, y+perlinOffset)
	})
}

// SimplexOptions configures the simplex source.
type SimplexOptions struct {
	Octaves     int     `yaml:"octaves"`
	Persistence float64 `yaml:"persistence"`
	Frequency   float64 `yaml:"frequency"`
}

// DefaultSimplexOptions returns four octaves with persistence 0.5.
func DefaultSimplexOptions() SimplexOptions {
	return SimplexOptions{Octaves: 4, Persistence: 0.5, Frequency: 4}
}

// Simplex sums octaves of normalized OpenSimplex noise, each octave doubling
// the frequency and scaling the amplitude by Persistence.
type Simplex struct {
	noise      opensimplex.Noise
	amplitudes []float64
	opts       SimplexOptions
	workers    int
}

// NewSimplex returns a seeded simplex source.
func NewSimplex(seed int64, opts SimplexOptions, workers int) *Simplex {
	if opts.Octaves < 1 {
		opts.Octaves = 1
	}
	s := &Simplex{
		noise:      opensimplex.NewNormalized(seed),
		amplitudes: make([]float64, opts.Octaves),
		opts:       opts,
		workers:    workers,
	}
	for i := range s.amplitudes {
		s.amplitudes[i] = math.Pow(opts.Persistence, float64(i))
	}
	return s
}

// Name implements HeightSource.
func (s *Simplex) Name() string { return KindSimplex }

// Eval2 returns the octave sum at (x, y), in [0, 1].
func (s *Simplex) Eval2(x, y float64) float64 {
	var sum, total float64
	for octave, amp := range s.amplitudes {
		freq := float64(int(1) << octave)
		sum += amp * s.noise.Eval2(x*freq, y*freq)
		total += amp
	}
	if total == 0 {
		return 0
	}
	return sum / total
}

// Generate implements HeightSource.
func (s *Simplex) Generate(order int) (*grid.Grid, error) {
	return sample(order, s.opts.Frequency, s.workers, s.Eval2)
}

// sample evaluates fn over a 2^order+1 lattice spanning [0, frequency]^2.
func sample(order int, frequency float64, workers int, fn func(x, y float64) float64) (*grid.Grid, error) {
	g, err := grid.NewOrder(order)
	if err != nil {
		return nil, err
	}
	if frequency <= 0 {
		frequency = 1
	}

	n := g.Size()
	step := frequency / float64(n-1)
	err = parallel.Rows(n, workers, func(i int) error {
		row := g.Row(i)
		for j := range row {
			row[j] = fn(float64(i)*step, float64(j)*step)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}
