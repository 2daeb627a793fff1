package diamondsquare

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/Faultbox/dsterrain/internal/grid"
	"github.com/Faultbox/dsterrain/internal/logger"
	"github.com/Faultbox/dsterrain/pkg/parallel"
)

// ErrInvalidDecay is returned when the roughness decay lies outside (0, 1].
var ErrInvalidDecay = errors.New("roughness decay must lie in (0, 1]")

// Options configures a Synthesizer.
type Options struct {
	Boundary     BoundaryPolicy // nil selects Periodic
	Decay        float64        // displacement multiplier per step, in (0, 1]
	Seed         int64
	CornerHeight float64 // initial value of the four corners
	Workers      int     // <= 1 runs every pass on the calling goroutine
}

// Synthesizer runs the diamond-square subdivision over a grid.
type Synthesizer struct {
	opts Options
	rng  *rand.Rand
}

// New validates opts and returns a seeded Synthesizer.
func New(opts Options) (*Synthesizer, error) {
	if !(opts.Decay > 0 && opts.Decay <= 1) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidDecay, opts.Decay)
	}
	if opts.Boundary == nil {
		opts.Boundary = Periodic{}
	}
	return &Synthesizer{opts: opts, rng: newRNG(opts.Seed)}, nil
}

func newRNG(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), 0))
}

// Boundary returns the active boundary policy.
func (s *Synthesizer) Boundary() BoundaryPolicy { return s.opts.Boundary }

// Generate allocates a 2^order+1 grid, seeds its corners and runs the subdivision.
func (s *Synthesizer) Generate(order int) (*grid.Grid, error) {
	g, err := grid.NewOrder(order)
	if err != nil {
		return nil, err
	}
	n := g.Size()
	for _, c := range [4][2]int{{0, 0}, {0, n - 1}, {n - 1, 0}, {n - 1, n - 1}} {
		g.Set(c[0], c[1], s.opts.CornerHeight)
	}
	if _, err := s.Run(g); err != nil {
		return nil, err
	}
	return g, nil
}

// Run subdivides g in place until the step width reaches 1 and returns the
// number of steps taken. The random stream restarts from the seed on every call.
func (s *Synthesizer) Run(g *grid.Grid) (int, error) {
	if _, err := grid.OrderOf(g.Size()); err != nil {
		return 0, err
	}
	s.rng = newRNG(s.opts.Seed)

	steps := 0
	scale := 1.0
	for w := g.Size() - 1; w > 1; w /= 2 {
		if err := s.Step(g, w, scale); err != nil {
			return steps, fmt.Errorf("step %d (width %d): %w", steps, w, err)
		}
		steps++
		scale *= s.opts.Decay
	}

	logger.Debug("heightfield synthesized",
		zap.Int("size", g.Size()),
		zap.Int("steps", steps),
		zap.String("boundary", s.opts.Boundary.Name()),
	)
	return steps, nil
}

// pass is one sweep of targets: rows from i0, columns from j0, both by the step width.
type pass struct {
	offsets Offsets
	i0, j0  int
}

// Step performs a single subdivision at width w with displacement scale.
// The diamond pass fills square centers, then the two square passes fill
// edge midpoints on rows and columns. Each pass completes before the next.
func (s *Synthesizer) Step(g *grid.Grid, w int, scale float64) error {
	v := w / 2
	if v < 1 {
		return nil
	}

	passes := [3]pass{
		{DiamondOffsets, v, v},
		{SquareOffsets, v, 0},
		{SquareOffsets, 0, v},
	}
	for _, p := range passes {
		if err := s.sweep(g, p, w, v, scale); err != nil {
			return err
		}
	}

	logger.Debug("subdivision step", zap.Int("width", w), zap.Float64("scale", scale))
	return nil
}

func (s *Synthesizer) sweep(g *grid.Grid, p pass, w, v int, scale float64) error {
	n := g.Size()
	policy := s.opts.Boundary

	var targets [][2]int
	for i := p.i0; i < n; i += w {
		for j := p.j0; j < n; j += w {
			if policy.Computes(n, i, j) {
				targets = append(targets, [2]int{i, j})
			}
		}
	}

	// Draw perturbations up front so output does not depend on scheduling.
	jitter := make([]float64, len(targets))
	for k := range jitter {
		jitter[k] = s.uniform(scale)
	}

	err := parallel.Chunks(len(targets), s.opts.Workers, func(start, end int) error {
		for k := start; k < end; k++ {
			i, j := targets[k][0], targets[k][1]
			avg, err := policy.Average(g, i, j, v, p.offsets)
			if err != nil {
				return err
			}
			g.Set(i, j, avg+jitter[k])
		}
		return nil
	})
	if err != nil {
		return err
	}

	policy.Finish(g)
	return nil
}

// uniform returns a value drawn uniformly from [-scale, scale).
func (s *Synthesizer) uniform(scale float64) float64 {
	return (2*s.rng.Float64() - 1) * scale
}
