package heightmap

import (
	"go.uber.org/zap"

	"github.com/Faultbox/dsterrain/internal/biome"
	"github.com/Faultbox/dsterrain/internal/grid"
	"github.com/Faultbox/dsterrain/internal/logger"
)

// Options configures Process.
type Options struct {
	Transform  Transform
	Thresholds biome.Thresholds
	Workers    int
}

// Result bundles the derived fields of one heightfield.
type Result struct {
	Height *grid.Grid // normalized to [0, 1]
	Slope  *grid.Grid
	Colors *ColorMap
}

// Process runs transform, normalization, slope and classification over raw.
// raw itself is left untouched.
func Process(raw *grid.Grid, opts Options) (*Result, error) {
	done := logger.Stage("heightmap", zap.Int("size", raw.Size()), zap.String("transform", string(opts.Transform)))
	defer done()

	height, err := Normalize(opts.Transform.Apply(raw))
	if err != nil {
		return nil, err
	}
	slope := Slope(height)

	colors, err := Classify(height, slope, opts.Thresholds, opts.Workers)
	if err != nil {
		return nil, err
	}

	return &Result{Height: height, Slope: slope, Colors: colors}, nil
}
