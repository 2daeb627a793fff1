// Package pipeline wires the generator stages together: height source,
// heightmap processing, mesh building, export and preview.
package pipeline

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/dsterrain/internal/biome"
	"github.com/Faultbox/dsterrain/internal/config"
	"github.com/Faultbox/dsterrain/internal/diamondsquare"
	"github.com/Faultbox/dsterrain/internal/grid"
	"github.com/Faultbox/dsterrain/internal/heightmap"
	"github.com/Faultbox/dsterrain/internal/heightsource"
	"github.com/Faultbox/dsterrain/internal/logger"
	"github.com/Faultbox/dsterrain/internal/mesh"
	"github.com/Faultbox/dsterrain/internal/preview"
	"github.com/Faultbox/dsterrain/pkg/parallel"
)

// Result holds every intermediate product of one run.
type Result struct {
	Source  string
	Raw     *grid.Grid
	Heights *heightmap.Result
	Mesh    *mesh.Mesh // nil when only the heightmap was requested
}

// NewSource builds the height source selected by cfg.
func NewSource(cfg *config.Config) (heightsource.HeightSource, error) {
	boundary, err := diamondsquare.ParseBoundary(cfg.Synthesis.Boundary)
	if err != nil {
		return nil, err
	}
	return heightsource.New(heightsource.Settings{
		Kind:    cfg.Source.Kind,
		Seed:    cfg.Synthesis.Seed,
		Workers: parallel.Workers(cfg.Synthesis.Workers),
		DiamondSquare: diamondsquare.Options{
			Boundary:     boundary,
			Decay:        cfg.Synthesis.Decay,
			CornerHeight: cfg.Synthesis.CornerHeight,
		},
		Perlin:  cfg.Source.Perlin,
		Simplex: cfg.Source.Simplex,
	})
}

// Heightmap generates and processes a heightfield without building a mesh.
func Heightmap(cfg *config.Config) (*Result, error) {
	src, err := NewSource(cfg)
	if err != nil {
		return nil, err
	}

	done := logger.Stage("synthesize", zap.String("source", src.Name()), zap.Int("order", cfg.Synthesis.Order))
	raw, err := src.Generate(cfg.Synthesis.Order)
	done()
	if err != nil {
		return nil, fmt.Errorf("generating heightfield: %w", err)
	}

	transform, err := heightmap.ParseTransform(cfg.Heightmap.Transform)
	if err != nil {
		return nil, err
	}
	heights, err := heightmap.Process(raw, heightmap.Options{
		Transform:  transform,
		Thresholds: cfg.Biome,
		Workers:    parallel.Workers(cfg.Synthesis.Workers),
	})
	if err != nil {
		return nil, fmt.Errorf("processing heightmap: %w", err)
	}

	logHistogram(heights.Colors)
	return &Result{Source: src.Name(), Raw: raw, Heights: heights}, nil
}

// Generate runs the stages up to and including mesh construction.
func Generate(cfg *config.Config) (*Result, error) {
	res, err := Heightmap(cfg)
	if err != nil {
		return nil, err
	}

	m, err := mesh.Build(res.Heights.Height, res.Heights.Colors, mesh.Options{
		Layout:     cfg.Layout(),
		Colored:    cfg.Mesh.Colored,
		FaceColors: cfg.Mesh.FaceColors,
		Edges:      cfg.Mesh.Edges,
		Workers:    parallel.Workers(cfg.Synthesis.Workers),
	})
	if err != nil {
		return nil, fmt.Errorf("building mesh: %w", err)
	}
	res.Mesh = m
	return res, nil
}

// Run generates a mesh, writes it to cfg.Export.Path and, if configured,
// writes the biome preview image.
func Run(cfg *config.Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	res, err := Generate(cfg)
	if err != nil {
		return nil, err
	}

	format, err := mesh.ParseFormat(cfg.Export.Format)
	if err != nil {
		return nil, err
	}
	if err := mesh.Export(cfg.Export.Path, format, res.Mesh); err != nil {
		return nil, err
	}

	if cfg.Export.Preview != "" {
		if err := WritePreview(cfg.Export.Preview, cfg.Export.PreviewScale, res.Heights.Colors); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// WritePreview saves the biome map of cm, enlarged by scale.
func WritePreview(path string, scale int, cm *heightmap.ColorMap) error {
	img := preview.Upscale(preview.ColorImage(cm), scale)
	if err := preview.Save(path, img); err != nil {
		return fmt.Errorf("writing preview %s: %w", path, err)
	}
	logger.Info("preview written", zap.String("path", path))
	return nil
}

func logHistogram(cm *heightmap.ColorMap) {
	counts := cm.Histogram()
	fields := make([]zap.Field, 0, len(biome.All))
	for _, b := range biome.All {
		fields = append(fields, zap.Int(b.String(), counts[b]))
	}
	logger.Info("biome histogram", fields...)
}
