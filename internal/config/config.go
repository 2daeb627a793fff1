// Package config handles terrain generator configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/Faultbox/dsterrain/internal/biome"
	"github.com/Faultbox/dsterrain/internal/diamondsquare"
	"github.com/Faultbox/dsterrain/internal/grid"
	"github.com/Faultbox/dsterrain/internal/heightmap"
	"github.com/Faultbox/dsterrain/internal/heightsource"
	"github.com/Faultbox/dsterrain/internal/mesh"
	"github.com/Faultbox/dsterrain/internal/preview"
	vmath "github.com/Faultbox/dsterrain/pkg/math"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all generator settings.
type Config struct {
	Synthesis SynthesisConfig  `yaml:"synthesis"`
	Source    SourceConfig     `yaml:"source"`
	Heightmap HeightmapConfig  `yaml:"heightmap"`
	Biome     biome.Thresholds `yaml:"biome"`
	Mesh      MeshConfig       `yaml:"mesh"`
	Export    ExportConfig     `yaml:"export"`
	Viewer    ViewerConfig     `yaml:"viewer"`
	Logging   LoggingConfig    `yaml:"logging"`
}

// SynthesisConfig holds diamond-square parameters.
type SynthesisConfig struct {
	Order        int     `yaml:"order"` // grid side is 2^order+1
	Decay        float64 `yaml:"decay"` // roughness decay per step
	Boundary     string  `yaml:"boundary"`
	Seed         int64   `yaml:"seed"`
	CornerHeight float64 `yaml:"corner_height"`
	Workers      int     `yaml:"workers"`
}

// SourceConfig selects the heightfield generator.
type SourceConfig struct {
	Kind    string                      `yaml:"kind"`
	Perlin  heightsource.PerlinOptions  `yaml:"perlin"`
	Simplex heightsource.SimplexOptions `yaml:"simplex"`
}

// HeightmapConfig holds post-processing settings.
type HeightmapConfig struct {
	Transform string `yaml:"transform"`
}

// MeshConfig holds mesh layout and attribute settings.
type MeshConfig struct {
	Base       [3]float64 `yaml:"base"`
	Size       float64    `yaml:"size"`
	MaxHeight  float64    `yaml:"max_height"`
	Colored    bool       `yaml:"colored"`
	FaceColors bool       `yaml:"face_colors"`
	Edges      bool       `yaml:"edges"`
}

// ExportConfig holds output paths.
type ExportConfig struct {
	Format       string `yaml:"format"`
	Path         string `yaml:"path"`
	Preview      string `yaml:"preview"` // .png or .bmp, empty to skip
	PreviewScale int    `yaml:"preview_scale"`
}

// ViewerConfig holds display settings for terrainview.
type ViewerConfig struct {
	Width  int  `yaml:"width"`
	Height int  `yaml:"height"`
	VSync  bool `yaml:"vsync"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	layout := mesh.DefaultLayout()
	return &Config{
		Synthesis: SynthesisConfig{
			Order:        9,
			Decay:        0.5,
			Boundary:     "periodic",
			Seed:         1,
			CornerHeight: 0,
			Workers:      1,
		},
		Source: SourceConfig{
			Kind:    heightsource.KindDiamondSquare,
			Perlin:  heightsource.DefaultPerlinOptions(),
			Simplex: heightsource.DefaultSimplexOptions(),
		},
		Heightmap: HeightmapConfig{
			Transform: string(heightmap.TransformSquare),
		},
		Biome: biome.DefaultThresholds(),
		Mesh: MeshConfig{
			Base:      [3]float64{layout.Base.X, layout.Base.Y, layout.Base.Z},
			Size:      layout.Size,
			MaxHeight: layout.MaxHeight,
			Colored:   true,
		},
		Export: ExportConfig{
			Format:       string(mesh.FormatOBJ),
			Path:         "model.obj",
			PreviewScale: 1,
		},
		Viewer: ViewerConfig{
			Width:  1024,
			Height: 1024,
			VSync:  true,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks every setting that a later stage would reject, so a bad
// config fails before any work starts.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if c.Synthesis.Order < 1 || c.Synthesis.Order > grid.MaxOrder {
		add("synthesis.order %d out of range [1, %d]", c.Synthesis.Order, grid.MaxOrder)
	}
	if !(c.Synthesis.Decay > 0 && c.Synthesis.Decay <= 1) {
		add("synthesis.decay %v must lie in (0, 1]", c.Synthesis.Decay)
	}
	if _, err := diamondsquare.ParseBoundary(c.Synthesis.Boundary); err != nil {
		add("synthesis.boundary: %v", err)
	}
	if math.IsNaN(c.Synthesis.CornerHeight) || math.IsInf(c.Synthesis.CornerHeight, 0) {
		add("synthesis.corner_height must be finite")
	}
	if _, err := heightsource.ParseKind(c.Source.Kind); err != nil {
		add("source.kind: %v", err)
	}
	if _, err := heightmap.ParseTransform(c.Heightmap.Transform); err != nil {
		add("heightmap.transform: %v", err)
	}
	if err := c.Biome.Validate(); err != nil {
		add("biome: %v", err)
	}
	if !(c.Mesh.Size > 0) || math.IsInf(c.Mesh.Size, 0) {
		add("mesh.size %v must be positive", c.Mesh.Size)
	}
	if math.IsNaN(c.Mesh.MaxHeight) || math.IsInf(c.Mesh.MaxHeight, 0) {
		add("mesh.max_height must be finite")
	}
	format, err := mesh.ParseFormat(c.Export.Format)
	if err != nil {
		add("export.format: %v", err)
	}
	switch ext := strings.ToLower(filepath.Ext(c.Export.Path)); {
	case c.Export.Path == "":
		add("export.path is empty")
	case format != "" && ext != format.Ext():
		add("export.path %q does not end in %s for format %s", c.Export.Path, format.Ext(), format)
	}
	if c.Export.Preview != "" {
		if err := preview.CheckExtension(c.Export.Preview); err != nil {
			add("export.preview: %v", err)
		}
	}
	if c.Viewer.Width <= 0 || c.Viewer.Height <= 0 {
		add("viewer size %dx%d", c.Viewer.Width, c.Viewer.Height)
	}

	return errors.Join(errs...)
}

// Layout returns the mesh layout described by the mesh section.
func (c *Config) Layout() mesh.Layout {
	return mesh.Layout{
		Base:      vmath.Vec3{X: c.Mesh.Base[0], Y: c.Mesh.Base[1], Z: c.Mesh.Base[2]},
		Size:      c.Mesh.Size,
		MaxHeight: c.Mesh.MaxHeight,
	}
}
