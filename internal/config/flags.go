package config

import (
	"flag"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Faultbox/dsterrain/internal/biome"
	"github.com/Faultbox/dsterrain/internal/mesh"
)

// Flags holds the command-line overrides bound to a FlagSet. Only flags that
// were actually set on the command line override file values.
type Flags struct {
	fs *flag.FlagSet

	ConfigPath *string
	Debug      *bool
	Order      *int
	Decay      *float64
	Boundary   *string
	Seed       *int64
	Workers    *int
	Source     *string
	Format     *string
	Output     *string
	Preview    *string
	NoColor    *bool
	Biomes     *string
}

// BindFlags registers the generator flags on fs.
func BindFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		fs:         fs,
		ConfigPath: fs.String("config", "", "Path to config file"),
		Debug:      fs.Bool("debug", false, "Enable debug logging"),
		Order:      fs.Int("order", 0, "Grid order k (side 2^k+1)"),
		Decay:      fs.Float64("decay", 0, "Roughness decay per step, in (0, 1]"),
		Boundary:   fs.String("boundary", "", "Boundary policy: periodic or fixed"),
		Seed:       fs.Int64("seed", 0, "Random seed"),
		Workers:    fs.Int("workers", 0, "Worker goroutines (0 = one per CPU)"),
		Source:     fs.String("source", "", "Height source: diamond-square, perlin or simplex"),
		Format:     fs.String("format", "", "Mesh format: obj, ply or ply-binary"),
		Output:     fs.String("o", "", "Output mesh path"),
		Preview:    fs.String("preview", "", "Also write a biome preview image (.png or .bmp)"),
		NoColor:    fs.Bool("no-color", false, "Export positions only"),
		Biomes:     fs.String("biomes", "", "Biome threshold preset: default or biased"),
	}
}

var commandLine = BindFlags(flag.CommandLine)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

func (f *Flags) set() map[string]bool {
	set := make(map[string]bool)
	f.fs.Visit(func(fl *flag.Flag) { set[fl.Name] = true })
	return set
}

// apply applies CLI flag overrides to the config.
func (f *Flags) apply(cfg *Config) error {
	set := f.set()

	if *f.Debug {
		cfg.Logging.Level = "debug"
	}
	if set["order"] {
		cfg.Synthesis.Order = *f.Order
	}
	if set["decay"] {
		cfg.Synthesis.Decay = *f.Decay
	}
	if set["boundary"] {
		cfg.Synthesis.Boundary = *f.Boundary
	}
	if set["seed"] {
		cfg.Synthesis.Seed = *f.Seed
	}
	if set["workers"] {
		cfg.Synthesis.Workers = *f.Workers
	}
	if set["source"] {
		cfg.Source.Kind = *f.Source
	}
	if set["format"] {
		cfg.Export.Format = *f.Format
		// Without -o, keep the configured path but match its extension to the format.
		if format, err := mesh.ParseFormat(*f.Format); err == nil && !set["o"] {
			cfg.Export.Path = strings.TrimSuffix(cfg.Export.Path, filepath.Ext(cfg.Export.Path)) + format.Ext()
		}
	}
	if set["o"] {
		cfg.Export.Path = *f.Output
	}
	if set["preview"] {
		cfg.Export.Preview = *f.Preview
	}
	if set["biomes"] {
		th, err := biome.Preset(*f.Biomes)
		if err != nil {
			return fmt.Errorf("%w: -biomes: %w", ErrInvalidConfig, err)
		}
		cfg.Biome = th
	}
	if *f.NoColor {
		cfg.Mesh.Colored = false
		cfg.Mesh.FaceColors = false
	}
	return nil
}
