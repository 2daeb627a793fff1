// terraingen is a CLI utility for generating diamond-square terrain meshes.
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/dsterrain/internal/biome"
	"github.com/Faultbox/dsterrain/internal/config"
	"github.com/Faultbox/dsterrain/internal/logger"
	"github.com/Faultbox/dsterrain/internal/mesh"
	"github.com/Faultbox/dsterrain/internal/pipeline"
	"github.com/Faultbox/dsterrain/internal/preview"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "generate", "gen":
		cmdGenerate(args)
	case "preview":
		cmdPreview(args)
	case "inspect", "info":
		cmdInspect(args)
	case "init-config":
		cmdInitConfig(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`terraingen - diamond-square terrain generator

Usage:
  terraingen <command> [options]

Commands:
  generate [flags]             Generate a heightmap and export it as a mesh
  preview [-height img] [flags] Write only the biome preview image
  inspect <file.obj|file.ply>  Show mesh counts and bounds
  init-config [path]           Write the default config file

Generator flags:
  -config f      config file (default ./config.yaml or user config dir)
  -order k       grid side 2^k+1
  -decay ds      roughness decay in (0, 1]
  -boundary b    periodic or fixed
  -seed s        random seed
  -source s      diamond-square, perlin or simplex
  -format f      obj, ply or ply-binary
  -o path        output mesh path (.obj or .ply, matching -format)
  -preview img   also write a .png or .bmp biome map
  -biomes p      biome threshold preset: default or biased
  -no-color      export positions only

Examples:
  terraingen generate -order 8 -seed 42 -o island.obj
  terraingen generate -boundary fixed -format ply-binary -o hills.ply -preview hills.png
  terraingen preview -source simplex -biomes biased -preview map.png -height map_height.png
  terraingen inspect island.obj`)
}

// loadConfig binds the generator flags to fs, parses args, loads the merged
// config and starts logging.
func loadConfig(fs *flag.FlagSet, args []string) (*config.Config, *config.Flags) {
	flags := config.BindFlags(fs)
	fs.Parse(args)

	cfg, err := config.LoadWithFlags(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	logger.Sugar.Debugf("Config: %+v", cfg)
	return cfg, flags
}

func cmdGenerate(args []string) {
	cfg, _ := loadConfig(flag.NewFlagSet("generate", flag.ExitOnError), args)
	defer logger.Sync()

	res, err := pipeline.Run(cfg)
	if err != nil {
		logger.Error("generation failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	b := res.Mesh.Bounds()
	fmt.Printf("Source:   %s (seed %d)\n", res.Source, cfg.Synthesis.Seed)
	fmt.Printf("Grid:     %dx%d\n", res.Mesh.Size, res.Mesh.Size)
	fmt.Printf("Vertices: %d\n", len(res.Mesh.Vertices))
	fmt.Printf("Faces:    %d\n", len(res.Mesh.Faces))
	if len(res.Mesh.Edges) > 0 {
		fmt.Printf("Edges:    %d\n", len(res.Mesh.Edges))
	}
	fmt.Printf("Bounds:   (%.3f, %.3f, %.3f) - (%.3f, %.3f, %.3f)\n",
		b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z)
	fmt.Printf("Output:   %s (%s)\n", cfg.Export.Path, cfg.Export.Format)
	if cfg.Export.Preview != "" {
		fmt.Printf("Preview:  %s\n", cfg.Export.Preview)
	}
	printHistogram(res.Heights.Colors.Histogram(), res.Mesh.Size*res.Mesh.Size)
}

func cmdPreview(args []string) {
	fs := flag.NewFlagSet("preview", flag.ExitOnError)
	heightOut := fs.String("height", "", "Also write the grayscale heightmap image")
	cfg, _ := loadConfig(fs, args)
	defer logger.Sync()

	out := cfg.Export.Preview
	if out == "" {
		out = "preview.png"
	}

	res, err := pipeline.Heightmap(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := pipeline.WritePreview(out, cfg.Export.PreviewScale, res.Heights.Colors); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *heightOut != "" {
		img := preview.Upscale(preview.HeightImage(res.Heights.Height), cfg.Export.PreviewScale)
		if err := preview.Save(*heightOut, img); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	n := res.Heights.Colors.Size()
	fmt.Printf("Preview: %s (%dx%d, %s)\n", out, n, n, res.Source)
	if *heightOut != "" {
		fmt.Printf("Height:  %s\n", *heightOut)
	}
	printHistogram(res.Heights.Colors.Histogram(), n*n)
}

func cmdInspect(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: terraingen inspect <file.obj|file.ply>")
		os.Exit(1)
	}

	m, err := mesh.Load(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	b := m.Bounds()
	fmt.Printf("File:        %s\n", args[0])
	fmt.Printf("Vertices:    %d\n", len(m.Vertices))
	fmt.Printf("Faces:       %d\n", len(m.Faces))
	if m.Size > 0 {
		fmt.Printf("Grid:        %dx%d\n", m.Size, m.Size)
	}
	fmt.Printf("Colored:     %v\n", m.Colored())
	fmt.Printf("Face colors: %v\n", m.FaceColors != nil)
	fmt.Printf("Bounds:      (%.3f, %.3f, %.3f) - (%.3f, %.3f, %.3f)\n",
		b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z)
}

func cmdInitConfig(args []string) {
	path := "config.yaml"
	if len(args) > 0 {
		path = args[0]
	}
	if _, err := os.Stat(path); err == nil {
		fmt.Fprintf(os.Stderr, "Error: %s already exists\n", path)
		os.Exit(1)
	}

	if err := config.Default().SaveTo(path); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote default config to %s\n", path)
}

func printHistogram(counts map[biome.Biome]int, total int) {
	fmt.Println()
	fmt.Println("Biomes:")
	for _, b := range biome.All {
		if counts[b] == 0 {
			continue
		}
		fmt.Printf("  %-8s %7d  %5.1f%%\n", b, counts[b], 100*float64(counts[b])/float64(total))
	}
}
