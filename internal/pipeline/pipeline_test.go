package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/Faultbox/dsterrain/internal/config"
	"github.com/Faultbox/dsterrain/internal/mesh"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Synthesis.Order = 4
	cfg.Synthesis.Seed = 7
	cfg.Export.Path = filepath.Join(t.TempDir(), "terrain.obj")
	return cfg
}

func TestRun_OBJ(t *testing.T) {
	cfg := testConfig(t)
	cfg.Export.Preview = filepath.Join(t.TempDir(), "preview.png")
	cfg.Export.PreviewScale = 2

	res, err := Run(cfg)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	n := 17
	if res.Mesh.Size != n || len(res.Mesh.Vertices) != n*n || len(res.Mesh.Faces) != 2*(n-1)*(n-1) {
		t.Errorf("unexpected mesh: size %d, %d vertices, %d faces", res.Mesh.Size, len(res.Mesh.Vertices), len(res.Mesh.Faces))
	}
	if res.Source != "diamond-square/periodic" {
		t.Errorf("unexpected source %s", res.Source)
	}

	lo, hi := res.Heights.Height.MinMax()
	if lo != 0 || hi != 1 {
		t.Errorf("expected normalized heights in [0, 1], got [%v, %v]", lo, hi)
	}

	loaded, err := mesh.Load(cfg.Export.Path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded.Vertices) != n*n || !loaded.Colored() {
		t.Errorf("exported mesh has %d vertices, colored=%v", len(loaded.Vertices), loaded.Colored())
	}

	if _, err := os.Stat(cfg.Export.Preview); err != nil {
		t.Errorf("preview not written: %v", err)
	}
}

func TestRun_PLYWithEdgesAndFaceColors(t *testing.T) {
	cfg := testConfig(t)
	cfg.Export.Format = "ply-binary"
	cfg.Export.Path = filepath.Join(t.TempDir(), "terrain.ply")
	cfg.Mesh.FaceColors = true
	cfg.Mesh.Edges = true
	cfg.Synthesis.Boundary = "fixed"
	cfg.Synthesis.Workers = 3

	res, err := Run(cfg)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(res.Mesh.Edges) != 5*16*16 {
		t.Errorf("expected %d edges, got %d", 5*16*16, len(res.Mesh.Edges))
	}

	loaded, err := mesh.Load(cfg.Export.Path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded.FaceColors) != len(res.Mesh.Faces) {
		t.Errorf("expected %d face colors, got %d", len(res.Mesh.Faces), len(loaded.FaceColors))
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	a, err := Generate(testConfig(t))
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	cfg := testConfig(t)
	cfg.Synthesis.Workers = 4
	b, err := Generate(cfg)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if !slices.Equal(a.Raw.Values(), b.Raw.Values()) {
		t.Error("raw heightfields differ")
	}
	if !slices.Equal(a.Mesh.Vertices, b.Mesh.Vertices) {
		t.Error("mesh vertices differ")
	}
}

func TestHeightmap_NoiseSources(t *testing.T) {
	for _, kind := range []string{"perlin", "simplex"} {
		t.Run(kind, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.Source.Kind = kind

			res, err := Heightmap(cfg)
			if err != nil {
				t.Fatalf("Heightmap failed: %v", err)
			}
			if res.Source != kind || res.Mesh != nil {
				t.Errorf("unexpected result: source %s, mesh %v", res.Source, res.Mesh)
			}
			if res.Heights.Colors.Size() != 17 {
				t.Errorf("expected 17x17 color map, got %d", res.Heights.Colors.Size())
			}
		})
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Synthesis.Decay = 0

	if _, err := Run(cfg); !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
	if _, err := os.Stat(cfg.Export.Path); !os.IsNotExist(err) {
		t.Error("nothing should be written for an invalid config")
	}
}

func TestRun_ExportFailure(t *testing.T) {
	cfg := testConfig(t)
	cfg.Export.Path = filepath.Join(t.TempDir(), "missing", "terrain.obj")

	if _, err := Run(cfg); !errors.Is(err, mesh.ErrExportFailed) {
		t.Errorf("expected ErrExportFailed, got %v", err)
	}
}
