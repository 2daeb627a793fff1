package heightsource

import (
	"errors"
	"slices"
	"testing"

	"github.com/Faultbox/dsterrain/internal/diamondsquare"
	"github.com/Faultbox/dsterrain/internal/grid"
)

func testSettings(kind string) Settings {
	return Settings{
		Kind:          kind,
		Seed:          42,
		Workers:       1,
		DiamondSquare: diamondsquare.Options{Decay: 0.5},
		Perlin:        DefaultPerlinOptions(),
		Simplex:       DefaultSimplexOptions(),
	}
}

func TestNew_Kinds(t *testing.T) {
	tests := []struct {
		kind string
		name string
	}{
		{"diamond-square", "diamond-square/periodic"},
		{"", "diamond-square/periodic"},
		{"perlin", "perlin"},
		{"Simplex", "simplex"},
	}

	for _, tt := range tests {
		src, err := New(testSettings(tt.kind))
		if err != nil {
			t.Fatalf("New(%q) failed: %v", tt.kind, err)
		}
		if src.Name() != tt.name {
			t.Errorf("New(%q).Name() = %q, want %q", tt.kind, src.Name(), tt.name)
		}
	}
}

func TestNew_Errors(t *testing.T) {
	if _, err := New(testSettings("worley")); !errors.Is(err, ErrUnknownSource) {
		t.Errorf("expected ErrUnknownSource, got %v", err)
	}

	s := testSettings(KindDiamondSquare)
	s.DiamondSquare.Decay = 0
	if _, err := New(s); !errors.Is(err, diamondsquare.ErrInvalidDecay) {
		t.Errorf("expected ErrInvalidDecay, got %v", err)
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"", KindDiamondSquare},
		{"ds", KindDiamondSquare},
		{"DiamondSquare", KindDiamondSquare},
		{" Diamond-Square ", KindDiamondSquare},
		{"Perlin", KindPerlin},
		{"SIMPLEX", KindSimplex},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.name)
		if err != nil || got != tt.want {
			t.Errorf("ParseKind(%q) = %q, %v; want %q", tt.name, got, err, tt.want)
		}
	}

	if _, err := ParseKind("worley"); !errors.Is(err, ErrUnknownSource) {
		t.Errorf("expected ErrUnknownSource, got %v", err)
	}
}

func TestSources_ShapeAndDeterminism(t *testing.T) {
	for _, kind := range []string{KindDiamondSquare, KindPerlin, KindSimplex} {
		t.Run(kind, func(t *testing.T) {
			a, err := New(testSettings(kind))
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			b, err := New(testSettings(kind))
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}

			ga, err := a.Generate(4)
			if err != nil {
				t.Fatalf("Generate failed: %v", err)
			}
			gb, err := b.Generate(4)
			if err != nil {
				t.Fatalf("Generate failed: %v", err)
			}

			if ga.Size() != 17 {
				t.Errorf("expected side 17, got %d", ga.Size())
			}
			if !slices.Equal(ga.Values(), gb.Values()) {
				t.Error("same seed produced different heightfields")
			}
			if lo, hi := ga.MinMax(); !(hi > lo) {
				t.Errorf("expected a non-flat heightfield, got range [%v, %v]", lo, hi)
			}
		})
	}
}

func TestSources_WorkersAgree(t *testing.T) {
	for _, kind := range []string{KindDiamondSquare, KindPerlin, KindSimplex} {
		t.Run(kind, func(t *testing.T) {
			serial := testSettings(kind)
			par := testSettings(kind)
			par.Workers = 4

			g1 := mustGenerate(t, serial, 5)
			g4 := mustGenerate(t, par, 5)
			if !slices.Equal(g1.Values(), g4.Values()) {
				t.Error("worker count changed the output")
			}
		})
	}
}

func TestSources_InvalidOrder(t *testing.T) {
	for _, kind := range []string{KindDiamondSquare, KindPerlin, KindSimplex} {
		src, err := New(testSettings(kind))
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		if _, err := src.Generate(0); !errors.Is(err, grid.ErrInvalidGridSize) {
			t.Errorf("%s: expected ErrInvalidGridSize, got %v", kind, err)
		}
	}
}

func TestSimplex_Range(t *testing.T) {
	s := NewSimplex(7, SimplexOptions{Octaves: 0, Persistence: 0.5, Frequency: 2}, 1)
	for _, p := range [][2]float64{{0, 0}, {0.3, 1.7}, {12.5, -3.25}} {
		v := s.Eval2(p[0], p[1])
		if v < 0 || v > 1 {
			t.Errorf("Eval2(%v) = %v, want within [0, 1]", p, v)
		}
	}
}

func mustGenerate(t *testing.T, s Settings, order int) *grid.Grid {
	t.Helper()
	src, err := New(s)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	g, err := src.Generate(order)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	return g
}
