package diamondsquare

import (
	"errors"
	"math"
	"testing"

	"github.com/Faultbox/dsterrain/internal/grid"
)

func newTestSynth(t *testing.T, opts Options) *Synthesizer {
	t.Helper()
	s, err := New(opts)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s
}

func TestRun_StepCount(t *testing.T) {
	for k := 1; k <= 7; k++ {
		for _, b := range []BoundaryPolicy{Periodic{}, Fixed{}} {
			g, _ := grid.NewOrder(k)
			s := newTestSynth(t, Options{Boundary: b, Decay: 1, Seed: 7})

			steps, err := s.Run(g)
			if err != nil {
				t.Fatalf("k=%d %s: Run failed: %v", k, b.Name(), err)
			}
			if steps != k {
				t.Errorf("k=%d %s: took %d steps", k, b.Name(), steps)
			}
		}
	}
}

func TestGenerate_PeriodicEdgesMatch(t *testing.T) {
	s := newTestSynth(t, Options{Boundary: Periodic{}, Decay: 0.7, Seed: 99})
	g, err := s.Generate(5)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	n := g.Size()
	for k := 0; k < n; k++ {
		if g.At(0, k) != g.At(n-1, k) {
			t.Fatalf("row edge mismatch at column %d: %v != %v", k, g.At(0, k), g.At(n-1, k))
		}
		if g.At(k, 0) != g.At(k, n-1) {
			t.Fatalf("column edge mismatch at row %d: %v != %v", k, g.At(k, 0), g.At(k, n-1))
		}
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	opts := Options{Boundary: Periodic{}, Decay: 0.5, Seed: 20240611}

	a, err := newTestSynth(t, opts).Generate(3)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	b, err := newTestSynth(t, opts).Generate(3)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if a.Size() != 9 {
		t.Fatalf("expected side 9, got %d", a.Size())
	}
	for i, v := range a.Values() {
		if math.Float64bits(v) != math.Float64bits(b.Values()[i]) {
			t.Fatalf("value %d differs: %v != %v", i, v, b.Values()[i])
		}
	}

	// Reusing a synthesizer restarts the random stream.
	s := newTestSynth(t, opts)
	first, _ := s.Generate(3)
	second, _ := s.Generate(3)
	for i := range first.Values() {
		if first.Values()[i] != second.Values()[i] {
			t.Fatal("repeated Generate on one synthesizer diverged")
		}
	}
}

func TestGenerate_WorkersDoNotChangeOutput(t *testing.T) {
	for _, b := range []BoundaryPolicy{Periodic{}, Fixed{}} {
		serial, err := newTestSynth(t, Options{Boundary: b, Decay: 0.6, Seed: 3}).Generate(6)
		if err != nil {
			t.Fatalf("serial Generate failed: %v", err)
		}
		sharded, err := newTestSynth(t, Options{Boundary: b, Decay: 0.6, Seed: 3, Workers: 4}).Generate(6)
		if err != nil {
			t.Fatalf("sharded Generate failed: %v", err)
		}
		for i, v := range serial.Values() {
			if v != sharded.Values()[i] {
				t.Fatalf("%s: value %d differs between worker counts", b.Name(), i)
			}
		}
	}
}

func TestGenerate_SeedsDiffer(t *testing.T) {
	a, _ := newTestSynth(t, Options{Decay: 0.5, Seed: 1}).Generate(4)
	b, _ := newTestSynth(t, Options{Decay: 0.5, Seed: 2}).Generate(4)

	same := true
	for i := range a.Values() {
		if a.Values()[i] != b.Values()[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds produced identical grids")
	}
}

func TestGenerate_CornersAndCoverage(t *testing.T) {
	s := newTestSynth(t, Options{Boundary: Fixed{}, Decay: 1, Seed: 5, CornerHeight: 0.25})
	g, err := s.Generate(4)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	n := g.Size()
	corners := map[[2]int]bool{{0, 0}: true, {0, n - 1}: true, {n - 1, 0}: true, {n - 1, n - 1}: true}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := g.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("non-finite value at (%d, %d)", i, j)
			}
			if corners[[2]int{i, j}] {
				if v != 0.25 {
					t.Errorf("corner (%d, %d) = %v, want 0.25", i, j, v)
				}
			} else if v == 0.25 {
				t.Errorf("cell (%d, %d) was never displaced", i, j)
			}
		}
	}
}

func TestStep_FirstCenterWithinScale(t *testing.T) {
	g, _ := grid.New(3)
	s := newTestSynth(t, Options{Boundary: Fixed{}, Decay: 1, Seed: 11})

	if err := s.Step(g, 2, 0.5); err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	// Corners are zero, so the center is pure perturbation.
	if c := g.At(1, 1); c < -0.5 || c > 0.5 {
		t.Errorf("center %v outside [-0.5, 0.5]", c)
	}
}

func TestNew_InvalidDecay(t *testing.T) {
	for _, ds := range []float64{0, -0.5, 1.01, math.NaN()} {
		if _, err := New(Options{Decay: ds}); !errors.Is(err, ErrInvalidDecay) {
			t.Errorf("decay %v: expected ErrInvalidDecay, got %v", ds, err)
		}
	}
}

func TestNew_DefaultBoundary(t *testing.T) {
	s := newTestSynth(t, Options{Decay: 0.5})
	if s.Boundary().Name() != "periodic" {
		t.Errorf("default boundary = %s, want periodic", s.Boundary().Name())
	}
}
