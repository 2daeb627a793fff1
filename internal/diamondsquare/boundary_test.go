package diamondsquare

import (
	"errors"
	"math"
	"testing"

	"github.com/Faultbox/dsterrain/internal/grid"
)

// createTestGrid returns a 5x5 grid where cell (i, j) holds 10*i + j.
func createTestGrid(t *testing.T) *grid.Grid {
	t.Helper()
	g, err := grid.New(5)
	if err != nil {
		t.Fatalf("grid.New failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		for j := 0; j < 5; j++ {
			g.Set(i, j, float64(10*i+j))
		}
	}
	return g
}

func TestFixed_AverageDivisor(t *testing.T) {
	g := createTestGrid(t)

	tests := []struct {
		name    string
		i, j, v int
		offsets Offsets
		want    float64
	}{
		// interior: (0,1) (1,0) (2,1) (1,2)
		{"interior square", 1, 1, 1, SquareOffsets, (1 + 10 + 21 + 12) / 4.0},
		// top edge: (0,0) (2,2) (0,4); (-2,2) dropped
		{"edge square", 0, 2, 2, SquareOffsets, (0 + 22 + 4) / 3.0},
		// corner: (2,0) (0,2); two neighbors outside
		{"corner square", 0, 0, 2, SquareOffsets, (20 + 2) / 2.0},
		{"diamond", 2, 2, 2, DiamondOffsets, (0 + 4 + 44 + 40) / 4.0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Fixed{}.Average(g, tc.i, tc.j, tc.v, tc.offsets)
			if err != nil {
				t.Fatalf("Average failed: %v", err)
			}
			if math.Abs(got-tc.want) > 1e-12 {
				t.Errorf("Average = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFixed_Underflow(t *testing.T) {
	g := createTestGrid(t)

	got, err := Fixed{}.Average(g, 0, 0, 10, SquareOffsets)
	if !errors.Is(err, ErrBoundaryUnderflow) {
		t.Fatalf("expected ErrBoundaryUnderflow, got %v", err)
	}
	if math.IsNaN(got) || math.IsInf(got, 0) {
		t.Errorf("underflow leaked a non-finite value: %v", got)
	}
}

func TestPeriodic_AverageWraps(t *testing.T) {
	g := createTestGrid(t)

	// (0,2) radius 2: (-2,2)->(2,2), (0,0), (2,2), (0,4)->(0,0)
	got, err := Periodic{}.Average(g, 0, 2, 2, SquareOffsets)
	if err != nil {
		t.Fatalf("Average failed: %v", err)
	}
	want := (22 + 0 + 22 + 0) / 4.0
	if got != want {
		t.Errorf("Average = %v, want %v", got, want)
	}

	// Always divides by four, even in the corner.
	got, _ = Periodic{}.Average(g, 0, 0, 1, SquareOffsets)
	want = (g.At(3, 0) + g.At(0, 3) + g.At(1, 0) + g.At(0, 1)) / 4.0
	if got != want {
		t.Errorf("corner Average = %v, want %v", got, want)
	}
}

func TestPeriodic_ComputesAndFinish(t *testing.T) {
	p := Periodic{}
	if p.Computes(5, 4, 0) || p.Computes(5, 0, 4) {
		t.Error("periodic must not target the aliased last row/column")
	}
	if !p.Computes(5, 3, 3) {
		t.Error("periodic must target interior cells")
	}

	g := createTestGrid(t)
	p.Finish(g)
	for k := 0; k < 5; k++ {
		if g.At(4, k) != g.At(0, k) {
			t.Errorf("row 4 col %d = %v, want %v", k, g.At(4, k), g.At(0, k))
		}
		if g.At(k, 4) != g.At(k, 0) {
			t.Errorf("col 4 row %d = %v, want %v", k, g.At(k, 4), g.At(k, 0))
		}
	}
}

func TestWrap(t *testing.T) {
	tests := []struct{ x, m, want int }{
		{-2, 4, 2},
		{-4, 4, 0},
		{5, 4, 1},
		{3, 4, 3},
	}
	for _, tc := range tests {
		if got := wrap(tc.x, tc.m); got != tc.want {
			t.Errorf("wrap(%d, %d) = %d, want %d", tc.x, tc.m, got, tc.want)
		}
	}
}

func TestParseBoundary(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"periodic", "periodic"},
		{"Periodic", "periodic"},
		{"wrap", "periodic"},
		{"fixed", "fixed"},
		{" clamp ", "fixed"},
	}
	for _, tc := range tests {
		p, err := ParseBoundary(tc.in)
		if err != nil {
			t.Fatalf("ParseBoundary(%q) failed: %v", tc.in, err)
		}
		if p.Name() != tc.want {
			t.Errorf("ParseBoundary(%q) = %s, want %s", tc.in, p.Name(), tc.want)
		}
	}

	if _, err := ParseBoundary("mirror"); !errors.Is(err, ErrUnknownBoundary) {
		t.Errorf("expected ErrUnknownBoundary, got %v", err)
	}
}
