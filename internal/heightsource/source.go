// Package heightsource provides interchangeable generators of raw heightfields.
package heightsource

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Faultbox/dsterrain/internal/diamondsquare"
	"github.com/Faultbox/dsterrain/internal/grid"
)

// ErrUnknownSource is returned for an unrecognised source kind.
var ErrUnknownSource = errors.New("unknown height source")

// Source kinds.
const (
	KindDiamondSquare = "diamond-square"
	KindPerlin        = "perlin"
	KindSimplex       = "simplex"
)

// HeightSource produces a raw (unnormalized) heightfield of side 2^order+1.
type HeightSource interface {
	Name() string
	Generate(order int) (*grid.Grid, error)
}

// Settings carries the parameters of every source kind; New picks the
// relevant part.
type Settings struct {
	Kind          string
	Seed          int64
	Workers       int
	DiamondSquare diamondsquare.Options
	Perlin        PerlinOptions
	Simplex       SimplexOptions
}

// ParseKind resolves a source name, ignoring case and accepting the aliases
// "ds" and "diamondsquare". An empty name selects diamond-square.
func ParseKind(name string) (string, error) {
	switch k := strings.ToLower(strings.TrimSpace(name)); k {
	case KindDiamondSquare, "diamondsquare", "ds", "":
		return KindDiamondSquare, nil
	case KindPerlin, KindSimplex:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSource, name)
	}
}

// New builds the source named by s.Kind.
func New(s Settings) (HeightSource, error) {
	kind, err := ParseKind(s.Kind)
	if err != nil {
		return nil, err
	}
	switch kind {
	case KindDiamondSquare:
		opts := s.DiamondSquare
		opts.Seed = s.Seed
		opts.Workers = s.Workers
		return NewDiamondSquare(opts)
	case KindPerlin:
		return NewPerlin(s.Seed, s.Perlin, s.Workers), nil
	default:
		return NewSimplex(s.Seed, s.Simplex, s.Workers), nil
	}
}

// DiamondSquare adapts a diamond-square synthesizer to HeightSource.
type DiamondSquare struct {
	synth *diamondsquare.Synthesizer
}

// NewDiamondSquare validates opts and wraps a new synthesizer.
func NewDiamondSquare(opts diamondsquare.Options) (*DiamondSquare, error) {
	s, err := diamondsquare.New(opts)
	if err != nil {
		return nil, err
	}
	return &DiamondSquare{synth: s}, nil
}

// Name implements HeightSource.
func (d *DiamondSquare) Name() string {
	return KindDiamondSquare + "/" + d.synth.Boundary().Name()
}

// Generate implements HeightSource.
func (d *DiamondSquare) Generate(order int) (*grid.Grid, error) {
	return d.synth.Generate(order)
}
