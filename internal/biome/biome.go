// Package biome classifies terrain cells by height and slope.
package biome

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidThresholds is returned by Thresholds.Validate.
var ErrInvalidThresholds = errors.New("invalid biome thresholds")

// RGB is an 8-bit per channel color.
type RGB struct {
	R, G, B uint8
}

// Floats returns the channels scaled to [0, 1].
func (c RGB) Floats() [3]float64 {
	return [3]float64{float64(c.R) / 255, float64(c.G) / 255, float64(c.B) / 255}
}

// Biome is a terrain category.
type Biome uint8

// Biomes, from lowest to highest ground.
const (
	Water Biome = iota
	Sand
	Grass
	Forest
	Rock
	Snow
)

// All lists every biome in declaration order.
var All = []Biome{Water, Sand, Grass, Forest, Rock, Snow}

var names = [...]string{
	Water:  "water",
	Sand:   "sand",
	Grass:  "grass",
	Forest: "forest",
	Rock:   "rock",
	Snow:   "snow",
}

var colors = [...]RGB{
	Water:  {65, 105, 255},
	Sand:   {238, 214, 175},
	Grass:  {34, 139, 34},
	Forest: {0, 100, 0},
	Rock:   {139, 137, 137},
	Snow:   {255, 250, 250},
}

// String returns the biome name.
func (b Biome) String() string {
	if int(b) < len(names) {
		return names[b]
	}
	return fmt.Sprintf("Unknown(%d)", b)
}

// Color returns the display color of the biome.
func (b Biome) Color() RGB {
	if int(b) < len(colors) {
		return colors[b]
	}
	return RGB{}
}

// ParseBiome looks a biome up by name.
func ParseBiome(name string) (Biome, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for b, n := range names {
		if n == name {
			return Biome(b), nil
		}
	}
	return 0, fmt.Errorf("unknown biome %q", name)
}

// Thresholds are the height/slope cut-offs of the classification rules.
// Every comparison is strict.
type Thresholds struct {
	Snow       float64 `yaml:"snow"`
	RockHeight float64 `yaml:"rock_height"`
	RockSlope  float64 `yaml:"rock_slope"`
	Forest     float64 `yaml:"forest"`
	Grass      float64 `yaml:"grass"`
	Sand       float64 `yaml:"sand"`
}

// DefaultThresholds returns the cut-offs used for diamond-square terrain.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Snow:       0.95,
		RockHeight: 0.5,
		RockSlope:  0.001,
		Forest:     0.10,
		Grass:      0.05,
		Sand:       0.03,
	}
}

// BiasedThresholds lowers the snow line for noise sources biased toward low ground.
func BiasedThresholds() Thresholds {
	t := DefaultThresholds()
	t.Snow = 0.7
	return t
}

// Preset returns the named threshold set: "default" or "biased".
func Preset(name string) (Thresholds, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "default":
		return DefaultThresholds(), nil
	case "biased":
		return BiasedThresholds(), nil
	}
	return Thresholds{}, fmt.Errorf("%w: unknown preset %q", ErrInvalidThresholds, name)
}

// Validate rejects NaN thresholds, which would silently disable a rule.
func (t Thresholds) Validate() error {
	for name, v := range map[string]float64{
		"snow":        t.Snow,
		"rock_height": t.RockHeight,
		"rock_slope":  t.RockSlope,
		"forest":      t.Forest,
		"grass":       t.Grass,
		"sand":        t.Sand,
	} {
		if math.IsNaN(v) {
			return fmt.Errorf("%w: %s is NaN", ErrInvalidThresholds, name)
		}
	}
	return nil
}

// Classify maps a normalized height and a slope to a biome. Rules are
// checked in order and the first one strictly satisfied wins.
func Classify(t Thresholds, height, slope float64) Biome {
	slope = math.Abs(slope)
	switch {
	case height > t.Snow:
		return Snow
	case height > t.RockHeight && slope > t.RockSlope:
		return Rock
	case height > t.Forest:
		return Forest
	case height > t.Grass:
		return Grass
	case height > t.Sand:
		return Sand
	default:
		return Water
	}
}
