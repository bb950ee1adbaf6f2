package mapgen

import (
	"math"
	"math/rand"

	"github.com/AIRF0X788/Op-V2/internal/game/core"
)

// Region is a rectangle expressed as fractions of the map size.
type Region struct {
	MinX, MaxX float64
	MinY, MaxY float64
}

func (r Region) contains(fx, fy float64) bool {
	return fx > r.MinX && fx < r.MaxX && fy > r.MinY && fy < r.MaxY
}

// MapConfig holds configuration for map generation
type MapConfig struct {
	Width  int
	Height int

	// A cell is land when its normalised distance from the map centre is
	// below Threshold plus the noise term.
	Threshold      float64
	NoiseAmplitude float64
	NoiseFrequency float64

	// RandomPhase shifts the noise pattern using the generator's rng so
	// that matches do not all share the same coastline.
	RandomPhase bool

	// Seas are forced to water regardless of the mask.
	Seas []Region
}

// DefaultMapConfig returns the continental layout used by matches.
func DefaultMapConfig(w, h int) MapConfig {
	return MapConfig{
		Width:          w,
		Height:         h,
		Threshold:      0.6,
		NoiseAmplitude: 0.3,
		NoiseFrequency: 0.1,
		Seas: []Region{
			{MinX: 0.4, MaxX: 0.6, MinY: 0.7, MaxY: 1.0},
		},
	}
}

// Generator handles map generation with deterministic RNG
type Generator struct {
	config MapConfig
	rng    *rand.Rand
}

// NewGenerator creates a new map generator
func NewGenerator(config MapConfig, rng *rand.Rand) *Generator {
	return &Generator{
		config: config,
		rng:    rng,
	}
}

// GenerateMap creates a grid with its land/water mask applied. All cells
// start unowned.
func (g *Generator) GenerateMap() *core.Grid {
	grid := core.NewGrid(g.config.Width, g.config.Height)

	var phaseX, phaseY float64
	if g.config.RandomPhase && g.rng != nil {
		phaseX = g.rng.Float64() * 2 * math.Pi
		phaseY = g.rng.Float64() * 2 * math.Pi
	}

	for i := range grid.C {
		x, y := grid.XY(i)
		if g.isLand(x, y, phaseX, phaseY) {
			grid.C[i].Type = core.Land
		}
	}
	return grid
}

func (g *Generator) isLand(x, y int, phaseX, phaseY float64) bool {
	w, h := float64(g.config.Width), float64(g.config.Height)
	fx, fy := float64(x)/w, float64(y)/h
	for _, sea := range g.config.Seas {
		if sea.contains(fx, fy) {
			return false
		}
	}

	dx := (float64(x) - w/2) / w * 2
	dy := (float64(y) - h/2) / h * 2
	dist := math.Sqrt(dx*dx + dy*dy)

	f := g.config.NoiseFrequency
	noise := math.Sin(float64(x)*f+phaseX) * math.Cos(float64(y)*f+phaseY) * g.config.NoiseAmplitude

	return dist < g.config.Threshold+noise
}
