// Initial terrain generation using layered simplex noise.
// Deterministic from the seed: the same seed always yields the same grid.
package grid

import (
	opensimplex "github.com/ojrac/opensimplex-go"
)

// Terrain band thresholds on normalized noise values.
const (
	waterLevel = 0.22
	wasteLevel = 0.80
)

// Generate creates a city grid with terrain derived from two noise layers:
// elevation picks water against land, temperature splits grass from snow,
// and the driest high ground becomes wasteland.
func Generate(width, height int, seed int64) *Grid {
	elevNoise := opensimplex.NewNormalized(seed)
	tempNoise := opensimplex.NewNormalized(seed + 1)

	g := New(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			fx, fy := float64(x), float64(y)

			elev := octaveNoise(elevNoise, fx, fy, 4, 0.07, 0.5)
			temp := octaveNoise(tempNoise, fx, fy, 3, 0.05, 0.5)

			kind := KindGrass
			switch {
			case elev < waterLevel:
				kind = KindWater
			case elev > wasteLevel:
				kind = KindWasteland
			case temp < 0.30:
				kind = KindSnow
			}
			g.At(x, y).Kind = kind
		}
	}
	return g
}

// octaveNoise sums several noise octaves with decreasing amplitude and
// returns a value normalized to [0, 1].
func octaveNoise(n opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxValue := 0.0
	freq := frequency

	for i := 0; i < octaves; i++ {
		total += n.Eval2(x*freq, y*freq) * amplitude
		maxValue += amplitude
		amplitude *= persistence
		freq *= 2
	}
	return total / maxValue
}
