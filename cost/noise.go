package cost

import "math"

//**********************************************************
// noise costs
//**********************************************************

// Traffic noise exposures are binned into 5 dB bands keyed by the band's
// lower bound. The lowest band is not present in the source data and is
// synthesized from the gap between the edge length and the sum of the
// measured bands.
const LowestDbBand = 40

var DbBands = []int{40, 45, 50, 55, 60, 65, 70, 75}

// Multiplier applied to edges with no noise data at all (outside the
// noise raster extent).
const MissingNoiseCoeff = 20.0

type NoiseCostVersion byte

const (
	// linear scale, kept for compatibility testing only
	NoiseCostV2 NoiseCostVersion = 2
	// log-energy scale, the live default
	NoiseCostV3 NoiseCostVersion = 3
)

// Cost coefficient of a 5 dB band with lower bound db.
func DbCostCoeff(db int, version NoiseCostVersion) float64 {
	if version == NoiseCostV2 {
		if db < 45 {
			return 0
		}
		return float64(db-40) / float64(75-40)
	}
	if db <= 44 {
		return 0
	}
	return math.Pow(10, 0.3*float64(db)/10) / 100
}

// Adds the missing lowest band so that the band lengths sum to the edge
// length. Returns a copy, the input mapping is not modified.
func SynthesizeLowestBand(noises map[int]float64, length float64) map[int]float64 {
	full := make(map[int]float64, len(noises)+1)
	total := 0.0
	for db, l := range noises {
		full[db] = l
		total += l
	}
	remainder := length - total
	if remainder > 0 {
		full[LowestDbBand] += remainder
	}
	return full
}

// Noise cost component of one edge for sensitivity s. A nil mapping means
// no noise data in the source extent and is costed punitively; an empty
// mapping is a real zero exposure.
func NoiseCost(length float64, noises map[int]float64, sensitivity float64, version NoiseCostVersion) float64 {
	if noises == nil {
		return length * MissingNoiseCoeff
	}
	noise_cost := 0.0
	for db, contaminated := range noises {
		noise_cost += DbCostCoeff(db, version) * contaminated * sensitivity
	}
	return noise_cost
}

// Full edge weight for a quiet-path query: base length (walk) or
// bike-adjusted length plus the noise cost component.
func NoiseAdjustedCost(base float64, length float64, noises map[int]float64, sensitivity float64, version NoiseCostVersion) float64 {
	return base + NoiseCost(length, noises, sensitivity, version)
}
