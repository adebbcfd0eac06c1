package cost

import "math"

//**********************************************************
// air quality costs
//**********************************************************

const (
	// AQI below this is not a valid reading
	MinValidAqi = 0.95
	// coefficient applied to edges with an invalid AQI value
	InvalidAqiCoeff = 10.0
	// multiplier applied to edges outside the AQI data extent;
	// deliberately distinct from the invalid-reading coefficient
	MissingAqiCoeff = 40.0
)

// Cost coefficient for an AQI reading. The second return reports whether
// the reading was valid; invalid readings get the punitive coefficient.
func AqiCostCoeff(aqi float64) (float64, bool) {
	if math.IsNaN(aqi) || aqi < MinValidAqi {
		return InvalidAqiCoeff, false
	}
	if aqi < 1.0 {
		// background air, no excess pollution
		return 0, true
	}
	return (aqi - 1) / 4, true
}

// Edge weight for a clean-path query at sensitivity s, rounded to two
// decimals for stable cross-update comparisons.
func AqiCost(base float64, aqi float64, sensitivity float64) float64 {
	coeff, _ := AqiCostCoeff(aqi)
	return math.Round((base+base*coeff*sensitivity)*100) / 100
}

// Edge weight for edges outside the AQI data extent. Zero-length edges
// (no geometry) carry no exposure and cost nothing.
func MissingAqiCost(length float64) float64 {
	if length == 0 {
		return 0
	}
	return length + length*MissingAqiCoeff
}

// Discretizes an AQI reading into one of 9 classes.
func AqiClass(aqi float64) int {
	if math.IsNaN(aqi) || math.IsInf(aqi, 0) {
		return 0
	}
	class := int(math.Floor(aqi*2)) - 1
	if class < 0 {
		return 0
	}
	if class > 9 {
		return 9
	}
	return class
}
