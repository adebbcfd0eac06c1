package cost

import (
	"fmt"
	"math"
)

//**********************************************************
// green view costs
//**********************************************************

// Edge weight for a green-path query at sensitivity s. GVI is the 0..1
// share of visible vegetation; low GVI is penalized.
func GviCost(base float64, gvi float64, length float64, sensitivity float64) float64 {
	return base + (1-gvi)*length*sensitivity
}

// Edge weight for edges without GVI data: costed as fully unvegetated.
func MissingGviCost(base float64, length float64, sensitivity float64) float64 {
	return GviCost(base, 0, length, sensitivity)
}

// Discretizes a GVI value into one of the classes 0..10.
func GviClass(gvi float64) (int, error) {
	if math.IsNaN(gvi) || gvi < 0 || gvi > 1 {
		return 0, fmt.Errorf("gvi out of range: %v", gvi)
	}
	return int(math.Ceil(gvi * 10)), nil
}
