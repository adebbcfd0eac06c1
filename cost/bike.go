package cost

//**********************************************************
// bike safety costs
//**********************************************************

const (
	// pushing a bike up stairs on a no-biking edge
	stairsNoBikingMult = 15.0
	// either stairs or a no-biking edge, not both
	walkBikeMult = 1.2
)

// Edge weight for a safest-bike-path query. Edges that force dismounting
// are penalized relative to walking pace; ridable edges are weighted by
// their safety factor when one is known.
func BikeSafetyCost(length float64, allowsBiking bool, isStairs bool, safetyFactor float64, hasSafetyFactor bool, bikeWalkTimeRatio float64) float64 {
	if !allowsBiking && isStairs {
		return length * bikeWalkTimeRatio * stairsNoBikingMult
	}
	if !allowsBiking != isStairs {
		return length * bikeWalkTimeRatio * walkBikeMult
	}
	if hasSafetyFactor {
		return length * safetyFactor
	}
	return length
}

// Ratio of biking to walking speed, used to weight dismounted stretches.
func BikeWalkTimeRatio(bikeSpeed float64, walkSpeed float64) float64 {
	return bikeSpeed / walkSpeed
}
