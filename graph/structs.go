package graph

import (
	"github.com/greenpaths/gp-routing/cost"
	"github.com/paulmach/orb"
)

//*******************************************
// graph structs
//*******************************************

type Node struct {
	// metric projected CRS
	Point orb.Point
	// WGS84, kept for output
	PointWGS orb.Point
}

type Edge struct {
	NodeA int32
	NodeB int32

	// id of the underlying street segment, shared by the directed twin
	WayID int64

	Length     float64
	LengthBike float64

	// nil when the edge has no geometry of its own
	Geom    orb.LineString
	GeomWGS orb.LineString

	// nil = outside the noise data extent; an empty mapping is a
	// measured zero exposure
	Noises map[int]float64

	Aqi    float64
	HasAqi bool

	Gvi    float64
	HasGvi bool

	SafetyFactor    float64
	HasSafetyFactor bool

	IsStairs     bool
	AllowsBiking bool

	// dense cost table, indexed by cost.CostMapping slots
	Costs []float64
}

// Noise bands with the implicit lowest band synthesized so that band
// lengths sum to the edge length. Returns nil outside the data extent.
func (self *Edge) SynthesizedNoises() map[int]float64 {
	if self.Noises == nil {
		return nil
	}
	return cost.SynthesizeLowestBand(self.Noises, self.Length)
}

type EdgeRef struct {
	EdgeID  int32
	OtherID int32
}

//*******************************************
// errors
//*******************************************

type GraphLoadError struct {
	Message string
}

func (self *GraphLoadError) Error() string {
	return "graph load failed: " + self.Message
}
