package paths

import (
	"github.com/greenpaths/gp-routing/graph"
	. "github.com/greenpaths/gp-routing/util"
	"github.com/paulmach/orb"
)

//**********************************************************
// path edge views
//**********************************************************

// Read-only view of one edge's exposure attributes, decoded once per
// request. Noise bands are stored with the implicit lowest band already
// synthesized so that band lengths sum to the edge length.
type PathEdge struct {
	ID         int32
	WayID      int64
	Length     float64
	LengthBike float64
	GeomWGS    orb.LineString
	Noises     map[int]float64
	Aqi        float64
	HasAqi     bool
	Gvi        float64
	HasGvi     bool
}

// Request-scoped cache keyed by edge id. Paths from one request share
// most of their edges, decoding each only once keeps aggregation cheap.
type _EdgeCache struct {
	store *graph.GraphStore
	edges Dict[int32, *PathEdge]
}

func _NewEdgeCache(store *graph.GraphStore) *_EdgeCache {
	return &_EdgeCache{
		store: store,
		edges: NewDict[int32, *PathEdge](64),
	}
}

func (self *_EdgeCache) Get(id int32) *PathEdge {
	if self.edges.ContainsKey(id) {
		return self.edges.Get(id)
	}
	edge := self.store.GetEdge(id)
	view := &PathEdge{
		ID:         id,
		WayID:      edge.WayID,
		Length:     edge.Length,
		LengthBike: edge.LengthBike,
		GeomWGS:    edge.GeomWGS,
		Noises:     edge.SynthesizedNoises(),
		Aqi:        edge.Aqi,
		HasAqi:     edge.HasAqi,
		Gvi:        edge.Gvi,
		HasGvi:     edge.HasGvi,
	}
	self.edges.Set(id, view)
	return view
}
