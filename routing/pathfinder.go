package routing

import (
	"errors"
	"strconv"

	"github.com/greenpaths/gp-routing/cost"
	gpgeo "github.com/greenpaths/gp-routing/geo"
	"github.com/greenpaths/gp-routing/graph"
	"github.com/greenpaths/gp-routing/paths"
	. "github.com/greenpaths/gp-routing/util"
	"github.com/paulmach/orb"
)

//**********************************************************
// path finder
//**********************************************************

// Computes a full path set for one request: resolves both endpoints,
// runs one shortest-path search per relevant cost slot and hands the
// raw edge sequences to the aggregation pipeline. Temporary graph
// structure created during resolution is rolled back before returning,
// after aggregation has read the linking edges it needs.
type PathFinder struct {
	store    *graph.GraphStore
	tunables paths.Tunables
}

func NewPathFinder(store *graph.GraphStore, tunables paths.Tunables) *PathFinder {
	return &PathFinder{store: store, tunables: tunables}
}

func (self *PathFinder) FindPathSet(mode cost.TravelMode, objective cost.RoutingObjective, origin orb.Point, dest orb.Point) (*paths.PathSet, error) {
	// safety costs only exist for cycling
	if objective == cost.SAFE && mode != cost.BIKE {
		return nil, NewRoutingError(UNSUPPORTED_PROFILE,
			errors.New("objective "+objective.String()+" is not available for mode "+mode.String()))
	}

	od_distance := gpgeo.Distance(gpgeo.ToProjected(origin), gpgeo.ToProjected(dest))

	resolver := NewEndpointResolver(self.store)
	defer resolver.Rollback()

	orig_node, err := resolver.Resolve(origin, true, od_distance)
	if err != nil {
		return nil, err
	}
	dest_node, err := resolver.Resolve(dest, false, od_distance)
	if err != nil {
		return nil, err
	}
	if orig_node == dest_node {
		return nil, NewRoutingError(SAME_LOCATION, graph.ErrSameLocation)
	}

	raw_paths, err := self.computePaths(mode, objective, orig_node, dest_node)
	if err != nil {
		return nil, err
	}
	set, err := paths.BuildPathSet(self.store, raw_paths, objective, self.tunables)
	if err != nil {
		return nil, NewRoutingError(PATH_PROCESSING, err)
	}
	return set, nil
}

func (self *PathFinder) computePaths(mode cost.TravelMode, objective cost.RoutingObjective, orig_node int32, dest_node int32) (List[paths.RawPath], error) {
	mapping := self.store.CostMapping()
	result := NewList[paths.RawPath](8)

	// the fastest path doubles as the comparison baseline for every
	// objective except safe, where the safest path takes that role
	if objective != cost.SAFE {
		slot, ok := mapping.Slot(cost.CostKey{Mode: mode, Objective: cost.FAST})
		if !ok {
			return nil, NewRoutingError(NO_PATH, errors.New("no travel-time cost available for mode "+mode.String()))
		}
		sequence, err := self.route(orig_node, dest_node, slot)
		if err != nil {
			return nil, err
		}
		result.Add(paths.RawPath{Label: "fast", Objective: cost.FAST, EdgeIDs: sequence})
	}

	if mode == cost.BIKE {
		if slot, ok := mapping.Slot(cost.CostKey{Mode: cost.BIKE, Objective: cost.SAFE}); ok {
			sequence, err := self.route(orig_node, dest_node, slot)
			if err != nil {
				return nil, err
			}
			result.Add(paths.RawPath{Label: "safe", Objective: cost.SAFE, EdgeIDs: sequence})
		}
	}

	if objective.IsExposureObjective() {
		for _, pair := range mapping.SlotsFor(mode, objective) {
			sequence, err := self.route(orig_node, dest_node, pair.A)
			if err != nil {
				return nil, err
			}
			key := pair.B
			result.Add(paths.RawPath{
				Label:       _PathLabel(key.Objective, key.Sensitivity),
				Objective:   key.Objective,
				Sensitivity: key.Sensitivity,
				EdgeIDs:     sequence,
			})
		}
	}
	return result, nil
}

func (self *PathFinder) route(orig_node int32, dest_node int32, slot int) (List[int32], error) {
	sequence, err := self.store.ShortestPath(orig_node, dest_node, slot)
	if err != nil {
		if errors.Is(err, graph.ErrSameLocation) {
			return nil, NewRoutingError(SAME_LOCATION, err)
		}
		return nil, NewRoutingError(NO_PATH, err)
	}
	return sequence, nil
}

func _PathLabel(objective cost.RoutingObjective, sensitivity float64) string {
	var prefix string
	switch objective {
	case cost.QUIET:
		prefix = "q"
	case cost.CLEAN:
		prefix = "c"
	case cost.GREEN:
		prefix = "g"
	default:
		return objective.String()
	}
	return prefix + "_" + strconv.FormatFloat(sensitivity, 'g', -1, 64)
}
