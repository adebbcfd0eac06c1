package paths

import (
	"errors"
	"math"

	"github.com/greenpaths/gp-routing/cost"
	gpgeo "github.com/greenpaths/gp-routing/geo"
	"github.com/greenpaths/gp-routing/graph"
	. "github.com/greenpaths/gp-routing/util"
)

//**********************************************************
// path set pipeline
//**********************************************************

// Aggregation behavior knobs with their service defaults. The overlay
// constants have no derivation, they are operational choices.
type Tunables struct {
	// paths whose lengths differ by less than this are overlay
	// candidates
	OverlayLengthWindow float64
	// two geometries count as overlapping when neither strays farther
	// than this from the other
	OverlayBuffer float64
	// noise coefficient scale used for exposure statistics
	NoiseVersion cost.NoiseCostVersion
}

func DefaultTunables() Tunables {
	return Tunables{
		OverlayLengthWindow: 25.0,
		OverlayBuffer:       50.0,
		NoiseVersion:        cost.NoiseCostV3,
	}
}

// Ordered result of one request: the baseline path first, surviving
// alternatives after it.
type PathSet struct {
	Paths     List[*Path]
	Objective cost.RoutingObjective
}

// Runs the aggregation pipeline over raw path results. The step order
// is load-bearing: filtering runs on cheap scalar stats before the full
// exposure statistics are computed, and the overlay dedup needs those
// statistics to pick group representatives.
func BuildPathSet(store *graph.GraphStore, raw_paths List[RawPath], objective cost.RoutingObjective, tunables Tunables) (*PathSet, error) {
	if raw_paths.Length() == 0 {
		return nil, errors.New("no paths to aggregate")
	}

	// 1. drop paths with literally identical edge sequences
	unique := _DedupEdgeSequences(raw_paths)

	// 2. + 3. load edge views, scalar stats and missing-data flags
	cache := _NewEdgeCache(store)
	paths := NewList[*Path](unique.Length())
	for _, raw := range unique {
		path := _NewPath(raw, cache)
		path.computeScalarStats()
		paths.Add(path)
	}

	// 4. an exposure-optimized path missing data for its own attribute
	// is useless, the baselines stay regardless
	filtered := NewList[*Path](paths.Length())
	for _, path := range paths {
		if path.Objective.IsExposureObjective() && path.missingOptimizedData() {
			continue
		}
		filtered.Add(path)
	}
	if filtered.Length() == 0 {
		return nil, errors.New("all paths filtered out")
	}

	// 5. full exposure statistics for the survivors
	for _, path := range filtered {
		path.computeExposureStats(tunables.NoiseVersion)
	}

	// 6. geometry-overlay dedup
	result := _DedupOverlappingPaths(filtered, objective, tunables)

	// 7. diffs against the baseline
	base := _Baseline(result)
	base.IsBaseline = true
	for _, path := range result {
		if path == base {
			continue
		}
		path.computeDiffStats(base, objective)
	}

	return &PathSet{Paths: result, Objective: objective}, nil
}

//**********************************************************
// pipeline steps
//**********************************************************

func _DedupEdgeSequences(raw_paths List[RawPath]) List[RawPath] {
	unique := NewList[RawPath](raw_paths.Length())
	for _, raw := range raw_paths {
		duplicate := false
		for _, kept := range unique {
			if _SameSequence(raw.EdgeIDs, kept.EdgeIDs) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			unique.Add(raw)
		}
	}
	return unique
}

func _SameSequence(a List[int32], b List[int32]) bool {
	if a.Length() != b.Length() {
		return false
	}
	for i := 0; i < a.Length(); i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Groups paths that are near-identical on the map (lengths within the
// window, geometries mutually within the buffer) and keeps only the
// lowest-normalized-cost member of each group. When that member beats
// the original baseline, it inherits the baseline role.
func _DedupOverlappingPaths(paths List[*Path], objective cost.RoutingObjective, tunables Tunables) List[*Path] {
	count := paths.Length()
	group := make([]int, count)
	for i := range group {
		group[i] = i
	}
	for i := 0; i < count; i++ {
		for j := i + 1; j < count; j++ {
			if group[j] != j {
				continue
			}
			if math.Abs(paths[i].Length-paths[j].Length) >= tunables.OverlayLengthWindow {
				continue
			}
			if !_MutualOverlap(paths[i], paths[j], tunables.OverlayBuffer) {
				continue
			}
			group[j] = group[i]
		}
	}

	kept := NewList[*Path](count)
	for g := 0; g < count; g++ {
		var best *Path
		for i, path := range paths {
			if group[i] != g {
				continue
			}
			if best == nil {
				best = path
				continue
			}
			best_cost, best_ok := best.normalizedCost(objective)
			path_cost, path_ok := path.normalizedCost(objective)
			if path_ok && (!best_ok || path_cost < best_cost) {
				best = path
			}
		}
		if best != nil {
			kept.Add(best)
		}
	}
	return kept
}

func _MutualOverlap(a *Path, b *Path, buffer float64) bool {
	geom_a := gpgeo.LineToProjected(a.Geometry)
	geom_b := gpgeo.LineToProjected(b.Geometry)
	return gpgeo.MaxVertexDistance(geom_a, geom_b) <= buffer &&
		gpgeo.MaxVertexDistance(geom_b, geom_a) <= buffer
}

// The baseline is the surviving fastest path (safest for pure-safety
// requests); when the overlay dedup replaced it, the first survivor
// holds that role now.
func _Baseline(paths List[*Path]) *Path {
	for _, path := range paths {
		if path.Objective == cost.FAST {
			return path
		}
	}
	for _, path := range paths {
		if path.Objective == cost.SAFE {
			return path
		}
	}
	return paths[0]
}
