package paths

import (
	"github.com/greenpaths/gp-routing/cost"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

//**********************************************************
// geojson output
//**********************************************************

func (self *PathSet) ToFeatureCollection() *geojson.FeatureCollection {
	collection := geojson.NewFeatureCollection()
	for _, path := range self.Paths {
		feature := geojson.NewFeature(path.Geometry)
		props := geojson.Properties{
			"name":          path.Label,
			"type":          path.Objective.String(),
			"cost_coeff":    path.Sensitivity,
			"length":        _Round2(path.Length),
			"length_b":      _Round2(path.LengthBike),
			"missing_noise": path.MissingNoise,
			"missing_aqi":   path.MissingAqi,
			"missing_gvi":   path.MissingGvi,
			"is_baseline":   path.IsBaseline,
		}
		if path.Noise != nil {
			props["mdB"] = path.Noise.MeanDb
			props["nei"] = path.Noise.Nei
			props["nei_norm"] = path.Noise.NeiNorm
			props["noises"] = path.Noise.Exposures
			props["noise_pcts"] = path.Noise.Pcts
		}
		if path.Aqi != nil {
			props["aqi_m"] = path.Aqi.Mean
			props["aqc"] = path.Aqi.Cost
			props["aqc_norm"] = path.Aqi.CostNorm
			props["aqi_cl_exps"] = path.Aqi.Exposures
			props["aqi_cl_pcts"] = path.Aqi.Pcts
		}
		if path.Gvi != nil {
			props["gvi_m"] = path.Gvi.Mean
			props["gvi_cl_exps"] = path.Gvi.Exposures
			props["gvi_cl_pcts"] = path.Gvi.Pcts
		}
		if path.Diff != nil {
			props["len_diff"] = path.Diff.LengthDiff
			props["mdB_diff"] = path.Diff.MeanDbDiff
			props["nei_diff"] = path.Diff.NeiDiff
			props["aqi_diff"] = path.Diff.AqiDiff
			props["gvi_diff"] = path.Diff.GviDiff
			props["path_score"] = path.Diff.Score
		}
		feature.Properties = props
		collection.Append(feature)
	}
	return collection
}

// Edge-level detail: consecutive edges of each path sharing the same
// discretized exposure class merge into one segment feature.
func (self *PathSet) ToEdgeFeatureCollection() *geojson.FeatureCollection {
	collection := geojson.NewFeatureCollection()
	for _, path := range self.Paths {
		for _, segment := range _MergeSegments(path, self.Objective) {
			feature := geojson.NewFeature(segment.geometry)
			feature.Properties = geojson.Properties{
				"path":   path.Label,
				"value":  segment.class,
				"length": _Round2(segment.length),
			}
			collection.Append(feature)
		}
	}
	return collection
}

type _EdgeSegment struct {
	class    int
	length   float64
	geometry orb.LineString
}

func _MergeSegments(path *Path, objective cost.RoutingObjective) []_EdgeSegment {
	segments := []_EdgeSegment{}
	for _, edge := range path.edges {
		class := _EdgeClass(edge, objective)
		if len(segments) > 0 && segments[len(segments)-1].class == class {
			last := &segments[len(segments)-1]
			last.length += edge.Length
			last.geometry = _AppendLine(last.geometry, edge.GeomWGS)
			continue
		}
		geom := make(orb.LineString, len(edge.GeomWGS))
		copy(geom, edge.GeomWGS)
		segments = append(segments, _EdgeSegment{
			class:    class,
			length:   edge.Length,
			geometry: geom,
		})
	}
	return segments
}

func _AppendLine(line orb.LineString, other orb.LineString) orb.LineString {
	for i, point := range other {
		if i == 0 && len(line) > 0 && line[len(line)-1] == point {
			continue
		}
		line = append(line, point)
	}
	return line
}

func _EdgeClass(edge *PathEdge, objective cost.RoutingObjective) int {
	switch objective {
	case cost.QUIET:
		return _DbClass(edge)
	case cost.CLEAN:
		if !edge.HasAqi {
			return 0
		}
		return cost.AqiClass(edge.Aqi)
	case cost.GREEN:
		if !edge.HasGvi {
			return 0
		}
		class, err := cost.GviClass(edge.Gvi)
		if err != nil {
			return 0
		}
		return class
	}
	return 0
}

// Largest dB band lower bound not above the edge's length-weighted mean
// noise level.
func _DbClass(edge *PathEdge) int {
	if edge.Noises == nil || edge.Length == 0 {
		return 0
	}
	db_sum := 0.0
	for db, length := range edge.Noises {
		db_sum += float64(db) * length
	}
	mean := db_sum / edge.Length
	class := 0
	for _, band := range cost.DbBands {
		if float64(band) <= mean {
			class = band
		}
	}
	return class
}
