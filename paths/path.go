package paths

import (
	"math"

	"github.com/greenpaths/gp-routing/cost"
	. "github.com/greenpaths/gp-routing/util"
	"github.com/paulmach/orb"
)

//**********************************************************
// path
//**********************************************************

// Raw least-cost-path result handed over by the path finder, one per
// searched cost slot.
type RawPath struct {
	Label       string
	Objective   cost.RoutingObjective
	Sensitivity float64
	EdgeIDs     List[int32]
}

type NoiseStats struct {
	MeanDb    float64         `json:"mdB"`
	Nei       float64         `json:"nei"`
	NeiNorm   float64         `json:"nei_norm"`
	Exposures map[int]float64 `json:"noises"`
	Pcts      map[int]float64 `json:"noise_pcts"`
}

type AqiStats struct {
	Mean      float64         `json:"aqi_m"`
	Cost      float64         `json:"aqc"`
	CostNorm  float64         `json:"aqc_norm"`
	Exposures map[int]float64 `json:"aqi_cl_exps"`
	Pcts      map[int]float64 `json:"aqi_cl_pcts"`
}

type GviStats struct {
	Mean      float64         `json:"gvi_m"`
	Exposures map[int]float64 `json:"gvi_cl_exps"`
	Pcts      map[int]float64 `json:"gvi_cl_pcts"`
}

// Comparison of one path against the request's baseline path.
type DiffStats struct {
	LengthDiff float64 `json:"len_diff"`
	MeanDbDiff float64 `json:"mdB_diff"`
	NeiDiff    float64 `json:"nei_diff"`
	AqiDiff    float64 `json:"aqi_diff"`
	GviDiff    float64 `json:"gvi_diff"`
	Score      float64 `json:"path_score"`
}

// Request-scoped path built from a raw edge-id sequence. Exposure stats
// are filled in stages by the path-set pipeline, missing-data flags
// first and the full statistics only for paths that survive filtering.
type Path struct {
	Label       string
	Objective   cost.RoutingObjective
	Sensitivity float64
	EdgeIDs     List[int32]

	edges List[*PathEdge]

	Geometry   orb.LineString
	Length     float64
	LengthBike float64

	MissingNoise bool
	MissingAqi   bool
	MissingGvi   bool

	Noise *NoiseStats
	Aqi   *AqiStats
	Gvi   *GviStats
	Diff  *DiffStats

	// the comparison baseline of the result set, normally the fastest
	// path but possibly a promoted near-identical alternative
	IsBaseline bool
}

func _NewPath(raw RawPath, cache *_EdgeCache) *Path {
	path := &Path{
		Label:       raw.Label,
		Objective:   raw.Objective,
		Sensitivity: raw.Sensitivity,
		EdgeIDs:     raw.EdgeIDs,
		edges:       NewList[*PathEdge](raw.EdgeIDs.Length()),
	}
	for _, id := range raw.EdgeIDs {
		path.edges.Add(cache.Get(id))
	}
	return path
}

//**********************************************************
// scalar stats and missing-data flags
//**********************************************************

func (self *Path) computeScalarStats() {
	geom := orb.LineString{}
	for _, edge := range self.edges {
		self.Length += edge.Length
		self.LengthBike += edge.LengthBike
		if edge.Noises == nil {
			self.MissingNoise = true
		}
		if !edge.HasAqi {
			self.MissingAqi = true
		}
		if !edge.HasGvi {
			self.MissingGvi = true
		}
		for i, point := range edge.GeomWGS {
			if i == 0 && len(geom) > 0 && geom[len(geom)-1] == point {
				continue
			}
			geom = append(geom, point)
		}
	}
	self.Geometry = geom
}

// True when the path lacks data for the attribute it was optimized for.
func (self *Path) missingOptimizedData() bool {
	switch self.Objective {
	case cost.QUIET:
		return self.MissingNoise
	case cost.CLEAN:
		return self.MissingAqi
	case cost.GREEN:
		return self.MissingGvi
	}
	return false
}

//**********************************************************
// exposure stats
//**********************************************************

func (self *Path) computeExposureStats(noise_version cost.NoiseCostVersion) {
	self.computeNoiseStats(noise_version)
	self.computeAqiStats()
	self.computeGviStats()
}

func (self *Path) computeNoiseStats(version cost.NoiseCostVersion) {
	if self.MissingNoise || self.Length == 0 {
		return
	}
	exposures := make(map[int]float64)
	db_sum := 0.0
	nei := 0.0
	for _, edge := range self.edges {
		for db, length := range edge.Noises {
			exposures[db] += length
			db_sum += float64(db) * length
			nei += cost.DbCostCoeff(db, version) * length
		}
	}
	// the 75 dB band carries the largest coefficient, normalizing by it
	// maps the index onto 0..1
	max_coeff := cost.DbCostCoeff(75, version)
	self.Noise = &NoiseStats{
		MeanDb:    _Round2(db_sum / self.Length),
		Nei:       _Round2(nei),
		NeiNorm:   _Round2(nei / (self.Length * max_coeff)),
		Exposures: _RoundMap(exposures),
		Pcts:      _Percentages(exposures, self.Length),
	}
}

func (self *Path) computeAqiStats() {
	if self.MissingAqi || self.Length == 0 {
		return
	}
	exposures := make(map[int]float64)
	aqi_sum := 0.0
	aqc := 0.0
	for _, edge := range self.edges {
		aqi_sum += edge.Aqi * edge.Length
		coeff, _ := cost.AqiCostCoeff(edge.Aqi)
		aqc += coeff * edge.Length
		exposures[cost.AqiClass(edge.Aqi)] += edge.Length
	}
	// coefficient 1.0 corresponds to the AQI scale maximum of 5
	self.Aqi = &AqiStats{
		Mean:      _Round2(aqi_sum / self.Length),
		Cost:      _Round2(aqc),
		CostNorm:  _Round2(aqc / self.Length),
		Exposures: _RoundMap(exposures),
		Pcts:      _Percentages(exposures, self.Length),
	}
}

func (self *Path) computeGviStats() {
	if self.MissingGvi || self.Length == 0 {
		return
	}
	exposures := make(map[int]float64)
	gvi_sum := 0.0
	for _, edge := range self.edges {
		gvi_sum += edge.Gvi * edge.Length
		class, err := cost.GviClass(edge.Gvi)
		if err != nil {
			continue
		}
		exposures[class] += edge.Length
	}
	self.Gvi = &GviStats{
		Mean:      _Round2(gvi_sum / self.Length),
		Exposures: _RoundMap(exposures),
		Pcts:      _Percentages(exposures, self.Length),
	}
}

// Normalized exposure cost of this path for the given objective, the
// overlay dedup and score computations compare paths by this value.
// Lower is better for every objective.
func (self *Path) normalizedCost(objective cost.RoutingObjective) (float64, bool) {
	switch objective {
	case cost.QUIET:
		if self.Noise == nil {
			return 0, false
		}
		return self.Noise.NeiNorm, true
	case cost.CLEAN:
		if self.Aqi == nil {
			return 0, false
		}
		return self.Aqi.CostNorm, true
	case cost.GREEN:
		if self.Gvi == nil {
			return 0, false
		}
		return _Round2(1.0 - self.Gvi.Mean), true
	}
	return 0, false
}

//**********************************************************
// diff stats
//**********************************************************

func (self *Path) computeDiffStats(base *Path, objective cost.RoutingObjective) {
	diff := &DiffStats{
		LengthDiff: _Round2(self.Length - base.Length),
	}
	if self.Noise != nil && base.Noise != nil {
		diff.MeanDbDiff = _Round2(self.Noise.MeanDb - base.Noise.MeanDb)
		diff.NeiDiff = _Round2(self.Noise.Nei - base.Noise.Nei)
	}
	if self.Aqi != nil && base.Aqi != nil {
		diff.AqiDiff = _Round2(self.Aqi.Mean - base.Aqi.Mean)
	}
	if self.Gvi != nil && base.Gvi != nil {
		diff.GviDiff = _Round2(self.Gvi.Mean - base.Gvi.Mean)
	}
	self_cost, self_ok := self.normalizedCost(objective)
	base_cost, base_ok := base.normalizedCost(objective)
	if self_ok && base_ok && diff.LengthDiff > 0 {
		diff.Score = _Round2(-(self_cost - base_cost) / diff.LengthDiff)
	}
	self.Diff = diff
}

//**********************************************************
// helpers
//**********************************************************

func _Round2(value float64) float64 {
	return math.Round(value*100) / 100
}

func _RoundMap(values map[int]float64) map[int]float64 {
	rounded := make(map[int]float64, len(values))
	for key, value := range values {
		rounded[key] = _Round2(value)
	}
	return rounded
}

func _Percentages(exposures map[int]float64, total float64) map[int]float64 {
	pcts := make(map[int]float64, len(exposures))
	for key, length := range exposures {
		pcts[key] = math.Round(length/total*1000) / 10
	}
	return pcts
}
