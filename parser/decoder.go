package parser

import (
	. "github.com/greenpaths/gp-routing/util"
)

//*******************************************
// osm decoder
//*******************************************

type EdgeAttribs struct {
	Oneway       bool
	IsStairs     bool
	AllowsBiking bool
}

type IOSMDecoder interface {
	IsValidHighway(tags Dict[string, string]) bool
	DecodeEdge(tags Dict[string, string]) EdgeAttribs
}

// Extracts the combined pedestrian / cyclist network.
type WalkBikeDecoder struct {
}

var walkbike_types = Dict[string, bool]{"footway": true, "path": true, "pedestrian": true, "steps": true,
	"cycleway": true, "bridleway": true, "residential": true, "living_street": true, "service": true,
	"track": true, "unclassified": true, "road": true, "tertiary": true, "tertiary_link": true,
	"secondary": true, "secondary_link": true, "primary": true, "primary_link": true}

// highway types cyclists may only use when explicitly permitted
var walk_only_types = Dict[string, bool]{"footway": true, "pedestrian": true, "steps": true, "bridleway": true}

func (self *WalkBikeDecoder) IsValidHighway(tags Dict[string, string]) bool {
	if !tags.ContainsKey("highway") {
		return false
	}
	if !walkbike_types.ContainsKey(tags.Get("highway")) {
		return false
	}
	if tags.Get("access") == "private" || tags.Get("foot") == "no" {
		return false
	}
	return true
}

func (self *WalkBikeDecoder) DecodeEdge(tags Dict[string, string]) EdgeAttribs {
	highway := tags.Get("highway")
	e := EdgeAttribs{}
	e.IsStairs = highway == "steps"
	e.AllowsBiking = _AllowsBiking(highway, tags)
	// pedestrians ignore oneway restrictions, they only bind cyclists
	if e.AllowsBiking && tags.Get("oneway") == "yes" && highway == "cycleway" {
		e.Oneway = true
	}
	return e
}

func _AllowsBiking(highway string, tags Dict[string, string]) bool {
	bicycle := tags.Get("bicycle")
	if bicycle == "no" {
		return false
	}
	if highway == "steps" {
		return false
	}
	if walk_only_types.ContainsKey(highway) {
		return bicycle == "yes" || bicycle == "designated"
	}
	return true
}
