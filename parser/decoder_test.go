package parser

import (
	"testing"

	. "github.com/greenpaths/gp-routing/util"
)

func TestIsValidHighway(t *testing.T) {
	decoder := &WalkBikeDecoder{}
	cases := []struct {
		tags Dict[string, string]
		want bool
	}{
		{Dict[string, string]{"highway": "footway"}, true},
		{Dict[string, string]{"highway": "residential"}, true},
		{Dict[string, string]{"highway": "motorway"}, false},
		{Dict[string, string]{"building": "yes"}, false},
		{Dict[string, string]{"highway": "service", "access": "private"}, false},
		{Dict[string, string]{"highway": "path", "foot": "no"}, false},
	}
	for _, c := range cases {
		if got := decoder.IsValidHighway(c.tags); got != c.want {
			t.Errorf("IsValidHighway(%v): got %v, want %v", c.tags, got, c.want)
		}
	}
}

func TestDecodeEdge(t *testing.T) {
	decoder := &WalkBikeDecoder{}

	steps := decoder.DecodeEdge(Dict[string, string]{"highway": "steps"})
	if !steps.IsStairs || steps.AllowsBiking {
		t.Errorf("steps must be stairs and never bikeable, got %+v", steps)
	}

	footway := decoder.DecodeEdge(Dict[string, string]{"highway": "footway"})
	if footway.AllowsBiking {
		t.Error("plain footways exclude cyclists")
	}
	shared := decoder.DecodeEdge(Dict[string, string]{"highway": "footway", "bicycle": "yes"})
	if !shared.AllowsBiking {
		t.Error("explicit bicycle permission opens a footway")
	}

	street := decoder.DecodeEdge(Dict[string, string]{"highway": "residential", "oneway": "yes"})
	if !street.AllowsBiking || street.Oneway {
		t.Errorf("oneway streets only bind cyclists on cycleways, got %+v", street)
	}
	cycleway := decoder.DecodeEdge(Dict[string, string]{"highway": "cycleway", "oneway": "yes"})
	if !cycleway.Oneway {
		t.Error("oneway cycleways restrict cyclist direction")
	}

	banned := decoder.DecodeEdge(Dict[string, string]{"highway": "residential", "bicycle": "no"})
	if banned.AllowsBiking {
		t.Error("bicycle=no overrides the highway type")
	}
}
