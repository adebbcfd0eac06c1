package graph

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
)

//*******************************************
// attribute decoders
//*******************************************

// Every attribute in the graph file is stored as text and decoded by a
// fixed per-attribute-name decoder. Unknown attributes are dropped with
// a warning; a failing decode of a declared attribute aborts the load.

type AttrType byte

const (
	ATTR_INT AttrType = iota
	ATTR_FLOAT
	ATTR_BOOL
	ATTR_GEOM
	ATTR_MAPPING
	ATTR_TUPLE
)

var NODE_DECODERS = map[string]AttrType{
	"x":   ATTR_FLOAT,
	"y":   ATTR_FLOAT,
	"lat": ATTR_FLOAT,
	"lon": ATTR_FLOAT,
}

var EDGE_DECODERS = map[string]AttrType{
	"length":        ATTR_FLOAT,
	"length_b":      ATTR_FLOAT,
	"way_id":        ATTR_INT,
	"uv":            ATTR_TUPLE,
	"geometry":      ATTR_GEOM,
	"geom_wgs":      ATTR_GEOM,
	"noises":        ATTR_MAPPING,
	"aqi":           ATTR_FLOAT,
	"gvi":           ATTR_FLOAT,
	"bsf":           ATTR_FLOAT,
	"is_stairs":     ATTR_BOOL,
	"allows_biking": ATTR_BOOL,
}

func DecodeFloat(value string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(value), 64)
}

func DecodeInt(value string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(value), 10, 64)
}

// Accepts both python and yaml/json boolean literals, the exporters have
// produced both over time.
func DecodeBool(value string) (bool, error) {
	switch strings.TrimSpace(value) {
	case "True", "true", "1":
		return true, nil
	case "False", "false", "0", "":
		return false, nil
	default:
		return false, fmt.Errorf("not a boolean literal: %q", value)
	}
}

func DecodeGeometry(value string) (orb.LineString, error) {
	geom, err := wkt.Unmarshal(strings.TrimSpace(value))
	if err != nil {
		return nil, err
	}
	line, ok := geom.(orb.LineString)
	if !ok {
		return nil, fmt.Errorf("geometry is not a linestring: %T", geom)
	}
	return line, nil
}

// Decodes a python dict literal of int keys to float values, e.g.
// "{50: 12.5, 55: 3.0}". An empty literal decodes to an empty (non-nil)
// mapping.
func DecodeMapping(value string) (map[int]float64, error) {
	s := strings.TrimSpace(value)
	if !strings.HasPrefix(s, "{") || !strings.HasSuffix(s, "}") {
		return nil, fmt.Errorf("not a mapping literal: %q", value)
	}
	s = strings.TrimSpace(s[1 : len(s)-1])
	mapping := map[int]float64{}
	if s == "" {
		return mapping, nil
	}
	for _, part := range strings.Split(s, ",") {
		kv := strings.SplitN(part, ":", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("bad mapping entry: %q", part)
		}
		key, err := strconv.Atoi(strings.TrimSpace(kv[0]))
		if err != nil {
			return nil, err
		}
		val, err := strconv.ParseFloat(strings.TrimSpace(kv[1]), 64)
		if err != nil {
			return nil, err
		}
		mapping[key] = val
	}
	return mapping, nil
}

// Decodes a python tuple literal of two ints, e.g. "(251,  4845)".
func DecodeTuple(value string) (int64, int64, error) {
	s := strings.TrimSpace(value)
	if !strings.HasPrefix(s, "(") || !strings.HasSuffix(s, ")") {
		return 0, 0, fmt.Errorf("not a tuple literal: %q", value)
	}
	parts := strings.Split(s[1:len(s)-1], ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("not a pair: %q", value)
	}
	a, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
	if err != nil {
		return 0, 0, err
	}
	b, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}
