package graph

import (
	"encoding/xml"
	"math"
	"os"
	"strings"

	"github.com/greenpaths/gp-routing/cost"
	gpgeo "github.com/greenpaths/gp-routing/geo"
	. "github.com/greenpaths/gp-routing/util"
	"github.com/paulmach/orb"
	"golang.org/x/exp/slog"
)

//*******************************************
// graphml envelope
//*******************************************

type _XMLKey struct {
	ID   string `xml:"id,attr"`
	For  string `xml:"for,attr"`
	Name string `xml:"attr.name,attr"`
}
type _XMLData struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}
type _XMLNode struct {
	ID   string     `xml:"id,attr"`
	Data []_XMLData `xml:"data"`
}
type _XMLEdge struct {
	Source string     `xml:"source,attr"`
	Target string     `xml:"target,attr"`
	Data   []_XMLData `xml:"data"`
}
type _XMLGraphML struct {
	Keys  []_XMLKey `xml:"key"`
	Graph struct {
		Nodes []_XMLNode `xml:"node"`
		Edges []_XMLEdge `xml:"edge"`
	} `xml:"graph"`
}

//*******************************************
// graph loading
//*******************************************

type LoadParams struct {
	NoiseVersion cost.NoiseCostVersion
	WalkSpeed    float64
	BikeSpeed    float64
}

// Parses the serialized graph, decodes attributes through the fixed
// decoder table and computes the noise/green/safety cost slots of every
// edge. AQI slots start punitive until the first live update.
func Load(path string, mapping *cost.CostMapping, params LoadParams) (*GraphStore, error) {
	slog.Info("loading graph from " + path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &GraphLoadError{Message: err.Error()}
	}
	var doc _XMLGraphML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, &GraphLoadError{Message: "malformed graph file: " + err.Error()}
	}

	node_keys, edge_keys, err := _ResolveKeys(doc.Keys)
	if err != nil {
		return nil, err
	}

	nodes, node_ids, err := _DecodeNodes(doc.Graph.Nodes, node_keys)
	if err != nil {
		return nil, err
	}
	edges, err := _DecodeEdges(doc.Graph.Edges, edge_keys, node_ids)
	if err != nil {
		return nil, err
	}
	if nodes.Length() == 0 || edges.Length() == 0 {
		return nil, &GraphLoadError{Message: "graph file contains no nodes or edges"}
	}

	if err := ComputeEdgeCosts(edges, mapping, params); err != nil {
		return nil, err
	}
	store := NewGraphStore(nodes, edges, mapping)
	slog.Info("graph ready", "nodes", nodes.Length(), "edges", edges.Length())
	return store, nil
}

// Maps graphml key ids to attribute names, dropping undeclared
// attributes with a warning.
func _ResolveKeys(keys []_XMLKey) (Dict[string, string], Dict[string, string], error) {
	node_keys := NewDict[string, string](8)
	edge_keys := NewDict[string, string](16)
	for _, key := range keys {
		if key.For == "node" {
			if _, ok := NODE_DECODERS[key.Name]; !ok {
				slog.Warn("dropping unknown node attribute: " + key.Name)
				continue
			}
			node_keys[key.ID] = key.Name
		} else {
			if _, ok := EDGE_DECODERS[key.Name]; !ok {
				slog.Warn("dropping unknown edge attribute: " + key.Name)
				continue
			}
			edge_keys[key.ID] = key.Name
		}
	}
	return node_keys, edge_keys, nil
}

func _DecodeNodes(xml_nodes []_XMLNode, node_keys Dict[string, string]) (List[Node], Dict[string, int32], error) {
	nodes := NewList[Node](len(xml_nodes))
	node_ids := NewDict[string, int32](len(xml_nodes))
	for i, xn := range xml_nodes {
		attrs := NewDict[string, float64](4)
		for _, d := range xn.Data {
			name, ok := node_keys[d.Key]
			if !ok {
				continue
			}
			val, err := DecodeFloat(d.Value)
			if err != nil {
				return nil, nil, &GraphLoadError{Message: "node attribute " + name + ": " + err.Error()}
			}
			attrs[name] = val
		}
		node := Node{}
		if attrs.ContainsKey("x") && attrs.ContainsKey("y") {
			node.Point = orb.Point{attrs["x"], attrs["y"]}
			if attrs.ContainsKey("lon") && attrs.ContainsKey("lat") {
				node.PointWGS = orb.Point{attrs["lon"], attrs["lat"]}
			} else {
				node.PointWGS = gpgeo.ToWGS84(node.Point)
			}
		} else if attrs.ContainsKey("lon") && attrs.ContainsKey("lat") {
			node.PointWGS = orb.Point{attrs["lon"], attrs["lat"]}
			node.Point = gpgeo.ToProjected(node.PointWGS)
		} else {
			return nil, nil, &GraphLoadError{Message: "node without coordinates: " + xn.ID}
		}
		nodes.Add(node)
		node_ids[xn.ID] = int32(i)
	}
	return nodes, node_ids, nil
}

func _DecodeEdges(xml_edges []_XMLEdge, edge_keys Dict[string, string], node_ids Dict[string, int32]) (List[Edge], error) {
	edges := NewList[Edge](len(xml_edges))
	for _, xe := range xml_edges {
		node_a, ok_a := node_ids[xe.Source]
		node_b, ok_b := node_ids[xe.Target]
		if !ok_a || !ok_b {
			return nil, &GraphLoadError{Message: "edge references unknown node: " + xe.Source + " -> " + xe.Target}
		}
		edge := Edge{NodeA: node_a, NodeB: node_b, AllowsBiking: true}
		has_length := false
		for _, d := range xe.Data {
			name, ok := edge_keys[d.Key]
			if !ok {
				continue
			}
			if strings.TrimSpace(d.Value) == "" || strings.TrimSpace(d.Value) == "None" {
				continue
			}
			if err := _ApplyEdgeAttr(&edge, name, d.Value, &has_length); err != nil {
				return nil, err
			}
		}
		if !has_length {
			return nil, &GraphLoadError{Message: "edge without length attribute"}
		}
		if edge.LengthBike == 0 {
			edge.LengthBike = edge.Length
		}
		_WarnOnNoiseMismatch(&edge, edges.Length())
		edges.Add(edge)
	}
	return edges, nil
}

func _ApplyEdgeAttr(edge *Edge, name string, value string, has_length *bool) error {
	var err error
	switch name {
	case "length":
		edge.Length, err = DecodeFloat(value)
		*has_length = err == nil
	case "length_b":
		edge.LengthBike, err = DecodeFloat(value)
	case "way_id":
		edge.WayID, err = DecodeInt(value)
	case "uv":
		// node pair as written by the exporter, informational only
		_, _, err = DecodeTuple(value)
	case "geometry":
		edge.Geom, err = DecodeGeometry(value)
	case "geom_wgs":
		edge.GeomWGS, err = DecodeGeometry(value)
	case "noises":
		edge.Noises, err = DecodeMapping(value)
	case "aqi":
		edge.Aqi, err = DecodeFloat(value)
		edge.HasAqi = err == nil
	case "gvi":
		edge.Gvi, err = DecodeFloat(value)
		edge.HasGvi = err == nil
	case "bsf":
		edge.SafetyFactor, err = DecodeFloat(value)
		edge.HasSafetyFactor = err == nil
	case "is_stairs":
		edge.IsStairs, err = DecodeBool(value)
	case "allows_biking":
		edge.AllowsBiking, err = DecodeBool(value)
	}
	if err != nil {
		return &GraphLoadError{Message: "edge attribute " + name + ": " + err.Error()}
	}
	return nil
}

// Band lengths plus the synthesized lowest band must reproduce the edge
// length within rounding tolerance.
func _WarnOnNoiseMismatch(edge *Edge, index int) {
	if edge.Noises == nil || edge.Geom == nil {
		return
	}
	total := 0.0
	for _, l := range edge.Noises {
		total += l
	}
	if total > edge.Length+0.1 {
		slog.Warn("noise exposures exceed edge length", "edge", index, "total", total, "length", edge.Length)
	}
}

// Populates the noise, green and safety slots of every edge; air quality
// slots start at the outside-extent punitive cost until the updater has
// applied a live file. Missing combinations are a fatal load error.
func ComputeEdgeCosts(edges List[Edge], mapping *cost.CostMapping, params LoadParams) error {
	ratio := cost.BikeWalkTimeRatio(params.BikeSpeed, params.WalkSpeed)
	keys := mapping.Keys()
	for i := range edges {
		edge := &edges[i]
		edge.Costs = make([]float64, len(keys))
		for slot, key := range keys {
			base := edge.Length
			if key.Mode == cost.BIKE {
				base = edge.LengthBike
			}
			var value float64
			switch key.Objective {
			case cost.FAST:
				value = base
			case cost.SAFE:
				value = cost.BikeSafetyCost(edge.Length, edge.AllowsBiking, edge.IsStairs,
					edge.SafetyFactor, edge.HasSafetyFactor, ratio)
			case cost.QUIET:
				value = cost.NoiseAdjustedCost(base, edge.Length, edge.Noises, key.Sensitivity, params.NoiseVersion)
			case cost.CLEAN:
				if edge.HasAqi {
					value = cost.AqiCost(base, edge.Aqi, key.Sensitivity)
				} else {
					value = cost.MissingAqiCost(edge.Length)
				}
			case cost.GREEN:
				if edge.HasGvi {
					value = cost.GviCost(base, edge.Gvi, edge.Length, key.Sensitivity)
				} else {
					value = cost.MissingGviCost(base, edge.Length, key.Sensitivity)
				}
			}
			if math.IsNaN(value) || value < 0 {
				return &GraphLoadError{Message: "invalid cost " + key.Name() + " on edge"}
			}
			edge.Costs[slot] = value
		}
	}
	return nil
}

func _BuildAdjacency(nodes List[Node], edges List[Edge]) (List[List[EdgeRef]], List[List[EdgeRef]]) {
	fwd := NewList[List[EdgeRef]](nodes.Length())
	bwd := NewList[List[EdgeRef]](nodes.Length())
	for i := 0; i < nodes.Length(); i++ {
		fwd.Add(NewList[EdgeRef](2))
		bwd.Add(NewList[EdgeRef](2))
	}
	for i, edge := range edges {
		fwd[edge.NodeA].Add(EdgeRef{EdgeID: int32(i), OtherID: edge.NodeB})
		bwd[edge.NodeB].Add(EdgeRef{EdgeID: int32(i), OtherID: edge.NodeA})
	}
	return fwd, bwd
}
