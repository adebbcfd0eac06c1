package parser

import (
	"encoding/xml"
	"os"
	"strconv"

	"github.com/greenpaths/gp-routing/graph"
	. "github.com/greenpaths/gp-routing/util"
	"github.com/paulmach/orb/encoding/wkt"
)

//*******************************************
// graphml writer
//*******************************************

type _XMLKey struct {
	XMLName xml.Name `xml:"key"`
	ID      string   `xml:"id,attr"`
	For     string   `xml:"for,attr"`
	Name    string   `xml:"attr.name,attr"`
	Type    string   `xml:"attr.type,attr"`
}
type _XMLData struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}
type _XMLNode struct {
	XMLName xml.Name   `xml:"node"`
	ID      string     `xml:"id,attr"`
	Data    []_XMLData `xml:"data"`
}
type _XMLEdge struct {
	XMLName xml.Name   `xml:"edge"`
	Source  string     `xml:"source,attr"`
	Target  string     `xml:"target,attr"`
	Data    []_XMLData `xml:"data"`
}
type _XMLGraph struct {
	XMLName     xml.Name `xml:"graph"`
	EdgeDefault string   `xml:"edgedefault,attr"`
	Nodes       []_XMLNode
	Edges       []_XMLEdge
}
type _XMLGraphML struct {
	XMLName xml.Name `xml:"graphml"`
	Keys    []_XMLKey
	Graph   _XMLGraph
}

// Serializes an imported graph into the attribute-text format the
// service loads. Attribute keys mirror the loader's decoder table.
func WriteGraphML(path string, nodes List[graph.Node], edges List[graph.Edge]) error {
	keys := []_XMLKey{
		{ID: "d0", For: "node", Name: "x", Type: "double"},
		{ID: "d1", For: "node", Name: "y", Type: "double"},
		{ID: "d2", For: "node", Name: "lon", Type: "double"},
		{ID: "d3", For: "node", Name: "lat", Type: "double"},
		{ID: "d4", For: "edge", Name: "length", Type: "double"},
		{ID: "d5", For: "edge", Name: "length_b", Type: "double"},
		{ID: "d6", For: "edge", Name: "way_id", Type: "long"},
		{ID: "d7", For: "edge", Name: "geometry", Type: "string"},
		{ID: "d8", For: "edge", Name: "geom_wgs", Type: "string"},
		{ID: "d9", For: "edge", Name: "is_stairs", Type: "boolean"},
		{ID: "d10", For: "edge", Name: "allows_biking", Type: "boolean"},
	}

	doc := _XMLGraphML{Keys: keys}
	doc.Graph.EdgeDefault = "directed"
	doc.Graph.Nodes = make([]_XMLNode, 0, nodes.Length())
	for i, node := range nodes {
		doc.Graph.Nodes = append(doc.Graph.Nodes, _XMLNode{
			ID: strconv.Itoa(i),
			Data: []_XMLData{
				{Key: "d0", Value: _FormatFloat(node.Point[0])},
				{Key: "d1", Value: _FormatFloat(node.Point[1])},
				{Key: "d2", Value: _FormatFloat(node.PointWGS[0])},
				{Key: "d3", Value: _FormatFloat(node.PointWGS[1])},
			},
		})
	}
	doc.Graph.Edges = make([]_XMLEdge, 0, edges.Length())
	for _, edge := range edges {
		doc.Graph.Edges = append(doc.Graph.Edges, _XMLEdge{
			Source: strconv.Itoa(int(edge.NodeA)),
			Target: strconv.Itoa(int(edge.NodeB)),
			Data: []_XMLData{
				{Key: "d4", Value: _FormatFloat(edge.Length)},
				{Key: "d5", Value: _FormatFloat(edge.LengthBike)},
				{Key: "d6", Value: strconv.FormatInt(edge.WayID, 10)},
				{Key: "d7", Value: wkt.MarshalString(edge.Geom)},
				{Key: "d8", Value: wkt.MarshalString(edge.GeomWGS)},
				{Key: "d9", Value: _FormatBool(edge.IsStairs)},
				{Key: "d10", Value: _FormatBool(edge.AllowsBiking)},
			},
		})
	}

	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append([]byte(xml.Header), data...), 0644)
}

func _FormatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

func _FormatBool(value bool) string {
	if value {
		return "True"
	}
	return "False"
}
