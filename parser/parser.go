package parser

import (
	"context"
	"fmt"
	"os"
	"runtime"

	gpgeo "github.com/greenpaths/gp-routing/geo"
	"github.com/greenpaths/gp-routing/graph"
	. "github.com/greenpaths/gp-routing/util"
	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"golang.org/x/exp/slog"
)

//*******************************************
// parser structs
//*******************************************

type TempNode struct {
	Point orb.Point
	Count int32
}
type OSMNode struct {
	Point orb.Point
}
type OSMEdge struct {
	NodeA int
	NodeB int
	WayID int64
	Attr  EdgeAttribs
	Nodes List[orb.Point]
}

//*******************************************
// osm parsing
//*******************************************

// Extracts the routable network from an OSM pbf extract. Exposure
// attributes (noise, air quality, greenery) are joined offline by the
// data pipeline, freshly imported graphs carry none.
func ParseGraph(pbf_file string, decoder IOSMDecoder) (List[graph.Node], List[graph.Edge]) {
	nodes := NewList[OSMNode](10000)
	edges := NewList[OSMEdge](10000)
	index_mapping := NewDict[int64, int](10000)
	_ParseOsm(pbf_file, decoder, &nodes, &edges, &index_mapping)
	slog.Info(fmt.Sprintf("parsed ways: %v edges, %v nodes", edges.Length(), nodes.Length()))
	return _CreateGraph(&nodes, &edges)
}

func _ParseOsm(filename string, decoder IOSMDecoder, nodes *List[OSMNode], edges *List[OSMEdge], index_mapping *Dict[int64, int]) {
	osm_nodes := NewDict[int64, TempNode](1000)

	file, err := os.Open(filename)
	if err != nil {
		panic(err)
	}
	defer file.Close()

	scanner := osmpbf.New(context.Background(), file, runtime.GOMAXPROCS(-1))
	_InitWayHandler(scanner, decoder, &osm_nodes)
	scanner.Close()
	file.Seek(0, 0)
	scanner = osmpbf.New(context.Background(), file, runtime.GOMAXPROCS(-1))
	_NodeHandler(scanner, &osm_nodes, nodes, index_mapping)
	scanner.Close()
	file.Seek(0, 0)
	scanner = osmpbf.New(context.Background(), file, runtime.GOMAXPROCS(-1))
	_WayHandler(scanner, decoder, edges, &osm_nodes, index_mapping)
	scanner.Close()
}

// Builds the directed graph: two directed edges per two-way way
// segment, geometries projected once at import time.
func _CreateGraph(osmnodes *List[OSMNode], osmedges *List[OSMEdge]) (List[graph.Node], List[graph.Edge]) {
	nodes := NewList[graph.Node](osmnodes.Length())
	edges := NewList[graph.Edge](osmedges.Length() * 2)

	for _, osmnode := range *osmnodes {
		nodes.Add(graph.Node{
			Point:    gpgeo.ToProjected(osmnode.Point),
			PointWGS: osmnode.Point,
		})
	}

	for _, osmedge := range *osmedges {
		geom_wgs := orb.LineString(osmedge.Nodes)
		geom := gpgeo.LineToProjected(geom_wgs)
		length := gpgeo.LineLength(geom)
		edges.Add(graph.Edge{
			NodeA:        int32(osmedge.NodeA),
			NodeB:        int32(osmedge.NodeB),
			WayID:        osmedge.WayID,
			Length:       length,
			LengthBike:   length,
			Geom:         geom,
			GeomWGS:      geom_wgs,
			IsStairs:     osmedge.Attr.IsStairs,
			AllowsBiking: osmedge.Attr.AllowsBiking,
		})
		if !osmedge.Attr.Oneway {
			edges.Add(graph.Edge{
				NodeA:        int32(osmedge.NodeB),
				NodeB:        int32(osmedge.NodeA),
				WayID:        osmedge.WayID,
				Length:       length,
				LengthBike:   length,
				Geom:         _ReversedLine(geom),
				GeomWGS:      _ReversedLine(geom_wgs),
				IsStairs:     osmedge.Attr.IsStairs,
				AllowsBiking: osmedge.Attr.AllowsBiking,
			})
		}
	}
	return nodes, edges
}

func _ReversedLine(line orb.LineString) orb.LineString {
	reversed := make(orb.LineString, len(line))
	for i, p := range line {
		reversed[len(line)-1-i] = p
	}
	return reversed
}

//*******************************************
// osm handler methods
//*******************************************

func _InitWayHandler(scanner *osmpbf.Scanner, decoder IOSMDecoder, osm_nodes *Dict[int64, TempNode]) {
	scanner.SkipNodes = true
	scanner.SkipRelations = true
	for scanner.Scan() {
		switch object := scanner.Object().(type) {
		case *osm.Way:
			tags := Dict[string, string](object.TagMap())
			if !decoder.IsValidHighway(tags) {
				continue
			}
			nodes := object.Nodes.NodeIDs()
			l := len(nodes)
			for i := 0; i < l; i++ {
				ndref := nodes[i].FeatureID().Ref()
				if !osm_nodes.ContainsKey(ndref) {
					(*osm_nodes)[ndref] = TempNode{orb.Point{}, 1}
				} else {
					node := (*osm_nodes)[ndref]
					node.Count += 1
					(*osm_nodes)[ndref] = node
				}
			}
			node_a := (*osm_nodes)[nodes[0].FeatureID().Ref()]
			node_b := (*osm_nodes)[nodes[l-1].FeatureID().Ref()]
			node_a.Count += 1
			node_b.Count += 1
			(*osm_nodes)[nodes[0].FeatureID().Ref()] = node_a
			(*osm_nodes)[nodes[l-1].FeatureID().Ref()] = node_b
		default:
			continue
		}
	}
}

func _NodeHandler(scanner *osmpbf.Scanner, osm_nodes *Dict[int64, TempNode], nodes *List[OSMNode], index_mapping *Dict[int64, int]) {
	i := 0
	c := 0

	scanner.SkipWays = true
	scanner.SkipRelations = true
	for scanner.Scan() {
		switch object := scanner.Object().(type) {
		case *osm.Node:
			id := object.FeatureID().Ref()
			if !osm_nodes.ContainsKey(id) {
				continue
			}
			c += 1
			if c%1000 == 0 {
				slog.Debug(fmt.Sprintf("%v", c))
			}
			on := osm_nodes.Get(id)
			if on.Count > 1 {
				nodes.Add(OSMNode{Point: orb.Point{object.Lon, object.Lat}})
				index_mapping.Set(id, i)
				i += 1
			}
			on.Point[0] = object.Lon
			on.Point[1] = object.Lat
			osm_nodes.Set(id, on)
		default:
			continue
		}
	}
}

func _WayHandler(scanner *osmpbf.Scanner, decoder IOSMDecoder, edges *List[OSMEdge], osm_nodes *Dict[int64, TempNode], index_mapping *Dict[int64, int]) {
	c := 0
	scanner.SkipNodes = true
	scanner.SkipRelations = true
	for scanner.Scan() {
		switch object := scanner.Object().(type) {
		case *osm.Way:
			tags := Dict[string, string](object.TagMap())
			if !decoder.IsValidHighway(tags) {
				continue
			}
			c += 1
			if c%1000 == 0 {
				slog.Debug(fmt.Sprintf("%v", c))
			}

			nodes := object.Nodes.NodeIDs()
			l := len(nodes)
			start := nodes[0].FeatureID().Ref()
			curr := int64(0)
			e := OSMEdge{WayID: int64(object.ID)}
			for i := 0; i < l; i++ {
				curr = nodes[i].FeatureID().Ref()
				on := osm_nodes.Get(curr)
				e.Nodes.Add(on.Point)
				if on.Count > 1 && curr != start {
					e.NodeA = index_mapping.Get(start)
					e.NodeB = index_mapping.Get(curr)
					e.Attr = decoder.DecodeEdge(tags)
					edges.Add(e)
					start = curr
					e = OSMEdge{WayID: int64(object.ID)}
					e.Nodes.Add(on.Point)
				}
			}
		default:
			continue
		}
	}
}
