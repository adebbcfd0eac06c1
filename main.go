package main

import (
	"context"
	"flag"
	"os"
	"strconv"
	"time"

	"github.com/greenpaths/gp-routing/aqi"
	"github.com/greenpaths/gp-routing/cost"
	"github.com/greenpaths/gp-routing/graph"
	"github.com/greenpaths/gp-routing/parser"
	. "github.com/greenpaths/gp-routing/util"
	"github.com/joho/godotenv"
	"golang.org/x/exp/slog"
)

func main() {
	import_pbf := flag.String("import", "", "import an OSM pbf extract and write the graph file")
	config_file := flag.String("config", "./config.yaml", "path to the config file")
	flag.Parse()

	logger := slog.New(NewLogHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	godotenv.Load()
	config := ReadConfig(*config_file)

	if *import_pbf != "" {
		importGraph(*import_pbf, config.Graph.File)
		return
	}

	mapping := cost.NewCostMapping(List[cost.TravelMode]{cost.WALK, cost.BIKE}, config.Sensitivities)
	store, err := graph.Load(config.Graph.File, mapping, graph.LoadParams{
		NoiseVersion: config.Graph.NoiseCostVersion,
		WalkSpeed:    config.Graph.WalkSpeed,
		BikeSpeed:    config.Graph.BikeSpeed,
	})
	if err != nil {
		slog.Error("failed to load graph: " + err.Error())
		panic(err)
	}

	updater_config := aqi.DefaultUpdaterConfig(config.Aqi.Dir)
	updater_config.Interval = time.Duration(config.Aqi.IntervalSec) * time.Second
	updater_config.Backoffs = config.updaterBackoffs()
	updater_config.MinCoverage = float64(config.Aqi.MinCoveragePct) / 100
	updater := aqi.NewGraphUpdater(store, updater_config)
	if !config.Aqi.DisableUpdater {
		updater.Start(context.Background())
	}

	server := NewServer(config, store, updater)
	addr := ":" + strconv.Itoa(config.Server.Port)
	slog.Info("listening on " + addr)
	if err := server.Router().Run(addr); err != nil {
		slog.Error("server stopped: " + err.Error())
		panic(err)
	}
}

// Offline import: OSM pbf to the graph file the service loads. Exposure
// attributes are joined by the offline data pipeline afterwards.
func importGraph(pbf_file string, graph_file string) {
	nodes, edges := parser.ParseGraph(pbf_file, &parser.WalkBikeDecoder{})
	if err := parser.WriteGraphML(graph_file, nodes, edges); err != nil {
		slog.Error("failed to write graph file: " + err.Error())
		panic(err)
	}
	slog.Info("graph written", "file", graph_file, "nodes", nodes.Length(), "edges", edges.Length())
}
