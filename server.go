package main

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/greenpaths/gp-routing/aqi"
	"github.com/greenpaths/gp-routing/cost"
	"github.com/greenpaths/gp-routing/graph"
	"github.com/greenpaths/gp-routing/paths"
	"github.com/greenpaths/gp-routing/routing"
	"github.com/paulmach/orb"
	"golang.org/x/exp/slog"
)

//**********************************************************
// http server
//**********************************************************

type Server struct {
	config  Config
	store   *graph.GraphStore
	updater *aqi.GraphUpdater
	finder  *routing.PathFinder
}

func NewServer(config Config, store *graph.GraphStore, updater *aqi.GraphUpdater) *Server {
	tunables := paths.Tunables{
		OverlayLengthWindow: config.Paths.OverlayLengthWindow,
		OverlayBuffer:       config.Paths.OverlayBuffer,
		NoiseVersion:        config.Graph.NoiseCostVersion,
	}
	return &Server{
		config:  config,
		store:   store,
		updater: updater,
		finder:  routing.NewPathFinder(store, tunables),
	}
}

func (self *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	cors_config := cors.DefaultConfig()
	if len(self.config.Server.AllowedOrigins) == 0 {
		cors_config.AllowAllOrigins = true
	} else {
		cors_config.AllowOrigins = self.config.Server.AllowedOrigins
	}
	router.Use(cors.New(cors_config))

	router.GET("/", self.handleStatus)
	router.GET("/paths/:travel/:routing/:orig/:dest", self.handlePaths)
	router.GET("/aqistatus", self.handleAqiStatus)
	router.GET("/aqi-map-data", self.handleAqiMapData)
	return router
}

func (self *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"nodes":  self.store.NodeCount(),
		"edges":  self.store.EdgeCount(),
	})
}

func (self *Server) handlePaths(c *gin.Context) {
	mode, err := cost.TravelModeFromString(c.Param("travel"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	objective, err := cost.RoutingObjectiveFromString(c.Param("routing"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	origin, err := _ParseLatLon(c.Param("orig"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid origin: " + err.Error()})
		return
	}
	dest, err := _ParseLatLon(c.Param("dest"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid destination: " + err.Error()})
		return
	}

	// clean-air routing needs at least one applied AQI update
	if objective == cost.CLEAN && !self.updater.Ready() {
		kind := routing.NO_AQI_DATA
		c.JSON(kind.Status(), gin.H{"error_key": kind.Key()})
		return
	}

	set, err := self.finder.FindPathSet(mode, objective, origin, dest)
	if err != nil {
		var routing_err *routing.RoutingError
		if errors.As(err, &routing_err) {
			c.JSON(routing_err.Kind.Status(), gin.H{"error_key": routing_err.Kind.Key()})
			return
		}
		slog.Error("routing request failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	response := gin.H{"path_FC": set.ToFeatureCollection()}
	if c.Query("edges") == "true" || self.config.Server.ResearchMode {
		response["edge_FC"] = set.ToEdgeFeatureCollection()
	}
	c.JSON(http.StatusOK, response)
}

func (self *Server) handleAqiStatus(c *gin.Context) {
	c.JSON(http.StatusOK, self.updater.Status())
}

func (self *Server) handleAqiMapData(c *gin.Context) {
	data := self.updater.MapData()
	if data == nil {
		kind := routing.NO_AQI_DATA
		c.JSON(kind.Status(), gin.H{"error_key": kind.Key()})
		return
	}
	c.Data(http.StatusOK, "application/json", data)
}

// Coordinates arrive as "lat,lon" path segments; points are handled as
// (lon, lat) internally.
func _ParseLatLon(value string) (orb.Point, error) {
	parts := strings.Split(value, ",")
	if len(parts) != 2 {
		return orb.Point{}, errors.New("expected lat,lon")
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return orb.Point{}, err
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return orb.Point{}, err
	}
	return orb.Point{lon, lat}, nil
}
