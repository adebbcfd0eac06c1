package main

import (
	"os"
	"strconv"
	"time"

	"github.com/greenpaths/gp-routing/cost"
	. "github.com/greenpaths/gp-routing/util"
	"golang.org/x/exp/slog"
	"gopkg.in/yaml.v3"
)

//**********************************************************
// config
//**********************************************************

type Config struct {
	Server struct {
		Port           int      `yaml:"port"`
		AllowedOrigins []string `yaml:"allowed-origins"`
		// serve edge-level exposure detail on every response
		ResearchMode bool `yaml:"research-mode"`
	} `yaml:"server"`

	Graph struct {
		File             string                `yaml:"file"`
		NoiseCostVersion cost.NoiseCostVersion `yaml:"noise-cost-version"`
		// m/s, used for the bike/walk time ratio in safety costs
		WalkSpeed float64 `yaml:"walk-speed"`
		BikeSpeed float64 `yaml:"bike-speed"`
	} `yaml:"graph"`

	Sensitivities cost.Sensitivities `yaml:"sensitivities"`

	Aqi struct {
		Dir            string `yaml:"dir"`
		IntervalSec    int    `yaml:"interval"`
		BackoffSecs    []int  `yaml:"backoffs"`
		MinCoveragePct int    `yaml:"min-coverage"`
		DisableUpdater bool   `yaml:"disable-updater"`
	} `yaml:"aqi"`

	Paths struct {
		OverlayLengthWindow float64 `yaml:"overlay-length-window"`
		OverlayBuffer       float64 `yaml:"overlay-buffer"`
	} `yaml:"paths"`
}

func ReadConfig(file string) Config {
	slog.Info("Reading config file")
	data, err := os.ReadFile(file)
	if err != nil {
		slog.Error("failed to read config file: " + err.Error())
		panic(err)
	}
	var config Config
	yaml.Unmarshal(data, &config)
	config.applyEnv()
	config.applyDefaults()
	return config
}

// Deploy-time overrides, loaded from the environment (a .env file is
// read at startup when present).
func (self *Config) applyEnv() {
	if port := os.Getenv("GP_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			self.Server.Port = p
		}
	}
	if file := os.Getenv("GP_GRAPH_FILE"); file != "" {
		self.Graph.File = file
	}
	if dir := os.Getenv("GP_AQI_DIR"); dir != "" {
		self.Aqi.Dir = dir
	}
	if research := os.Getenv("GP_RESEARCH_MODE"); research != "" {
		self.Server.ResearchMode = research == "1" || research == "true"
	}
}

func (self *Config) applyDefaults() {
	if self.Server.Port == 0 {
		self.Server.Port = 5000
	}
	if self.Graph.File == "" {
		self.Graph.File = "./graphs/graph.graphml"
	}
	if self.Graph.NoiseCostVersion == 0 {
		self.Graph.NoiseCostVersion = cost.NoiseCostV3
	}
	if self.Graph.WalkSpeed == 0 {
		self.Graph.WalkSpeed = 1.33
	}
	if self.Graph.BikeSpeed == 0 {
		self.Graph.BikeSpeed = 5.55
	}
	if self.Sensitivities.Quiet.Length() == 0 {
		self.Sensitivities.Quiet = List[float64]{0.1, 0.4, 1.3, 3.5, 6}
	}
	if self.Sensitivities.Clean.Length() == 0 {
		self.Sensitivities.Clean = List[float64]{5, 10, 20, 35}
	}
	if self.Sensitivities.Green.Length() == 0 {
		self.Sensitivities.Green = List[float64]{2, 4, 8}
	}
	if self.Aqi.Dir == "" {
		self.Aqi.Dir = "./aqi_updates"
	}
	if self.Aqi.IntervalSec == 0 {
		self.Aqi.IntervalSec = 5
	}
	if len(self.Aqi.BackoffSecs) == 0 {
		self.Aqi.BackoffSecs = []int{10, 20}
	}
	if self.Aqi.MinCoveragePct == 0 {
		self.Aqi.MinCoveragePct = 70
	}
	if self.Paths.OverlayLengthWindow == 0 {
		self.Paths.OverlayLengthWindow = 25
	}
	if self.Paths.OverlayBuffer == 0 {
		self.Paths.OverlayBuffer = 50
	}
}

func (self *Config) updaterBackoffs() []time.Duration {
	backoffs := make([]time.Duration, len(self.Aqi.BackoffSecs))
	for i, sec := range self.Aqi.BackoffSecs {
		backoffs[i] = time.Duration(sec) * time.Second
	}
	return backoffs
}
