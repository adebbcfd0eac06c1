package aqi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/greenpaths/gp-routing/cost"
	"github.com/greenpaths/gp-routing/graph"
	. "github.com/greenpaths/gp-routing/util"
	"golang.org/x/exp/slog"
)

//**********************************************************
// aqi graph updater
//**********************************************************

type UpdaterConfig struct {
	// directory the external producer drops hourly update files into
	Dir string

	// base tick interval plus a random jitter drawn from
	// [JitterMin, JitterMax], spreading ticks across service instances
	Interval  time.Duration
	JitterMin time.Duration
	JitterMax time.Duration

	// waits between retry attempts within one tick
	Backoffs []time.Duration

	// minimum fraction of edges an update must cover to be published
	MinCoverage float64
}

func DefaultUpdaterConfig(dir string) UpdaterConfig {
	return UpdaterConfig{
		Dir:         dir,
		Interval:    5 * time.Second,
		JitterMin:   1 * time.Second,
		JitterMax:   15 * time.Second,
		Backoffs:    []time.Duration{10 * time.Second, 20 * time.Second},
		MinCoverage: 0.7,
	}
}

type UpdaterStatus struct {
	Status         string `json:"aqi_data_status"`
	WorkInProgress string `json:"aqi_data_wip"`
	LastApplied    string `json:"aqi_data_updated"`
}

// Background task refreshing the graph's air-quality cost attributes
// from hourly update files. Exactly one updater runs per process; Tick
// is also callable directly for deterministic tests.
type GraphUpdater struct {
	store  *graph.GraphStore
	config UpdaterConfig

	mu           sync.Mutex
	status       string
	wip          string
	last_applied string
	last_missing string
	map_data     []byte
}

func NewGraphUpdater(store *graph.GraphStore, config UpdaterConfig) *GraphUpdater {
	return &GraphUpdater{
		store:  store,
		config: config,
		status: "no aqi data applied yet",
	}
}

// True once at least one update has been applied; clean-air routing is
// refused until then.
func (self *GraphUpdater) Ready() bool {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.last_applied != ""
}

func (self *GraphUpdater) Status() UpdaterStatus {
	self.mu.Lock()
	defer self.mu.Unlock()
	return UpdaterStatus{
		Status:         self.status,
		WorkInProgress: self.wip,
		LastApplied:    self.last_applied,
	}
}

// Marshaled map summary from the most recent successful update, nil
// before the first one.
func (self *GraphUpdater) MapData() []byte {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.map_data
}

func (self *GraphUpdater) Start(ctx context.Context) {
	go func() {
		for {
			wait := self.config.Interval + self.jitter()
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
				self.Tick(time.Now())
			}
		}
	}()
}

func (self *GraphUpdater) jitter() time.Duration {
	span := self.config.JitterMax - self.config.JitterMin
	if span <= 0 {
		return self.config.JitterMin
	}
	return self.config.JitterMin + time.Duration(rand.Int63n(int64(span)))
}

//**********************************************************
// tick
//**********************************************************

func (self *GraphUpdater) Tick(now time.Time) {
	expected := ExpectedFilename(now)

	self.mu.Lock()
	if expected == self.last_applied {
		self.mu.Unlock()
		return
	}
	if self.wip != "" {
		// a previous tick is still mid-update
		self.mu.Unlock()
		return
	}
	if _, err := os.Stat(self.filePath(expected)); err != nil {
		// log only when the missing filename changes, not every tick
		if self.last_missing != expected {
			self.last_missing = expected
			self.status = "waiting for aqi data: " + expected
			slog.Info("aqi update file not available yet", "file", expected)
		}
		self.mu.Unlock()
		return
	}
	self.wip = expected
	self.mu.Unlock()

	var err error
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			time.Sleep(self.backoff(attempt - 1))
		}
		err = self.apply(expected)
		if err == nil {
			break
		}
		slog.Warn("aqi update attempt failed", "file", expected, "attempt", attempt+1, "error", err)
	}

	self.mu.Lock()
	defer self.mu.Unlock()
	self.wip = ""
	if err != nil {
		self.status = "aqi update failed: " + err.Error()
		slog.Error("aqi update failed, keeping previous data", "file", expected, "error", err)
		return
	}
	self.last_applied = expected
	self.status = "aqi data up to date: " + expected
	slog.Info("aqi update applied", "file", expected)
}

func (self *GraphUpdater) filePath(filename string) string {
	return self.config.Dir + string(os.PathSeparator) + filename
}

func (self *GraphUpdater) backoff(index int) time.Duration {
	if index >= len(self.config.Backoffs) {
		index = len(self.config.Backoffs) - 1
	}
	if index < 0 {
		return 0
	}
	return self.config.Backoffs[index]
}

//**********************************************************
// applying one update file
//**********************************************************

func (self *GraphUpdater) apply(filename string) error {
	rows, err := _ReadAqiFile(self.config.Dir, filename)
	if err != nil {
		return err
	}

	// only edges loaded from the graph file are updated; temporary
	// linking edges are request-scoped and derive their costs at
	// creation time
	edge_count := self.store.BaseEdgeCount()

	// coverage is validated before any edge is touched so a corrupt or
	// partial upstream feed never degrades the published graph
	covered := 0
	for id := range rows {
		if int(id) < edge_count {
			covered += 1
		}
	}
	coverage := float64(covered) / float64(edge_count)
	if coverage < self.config.MinCoverage {
		return fmt.Errorf("aqi coverage %.0f%% below required %.0f%%",
			coverage*100, self.config.MinCoverage*100)
	}

	clean_slots := self.cleanSlots()
	if len(clean_slots) == 0 {
		return errors.New("no clean-air cost slots configured")
	}

	way_classes := NewDict[int64, int](edge_count / 2)
	for id := int32(0); int(id) < edge_count; id++ {
		edge := self.store.GetEdge(id)
		value, present := rows[id]
		costs := make([]graph.SlotValue, len(clean_slots))
		if present {
			for i, slot := range clean_slots {
				base := edge.Length
				if slot.B.Mode == cost.BIKE {
					base = edge.LengthBike
				}
				costs[i] = graph.SlotValue{Slot: slot.A, Value: cost.AqiCost(base, value, slot.B.Sensitivity)}
			}
			self.store.UpdateEdgeAttributes(id, Some(value), costs)
			way_classes.Set(edge.WayID, cost.AqiClass(value))
		} else {
			for i, slot := range clean_slots {
				costs[i] = graph.SlotValue{Slot: slot.A, Value: cost.MissingAqiCost(edge.Length)}
			}
			self.store.UpdateEdgeAttributes(id, None[float64](), costs)
		}
	}

	map_data, err := _MarshalMapData(way_classes)
	if err != nil {
		return err
	}
	self.mu.Lock()
	self.map_data = map_data
	self.mu.Unlock()
	return nil
}

func (self *GraphUpdater) cleanSlots() List[Tuple[int, cost.CostKey]] {
	mapping := self.store.CostMapping()
	slots := NewList[Tuple[int, cost.CostKey]](8)
	for slot, key := range mapping.Keys() {
		if key.Objective == cost.CLEAN {
			slots.Add(MakeTuple(slot, key))
		}
	}
	return slots
}

//**********************************************************
// map summary
//**********************************************************

// Compact way-level summary for map-tile coloring, independent of the
// routing graph: {"data": [[wayId, aqiClass], ...]}.
func _MarshalMapData(way_classes Dict[int64, int]) ([]byte, error) {
	data := make([][2]int64, 0, len(way_classes))
	for way_id, class := range way_classes {
		data = append(data, [2]int64{way_id, int64(class)})
	}
	return json.Marshal(map[string]any{"data": data})
}
