package cost

import (
	"strconv"

	. "github.com/greenpaths/gp-routing/util"
)

//**********************************************************
// cost keys and slot mapping
//**********************************************************

// A single edge weight: one travel mode, one optimization objective and
// (for exposure objectives) one sensitivity coefficient.
type CostKey struct {
	Mode        TravelMode
	Objective   RoutingObjective
	Sensitivity float64
}

// Canonical attribute name, used in responses and logs only; lookups go
// through slot indices.
func (self CostKey) Name() string {
	name := self.Mode.String() + "_" + self.Objective.String()
	if self.Objective.IsExposureObjective() {
		name += "_" + strconv.FormatFloat(self.Sensitivity, 'f', -1, 64)
	}
	return name
}

// Maps every configured (mode, objective, sensitivity) combination to a
// dense slot in the per-edge cost table. Built once at startup; immutable
// afterwards.
type CostMapping struct {
	keys  Array[CostKey]
	slots Dict[CostKey, int]
}

type Sensitivities struct {
	Quiet List[float64] `yaml:"quiet"`
	Clean List[float64] `yaml:"clean"`
	Green List[float64] `yaml:"green"`
}

func (self *Sensitivities) ForObjective(objective RoutingObjective) List[float64] {
	switch objective {
	case QUIET:
		return self.Quiet
	case CLEAN:
		return self.Clean
	case GREEN:
		return self.Green
	default:
		return nil
	}
}

func NewCostMapping(modes List[TravelMode], sens Sensitivities) *CostMapping {
	keys := NewList[CostKey](32)
	for _, mode := range modes {
		keys.Add(CostKey{Mode: mode, Objective: FAST})
		if mode == BIKE {
			keys.Add(CostKey{Mode: mode, Objective: SAFE})
		}
		for _, objective := range []RoutingObjective{QUIET, CLEAN, GREEN} {
			for _, s := range sens.ForObjective(objective) {
				keys.Add(CostKey{Mode: mode, Objective: objective, Sensitivity: s})
			}
		}
	}
	slots := NewDict[CostKey, int](keys.Length())
	for i, key := range keys {
		slots[key] = i
	}
	return &CostMapping{
		keys:  Array[CostKey](keys),
		slots: slots,
	}
}

func (self *CostMapping) SlotCount() int {
	return self.keys.Length()
}
func (self *CostMapping) Keys() Array[CostKey] {
	return self.keys
}
func (self *CostMapping) GetKey(slot int) CostKey {
	return self.keys[slot]
}
func (self *CostMapping) Slot(key CostKey) (int, bool) {
	slot, ok := self.slots[key]
	return slot, ok
}

// Slots of every key matching the given mode and objective, in
// configured sensitivity order.
func (self *CostMapping) SlotsFor(mode TravelMode, objective RoutingObjective) List[Tuple[int, CostKey]] {
	matched := NewList[Tuple[int, CostKey]](4)
	for i, key := range self.keys {
		if key.Mode == mode && key.Objective == objective {
			matched.Add(MakeTuple(i, key))
		}
	}
	return matched
}
