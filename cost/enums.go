package cost

import (
	"encoding/json"
	"errors"

	"gopkg.in/yaml.v3"
)

//**********************************************************
// enums
//**********************************************************

type TravelMode byte

const (
	WALK TravelMode = 0
	BIKE TravelMode = 1
)

func (self TravelMode) String() string {
	switch self {
	case WALK:
		return "walk"
	case BIKE:
		return "bike"
	default:
		panic("unknown travel mode")
	}
}
func (self TravelMode) MarshalJSON() ([]byte, error) {
	return json.Marshal(self.String())
}
func (self *TravelMode) UnmarshalJSON(data []byte) error {
	var typ string
	if err := json.Unmarshal(data, &typ); err != nil {
		return err
	}
	mode, err := TravelModeFromString(typ)
	*self = mode
	return err
}
func (self TravelMode) MarshalYAML() (any, error) {
	return self.String(), nil
}
func (self *TravelMode) UnmarshalYAML(value *yaml.Node) error {
	mode, err := TravelModeFromString(value.Value)
	if err != nil {
		return err
	}
	*self = mode
	return nil
}

func TravelModeFromString(s string) (TravelMode, error) {
	switch s {
	case "walk":
		return WALK, nil
	case "bike":
		return BIKE, nil
	default:
		return WALK, errors.New("unknown travel mode")
	}
}

type RoutingObjective byte

const (
	FAST  RoutingObjective = 0
	SAFE  RoutingObjective = 1
	QUIET RoutingObjective = 2
	CLEAN RoutingObjective = 3
	GREEN RoutingObjective = 4
)

func (self RoutingObjective) String() string {
	switch self {
	case FAST:
		return "fast"
	case SAFE:
		return "safe"
	case QUIET:
		return "quiet"
	case CLEAN:
		return "clean"
	case GREEN:
		return "green"
	default:
		panic("unknown routing objective")
	}
}
func (self RoutingObjective) MarshalJSON() ([]byte, error) {
	return json.Marshal(self.String())
}
func (self *RoutingObjective) UnmarshalJSON(data []byte) error {
	var typ string
	if err := json.Unmarshal(data, &typ); err != nil {
		return err
	}
	obj, err := RoutingObjectiveFromString(typ)
	*self = obj
	return err
}
func (self RoutingObjective) MarshalYAML() (any, error) {
	return self.String(), nil
}
func (self *RoutingObjective) UnmarshalYAML(value *yaml.Node) error {
	obj, err := RoutingObjectiveFromString(value.Value)
	if err != nil {
		return err
	}
	*self = obj
	return nil
}

func RoutingObjectiveFromString(s string) (RoutingObjective, error) {
	switch s {
	case "fast":
		return FAST, nil
	case "safe":
		return SAFE, nil
	case "quiet":
		return QUIET, nil
	case "clean":
		return CLEAN, nil
	case "green":
		return GREEN, nil
	default:
		return FAST, errors.New("unknown routing objective")
	}
}

// True for objectives whose least-cost paths are computed once per
// configured sensitivity coefficient.
func (self RoutingObjective) IsExposureObjective() bool {
	return self == QUIET || self == CLEAN || self == GREEN
}
