package routing

import "net/http"

//**********************************************************
// routing errors
//**********************************************************

// Closed error taxonomy for one routing request. Every failure maps to
// a stable machine-readable key and an HTTP-equivalent status at the
// boundary; internal causes are logged, never sent to the caller.
type ErrorKind byte

const (
	ORIGIN_NOT_FOUND ErrorKind = iota
	DESTINATION_NOT_FOUND
	SAME_LOCATION
	UNSUPPORTED_PROFILE
	NO_PATH
	PATH_PROCESSING
	NO_AQI_DATA
)

func (self ErrorKind) Key() string {
	switch self {
	case ORIGIN_NOT_FOUND:
		return "origin_not_found"
	case DESTINATION_NOT_FOUND:
		return "destination_not_found"
	case SAME_LOCATION:
		return "origin_equals_destination"
	case UNSUPPORTED_PROFILE:
		return "unsupported_routing_profile"
	case NO_PATH:
		return "pathfinding_error"
	case PATH_PROCESSING:
		return "path_processing_error"
	case NO_AQI_DATA:
		return "no_real_time_aqi_available"
	default:
		return "unknown_error"
	}
}

func (self ErrorKind) Status() int {
	switch self {
	case ORIGIN_NOT_FOUND, DESTINATION_NOT_FOUND:
		return http.StatusNotFound
	case SAME_LOCATION, UNSUPPORTED_PROFILE:
		return http.StatusBadRequest
	case NO_AQI_DATA:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

type RoutingError struct {
	Kind  ErrorKind
	cause error
}

func NewRoutingError(kind ErrorKind, cause error) *RoutingError {
	return &RoutingError{Kind: kind, cause: cause}
}

func (self *RoutingError) Error() string {
	if self.cause != nil {
		return self.Kind.Key() + ": " + self.cause.Error()
	}
	return self.Kind.Key()
}

func (self *RoutingError) Unwrap() error {
	return self.cause
}
