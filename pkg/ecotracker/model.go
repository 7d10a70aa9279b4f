package ecotracker

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// JSON fields reported by the ecoTracker energy monitor.
const (
	FieldPower            = "power"
	FieldPowerPhase1      = "powerPhase1"
	FieldPowerPhase2      = "powerPhase2"
	FieldPowerPhase3      = "powerPhase3"
	FieldPowerAvg         = "powerAvg"
	FieldEnergyCounterIn  = "energyCounterIn"
	FieldEnergyCounterOut = "energyCounterOut"
)

var (
	// ErrCannotConnect covers transport errors, non-200 statuses and
	// malformed payloads. Retried on the next poll.
	ErrCannotConnect = errors.New("cannot connect")
	// ErrInvalidData means the device answered with parseable JSON that
	// is missing required fields (wrong device or firmware).
	ErrInvalidData = errors.New("invalid data")
)

// EndpointVariant selects the device firmware endpoint and the field set
// it is required to report.
type EndpointVariant string

const (
	// VariantV1 is the /v1/json endpoint with per-phase and average power.
	VariantV1 EndpointVariant = "v1"
	// VariantRoot is the root endpoint of older firmwares. Only the
	// three base fields are guaranteed.
	VariantRoot EndpointVariant = "root"
)

func (v EndpointVariant) Path() string {
	if v == VariantV1 {
		return "/v1/json"
	}
	return "/"
}

func (v EndpointVariant) RequiredFields() []string {
	if v == VariantV1 {
		return []string{
			FieldPower,
			FieldPowerPhase1,
			FieldPowerPhase2,
			FieldPowerPhase3,
			FieldPowerAvg,
			FieldEnergyCounterIn,
			FieldEnergyCounterOut,
		}
	}
	return []string{
		FieldPower,
		FieldEnergyCounterIn,
		FieldEnergyCounterOut,
	}
}

func ParseEndpointVariant(s string) (EndpointVariant, error) {
	switch s {
	case string(VariantV1), "":
		return VariantV1, nil
	case string(VariantRoot):
		return VariantRoot, nil
	}
	return "", fmt.Errorf("unknown endpoint variant %q", s)
}

// Snapshot is the immutable set of measurements from one successful poll.
// It is only ever built whole: construction fails unless every required
// field is present, so consumers never observe a partial snapshot.
type Snapshot struct {
	values    map[string]float64
	fetchedAt time.Time
}

// SnapshotFromJSON validates raw against the required field set and builds
// a Snapshot carrying every numeric field of the payload, required or not.
func SnapshotFromJSON(raw []byte, required []string) (*Snapshot, error) {
	var decoded map[string]json.Number
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("%w: malformed payload: %s", ErrCannotConnect, err)
	}
	values := make(map[string]float64, len(decoded))
	for field, num := range decoded {
		value, err := num.Float64()
		if err != nil {
			return nil, fmt.Errorf("%w: field %s is not numeric", ErrInvalidData, field)
		}
		values[field] = value
	}
	for _, field := range required {
		if _, ok := values[field]; !ok {
			return nil, fmt.Errorf("%w: missing required field %s", ErrInvalidData, field)
		}
	}
	return &Snapshot{
		values:    values,
		fetchedAt: time.Now(),
	}, nil
}

// Get returns the value of a field, or false if the device did not report it.
func (s *Snapshot) Get(field string) (float64, bool) {
	if s == nil {
		return 0, false
	}
	value, ok := s.values[field]
	return value, ok
}

func (s *Snapshot) Has(field string) bool {
	_, ok := s.Get(field)
	return ok
}

func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.values)
}

// Values returns a copy of the measurement map.
func (s *Snapshot) Values() map[string]float64 {
	if s == nil {
		return nil
	}
	values := make(map[string]float64, len(s.values))
	for field, value := range s.values {
		values[field] = value
	}
	return values
}

func (s *Snapshot) FetchedAt() time.Time {
	if s == nil {
		return time.Time{}
	}
	return s.fetchedAt
}
