package events

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"

	"github.com/stefanseeger/ecotracker-ir/internal/core/domain"
	"github.com/stefanseeger/ecotracker-ir/pkg/ecotracker"

	"github.com/carlmjohnson/versioninfo"
)

const (
	SENSOR_ID_BRIDGE_STATE  = "bridge"
	SENSOR_ID_DEVICE_ONLINE = "device_online"
	SENSOR_ID_POWER         = "power"
	SENSOR_ID_POWER_PHASE_1 = "power_phase1"
	SENSOR_ID_POWER_PHASE_2 = "power_phase2"
	SENSOR_ID_POWER_PHASE_3 = "power_phase3"
	SENSOR_ID_POWER_AVG     = "power_avg"
	SENSOR_ID_ENERGY_IN     = "energy_in"
	SENSOR_ID_ENERGY_OUT    = "energy_out"

	STATE_CLASS_MEASUREMENT      = "measurement"
	STATE_CLASS_TOTAL_INCREASING = "total_increasing"
	DEVICE_CLASS_POWER           = "power"
	DEVICE_CLASS_ENERGY          = "energy"
	DEVICE_CLASS_CONNECTIVITY    = "connectivity"
	ENTITY_CLASS_DIAGNOSTIC      = "diagnostic"
	SENSOR_TYPE_SENSOR           = "sensor"
	SENSOR_TYPE_BINARY           = "binary_sensor"
)

// sensorDef binds a published sensor to the snapshot field it reads.
type sensorDef struct {
	id       string
	field    string
	name     string
	decimals uint
}

// One entry per measurement exposed to the host platform. Order is the
// display order used for discovery.
var measurementDefs = []sensorDef{
	{id: SENSOR_ID_POWER, field: ecotracker.FieldPower, name: "Power", decimals: 1},
	{id: SENSOR_ID_POWER_PHASE_1, field: ecotracker.FieldPowerPhase1, name: "Power phase 1", decimals: 1},
	{id: SENSOR_ID_POWER_PHASE_2, field: ecotracker.FieldPowerPhase2, name: "Power phase 2", decimals: 1},
	{id: SENSOR_ID_POWER_PHASE_3, field: ecotracker.FieldPowerPhase3, name: "Power phase 3", decimals: 1},
	{id: SENSOR_ID_POWER_AVG, field: ecotracker.FieldPowerAvg, name: "Power average", decimals: 1},
	{id: SENSOR_ID_ENERGY_IN, field: ecotracker.FieldEnergyCounterIn, name: "Energy imported", decimals: 0},
	{id: SENSOR_ID_ENERGY_OUT, field: ecotracker.FieldEnergyCounterOut, name: "Energy exported", decimals: 0},
}

func BridgeDevice(baseTopic string) domain.Device {
	return domain.Device{
		Id:           fmt.Sprintf("ecotracker_bridge_%s", md5HashShort(baseTopic)),
		Manufacturer: "everHome",
		Model:        "ecoTracker Bridge",
		Version:      versioninfo.Short(),
		Name:         fmt.Sprintf("ecoTracker Bridge %s", md5HashShort(baseTopic)),
	}
}

func TrackerDevice(host string) domain.Device {
	return domain.Device{
		Id:           fmt.Sprintf("ecotracker_%s", md5HashShort(host)),
		Manufacturer: "everHome",
		Model:        "ecoTracker",
		Name:         fmt.Sprintf("ecoTracker %s", md5HashShort(host)),
	}
}

func IdDevice(device domain.Device) domain.Device {
	return domain.Device{
		Id:   device.Id,
		Name: device.Name,
	}
}

// TrackerSensors returns the seven measurement sensors of an ecoTracker.
// Each one reads exactly one snapshot field; phase and average power are
// optional on older firmwares and still registered (they report "unknown"
// until the device sends them).
func TrackerSensors(trackerDevice domain.Device) []domain.GenericSensor {

	var sensors []domain.GenericSensor

	for _, def := range measurementDefs {
		sensor := domain.GenericSensor{
			Device:            trackerDevice,
			Id:                def.id,
			SensorType:        SENSOR_TYPE_SENSOR,
			Name:              def.name,
			Field:             def.field,
			StateClass:        STATE_CLASS_MEASUREMENT,
			DeviceClass:       DEVICE_CLASS_POWER,
			UnitOfMeasurement: "W",
			UniqueId:          uniqueId(trackerDevice.Id, def.id),
		}
		if def.field == ecotracker.FieldEnergyCounterIn || def.field == ecotracker.FieldEnergyCounterOut {
			sensor.StateClass = STATE_CLASS_TOTAL_INCREASING
			sensor.DeviceClass = DEVICE_CLASS_ENERGY
			sensor.UnitOfMeasurement = "Wh"
		}
		sensors = append(sensors, sensor)
	}

	// Device reachability
	sensors = append(sensors, domain.GenericSensor{
		Device:         trackerDevice,
		Id:             SENSOR_ID_DEVICE_ONLINE,
		SensorType:     SENSOR_TYPE_BINARY,
		Name:           "Device online",
		DeviceClass:    DEVICE_CLASS_CONNECTIVITY,
		EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
		UniqueId:       uniqueId(trackerDevice.Id, SENSOR_ID_DEVICE_ONLINE),
	})

	return sensors
}

func BridgeSensors(bridgeDevice domain.Device) []domain.GenericSensor {

	var sensors []domain.GenericSensor

	sensors = append(sensors, domain.GenericSensor{
		Device:         bridgeDevice,
		Id:             SENSOR_ID_BRIDGE_STATE,
		SensorType:     SENSOR_TYPE_BINARY,
		Name:           "Connection state",
		DeviceClass:    DEVICE_CLASS_CONNECTIVITY,
		EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
		UniqueId:       uniqueId(bridgeDevice.Id, SENSOR_ID_BRIDGE_STATE),
	})

	return sensors
}

// SnapshotUpdateEvents turns a snapshot into one update event per sensor
// whose field the device reported. Absent optional fields produce no event,
// so their sensors keep showing "unknown".
func SnapshotUpdateEvents(snapshot *ecotracker.Snapshot) []any {
	var events []any
	for _, def := range measurementDefs {
		value, ok := snapshot.Get(def.field)
		if !ok {
			continue
		}
		events = append(events, domain.FloatSensorUpdateEvent{
			SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{
				Id: def.id,
			},
			Value:    value,
			Decimals: def.decimals,
		})
	}
	return events
}

func DeviceOnlineUpdateEvent(online bool) domain.BinarySensorUpdateEvent {
	return domain.BinarySensorUpdateEvent{
		SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{
			Id: SENSOR_ID_DEVICE_ONLINE,
		},
		Value: online,
	}
}

func uniqueId(baseId, id string) string {
	return fmt.Sprintf("uid_%s_%s", baseId, id)
}

func md5Hash(text string) string {
	hash := md5.Sum([]byte(text))
	return hex.EncodeToString(hash[:])
}

func md5HashShort(text string) string {
	hash := md5Hash(text)
	return hash[0:8]
}
