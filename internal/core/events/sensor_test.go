package events

import (
	"testing"

	"github.com/stefanseeger/ecotracker-ir/internal/core/domain"
	"github.com/stefanseeger/ecotracker-ir/pkg/ecotracker"

	"github.com/stretchr/testify/assert"
)

func TestSnapshotUpdateEventsFullSnapshot(t *testing.T) {

	assert := assert.New(t)

	snapshot := ecotracker.TestSnapshot(map[string]float64{
		ecotracker.FieldPower:            250.5,
		ecotracker.FieldPowerPhase1:      83.5,
		ecotracker.FieldPowerPhase2:      83.5,
		ecotracker.FieldPowerPhase3:      83.5,
		ecotracker.FieldPowerAvg:         248.1,
		ecotracker.FieldEnergyCounterIn:  123456,
		ecotracker.FieldEnergyCounterOut: 654,
	})

	evs := SnapshotUpdateEvents(snapshot)
	assert.Len(evs, 7, "one event per sensor")

	first, ok := evs[0].(domain.FloatSensorUpdateEvent)
	assert.True(ok, "float event")
	assert.Equal(SENSOR_ID_POWER, first.SensorId(), "power first")
	assert.Equal(250.5, first.Value, "power value")
	assert.Equal(uint(1), first.Decimals, "power decimals")
}

func TestSnapshotUpdateEventsSkipsAbsentFields(t *testing.T) {

	assert := assert.New(t)

	snapshot := ecotracker.TestSnapshot(map[string]float64{
		ecotracker.FieldPower:            42,
		ecotracker.FieldEnergyCounterIn:  1000,
		ecotracker.FieldEnergyCounterOut: 500,
	})

	evs := SnapshotUpdateEvents(snapshot)
	assert.Len(evs, 3, "absent fields produce no events")

	for _, ev := range evs {
		fev, ok := ev.(domain.FloatSensorUpdateEvent)
		assert.True(ok, "float event")
		assert.NotEqual(SENSOR_ID_POWER_PHASE_1, fev.SensorId(), "no phase events")
	}
}

func TestTrackerSensorsFields(t *testing.T) {

	assert := assert.New(t)

	device := TrackerDevice("192.168.1.50")
	sensors := TrackerSensors(device)

	// seven measurements plus the reachability binary sensor
	assert.Len(sensors, 8, "sensor count")

	fields := map[string]string{}
	for _, s := range sensors {
		if s.Field != "" {
			fields[s.Id] = s.Field
		}
	}
	assert.Equal(ecotracker.FieldPower, fields[SENSOR_ID_POWER], "power field")
	assert.Equal(ecotracker.FieldEnergyCounterIn, fields[SENSOR_ID_ENERGY_IN], "energy in field")
	assert.Equal(ecotracker.FieldEnergyCounterOut, fields[SENSOR_ID_ENERGY_OUT], "energy out field")

	online := sensors[len(sensors)-1]
	assert.Equal(SENSOR_ID_DEVICE_ONLINE, online.Id, "online sensor last")
	assert.Equal(SENSOR_TYPE_BINARY, online.SensorType, "online sensor type")
	assert.Empty(online.Field, "online sensor reads no field")
}

func TestDeviceOnlineUpdateEvent(t *testing.T) {

	assert := assert.New(t)

	ev := DeviceOnlineUpdateEvent(true)
	assert.Equal(SENSOR_ID_DEVICE_ONLINE, ev.SensorId(), "sensor id")
	assert.True(ev.Value, "value")
}
