package mqtt

import (
	"testing"

	"github.com/stefanseeger/ecotracker-ir/internal/core/events"

	"github.com/stretchr/testify/assert"
)

func TestHADiscoverySensorMessage(t *testing.T) {

	assert := assert.New(t)

	client := testClient()

	device := events.TrackerDevice("192.168.1.50")
	sensors := events.TrackerSensors(device)

	power := sensors[0]
	msg := GenericSensorToHADiscoveryMessage(client, power)

	assert.Equal("ecotracker/sensor/power/state", msg.StateTopic, "state topic")
	assert.Equal("ecotracker/bridge/state", msg.AvTopic, "availability topic")
	assert.Equal(events.STATE_CLASS_MEASUREMENT, msg.StateClass, "state class")
	assert.Equal(events.DEVICE_CLASS_POWER, msg.DeviceClass, "device class")
	assert.Equal("W", msg.UnitOfMeasurement, "unit")
	assert.Equal("mqtt", msg.Platform, "platform")
	assert.Equal([]string{device.Id}, msg.Device.Id, "device identifiers")

	topic := HADiscoverySensorTopic(client, power)
	assert.Equal("homeassistant/sensor/"+device.Id+"/power/config", topic, "discovery topic")
}

func TestHADiscoveryEnergySensorMessage(t *testing.T) {

	assert := assert.New(t)

	client := testClient()

	device := events.TrackerDevice("192.168.1.50")
	sensors := events.TrackerSensors(device)

	var energyIn *HADiscoveryConfig
	for i := range sensors {
		if sensors[i].Id == events.SENSOR_ID_ENERGY_IN {
			msg := GenericSensorToHADiscoveryMessage(client, sensors[i])
			energyIn = &msg
		}
	}
	if energyIn == nil {
		t.Fatal("energy_in sensor not found")
	}

	assert.Equal(events.STATE_CLASS_TOTAL_INCREASING, energyIn.StateClass, "state class")
	assert.Equal(events.DEVICE_CLASS_ENERGY, energyIn.DeviceClass, "device class")
	assert.Equal("Wh", energyIn.UnitOfMeasurement, "unit")
}

func TestHADiscoveryBridgeSensorMessage(t *testing.T) {

	assert := assert.New(t)

	client := testClient()

	device := events.BridgeDevice("ecotracker")
	sensors := events.BridgeSensors(device)

	msg := GenericSensorToHADiscoveryMessage(client, sensors[0])

	assert.Equal("ecotracker/bridge/state", msg.StateTopic, "state topic")
	assert.Equal(MQTT_PAYLOAD_ONLINE, msg.PayloadOn, "payload on")
	assert.Equal(MQTT_PAYLOAD_OFFLINE, msg.PayloadOff, "payload off")
}

func TestHADiscoveryBinarySensorMessage(t *testing.T) {

	assert := assert.New(t)

	client := testClient()

	device := events.TrackerDevice("192.168.1.50")
	sensors := events.TrackerSensors(device)

	online := sensors[len(sensors)-1]
	assert.Equal(events.SENSOR_ID_DEVICE_ONLINE, online.Id, "online sensor id")

	msg := GenericSensorToHADiscoveryMessage(client, online)

	assert.Equal("ecotracker/binary_sensor/device_online/state", msg.StateTopic, "state topic")
	assert.Equal(MQTT_PAYLOAD_ON, msg.PayloadOn, "payload on")
	assert.Equal(MQTT_PAYLOAD_OFF, msg.PayloadOff, "payload off")
	assert.Equal(events.ENTITY_CLASS_DIAGNOSTIC, msg.EntityCategory, "entity category")
}
