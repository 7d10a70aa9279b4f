package mqtt

import (
	"testing"

	"github.com/stefanseeger/ecotracker-ir/internal/util"

	"github.com/stretchr/testify/assert"
)

func testClient() *MQTTClient {
	cfg := util.LoadTestConfig()
	cfg.MQTT.HADiscoveryTopic = "homeassistant"
	return CreateMQTTClient(&cfg, OptsFromConfig(&cfg), nil, nil)
}

func TestTopics(t *testing.T) {

	assert := assert.New(t)

	client := testClient()

	assert.Equal("ecotracker/bridge/state", client.BridgeStateTopic(), "bridge state topic")
	assert.Equal("ecotracker/sensor/power/state", client.SensorStateTopic("power"), "sensor state topic")
	assert.Equal("ecotracker/binary_sensor/device_online/state", client.BinarySensorStateTopic("device_online"), "binary sensor state topic")
	assert.Equal("homeassistant", client.DiscoveryTopic(), "discovery topic")
}

func TestLWTOpts(t *testing.T) {

	assert := assert.New(t)

	cfg := util.LoadTestConfig()
	opts := OptsFromConfig(&cfg)

	assert.True(opts.WillEnabled, "LWT enabled")
	assert.Equal("ecotracker/bridge/state", opts.WillTopic, "LWT topic")
	assert.Equal(MQTT_PAYLOAD_OFFLINE, string(opts.WillPayload), "LWT payload")
	assert.True(opts.WillRetained, "LWT retained")
}
