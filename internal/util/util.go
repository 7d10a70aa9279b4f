package util

import (
	"github.com/stefanseeger/ecotracker-ir/internal/config"

	"go.uber.org/zap"
)

func LoadTestConfig() config.Config {
	return config.Config{
		LogLevel: zap.DebugLevel,
		Device: config.DeviceConfig{
			Host:                "-.-.-.-",
			Endpoint:            "v1",
			PollIntervalSeconds: 5,
		},
		MQTT: config.MQTTConfig{
			Host:      "localhost",
			Port:      1883,
			BaseTopic: "ecotracker",
		},
		Port: 8080,
	}
}
