package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	adactor "github.com/stefanseeger/ecotracker-ir/internal/adapter/actor"
	"github.com/stefanseeger/ecotracker-ir/internal/config"
	"github.com/stefanseeger/ecotracker-ir/internal/core/actor"
	"github.com/stefanseeger/ecotracker-ir/internal/server"
	"github.com/stefanseeger/ecotracker-ir/internal/util/actorutil"
	"github.com/stefanseeger/ecotracker-ir/pkg/ecotracker"

	pactor "github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *http.Server, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	log.Println("shutting down gracefully, press Ctrl+C again to force")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown with error: %v", err)
	}

	log.Println("Server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

func main() {

	// load and print config
	cfg, err := initConfig()
	if err != nil {
		slog.Error("config errors", "error", err)
		os.Exit(1)
	}
	safePrintConfig(*cfg)

	// zap logger
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)

	logger := zap.Must(zapCfg.Build())

	// init device reader and check the device actually answers before
	// wiring everything else
	reader, err := deviceReader(cfg, logger)
	if err != nil {
		slog.Error("device config error", "error", err)
		os.Exit(1)
	}
	if err := probeDevice(reader); err != nil {
		slog.Error("device probe failed", "error", err)
		os.Exit(1)
	}

	// init actor system
	as := actorutil.NewActorSystemWithZapLogger(logger)
	ctx := as.Root

	defer logger.Sync()

	props := pactor.PropsFromProducer(func() pactor.Actor {
		return actor.NewMasterOfPuppetsActor(*cfg, deviceActorProvider(reader, logger), mqttActorProvider(cfg, logger), logger)
	})
	pid, err := ctx.SpawnNamed(props, "master")
	if err != nil {
		return
	}

	server := server.NewServer(*cfg, ctx, pid)
	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(server, done)

	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		panic(fmt.Sprintf("http server error: %s", err))
	}

	// Wait for the graceful shutdown to complete
	<-done
	log.Println("Graceful shutdown complete.")

	ctx.Stop(pid)
	as.Shutdown()
}

func initConfig() (*config.Config, error) {

	// alias PORT => ECOTRACKER_PORT
	if port := os.Getenv("PORT"); port != "" {
		os.Setenv("ECOTRACKER_PORT", port)
	}

	setConfigDefaults()

	viper.SetEnvPrefix("ecotracker")
	viper.AutomaticEnv()

	// if defined, try to load config from yaml file
	if cfgFile := os.Getenv("CONFIG_FILE"); cfgFile != "" {
		if _, err := os.Stat(cfgFile); err == nil {
			slog.Info("Using config", "file", cfgFile)
			viper.SetConfigFile(cfgFile)

			err = viper.ReadInConfig()
			if err != nil {
				slog.Error("Error reading config file", "error", err)
			}
		}
	}

	var cfg config.Config

	err := viper.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	// parse log level
	switch viper.GetString("log_level") {
	case "trace":
		cfg.LogLevel = zap.DebugLevel
	case "debug":
		cfg.LogLevel = zap.DebugLevel
	case "info":
		cfg.LogLevel = zap.InfoLevel
	case "error":
		cfg.LogLevel = zap.ErrorLevel
	case "warn":
		cfg.LogLevel = zap.WarnLevel
	case "fatal":
		cfg.LogLevel = zap.FatalLevel
	default:
		cfg.LogLevel = zap.InfoLevel
	}

	// check and fix base topic
	baseTopic, err := config.CheckMQTTTopic(cfg.MQTT.BaseTopic)
	if err != nil {
		return nil, errors.New("invalid base topic. can only contain letters, numbers and underscores")
	}
	cfg.MQTT.BaseTopic = baseTopic

	// check and fix homeassistant discovery topic
	hadBaseTopic, err := config.CheckMQTTTopic(cfg.MQTT.HADiscoveryTopic)
	if err != nil {
		return nil, errors.New("invalid homeassistant discovery topic. can only contain letters, numbers and underscores")
	}
	cfg.MQTT.HADiscoveryTopic = hadBaseTopic

	// check bounds
	if cfg.Device.Host == "" {
		return nil, errors.New("config param device.host is required")
	}
	if _, err := ecotracker.ParseEndpointVariant(cfg.Device.Endpoint); err != nil {
		return nil, err
	}
	if cfg.Device.PollIntervalSeconds < 1 || cfg.Device.PollIntervalSeconds > 3600 {
		return nil, errors.New("config param device.poll_interval_seconds should be between 1 and 3600")
	}

	return &cfg, nil
}

func deviceReader(cfg *config.Config, logger *zap.Logger) (ecotracker.DeviceReader, error) {
	variant, err := ecotracker.ParseEndpointVariant(cfg.Device.Endpoint)
	if err != nil {
		return nil, err
	}
	return ecotracker.CreateHTTPDeviceReader(cfg.Device.Host, variant, 10*time.Second, logger)
}

// probeDevice does one blocking fetch to distinguish an unreachable host
// from a host that answers with something that is not an ecoTracker.
func probeDevice(reader ecotracker.DeviceReader) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	err := reader.Probe(ctx)
	switch {
	case err == nil:
		slog.Info("device probe ok", "url", reader.URL())
		return nil
	case errors.Is(err, ecotracker.ErrInvalidData):
		return fmt.Errorf("device at %s does not look like an ecoTracker: %w", reader.URL(), err)
	default:
		return fmt.Errorf("cannot connect to device at %s: %w", reader.URL(), err)
	}
}

func deviceActorProvider(reader ecotracker.DeviceReader, logger *zap.Logger) actor.DeviceActorProvider {
	return func() *adactor.DeviceActor {
		return adactor.NewDeviceActor(reader, logger)
	}
}

func mqttActorProvider(cfg *config.Config, logger *zap.Logger) actor.MQTTActorProvider {
	return func(es *eventstream.EventStream) *adactor.MQTTActor {
		return adactor.NewMQTTActor(cfg, es, logger)
	}
}

func setConfigDefaults() {
	viper.SetDefault("log_level", "warn")
	viper.SetDefault("mqtt.ha_discovery_enable", false)
	viper.SetDefault("mqtt.base_topic", "ecotracker")
	viper.SetDefault("mqtt.ha_discovery_topic", "homeassistant")
	viper.SetDefault("device.endpoint", "v1")
	viper.SetDefault("device.poll_interval_seconds", 5)
	viper.SetDefault("port", 8080)
}

func safePrintConfig(cfg config.Config) {
	cfg.MQTT.Username = "*redacted*"
	cfg.MQTT.Password = "*redacted*"
	slog.Info("Using", "config", cfg)
}
