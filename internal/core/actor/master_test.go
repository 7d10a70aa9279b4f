package actor

import (
	"fmt"
	"testing"
	"time"

	adactor "github.com/stefanseeger/ecotracker-ir/internal/adapter/actor"
	"github.com/stefanseeger/ecotracker-ir/internal/core/domain"
	"github.com/stefanseeger/ecotracker-ir/internal/util"
	"github.com/stefanseeger/ecotracker-ir/pkg/ecotracker"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestMasterActor(t *testing.T) {

	as := actor.NewActorSystem()
	context := as.Root

	cfg := util.LoadTestConfig()
	logCfg := zap.NewDevelopmentConfig()
	logCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)
	logger := zap.Must(logCfg.Build())

	reader := ecotracker.CreateTestDeviceReader().
		ThenSnapshot(ecotracker.TestSnapshot(map[string]float64{
			ecotracker.FieldPower:            250.5,
			ecotracker.FieldEnergyCounterIn:  123456,
			ecotracker.FieldEnergyCounterOut: 654,
		}))

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewMasterOfPuppetsActor(cfg, func() *adactor.DeviceActor {
			return adactor.NewDeviceActor(reader, logger)
		}, func(es *eventstream.EventStream) *adactor.MQTTActor {
			return adactor.NewTestMQTTActor(&cfg, es, logger)
		}, logger)
	})
	pid, err := context.SpawnNamed(props, "master")
	if err != nil {
		t.Error(err)
		return
	}

	time.Sleep(2 * time.Second)

	res, err := context.RequestFuture(pid, domain.ActorHealthRequest{}, 10*time.Second).Result()
	if err != nil {
		t.Error(err)
	}
	healthResp, ok := res.(domain.ActorHealthResponse)
	assert.True(t, ok)
	fmt.Printf("Health response: %+v\n", healthResp)
	assert.NotNil(t, healthResp)

	assert.True(t, healthResp.Healthy, "healthy is true")

	context.Stop(pid)

	as.Shutdown()
}

func TestMasterActorForwardsSnapshotRequests(t *testing.T) {

	as := actor.NewActorSystem()
	context := as.Root

	cfg := util.LoadTestConfig()
	logCfg := zap.NewDevelopmentConfig()
	logCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)
	logger := zap.Must(logCfg.Build())

	reader := ecotracker.CreateTestDeviceReader().
		ThenSnapshot(ecotracker.TestSnapshot(map[string]float64{
			ecotracker.FieldPower:            42,
			ecotracker.FieldEnergyCounterIn:  1000,
			ecotracker.FieldEnergyCounterOut: 500,
		}))

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewMasterOfPuppetsActor(cfg, func() *adactor.DeviceActor {
			return adactor.NewDeviceActor(reader, logger)
		}, func(es *eventstream.EventStream) *adactor.MQTTActor {
			return adactor.NewTestMQTTActor(&cfg, es, logger)
		}, logger)
	})
	pid, err := context.SpawnNamed(props, "master_fwd")
	if err != nil {
		t.Error(err)
		return
	}

	time.Sleep(2 * time.Second)

	res, err := context.RequestFuture(pid, domain.GetSnapshotRequest{}, 10*time.Second).Result()
	if err != nil {
		t.Error(err)
	}
	snapResp, ok := res.(domain.GetSnapshotResponse)
	assert.True(t, ok)
	assert.True(t, snapResp.LastPollOK)
	assert.NotNil(t, snapResp.Snapshot)
	power, _ := snapResp.Snapshot.Get(ecotracker.FieldPower)
	assert.Equal(t, float64(42), power)

	context.Stop(pid)

	as.Shutdown()
}
