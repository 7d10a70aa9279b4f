package actor

import (
	"fmt"
	"sync"
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

type eventCollector struct {
	mu     sync.Mutex
	events []any
}

func (c *eventCollector) collect(value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, value)
}

func (c *eventCollector) snapshot() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]any{}, c.events...)
}

func fullSnapshotValues(power float64) map[string]float64 {
	return map[string]float64{
		ecotracker.FieldPower:            power,
		ecotracker.FieldPowerPhase1:      power / 3,
		ecotracker.FieldPowerPhase2:      power / 3,
		ecotracker.FieldPowerPhase3:      power / 3,
		ecotracker.FieldPowerAvg:         power,
		ecotracker.FieldEnergyCounterIn:  123456,
		ecotracker.FieldEnergyCounterOut: 654,
	}
}

func spawnPoller(t *testing.T, context *actor.RootContext, reader *ecotracker.TestDeviceReader, pollIntervalSeconds uint32) (*actor.PID, *eventCollector) {

	cfg := util.LoadTestConfig()
	cfg.Device.PollIntervalSeconds = pollIntervalSeconds
	logCfg := zap.NewDevelopmentConfig()
	logCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)
	logger := zap.Must(logCfg.Build())

	es := &eventstream.EventStream{}
	collector := &eventCollector{}
	es.Subscribe(collector.collect)

	deviceProps := actor.PropsFromProducer(func() actor.Actor {
		return adactor.NewDeviceActor(reader, logger)
	})
	devicePID, err := context.SpawnNamed(deviceProps, fmt.Sprintf("device_%s", t.Name()))
	if err != nil {
		t.Fatal(err)
	}

	pollerProps := actor.PropsFromProducer(func() actor.Actor {
		return NewPollerActor(&cfg, devicePID, es, logger)
	})
	pollerPID, err := context.SpawnNamed(pollerProps, fmt.Sprintf("poller_%s", t.Name()))
	if err != nil {
		t.Fatal(err)
	}

	return pollerPID, collector
}

func getSnapshot(t *testing.T, context *actor.RootContext, pid *actor.PID) domain.GetSnapshotResponse {
	res, err := context.RequestFuture(pid, domain.GetSnapshotRequest{}, 5*time.Second).Result()
	if err != nil {
		t.Fatal(err)
	}
	resp, ok := res.(domain.GetSnapshotResponse)
	assert.True(t, ok)
	return resp
}

func TestPollerFirstPoll(t *testing.T) {

	as := actor.NewActorSystem()
	context := as.Root
	defer as.Shutdown()

	reader := ecotracker.CreateTestDeviceReader().
		ThenSnapshot(ecotracker.TestSnapshot(fullSnapshotValues(250.5)))

	pid, collector := spawnPoller(t, context, reader, 3600)

	time.Sleep(1 * time.Second)

	resp := getSnapshot(t, context, pid)
	assert.True(t, resp.LastPollOK)
	assert.NotNil(t, resp.Snapshot)
	power, ok := resp.Snapshot.Get(ecotracker.FieldPower)
	assert.True(t, ok)
	assert.Equal(t, 250.5, power)
	assert.Equal(t, 7, resp.Snapshot.Len())

	// one float event per reported field plus the online transition
	var floats, binaries int
	for _, ev := range collector.snapshot() {
		switch e := ev.(type) {
		case domain.FloatSensorUpdateEvent:
			floats++
		case domain.BinarySensorUpdateEvent:
			binaries++
			assert.True(t, e.Value)
		}
	}
	assert.Equal(t, 7, floats)
	assert.Equal(t, 1, binaries)
}

func TestPollerFailedPollKeepsSnapshot(t *testing.T) {

	as := actor.NewActorSystem()
	context := as.Root
	defer as.Shutdown()

	reader := ecotracker.CreateTestDeviceReader().
		ThenSnapshot(ecotracker.TestSnapshot(fullSnapshotValues(100))).
		ThenError(ecotracker.ErrCannotConnect)

	pid, _ := spawnPoller(t, context, reader, 1)

	time.Sleep(2500 * time.Millisecond)

	assert.GreaterOrEqual(t, reader.Calls(), 2)

	resp := getSnapshot(t, context, pid)
	assert.False(t, resp.LastPollOK)
	// previous snapshot survives the failed poll
	assert.NotNil(t, resp.Snapshot)
	power, ok := resp.Snapshot.Get(ecotracker.FieldPower)
	assert.True(t, ok)
	assert.Equal(t, float64(100), power)
}

func TestPollerSnapshotFullReplacement(t *testing.T) {

	as := actor.NewActorSystem()
	context := as.Root
	defer as.Shutdown()

	reader := ecotracker.CreateTestDeviceReader().
		ThenSnapshot(ecotracker.TestSnapshot(fullSnapshotValues(100))).
		ThenSnapshot(ecotracker.TestSnapshot(map[string]float64{
			ecotracker.FieldPower:            42,
			ecotracker.FieldEnergyCounterIn:  123457,
			ecotracker.FieldEnergyCounterOut: 654,
		}))

	pid, _ := spawnPoller(t, context, reader, 1)

	time.Sleep(2500 * time.Millisecond)

	resp := getSnapshot(t, context, pid)
	assert.True(t, resp.LastPollOK)
	assert.NotNil(t, resp.Snapshot)
	// fields absent from the latest response are gone
	assert.Equal(t, 3, resp.Snapshot.Len())
	assert.False(t, resp.Snapshot.Has(ecotracker.FieldPowerPhase1))
	power, _ := resp.Snapshot.Get(ecotracker.FieldPower)
	assert.Equal(t, float64(42), power)
}

func TestPollerValidationFailure(t *testing.T) {

	as := actor.NewActorSystem()
	context := as.Root
	defer as.Shutdown()

	reader := ecotracker.CreateTestDeviceReader().
		ThenError(fmt.Errorf("%w: missing required field power", ecotracker.ErrInvalidData))

	pid, _ := spawnPoller(t, context, reader, 3600)

	time.Sleep(1 * time.Second)

	resp := getSnapshot(t, context, pid)
	assert.False(t, resp.LastPollOK)
	assert.Nil(t, resp.Snapshot)

	res, err := context.RequestFuture(pid, domain.ActorHealthRequest{}, 5*time.Second).Result()
	if err != nil {
		t.Fatal(err)
	}
	health, ok := res.(domain.ActorHealthResponse)
	assert.True(t, ok)
	assert.True(t, health.Healthy)
	assert.Equal(t, "degraded", health.State)
}

func TestPollerForcePoll(t *testing.T) {

	as := actor.NewActorSystem()
	context := as.Root
	defer as.Shutdown()

	reader := ecotracker.CreateTestDeviceReader().
		ThenSnapshot(ecotracker.TestSnapshot(fullSnapshotValues(100))).
		ThenSnapshot(ecotracker.TestSnapshot(fullSnapshotValues(200)))

	pid, _ := spawnPoller(t, context, reader, 3600)

	time.Sleep(1 * time.Second)
	assert.Equal(t, 1, reader.Calls())

	res, err := context.RequestFuture(pid, domain.ForcePollRequest{}, 10*time.Second).Result()
	if err != nil {
		t.Fatal(err)
	}
	resp, ok := res.(domain.ForcePollResponse)
	assert.True(t, ok)
	assert.True(t, resp.LastPollOK)
	assert.NotNil(t, resp.Snapshot)
	power, _ := resp.Snapshot.Get(ecotracker.FieldPower)
	assert.Equal(t, float64(200), power)
	assert.Equal(t, 2, reader.Calls())
}
