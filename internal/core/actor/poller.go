package actor

import (
	"errors"
	"fmt"
	"time"

	"github.com/stefanseeger/ecotracker-ir/internal/config"
	"github.com/stefanseeger/ecotracker-ir/internal/core/domain"
	"github.com/stefanseeger/ecotracker-ir/internal/core/events"
	"github.com/stefanseeger/ecotracker-ir/internal/metrics"
	"github.com/stefanseeger/ecotracker-ir/internal/util/actorutil"
	"github.com/stefanseeger/ecotracker-ir/pkg/ecotracker"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/asynkron/protoactor-go/scheduler"
	"go.uber.org/zap"
)

const fetchRequestTimeout = 15 * time.Second

// PollerActor drives the polling loop. It asks the device actor for a
// snapshot, replaces the cached one on success, emits sensor update
// events and schedules the next tick when the attempt finishes. Failed
// polls keep the previous snapshot.
type PollerActor struct {
	behavior  actor.Behavior
	stash     *actorutil.Stash
	scheduler *scheduler.TimerScheduler

	deviceActor *actor.PID
	config      *config.Config
	eventStream *eventstream.EventStream
	logger      *zap.Logger

	snapshot     *ecotracker.Snapshot
	lastPollAt   time.Time
	lastPollOK   bool
	everPolled   bool
	deviceOnline bool

	pollStartedAt time.Time
	cancelTick    scheduler.CancelFunc
	forceReplyTo  *actor.PID
}

type pollTick struct {
}

type pollFailed struct {
	Error error
}

func NewPollerActor(config *config.Config, deviceActor *actor.PID, eventStream *eventstream.EventStream, logger *zap.Logger) *PollerActor {
	act := &PollerActor{
		config:      config,
		behavior:    actor.NewBehavior(),
		stash:       &actorutil.Stash{},
		deviceActor: deviceActor,
		eventStream: eventStream,
		logger:      actorutil.ActorLogger(domain.ACTOR_ID_POLLER, logger),
	}
	act.behavior.Become(act.DefaultReceive)
	return act
}

func (state *PollerActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *PollerActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("poller@default started")
		state.scheduler = scheduler.NewTimerScheduler(ctx)
		// first poll right away, next ones are scheduled after each attempt
		ctx.Send(ctx.Self(), pollTick{})
	case pollTick:
		state.logger.Debug("poller@default tick")
		state.startPoll(ctx)
	case domain.ForcePollRequest:
		state.logger.Debug("poller@default ForcePollRequest")
		if state.cancelTick != nil {
			state.cancelTick()
			state.cancelTick = nil
		}
		state.forceReplyTo = actorutil.ForRequest(msg).ReplyTo(ctx)
		state.startPoll(ctx)
	case domain.GetSnapshotRequest:
		state.logger.Debug("poller@default GetSnapshotRequest")
		actorutil.ForRequest(msg).Respond(ctx, state.snapshotResponse())
	case domain.ActorHealthRequest:
		state.logger.Debug("poller@default ActorHealthRequest")
		actorutil.ForRequest(msg).Respond(ctx, state.healthResponse())
	default:
		state.logger.Debug("poller@default unhandled", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

// WaitingPollReceive is active while a fetch is in flight. Snapshot and
// health reads are still answered here so they never wait on device I/O.
func (state *PollerActor) WaitingPollReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.FetchSnapshotResponse:
		state.logger.Debug("poller@waiting FetchSnapshotResponse")
		state.finishPoll(ctx, msg.Snapshot, msg.GetResponseError())
	case pollFailed:
		state.logger.Debug("poller@waiting pollFailed", zap.Error(msg.Error))
		state.finishPoll(ctx, nil, msg.Error)
	case domain.GetSnapshotRequest:
		state.logger.Debug("poller@waiting GetSnapshotRequest")
		actorutil.ForRequest(msg).Respond(ctx, state.snapshotResponse())
	case domain.ActorHealthRequest:
		state.logger.Debug("poller@waiting ActorHealthRequest")
		actorutil.ForRequest(msg).Respond(ctx, state.healthResponse())
	default:
		state.logger.Debug("poller@waiting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *PollerActor) startPoll(ctx actor.Context) {
	state.pollStartedAt = time.Now()
	actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.deviceActor, domain.FetchSnapshotRequest{}, fetchRequestTimeout), func(err error) any {
		return pollFailed{Error: err}
	})
	state.behavior.BecomeStacked(state.WaitingPollReceive)
}

func (state *PollerActor) finishPoll(ctx actor.Context, snapshot *ecotracker.Snapshot, err error) {
	duration := time.Since(state.pollStartedAt)
	state.lastPollAt = time.Now()

	if err != nil {
		outcome := metrics.OutcomeFetchFailed
		if errors.Is(err, ecotracker.ErrInvalidData) {
			outcome = metrics.OutcomeValidationFailed
		}
		metrics.ObservePoll(outcome, duration)
		state.lastPollOK = false
		state.logger.Warn("poller: poll failed", zap.Error(err), zap.String("outcome", outcome))
		state.updateDeviceOnline(false)
	} else {
		metrics.ObservePoll(metrics.OutcomeSuccess, duration)
		metrics.SetSnapshotFields(snapshot.Len())
		// full replacement, values absent from this response are dropped
		state.snapshot = snapshot
		state.lastPollOK = true
		state.logger.Debug("poller: poll ok", zap.Int("fields", snapshot.Len()), zap.Duration("duration", duration))
		for _, event := range events.SnapshotUpdateEvents(snapshot) {
			state.eventStream.Publish(event)
		}
		state.updateDeviceOnline(true)
	}
	state.everPolled = true

	if state.forceReplyTo != nil {
		ctx.Send(state.forceReplyTo, domain.ForcePollResponse{
			ActorResponseMixIn: domain.ActorResponseMixIn{
				ResponseError: err,
			},
			Snapshot:   state.snapshot,
			LastPollOK: state.lastPollOK,
		})
		state.forceReplyTo = nil
	}

	state.behavior.UnbecomeStacked()
	state.stash.UnstashAll(ctx)

	// schedule next tick
	state.cancelTick = state.scheduler.RequestOnce(time.Duration(state.config.Device.PollIntervalSeconds)*time.Second, ctx.Self(), pollTick{})
}

func (state *PollerActor) updateDeviceOnline(online bool) {
	if state.everPolled && state.deviceOnline == online {
		return
	}
	state.deviceOnline = online
	state.eventStream.Publish(events.DeviceOnlineUpdateEvent(online))
}

func (state *PollerActor) snapshotResponse() domain.GetSnapshotResponse {
	return domain.GetSnapshotResponse{
		Snapshot:   state.snapshot,
		LastPollAt: state.lastPollAt,
		LastPollOK: state.lastPollOK,
	}
}

func (state *PollerActor) healthResponse() domain.ActorHealthResponse {
	healthState := "ok"
	if !state.everPolled {
		healthState = "starting"
	} else if !state.lastPollOK {
		healthState = "degraded"
	}
	return domain.ActorHealthResponse{
		Id:      domain.ACTOR_ID_POLLER,
		Healthy: true,
		State:   healthState,
	}
}
