package actor

import (
	"context"
	"fmt"
	"time"

	"github.com/stefanseeger/ecotracker-ir/internal/core/domain"
	"github.com/stefanseeger/ecotracker-ir/internal/util/actorutil"
	"github.com/stefanseeger/ecotracker-ir/pkg/ecotracker"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/reugn/go-quartz/logger"
	"go.uber.org/zap"
)

// fetchTaskTimeout caps the background fetch task. Slightly above the
// reader's own 10s HTTP timeout so the transport error wins.
const fetchTaskTimeout = 12 * time.Second

// DeviceActor wraps the HTTP device reader behind an actor boundary. One
// fetch at a time: while a fetch runs, further requests are stashed.
type DeviceActor struct {
	behavior actor.Behavior
	stash    *actorutil.Stash
	reader   ecotracker.DeviceReader
	logger   *zap.Logger
}

type backgroundTaskResult struct {
	message any
	replyTo *actor.PID
}

func NewDeviceActor(reader ecotracker.DeviceReader, logger *zap.Logger) *DeviceActor {
	act := &DeviceActor{
		reader:   reader,
		behavior: actor.NewBehavior(),
		stash:    &actorutil.Stash{},
		logger:   actorutil.ActorLogger(domain.ACTOR_ID_DEVICE, logger),
	}
	act.behavior.Become(act.DefaultReceive)
	return act
}

func (state *DeviceActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *DeviceActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("device@default started", zap.String("url", state.reader.URL()))
	case domain.ActorHealthRequest:
		state.logger.Debug("device@default: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_DEVICE,
			Healthy: true,
			State:   "idle",
		})
	case domain.FetchSnapshotRequest:
		state.logger.Debug("device@default: FetchSnapshotRequest")
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)

		actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, state.fetchSnapshot),
			mapTaskResult[domain.FetchSnapshotResponse](sender)).Recover(func(err error) backgroundTaskResult {
			logger.Error(err)
			return backgroundTaskResult{
				message: domain.FetchSnapshotResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
				},
				replyTo: sender,
			}
		}).WithTimeout(fetchTaskTimeout).PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingFetch)
	default:
		state.logger.Debug("device@default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *DeviceActor) WaitingFetch(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case backgroundTaskResult:
		state.logger.Debug("device@waitingFetch backgroundTaskResult", zap.String("type", fmt.Sprintf("%T", msg.message)))
		if msg.replyTo != nil {
			ctx.Send(msg.replyTo, msg.message)
		}
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	default:
		state.logger.Debug("device@waitingFetch stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *DeviceActor) fetchSnapshot() (*domain.FetchSnapshotResponse, error) {
	ctx, cancel := context.WithTimeout(context.Background(), fetchTaskTimeout)
	defer cancel()

	snapshot, err := state.reader.Fetch(ctx)
	if err != nil {
		return &domain.FetchSnapshotResponse{
			ActorResponseMixIn: domain.ActorResponseMixIn{
				ResponseError: err,
			},
		}, nil
	}
	return &domain.FetchSnapshotResponse{
		Snapshot: snapshot,
	}, nil
}

func mapTaskResult[T any](replyTo *actor.PID) func(*T) *backgroundTaskResult {
	return func(value *T) *backgroundTaskResult {
		return &backgroundTaskResult{
			message: *value,
			replyTo: replyTo,
		}
	}
}
