package domain

import (
	"time"

	"github.com/stefanseeger/ecotracker-ir/pkg/ecotracker"
)

const (
	ACTOR_ID_MASTER       = "master"
	ACTOR_ID_DEVICE       = "device"
	ACTOR_ID_POLLER       = "poller"
	ACTOR_ID_MQTT         = "mqtt"
	ACTOR_ID_HA_DISCOVERY = "hadiscovery"
)

// FetchSnapshotRequest asks the device actor for one fresh snapshot.
type FetchSnapshotRequest struct {
	ActorRequestMixIn
}

type FetchSnapshotResponse struct {
	ActorResponseMixIn
	Snapshot *ecotracker.Snapshot
}

// GetSnapshotRequest reads the poller's current snapshot. Never triggers
// I/O and is answered even while a poll is in flight.
type GetSnapshotRequest struct {
	ActorRequestMixIn
}

type GetSnapshotResponse struct {
	ActorResponseMixIn
	// Snapshot is nil before the first successful poll.
	Snapshot   *ecotracker.Snapshot
	LastPollAt time.Time
	LastPollOK bool
}

// ForcePollRequest triggers an immediate poll outside the regular schedule.
// The response carries the post-poll state.
type ForcePollRequest struct {
	ActorRequestMixIn
}

type ForcePollResponse struct {
	ActorResponseMixIn
	Snapshot   *ecotracker.Snapshot
	LastPollOK bool
}

type PublishMessageRequest struct {
	ActorRequestMixIn
	Topic   string
	Payload string
	Retain  bool
}

type PublishMessageResponse struct {
	ActorResponseMixIn
}

type PublishSensorUpdateRequest struct {
	ActorRequestMixIn
	Retain bool
	Event  SensorUpdateEvent
}

type PublishSensorUpdateResponse struct {
	ActorResponseMixIn
}

type PublishDiscoveryRequest struct {
	ActorRequestMixIn
	Sensors []GenericSensor
}

type PublishDiscoveryResponse struct {
	ActorResponseMixIn
}

type ActorHealthRequest struct {
	ActorRequestMixIn
}

type ActorHealthResponse struct {
	ActorResponseMixIn
	Id      string
	Healthy bool
	State   string
}
