package session

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"

	"neontune/internal/player"
)

const (
	BroadcastChannel = "broadcast"

	EventStateChanged = "player.state_changed"
)

type Event struct {
	Type    string       `json:"type"`
	Payload EventPayload `json:"payload"`
}

type EventPayload struct {
	SessionID string       `json:"sessionId"`
	State     player.State `json:"state"`
}

func StateChanged(sessionID string, state player.State) Event {
	return Event{
		Type: EventStateChanged,
		Payload: EventPayload{
			SessionID: sessionID,
			State:     state,
		},
	}
}

// Publisher fans session events out to listeners. Publishing is best effort.
type Publisher interface {
	Publish(ctx context.Context, ev Event)
}

// RedisPublisher publishes events on the shared broadcast channel.
type RedisPublisher struct {
	rdb *redis.Client
}

func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

func (p *RedisPublisher) Publish(ctx context.Context, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("session: marshal event: %v", err)
		return
	}
	if err := p.rdb.Publish(ctx, BroadcastChannel, string(data)).Err(); err != nil {
		log.Printf("session: publish event: %v", err)
	}
}
