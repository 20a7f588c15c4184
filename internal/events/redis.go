package events

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher fans events out over redis pub/sub: entries and feedback on
// the transcript channel, busy transitions on the status channel. Any replica
// can serve a session's WebSocket subscribers.
type RedisPublisher struct {
	rdb *redis.Client
}

func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

func (p *RedisPublisher) Publish(ctx context.Context, ev Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	ch := TranscriptChannel(ev.SessionID)
	if ev.Type == TypeStatus {
		ch = StatusChannel(ev.SessionID)
	}
	return p.rdb.Publish(ctx, ch, b).Err()
}

// Subscribe listens on both channels of a session until ctx is done.
func (p *RedisPublisher) Subscribe(ctx context.Context, sessionID string) (<-chan []byte, error) {
	ps := p.rdb.Subscribe(ctx, TranscriptChannel(sessionID), StatusChannel(sessionID))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}

	out := make(chan []byte, subscriberBuffer)
	go func() {
		defer close(out)
		defer ps.Close()

		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- []byte(m.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
