package events

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const subscriberBuffer = 64

// Subscriber streams a session's encoded events until ctx is done, then
// closes the channel.
type Subscriber interface {
	Subscribe(ctx context.Context, sessionID string) (<-chan []byte, error)
}

// Hub is the in-process Publisher and Subscriber used when redis is not
// configured. Slow subscribers lose events rather than block publishers.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[string]chan []byte // session id -> sub id -> ch
	log  *logrus.Logger
}

func NewHub(l *logrus.Logger) *Hub {
	if l == nil {
		l = logrus.New()
	}
	return &Hub{subs: map[string]map[string]chan []byte{}, log: l}
}

func (h *Hub) Subscribe(ctx context.Context, sessionID string) (<-chan []byte, error) {
	subID := uuid.NewString()
	ch := make(chan []byte, subscriberBuffer)

	h.mu.Lock()
	if h.subs[sessionID] == nil {
		h.subs[sessionID] = map[string]chan []byte{}
	}
	h.subs[sessionID][subID] = ch
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.unsubscribe(sessionID, subID)
	}()
	return ch, nil
}

func (h *Hub) Publish(_ context.Context, ev Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for subID, ch := range h.subs[ev.SessionID] {
		select {
		case ch <- b:
		default:
			h.log.WithFields(logrus.Fields{"session_id": ev.SessionID, "sub_id": subID}).Debug("dropped event for slow subscriber")
		}
	}
	return nil
}

func (h *Hub) unsubscribe(sessionID, subID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := h.subs[sessionID]
	ch, ok := subs[subID]
	if !ok {
		return
	}
	delete(subs, subID)
	close(ch)
	if len(subs) == 0 {
		delete(h.subs, sessionID)
	}
}
