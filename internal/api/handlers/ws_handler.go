package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/faqchat/internal/events"
	"github.com/yoockh/faqchat/internal/models"
	"github.com/yoockh/faqchat/internal/services"
	"github.com/yoockh/faqchat/internal/utils"
)

const (
	wsWriteWait = 10 * time.Second
	wsPongWait  = 60 * time.Second
	wsPingEvery = wsPongWait * 9 / 10
)

type WSHandler struct {
	sessions services.SessionService
	events   events.Subscriber
	logger   *logrus.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler builds the live transcript endpoint. allowedOrigins empty
// accepts any origin.
func NewWSHandler(sessions services.SessionService, sub events.Subscriber, l *logrus.Logger, allowedOrigins ...string) *WSHandler {
	if l == nil {
		l = logrus.New()
	}
	allow := map[string]struct{}{}
	for _, o := range allowedOrigins {
		if o != "" {
			allow[o] = struct{}{}
		}
	}
	return &WSHandler{
		sessions: sessions,
		events:   sub,
		logger:   l,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				if len(allow) == 0 {
					return true
				}
				_, ok := allow[r.Header.Get("Origin")]
				return ok
			},
		},
	}
}

type wsClientMsg struct {
	Type     string `json:"type"` // question|quick_reply|feedback|end_session
	Text     string `json:"text"`
	Category string `json:"category"`
	EntryID  string `json:"entry_id"`
	Helpful  *bool  `json:"helpful"`
	Comment  string `json:"comment"`
}

type wsServerMsg struct {
	Type    string     `json:"type"` // ack|error|ended
	Request string     `json:"request,omitempty"`
	EntryID string     `json:"entry_id,omitempty"`
	Code    utils.Code `json:"code,omitempty"`
	Message string     `json:"message,omitempty"`
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) writeText(b []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.c.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return w.c.WriteMessage(websocket.TextMessage, b)
}

func (w *wsConn) writeJSON(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return w.writeText(b)
}

func (w *wsConn) ping() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.c.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait))
}

func wsError(request string, err error) wsServerMsg {
	msg := wsServerMsg{Type: "error", Request: request, Code: utils.CodeInternal, Message: "internal error"}
	var ae *utils.AppError
	if errors.As(err, &ae) {
		msg.Code, msg.Message = ae.Code, ae.Message
	}
	return msg
}

// SessionWS streams transcript and status events for one session and accepts
// operations on the same connection.
func (h *WSHandler) SessionWS(c *gin.Context) {
	id, ok := requireIdentity(c)
	if !ok {
		return
	}

	sessionID := c.Param("session_id")
	if _, err := h.sessions.Get(c.Request.Context(), id, sessionID); err != nil {
		writeError(c, err)
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	feed, err := h.events.Subscribe(ctx, sessionID)
	if err != nil {
		writeError(c, utils.E(utils.CodeUnavailable, "WSHandler.SessionWS", "event stream unavailable", err))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	log := h.logger.WithFields(logrus.Fields{"session_id": sessionID, "user_id": id.UserID})
	wc := &wsConn{c: conn}

	var ops sync.WaitGroup
	readDone := make(chan struct{})
	// Closing the connection unblocks the reader; only then is it safe to
	// wait for in-flight operations.
	defer func() {
		_ = conn.Close()
		<-readDone
		ops.Wait()
	}()

	go func() {
		defer close(readDone)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})

		for {
			_, data, rerr := conn.ReadMessage()
			if rerr != nil {
				return
			}

			var msg wsClientMsg
			if err := json.Unmarshal(data, &msg); err != nil {
				_ = wc.writeJSON(wsServerMsg{Type: "error", Code: utils.CodeInvalidArgument, Message: "invalid json"})
				continue
			}

			if msg.Type == "end_session" {
				if _, err := h.sessions.End(ctx, id, sessionID); err != nil {
					_ = wc.writeJSON(wsError(msg.Type, err))
					continue
				}
				_ = wc.writeJSON(wsServerMsg{Type: "ended", Request: msg.Type})
				return
			}

			// Operations run concurrently so a second question arriving while
			// one resolves gets the busy notice instead of queueing.
			ops.Add(1)
			go func(msg wsClientMsg) {
				defer ops.Done()
				entryID, err := h.dispatch(ctx, id, sessionID, msg)
				if err != nil {
					log.WithError(err).WithField("request", msg.Type).Debug("ws operation rejected")
					_ = wc.writeJSON(wsError(msg.Type, err))
					return
				}
				_ = wc.writeJSON(wsServerMsg{Type: "ack", Request: msg.Type, EntryID: entryID})
			}(msg)
		}
	}()

	ticker := time.NewTicker(wsPingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-readDone:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := wc.ping(); err != nil {
				return
			}
		case payload, ok := <-feed:
			if !ok {
				return
			}
			if err := wc.writeText(payload); err != nil {
				return
			}
		}
	}
}

func (h *WSHandler) dispatch(ctx context.Context, id models.Identity, sessionID string, msg wsClientMsg) (string, error) {
	const op = "WSHandler.dispatch"

	if msg.Type == "question" {
		return h.sessions.SubmitQuestion(ctx, id, sessionID, msg.Text)
	}

	orch, err := h.sessions.Get(ctx, id, sessionID)
	if err != nil {
		return "", err
	}

	switch msg.Type {
	case "quick_reply":
		return orch.InvokeQuickReply(ctx, msg.Category)
	case "feedback":
		if msg.Helpful == nil {
			return "", utils.E(utils.CodeInvalidArgument, op, "helpful is required", nil)
		}
		return msg.EntryID, orch.SubmitFeedback(ctx, msg.EntryID, *msg.Helpful, msg.Comment)
	default:
		return "", utils.E(utils.CodeInvalidArgument, op, "unknown message type", nil)
	}
}
