package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	wsWriteWait      = 10 * time.Second
	wsPongWait       = 60 * time.Second
	wsPingPeriod     = wsPongWait * 9 / 10
	wsMaxMessageSize = 8 << 10
	wsMessageTimeout = 60 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// chatFrame is accepted as an alternative to a bare text frame.
type chatFrame struct {
	Message string `json:"message"`
}

// chatSocket answers every text frame as a chat message. Replies are written
// in order from the read loop, so there is a single writer besides the pinger.
func (h *handlers) chatSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	log := h.requestLogger(r)
	log.Debug("websocket connected", zap.String("remote", r.RemoteAddr))

	conn.SetReadLimit(wsMaxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go pinger(ctx, conn)

	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("websocket read failed", zap.Error(err))
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}

		reply := h.socketReply(ctx, frameMessage(data))
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(reply); err != nil {
			log.Warn("websocket write failed", zap.Error(err))
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	}
}

func (h *handlers) socketReply(ctx context.Context, message string) any {
	if err := checkLength("message", message, 1, maxMessageLength); err != nil {
		return errorResponse{Error: "Invalid message", Detail: err.Error()}
	}

	if h.Estimator == nil {
		return errorResponse{Error: "Service not initialized", Detail: "feature_extractor is unavailable"}
	}

	ctx, cancel := context.WithTimeout(ctx, wsMessageTimeout)
	defer cancel()

	resp, err := h.Estimator.Chat(ctx, message)
	if err != nil {
		h.Logger.Error("chat failed", zap.Error(err))
		return errorResponse{Error: "Chat processing failed", Detail: err.Error()}
	}
	return resp
}

// frameMessage accepts either {"message": "..."} or plain text.
func frameMessage(data []byte) string {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") {
		var frame chatFrame
		if err := json.Unmarshal(data, &frame); err == nil {
			return frame.Message
		}
	}
	return trimmed
}

// pinger keeps the connection alive. WriteControl is safe to call
// concurrently with the reply writer.
func pinger(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}
