package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"recertify-fraud-service/internal/app"
	"recertify-fraud-service/internal/domain"
)

// WSHandler lets a client run fraud checks over a single long-lived connection.
type WSHandler struct {
	service  *app.FraudService
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.FraudService, logger *slog.Logger) *WSHandler {
	return &WSHandler{
		service: service,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type historyPayload struct {
	Limit int `json:"limit"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets. The userId query parameter owns the
// connection; submissions for other users are rewritten to it.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "missing userId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})

	// Single writer goroutine; gorilla connections do not support concurrent writes.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Warn("ws write error", slog.String("error", err.Error()))
				// unblock the reader, then drain until it closes send
				conn.Close()
				for range send {
				}
				return
			}
		}
	}()

	sendError := func(msg string) {
		send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: msg}}
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "check":
			var sub domain.QuizSubmission
			if err := json.Unmarshal(inbound.Payload, &sub); err != nil {
				sendError("invalid submission payload")
				continue
			}
			sub.UserID = userID
			sub.SubmittedAt = time.Time{}
			result, err := h.service.Check(r.Context(), sub)
			if err != nil {
				sendError(clientMessage(err))
				continue
			}
			send <- outboundMessage[any]{Type: "result", Payload: result}
		case "history":
			var payload historyPayload
			if len(inbound.Payload) > 0 {
				_ = json.Unmarshal(inbound.Payload, &payload)
			}
			if payload.Limit <= 0 {
				payload.Limit = defaultHistoryLimit
			}
			history, err := h.service.History(r.Context(), userID, payload.Limit)
			if err != nil {
				sendError(clientMessage(err))
				continue
			}
			send <- outboundMessage[any]{Type: "history", Payload: history}
		default:
			sendError("unsupported message type")
		}
	}

	close(send)
	<-writerDone
}

func clientMessage(err error) string {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return verr.Error()
	}
	return "internal server error"
}
