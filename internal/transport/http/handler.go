package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"recertify-fraud-service/internal/app"
	"recertify-fraud-service/internal/domain"
)

// CheckEnqueuer hands a submission to the asynchronous worker path.
type CheckEnqueuer interface {
	Enqueue(ctx context.Context, sub domain.QuizSubmission) (string, error)
}

// FraudHandler serves the fraud check REST endpoints.
type FraudHandler struct {
	service  *app.FraudService
	enqueuer CheckEnqueuer
	logger   *slog.Logger
}

// NewFraudHandler builds the handler; enqueuer may be nil when no queue is configured.
func NewFraudHandler(service *app.FraudService, enqueuer CheckEnqueuer, logger *slog.Logger) *FraudHandler {
	return &FraudHandler{service: service, enqueuer: enqueuer, logger: logger}
}

type errorResponse struct {
	Error string `json:"error"`
}

type enqueueResponse struct {
	TaskID string `json:"taskId"`
}

const defaultHistoryLimit = 50

// Check scores one submission synchronously.
func (h *FraudHandler) Check(w http.ResponseWriter, r *http.Request) {
	sub, ok := decodeSubmission(w, r)
	if !ok {
		return
	}
	result, err := h.service.Check(r.Context(), sub)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// CheckAsync validates a submission and queues it for the worker.
func (h *FraudHandler) CheckAsync(w http.ResponseWriter, r *http.Request) {
	if h.enqueuer == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "async fraud checks are not enabled"})
		return
	}
	sub, ok := decodeSubmission(w, r)
	if !ok {
		return
	}
	taskID, err := h.enqueuer.Enqueue(r.Context(), sub)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, enqueueResponse{TaskID: taskID})
}

// History returns a user's stored detections and risk profile.
func (h *FraudHandler) History(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		userID = r.URL.Query().Get("userId")
	}
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	history, err := h.service.History(r.Context(), userID, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (h *FraudHandler) writeError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Error()})
		return
	}
	h.logger.Error("fraud request failed", slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
}

func decodeSubmission(w http.ResponseWriter, r *http.Request) (domain.QuizSubmission, bool) {
	var sub domain.QuizSubmission
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&sub); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return sub, false
	}
	// the server decides when a submission was received
	sub.SubmittedAt = time.Time{}
	return sub, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// NewRouter wires every HTTP route. ws and metrics may be nil.
func NewRouter(fraud *FraudHandler, ws *WSHandler, metrics http.Handler, allowedOrigins []string) http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	if metrics != nil {
		router.Handle("/metrics", metrics).Methods(http.MethodGet)
	}

	api := router.PathPrefix("/api/fraud").Subrouter()
	api.HandleFunc("/check", fraud.Check).Methods(http.MethodPost)
	api.HandleFunc("/check", fraud.History).Methods(http.MethodGet)
	api.HandleFunc("/check/async", fraud.CheckAsync).Methods(http.MethodPost)

	if ws != nil {
		router.HandleFunc("/ws", ws.ServeWS)
	}

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-User-Id"},
		MaxAge:         300,
	}).Handler(router)
}
