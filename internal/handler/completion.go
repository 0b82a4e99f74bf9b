package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/minhdn/taskquest/internal/auth"
	"github.com/minhdn/taskquest/internal/completion"
	"github.com/minhdn/taskquest/internal/model"
	"github.com/minhdn/taskquest/internal/progression"
	"github.com/minhdn/taskquest/internal/store"
	"github.com/minhdn/taskquest/internal/ws"
)

type CompletionHandler struct {
	svc    *completion.Service
	hub    *ws.Hub
	logger *slog.Logger
}

func NewCompletionHandler(svc *completion.Service, hub *ws.Hub, logger *slog.Logger) *CompletionHandler {
	return &CompletionHandler{svc: svc, hub: hub, logger: logger}
}

func (h *CompletionHandler) broadcast(userID int64, msg ws.Message) {
	if h.hub != nil {
		h.hub.Broadcast(userID, msg)
	}
}

// Mark handles POST /api/task/completed/{taskId}.
func (h *CompletionHandler) Mark(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	taskID, err := parseIDParam(r, "taskId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid task id")
		return
	}

	result, err := h.svc.MarkCompleted(r.Context(), userID, taskID)
	if err != nil {
		switch {
		case errors.Is(err, completion.ErrTaskNotFound):
			writeError(w, http.StatusNotFound, "Task not found")
		case errors.Is(err, progression.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "User not found")
		default:
			h.logger.Error("mark task completed", "error", err, "task_id", taskID)
			writeInternalError(w)
		}
		return
	}

	h.broadcast(userID, ws.NewMessage("task", "completed", taskID, map[string]any{
		"xp": result.User.XP,
	}))

	writeData(w, http.StatusOK, result)
}

// Unmark handles DELETE /api/task/completed/{taskId}.
func (h *CompletionHandler) Unmark(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	taskID, err := parseIDParam(r, "taskId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid task id")
		return
	}

	result, err := h.svc.UnmarkCompleted(r.Context(), userID, taskID)
	if err != nil {
		switch {
		case errors.Is(err, completion.ErrNoRecordForTask):
			writeError(w, http.StatusNotFound, "No record found for this task")
		case errors.Is(err, progression.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "User not found")
		default:
			h.logger.Error("unmark task completed", "error", err, "task_id", taskID)
			writeInternalError(w)
		}
		return
	}

	h.broadcast(userID, ws.NewMessage("task", "uncompleted", taskID, map[string]any{
		"xp": result.User.XP,
	}))

	writeData(w, http.StatusOK, result)
}

// Records handles GET /api/task/record?from=YYYY-MM-DD&to=YYYY-MM-DD.
func (h *CompletionHandler) Records(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	fromRaw := r.URL.Query().Get("from")
	toRaw := r.URL.Query().Get("to")
	if fromRaw == "" || toRaw == "" {
		writeError(w, http.StatusBadRequest, "Missing from/to parameters")
		return
	}

	from, err := time.ParseInLocation(store.DateLayout, fromRaw, time.UTC)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format")
		return
	}
	to, err := time.ParseInLocation(store.DateLayout, toRaw, time.UTC)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format")
		return
	}

	records, err := h.svc.ListRecords(r.Context(), userID, from, to)
	if err != nil {
		h.logger.Error("list records", "error", err)
		writeInternalError(w)
		return
	}
	if records == nil {
		records = []model.DailyTaskRecord{}
	}
	writeData(w, http.StatusOK, records)
}
