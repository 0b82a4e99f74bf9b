package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/minhdn/taskquest/internal/auth"
	"github.com/minhdn/taskquest/internal/model"
	"github.com/minhdn/taskquest/internal/store"
	"github.com/minhdn/taskquest/internal/validation"
	"github.com/minhdn/taskquest/internal/ws"
)

type TaskHandler struct {
	tasks  *store.TaskStore
	hub    *ws.Hub
	logger *slog.Logger
}

func NewTaskHandler(tasks *store.TaskStore, hub *ws.Hub, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, hub: hub, logger: logger}
}

func (h *TaskHandler) broadcast(userID int64, msg ws.Message) {
	if h.hub != nil {
		h.hub.Broadcast(userID, msg)
	}
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	tasks, err := h.tasks.ListByUser(userID)
	if err != nil {
		h.logger.Error("list tasks", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to retrieve tasks")
		return
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	writeData(w, http.StatusOK, tasks)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid task id")
		return
	}

	task, err := h.tasks.GetByID(userID, id)
	if err != nil {
		h.logger.Error("get task", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to retrieve tasks")
		return
	}
	if task == nil {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	writeData(w, http.StatusOK, task)
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	var req validation.TaskInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "No data provided")
		return
	}
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		req.Name = &trimmed
	}

	if err := validation.ValidateCreateTask(req, time.Now().UTC()); err != nil {
		writeError(w, http.StatusBadRequest, validation.Messages(err))
		return
	}

	deadline, err := validation.ParseDeadline(*req.Deadline)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Deadline must be a valid date (YYYY-MM-DD)")
		return
	}

	note := ""
	if req.Note != nil {
		note = *req.Note
	}
	isImportant := req.IsImportant != nil && *req.IsImportant
	isUrgent := req.IsUrgent != nil && *req.IsUrgent

	task, err := h.tasks.Create(userID, *req.Name, note, req.Category, isImportant, isUrgent, &deadline)
	if err != nil {
		h.logger.Error("create task", "error", err)
		writeInternalError(w)
		return
	}

	h.broadcast(userID, ws.NewMessage("task", "created", task.ID, nil))

	writeData(w, http.StatusCreated, task)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid task id")
		return
	}

	existing, err := h.tasks.GetByID(userID, id)
	if err != nil {
		h.logger.Error("get task", "error", err)
		writeInternalError(w)
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}

	var req validation.TaskInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "No data provided")
		return
	}

	if err := validation.ValidateUpdateTask(req, time.Now().UTC()); err != nil {
		writeError(w, http.StatusBadRequest, validation.Messages(err))
		return
	}

	// Absent fields keep their current values.
	name := existing.Name
	if req.Name != nil {
		name = strings.TrimSpace(*req.Name)
	}
	note := existing.Note
	if req.Note != nil {
		note = *req.Note
	}
	category := existing.Category
	if req.Category != nil {
		category = req.Category
	}
	isImportant := existing.IsImportant
	if req.IsImportant != nil {
		isImportant = *req.IsImportant
	}
	isUrgent := existing.IsUrgent
	if req.IsUrgent != nil {
		isUrgent = *req.IsUrgent
	}
	deadline := existing.Deadline
	if req.Deadline != nil {
		parsed, err := validation.ParseDeadline(*req.Deadline)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Deadline must be a valid date (YYYY-MM-DD)")
			return
		}
		deadline = &parsed
	}

	task, err := h.tasks.Update(userID, id, name, note, category, isImportant, isUrgent, deadline)
	if err != nil {
		h.logger.Error("update task", "error", err)
		writeInternalError(w)
		return
	}

	h.broadcast(userID, ws.NewMessage("task", "updated", id, nil))

	writeData(w, http.StatusOK, task)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid task id")
		return
	}

	existing, err := h.tasks.GetByID(userID, id)
	if err != nil {
		h.logger.Error("get task", "error", err)
		writeInternalError(w)
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}

	if err := h.tasks.Delete(userID, id); err != nil {
		h.logger.Error("delete task", "error", err)
		writeInternalError(w)
		return
	}

	h.broadcast(userID, ws.NewMessage("task", "deleted", id, nil))

	writeMessage(w, http.StatusOK, "Delete task successfully")
}

// UpdatePriority flips the importance/urgency flags without touching the rest
// of the task.
func (h *TaskHandler) UpdatePriority(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	id, err := parseIDParam(r, "taskId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid task id")
		return
	}

	existing, err := h.tasks.GetByID(userID, id)
	if err != nil {
		h.logger.Error("get task", "error", err)
		writeInternalError(w)
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}

	var req struct {
		IsImportant *bool `json:"is_important"`
		IsUrgent    *bool `json:"is_urgent"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "No data provided")
		return
	}

	isImportant := existing.IsImportant
	if req.IsImportant != nil {
		isImportant = *req.IsImportant
	}
	isUrgent := existing.IsUrgent
	if req.IsUrgent != nil {
		isUrgent = *req.IsUrgent
	}

	task, err := h.tasks.UpdatePriority(userID, id, isImportant, isUrgent)
	if err != nil {
		h.logger.Error("update task priority", "error", err)
		writeInternalError(w)
		return
	}

	h.broadcast(userID, ws.NewMessage("task", "updated", id, nil))

	writeData(w, http.StatusOK, task)
}

// --- Subtasks ---

func (h *TaskHandler) CreateSubtask(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	taskID, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid task id")
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "No data provided")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Subtask name is required")
		return
	}

	subtask, err := h.tasks.CreateSubtask(userID, taskID, req.Name)
	if err != nil {
		h.logger.Error("create subtask", "error", err)
		writeInternalError(w)
		return
	}
	if subtask == nil {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}

	h.broadcast(userID, ws.NewMessage("task", "updated", taskID, nil))

	writeData(w, http.StatusCreated, subtask)
}

func (h *TaskHandler) UpdateSubtask(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid subtask id")
		return
	}

	existing, err := h.tasks.GetSubtask(userID, id)
	if err != nil {
		h.logger.Error("get subtask", "error", err)
		writeInternalError(w)
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "Subtask not found")
		return
	}

	var req struct {
		Name *string `json:"name"`
		Done *bool   `json:"done"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "No data provided")
		return
	}

	name := existing.Name
	if req.Name != nil {
		name = strings.TrimSpace(*req.Name)
		if name == "" {
			writeError(w, http.StatusBadRequest, "Subtask name must not be empty")
			return
		}
	}
	done := existing.Done
	if req.Done != nil {
		done = *req.Done
	}

	subtask, err := h.tasks.UpdateSubtask(userID, id, name, done)
	if err != nil {
		h.logger.Error("update subtask", "error", err)
		writeInternalError(w)
		return
	}

	h.broadcast(userID, ws.NewMessage("task", "updated", existing.TaskID, nil))

	writeData(w, http.StatusOK, subtask)
}

func (h *TaskHandler) DeleteSubtask(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid subtask id")
		return
	}

	existing, err := h.tasks.GetSubtask(userID, id)
	if err != nil {
		h.logger.Error("get subtask", "error", err)
		writeInternalError(w)
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "Subtask not found")
		return
	}

	if err := h.tasks.DeleteSubtask(userID, id); err != nil {
		h.logger.Error("delete subtask", "error", err)
		writeInternalError(w)
		return
	}

	h.broadcast(userID, ws.NewMessage("task", "updated", existing.TaskID, nil))

	writeMessage(w, http.StatusOK, "Delete subtask successfully")
}

// --- Reminders ---

func (h *TaskHandler) SetReminder(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	taskID, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid task id")
		return
	}

	var req struct {
		RemindAt string `json:"remind_at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "No data provided")
		return
	}

	remindAt, err := time.Parse(time.RFC3339, req.RemindAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, "remind_at must be an RFC 3339 timestamp")
		return
	}

	reminder, err := h.tasks.SetReminder(userID, taskID, remindAt)
	if err != nil {
		h.logger.Error("set reminder", "error", err)
		writeInternalError(w)
		return
	}
	if reminder == nil {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}

	writeData(w, http.StatusOK, reminder)
}

func (h *TaskHandler) ClearReminder(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	taskID, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid task id")
		return
	}

	existing, err := h.tasks.GetByID(userID, taskID)
	if err != nil {
		h.logger.Error("get task", "error", err)
		writeInternalError(w)
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}

	if err := h.tasks.ClearReminder(userID, taskID); err != nil {
		h.logger.Error("clear reminder", "error", err)
		writeInternalError(w)
		return
	}

	writeMessage(w, http.StatusOK, "Reminder cleared")
}
