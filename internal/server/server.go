package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/minhdn/taskquest/internal/completion"
	"github.com/minhdn/taskquest/internal/config"
	"github.com/minhdn/taskquest/internal/handler"
	"github.com/minhdn/taskquest/internal/middleware"
	"github.com/minhdn/taskquest/internal/progression"
	"github.com/minhdn/taskquest/internal/reminder"
	"github.com/minhdn/taskquest/internal/store"
	"github.com/minhdn/taskquest/internal/ws"
)

type Server struct {
	db            *sql.DB
	hub           *ws.Hub
	authH         *handler.AuthHandler
	taskH         *handler.TaskHandler
	completionH   *handler.CompletionHandler
	userStore     *store.UserStore
	rateLimiter   *middleware.RateLimiter
	reminderSched *reminder.Scheduler
	secret        []byte
	logger        *slog.Logger
}

func New(db *sql.DB, cfg config.Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "ws"))

	userStore := store.NewUserStore(db)
	taskStore := store.NewTaskStore(db)
	recordStore := store.NewRecordStore(db)

	engine := progression.NewEngine(cfg.XPPerTask)
	completionSvc := completion.NewService(db, engine, userStore, recordStore, logger.With("component", "completion"))

	secret := []byte(cfg.JWTSecret)

	return &Server{
		db:            db,
		hub:           hub,
		authH:         handler.NewAuthHandler(userStore, secret, logger.With("component", "auth")),
		taskH:         handler.NewTaskHandler(taskStore, hub, logger.With("component", "task")),
		completionH:   handler.NewCompletionHandler(completionSvc, hub, logger.With("component", "completion_handler")),
		userStore:     userStore,
		rateLimiter:   middleware.NewRateLimiter(),
		reminderSched: reminder.NewScheduler(taskStore, hub, logger.With("component", "reminder")),
		secret:        secret,
		logger:        logger,
	}
}

// ReminderScheduler returns the reminder scheduler for lifecycle management.
func (s *Server) ReminderScheduler() *reminder.Scheduler {
	return s.reminderSched
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /api/auth/sign-up", s.rateLimitedHandler(s.authH.SignUp))
	outerMux.HandleFunc("POST /api/auth/sign-in", s.rateLimitedHandler(s.authH.SignIn))
	outerMux.HandleFunc("POST /api/auth/sign-out", s.authH.SignOut)
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes — wrapped with RequireAuth middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.secret, s.userStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	// User routes
	mux.HandleFunc("GET /api/auth/me", s.authH.Me)
	mux.HandleFunc("GET /api/auth/{id}", s.authH.GetByID)

	// Task CRUD routes
	mux.HandleFunc("GET /api/task", s.taskH.List)
	mux.HandleFunc("POST /api/task", s.taskH.Create)
	mux.HandleFunc("GET /api/task/{id}", s.taskH.Get)
	mux.HandleFunc("PUT /api/task/{id}", s.taskH.Update)
	mux.HandleFunc("DELETE /api/task/{id}", s.taskH.Delete)
	mux.HandleFunc("PUT /api/task/priority/{taskId}", s.taskH.UpdatePriority)

	// Subtask routes
	mux.HandleFunc("POST /api/task/{id}/subtask", s.taskH.CreateSubtask)
	mux.HandleFunc("PUT /api/subtask/{id}", s.taskH.UpdateSubtask)
	mux.HandleFunc("DELETE /api/subtask/{id}", s.taskH.DeleteSubtask)

	// Reminder routes
	mux.HandleFunc("PUT /api/task/{id}/reminder", s.taskH.SetReminder)
	mux.HandleFunc("DELETE /api/task/{id}/reminder", s.taskH.ClearReminder)

	// Completion routes
	mux.HandleFunc("POST /api/task/completed/{taskId}", s.completionH.Mark)
	mux.HandleFunc("DELETE /api/task/completed/{taskId}", s.completionH.Unmark)
	mux.HandleFunc("GET /api/task/record", s.completionH.Records)

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "ws")))
}
