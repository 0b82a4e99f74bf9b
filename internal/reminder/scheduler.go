// Package reminder delivers due task reminders to connected clients.
package reminder

import (
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/minhdn/taskquest/internal/store"
	"github.com/minhdn/taskquest/internal/ws"
)

// Scheduler sweeps for due, unsent reminders once a minute and pushes each to
// the owning user over the websocket hub. A reminder fires exactly once: it is
// marked sent before delivery.
type Scheduler struct {
	cron   *cron.Cron
	tasks  *store.TaskStore
	hub    *ws.Hub
	logger *slog.Logger
	now    func() time.Time
}

func NewScheduler(tasks *store.TaskStore, hub *ws.Hub, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		tasks:  tasks,
		hub:    hub,
		logger: logger,
		now:    time.Now,
	}
}

// Start begins the minute sweep in the background.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("@every 1m", s.Sweep); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop halts the cron and waits for an in-flight sweep to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// Sweep delivers every reminder whose time has passed.
func (s *Scheduler) Sweep() {
	due, err := s.tasks.DueReminders(s.now().UTC())
	if err != nil {
		s.logger.Error("list due reminders", "error", err)
		return
	}

	for _, d := range due {
		if err := s.tasks.MarkReminderSent(d.ID); err != nil {
			s.logger.Error("mark reminder sent", "error", err, "reminder_id", d.ID)
			continue
		}
		s.hub.Broadcast(d.UserID, ws.NewMessage("reminder", "due", d.TaskID, map[string]any{
			"remind_at": d.RemindAt,
		}))
		s.logger.Info("reminder delivered", "task_id", d.TaskID, "user_id", d.UserID)
	}
}
