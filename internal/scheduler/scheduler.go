package scheduler

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/shareporter/shareporter/pkg/utils"
)

// Default is the process-wide runner, wired during bootstrap.
var Default *Runner

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Validate reports whether expr is a usable five-field cron expression.
func Validate(expr string) bool {
	if expr == "" {
		return false
	}
	_, err := parser.Parse(expr)
	return err == nil
}

// Runner keeps at most one active cron entry per task id. Re-registering a
// task always replaces its previous entry, and unscheduling must happen
// before the task's data is removed so no dangling timer can fire against
// a deleted task.
type Runner struct {
	cron *cron.Cron

	mu      sync.Mutex
	entries map[uint]cron.EntryID
}

func New() *Runner {
	r := &Runner{
		cron:    cron.New(cron.WithParser(parser)),
		entries: make(map[uint]cron.EntryID),
	}
	r.cron.Start()
	return r
}

// Schedule installs fn on the given expression for the task, replacing any
// prior entry for the same id.
func (r *Runner) Schedule(taskID uint, expr string, fn func()) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.entries[taskID]; ok {
		r.cron.Remove(old)
		delete(r.entries, taskID)
	}
	id, err := r.cron.AddFunc(expr, fn)
	if err != nil {
		return errors.Wrapf(err, "invalid cron expression %q for task %d", expr, taskID)
	}
	r.entries[taskID] = id
	utils.Log.Infof("[scheduler] task %d scheduled: %s", taskID, expr)
	return nil
}

// Unschedule removes the task's entry if present. Safe to call for tasks
// that were never scheduled.
func (r *Runner) Unschedule(taskID uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.entries[taskID]; ok {
		r.cron.Remove(id)
		delete(r.entries, taskID)
		utils.Log.Infof("[scheduler] task %d unscheduled", taskID)
	}
}

// Clear removes every entry.
func (r *Runner) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for taskID, id := range r.entries {
		r.cron.Remove(id)
		delete(r.entries, taskID)
	}
}

// Scheduled reports whether the task currently has an active entry.
func (r *Runner) Scheduled(taskID uint) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[taskID]
	return ok
}

// Stop stops the underlying cron without waiting for running jobs.
func (r *Runner) Stop() {
	r.cron.Stop()
}
