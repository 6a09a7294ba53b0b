package op

import (
	"context"

	"github.com/shareporter/shareporter/internal/db"
	"github.com/shareporter/shareporter/internal/model"
	"github.com/shareporter/shareporter/internal/reconcile"
	"github.com/shareporter/shareporter/internal/scheduler"
	"github.com/shareporter/shareporter/pkg/utils"
)

// RunTask launches one reconciliation pass in the background and returns
// immediately; callers follow progress through the task's log. The settings
// snapshot is captured here, before the pass starts.
func RunTask(taskID uint, trigger reconcile.Trigger) {
	go func() {
		snap, err := db.Snapshot()
		if err != nil {
			utils.Log.Errorf("[op] task %d: settings unreadable, run aborted: %+v", taskID, err)
			return
		}
		reconcile.Default.Reconcile(context.Background(), taskID, trigger, snap)
	}()
}

// SyncTaskSchedule installs or removes the task's cron entry according to
// its expression and the global cron switch.
func SyncTaskSchedule(t *model.Task) {
	snap, err := db.Snapshot()
	if err != nil {
		utils.Log.Errorf("[op] task %d: settings unreadable, schedule unchanged: %+v", t.ID, err)
		return
	}
	if !snap.CronEnabled || !scheduler.Validate(t.CronExpr) {
		scheduler.Default.Unschedule(t.ID)
		return
	}
	taskID := t.ID
	if err := scheduler.Default.Schedule(taskID, t.CronExpr, func() {
		RunTask(taskID, reconcile.TriggerCron)
	}); err != nil {
		utils.Log.Errorf("[op] task %d: schedule failed: %+v", taskID, err)
	}
}

// DeleteTask unschedules first, then removes the task and its logs. The
// order matters: a timer firing against a deleted task is a defect.
func DeleteTask(taskID uint) error {
	scheduler.Default.Unschedule(taskID)
	return db.DeleteTask(taskID)
}

// DeleteAllTasks clears every cron entry, then wipes tasks and logs.
func DeleteAllTasks() error {
	scheduler.Default.Clear()
	return db.DeleteAllTasks()
}

// ResyncCron re-derives the full schedule from the store, used at startup
// and when the global cron switch flips.
func ResyncCron() {
	scheduler.Default.Clear()
	snap, err := db.Snapshot()
	if err != nil {
		utils.Log.Errorf("[op] settings unreadable, cron resync skipped: %+v", err)
		return
	}
	if !snap.CronEnabled {
		utils.Log.Info("[op] cron feature disabled, no tasks scheduled")
		return
	}
	tasks, err := db.ListTasks()
	if err != nil {
		utils.Log.Errorf("[op] tasks unreadable, cron resync skipped: %+v", err)
		return
	}
	count := 0
	for i := range tasks {
		t := tasks[i]
		if !scheduler.Validate(t.CronExpr) {
			continue
		}
		taskID := t.ID
		if err := scheduler.Default.Schedule(taskID, t.CronExpr, func() {
			RunTask(taskID, reconcile.TriggerCron)
		}); err != nil {
			utils.Log.Errorf("[op] task %d: schedule failed: %+v", taskID, err)
			continue
		}
		count++
	}
	utils.Log.Infof("[op] cron resync done, %d task(s) scheduled", count)
}
