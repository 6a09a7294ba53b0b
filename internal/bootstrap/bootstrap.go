package bootstrap

import (
	"github.com/pkg/errors"

	"github.com/shareporter/shareporter/internal/conf"
	"github.com/shareporter/shareporter/internal/db"
	"github.com/shareporter/shareporter/internal/drive115"
	"github.com/shareporter/shareporter/internal/model"
	"github.com/shareporter/shareporter/internal/op"
	"github.com/shareporter/shareporter/internal/reconcile"
	"github.com/shareporter/shareporter/internal/scheduler"
	"github.com/shareporter/shareporter/pkg/utils"
)

// Drive115 is the process-wide drive client, shared by the engine and the
// folder-browsing handlers.
var Drive115 *drive115.Client

// Init wires the whole process: config, logging, storage, clients, the
// reconcile engine and the cron schedule.
func Init() error {
	if err := conf.InitConfig(); err != nil {
		return err
	}
	utils.InitLog(conf.Conf.LogLevel, conf.Conf.LogFile)
	utils.Log.Infof("starting, db=%s listen=%s", conf.Conf.DBFile, conf.Conf.ListenAddr())

	if err := db.Init(conf.Conf.DBFile); err != nil {
		return err
	}

	Drive115 = drive115.NewClient(conf.Conf.RemoteTimeout, drive115.WithDelays(drive115.Delays{
		PostTransfer: conf.Conf.PostTransferSettleDelay,
		PostDelete:   conf.Conf.PostDeleteSettleDelay,
	}))
	reconcile.Default = reconcile.New(reconcile.DBStore{}, Drive115)
	scheduler.Default = scheduler.New()

	if err := recoverRunningTasks(); err != nil {
		return err
	}
	op.ResyncCron()
	return nil
}

// recoverRunningTasks resets any task left in running status by a crash or
// restart. There is no liveness signal behind a persisted running status,
// so the only safe reading after a restart is "interrupted": the task goes
// back to its resting status and the next trigger re-attempts it.
func recoverRunningTasks() error {
	tasks, err := db.ListTasksByStatus(model.StatusRunning)
	if err != nil {
		return errors.Wrap(err, "failed to scan for interrupted tasks")
	}
	for i := range tasks {
		t := tasks[i]
		status := model.StatusPending
		if scheduler.Validate(t.CronExpr) {
			status = model.StatusScheduled
		}
		if err := db.UpdateTaskState(t.ID, map[string]any{"status": status}); err != nil {
			return err
		}
		if err := db.AppendLog(t.ID, "previous run was interrupted by a restart"); err != nil {
			return err
		}
		utils.Log.Warnf("[bootstrap] task %d was running at shutdown, reset to %s", t.ID, status)
	}
	return nil
}

// Shutdown stops the cron runner and closes storage.
func Shutdown() {
	if scheduler.Default != nil {
		scheduler.Default.Stop()
	}
	if err := db.Close(); err != nil {
		utils.Log.Warnf("[bootstrap] db close failed: %+v", err)
	}
}
