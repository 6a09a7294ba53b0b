package db

import (
	"github.com/pkg/errors"

	"github.com/shareporter/shareporter/internal/model"
)

func AppendLog(taskID uint, message string) error {
	return errors.Wrapf(
		db.Create(&model.TaskLog{TaskID: taskID, Message: message}).Error,
		"failed to append log for task %d", taskID)
}

func ListLogs(taskID uint) ([]model.TaskLog, error) {
	var logs []model.TaskLog
	err := db.Where("task_id = ?", taskID).Order("id ASC").Find(&logs).Error
	return logs, errors.WithStack(err)
}

func DeleteLogsByTask(taskID uint) error {
	return errors.WithStack(db.Where("task_id = ?", taskID).Delete(&model.TaskLog{}).Error)
}

func DeleteAllLogs() error {
	return errors.WithStack(db.Where("1 = 1").Delete(&model.TaskLog{}).Error)
}
