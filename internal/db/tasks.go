package db

import (
	"github.com/pkg/errors"

	"github.com/shareporter/shareporter/internal/model"
	"github.com/shareporter/shareporter/pkg/utils"
)

func CreateTask(t *model.Task) error {
	return errors.WithStack(db.Create(t).Error)
}

func GetTask(id uint) (*model.Task, error) {
	var t model.Task
	if err := db.First(&t, id).Error; err != nil {
		return nil, errors.Wrapf(err, "failed to get task %d", id)
	}
	return &t, nil
}

// ListTasks returns all tasks, pinned first, then newest first.
func ListTasks() ([]model.Task, error) {
	var tasks []model.Task
	err := db.Order("pinned DESC").Order("created_at DESC").Find(&tasks).Error
	return tasks, errors.WithStack(err)
}

// ListTasksByStatus returns tasks currently in the given status.
func ListTasksByStatus(status model.TaskStatus) ([]model.Task, error) {
	var tasks []model.Task
	err := db.Where("status = ?", status).Find(&tasks).Error
	return tasks, errors.WithStack(err)
}

// UpdateTaskState applies a partial column update to one task row. The
// reconcile engine uses it so two passes over different tasks never clobber
// each other's unrelated columns.
func UpdateTaskState(id uint, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return errors.Wrapf(
		db.Model(&model.Task{}).Where("id = ?", id).Updates(fields).Error,
		"failed to update task %d", id)
}

func DeleteTask(id uint) error {
	if err := db.Delete(&model.Task{}, id).Error; err != nil {
		return errors.Wrapf(err, "failed to delete task %d", id)
	}
	return DeleteLogsByTask(id)
}

func DeleteAllTasks() error {
	if err := db.Where("1 = 1").Delete(&model.Task{}).Error; err != nil {
		return errors.WithStack(err)
	}
	return DeleteAllLogs()
}

// ShareURLClaimedByOther reports whether any task other than excludeID has
// already completed a transfer for shareURL. Successful share URLs are
// appended to each task's executed list by the engine; a share claimed once
// must not be re-added as a different task.
func ShareURLClaimedByOther(shareURL string, excludeID uint) (bool, error) {
	tasks, err := ListTasks()
	if err != nil {
		return false, err
	}
	for i := range tasks {
		if tasks[i].ID == excludeID {
			continue
		}
		if utils.SliceContains(tasks[i].ExecutedURLs(), shareURL) {
			return true, nil
		}
	}
	return false, nil
}
