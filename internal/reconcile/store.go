package reconcile

import (
	"github.com/shareporter/shareporter/internal/db"
	"github.com/shareporter/shareporter/internal/model"
)

// DBStore adapts the db package to the engine's Store interface.
type DBStore struct{}

func (DBStore) GetTask(id uint) (*model.Task, error) {
	return db.GetTask(id)
}

func (DBStore) UpdateTaskState(id uint, fields map[string]any) error {
	return db.UpdateTaskState(id, fields)
}

func (DBStore) AppendLog(taskID uint, message string) error {
	return db.AppendLog(taskID, message)
}
