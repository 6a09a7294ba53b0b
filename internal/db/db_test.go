package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shareporter/shareporter/internal/conf"
	"github.com/shareporter/shareporter/internal/model"
)

func setup(t *testing.T) {
	t.Helper()
	require.NoError(t, Init(filepath.Join(t.TempDir(), "test.db")))
	t.Cleanup(func() {
		_ = Close()
		db = nil
	})
}

func TestTaskCRUDAndOrdering(t *testing.T) {
	setup(t)

	a := &model.Task{Name: "a", ShareURL: "https://115.com/s/swa", Category: model.CategoryTV, Status: model.StatusPending}
	b := &model.Task{Name: "b", ShareURL: "https://115.com/s/swb", Category: model.CategoryMovie, Status: model.StatusPending, Pinned: true}
	require.NoError(t, CreateTask(a))
	require.NoError(t, CreateTask(b))

	tasks, err := ListTasks()
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "b", tasks[0].Name, "pinned tasks sort first")

	got, err := GetTask(a.ID)
	require.NoError(t, err)
	assert.Equal(t, "a", got.Name)

	require.NoError(t, UpdateTaskState(a.ID, map[string]any{
		"status":            model.StatusSuccess,
		"last_success_date": "2025-06-01",
	}))
	got, err = GetTask(a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSuccess, got.Status)
	assert.Equal(t, "2025-06-01", got.LastSuccessDate)

	require.NoError(t, DeleteTask(a.ID))
	_, err = GetTask(a.ID)
	assert.Error(t, err)
}

func TestDeleteTaskRemovesLogs(t *testing.T) {
	setup(t)

	task := &model.Task{Name: "x", Status: model.StatusPending}
	require.NoError(t, CreateTask(task))
	require.NoError(t, AppendLog(task.ID, "one"))
	require.NoError(t, AppendLog(task.ID, "two"))

	logs, err := ListLogs(task.ID)
	require.NoError(t, err)
	assert.Len(t, logs, 2)
	assert.Equal(t, "one", logs[0].Message, "log order is insertion order")

	require.NoError(t, DeleteTask(task.ID))
	logs, err = ListLogs(task.ID)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestListTasksByStatus(t *testing.T) {
	setup(t)

	require.NoError(t, CreateTask(&model.Task{Name: "r", Status: model.StatusRunning}))
	require.NoError(t, CreateTask(&model.Task{Name: "p", Status: model.StatusPending}))

	running, err := ListTasksByStatus(model.StatusRunning)
	require.NoError(t, err)
	require.Len(t, running, 1)
	assert.Equal(t, "r", running[0].Name)
}

func TestShareURLClaimedByOther(t *testing.T) {
	setup(t)

	owner := &model.Task{
		Name:              "owner",
		ShareURL:          "https://115.com/s/swclaimed",
		Status:            model.StatusSuccess,
		ExecutedShareURLs: `["https://115.com/s/swclaimed"]`,
	}
	require.NoError(t, CreateTask(owner))

	claimed, err := ShareURLClaimedByOther("https://115.com/s/swclaimed", 0)
	require.NoError(t, err)
	assert.True(t, claimed)

	// the owning task itself is excluded
	claimed, err = ShareURLClaimedByOther("https://115.com/s/swclaimed", owner.ID)
	require.NoError(t, err)
	assert.False(t, claimed)

	claimed, err = ShareURLClaimedByOther("https://115.com/s/swother", 0)
	require.NoError(t, err)
	assert.False(t, claimed)
}

func TestSettingsMergeAndUpsert(t *testing.T) {
	setup(t)

	values, err := GetSettings()
	require.NoError(t, err)
	assert.Equal(t, "admin", values[conf.AdminUsername], "defaults apply before any save")

	require.NoError(t, SaveSettings(map[string]string{
		conf.Cookie115:  "UID=1",
		conf.EnableCron: "true",
	}))
	require.NoError(t, SaveSettings(map[string]string{conf.Cookie115: "UID=2"}))

	values, err = GetSettings()
	require.NoError(t, err)
	assert.Equal(t, "UID=2", values[conf.Cookie115])
	assert.Equal(t, "true", values[conf.EnableCron])

	snap, err := Snapshot()
	require.NoError(t, err)
	assert.Equal(t, "UID=2", snap.Cookie)
	assert.True(t, snap.CronEnabled)
}
