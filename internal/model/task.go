package model

import (
	"time"

	"github.com/shareporter/shareporter/pkg/utils"
)

type TaskStatus string

const (
	// StatusPending is the initial status and the resting status of tasks
	// without an active cron schedule.
	StatusPending TaskStatus = "pending"
	// StatusScheduled is the resting status of cron tasks between firings.
	// Cron runs never end in error; they fall back to scheduled and retry
	// on the next tick.
	StatusScheduled TaskStatus = "scheduled"
	StatusRunning   TaskStatus = "running"
	StatusSuccess   TaskStatus = "success"
	StatusError     TaskStatus = "error"
)

// Task is one share-transfer job: a share link plus the category it should
// land in, and the reconciliation state left behind by the last run.
//
// LastFingerprint, LastSuccessDate, LastSavedIDs and ExecutedShareURLs are
// owned exclusively by the reconcile engine; handlers only ever reset them
// (replace-link clears the fingerprint so the new share always transfers).
type Task struct {
	ID          uint     `gorm:"primaryKey" json:"id"`
	Name        string   `gorm:"column:name;size:255" json:"name"`
	ShareURL    string   `gorm:"column:share_url;size:1024" json:"share_url"`
	ShareCode   string   `gorm:"column:share_code;size:64" json:"-"`
	ReceiveCode string   `gorm:"column:receive_code;size:64" json:"-"`
	Category    Category `gorm:"column:category;size:32" json:"category"`
	CronExpr    string   `gorm:"column:cron_expr;size:128" json:"cron_expr"`
	ResourceURL string   `gorm:"column:resource_url;size:1024" json:"resource_url"`
	Pinned      bool     `gorm:"column:pinned" json:"pinned"`

	Status TaskStatus `gorm:"column:status;size:32;index" json:"status"`
	// LastFingerprint is the sorted comma-joined item-id set of the share
	// as of the last completed pass, used to skip unchanged content.
	LastFingerprint string `gorm:"column:last_fingerprint;type:text" json:"-"`
	// LastSuccessDate is the calendar day ("2006-01-02") of the last
	// successful transfer, used for the once-per-day cron gate.
	LastSuccessDate string `gorm:"column:last_success_date;size:10" json:"last_success_date"`
	// LastSavedIDs is a JSON string array of the item ids produced by the
	// last successful transfer, deleted as stale output on the next pass.
	LastSavedIDs string `gorm:"column:last_saved_ids;type:text" json:"-"`
	// ExecutedShareURLs is a JSON string array of every share URL this
	// task has successfully completed against.
	ExecutedShareURLs string `gorm:"column:executed_share_urls;type:text" json:"-"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Task) TableName() string {
	return "tasks"
}

// SavedIDs decodes LastSavedIDs.
func (t *Task) SavedIDs() []string {
	return utils.ParseStringList(t.LastSavedIDs)
}

// ExecutedURLs decodes ExecutedShareURLs.
func (t *Task) ExecutedURLs() []string {
	return utils.ParseStringList(t.ExecutedShareURLs)
}
