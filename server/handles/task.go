package handles

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shareporter/shareporter/internal/db"
	"github.com/shareporter/shareporter/internal/drive115"
	"github.com/shareporter/shareporter/internal/model"
	"github.com/shareporter/shareporter/internal/op"
	"github.com/shareporter/shareporter/internal/reconcile"
	"github.com/shareporter/shareporter/internal/scheduler"
	"github.com/shareporter/shareporter/pkg/utils"
	"github.com/shareporter/shareporter/server/common"
)

type TaskInfo struct {
	ID              uint             `json:"id"`
	Name            string           `json:"name"`
	ShareURL        string           `json:"share_url"`
	Category        model.Category   `json:"category"`
	CronExpr        string           `json:"cron_expr"`
	ResourceURL     string           `json:"resource_url"`
	Pinned          bool             `json:"pinned"`
	Status          model.TaskStatus `json:"status"`
	LastSuccessDate string           `json:"last_success_date"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

func toTaskInfo(t *model.Task) TaskInfo {
	return TaskInfo{
		ID:              t.ID,
		Name:            t.Name,
		ShareURL:        t.ShareURL,
		Category:        t.Category,
		CronExpr:        t.CronExpr,
		ResourceURL:     t.ResourceURL,
		Pinned:          t.Pinned,
		Status:          t.Status,
		LastSuccessDate: t.LastSuccessDate,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

func taskParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		common.ErrorStrResp(c, "invalid task id", 400)
		return 0, false
	}
	return uint(id), true
}

func ListTasks(c *gin.Context) {
	tasks, err := db.ListTasks()
	if err != nil {
		common.ErrorResp(c, err, 500, true)
		return
	}
	common.SuccessResp(c, utils.MustSliceConvert(tasks, func(t model.Task) TaskInfo {
		return toTaskInfo(&t)
	}))
}

type CreateTaskReq struct {
	Name        string         `json:"name" binding:"required"`
	ShareURL    string         `json:"share_url" binding:"required"`
	Password    string         `json:"password"`
	Category    model.Category `json:"category"`
	CronExpr    string         `json:"cron_expr"`
	ResourceURL string         `json:"resource_url"`
}

// CreateTask registers a new task and fires its first run asynchronously.
// A share URL another task has already completed against is refused.
func CreateTask(c *gin.Context) {
	var req CreateTaskReq
	if err := c.ShouldBind(&req); err != nil {
		common.ErrorResp(c, err, 400)
		return
	}
	if req.Category == "" {
		req.Category = model.CategoryOther
	}
	if !req.Category.Valid() {
		common.ErrorStrResp(c, "unknown category", 400)
		return
	}
	if req.CronExpr != "" && !scheduler.Validate(req.CronExpr) {
		common.ErrorStrResp(c, "invalid cron expression", 400)
		return
	}
	code, password, err := drive115.ExtractShareCode(req.ShareURL)
	if err != nil {
		common.ErrorResp(c, err, 400)
		return
	}
	if req.Password != "" {
		password = req.Password
	}
	claimed, err := db.ShareURLClaimedByOther(req.ShareURL, 0)
	if err != nil {
		common.ErrorResp(c, err, 500, true)
		return
	}
	if claimed {
		common.ErrorStrResp(c, "this share link was already transferred by another task", 400)
		return
	}
	task := &model.Task{
		Name:        req.Name,
		ShareURL:    req.ShareURL,
		ShareCode:   code,
		ReceiveCode: password,
		Category:    req.Category,
		CronExpr:    req.CronExpr,
		ResourceURL: req.ResourceURL,
		Status:      model.StatusPending,
	}
	if err := db.CreateTask(task); err != nil {
		common.ErrorResp(c, err, 500, true)
		return
	}
	op.SyncTaskSchedule(task)
	op.RunTask(task.ID, reconcile.TriggerManual)
	common.SuccessResp(c, gin.H{"id": task.ID})
}

func DeleteTask(c *gin.Context) {
	id, ok := taskParam(c)
	if !ok {
		return
	}
	if err := op.DeleteTask(id); err != nil {
		common.ErrorResp(c, err, 500, true)
		return
	}
	common.SuccessResp(c)
}

func DeleteAllTasks(c *gin.Context) {
	if err := op.DeleteAllTasks(); err != nil {
		common.ErrorResp(c, err, 500, true)
		return
	}
	common.SuccessResp(c)
}

func PinTask(c *gin.Context) {
	id, ok := taskParam(c)
	if !ok {
		return
	}
	task, err := db.GetTask(id)
	if err != nil {
		common.ErrorStrResp(c, "task not found", 404)
		return
	}
	if err := db.UpdateTaskState(id, map[string]any{"pinned": !task.Pinned}); err != nil {
		common.ErrorResp(c, err, 500, true)
		return
	}
	common.SuccessResp(c, gin.H{"pinned": !task.Pinned})
}

// RunTask fires one manual pass and returns immediately; progress is
// visible through the task's log.
func RunTask(c *gin.Context) {
	id, ok := taskParam(c)
	if !ok {
		return
	}
	if _, err := db.GetTask(id); err != nil {
		common.ErrorStrResp(c, "task not found", 404)
		return
	}
	op.RunTask(id, reconcile.TriggerManual)
	common.SuccessResp(c, gin.H{"message": "task execution triggered"})
}

type ReplaceLinkReq struct {
	ShareURL string `json:"share_url" binding:"required"`
	Password string `json:"password"`
}

// ReplaceLink swaps a task's share reference for a fresh one and reruns
// it. The fingerprint is cleared so the new share always transfers.
func ReplaceLink(c *gin.Context) {
	id, ok := taskParam(c)
	if !ok {
		return
	}
	if _, err := db.GetTask(id); err != nil {
		common.ErrorStrResp(c, "task not found", 404)
		return
	}
	var req ReplaceLinkReq
	if err := c.ShouldBind(&req); err != nil {
		common.ErrorResp(c, err, 400)
		return
	}
	code, password, err := drive115.ExtractShareCode(req.ShareURL)
	if err != nil {
		common.ErrorResp(c, err, 400)
		return
	}
	if req.Password != "" {
		password = req.Password
	}
	claimed, err := db.ShareURLClaimedByOther(req.ShareURL, id)
	if err != nil {
		common.ErrorResp(c, err, 500, true)
		return
	}
	if claimed {
		common.ErrorStrResp(c, "this share link was already transferred by another task", 400)
		return
	}
	if err := db.UpdateTaskState(id, map[string]any{
		"share_url":        req.ShareURL,
		"share_code":       code,
		"receive_code":     password,
		"status":           model.StatusPending,
		"last_fingerprint": "",
	}); err != nil {
		common.ErrorResp(c, err, 500, true)
		return
	}
	if err := db.AppendLog(id, "share link replaced, rerunning"); err != nil {
		common.ErrorResp(c, err, 500, true)
		return
	}
	op.RunTask(id, reconcile.TriggerManual)
	common.SuccessResp(c)
}

type ResourceURLReq struct {
	ResourceURL string `json:"resource_url"`
}

// UpdateResourceURL stores the opaque external annotation; reconciliation
// never reads it.
func UpdateResourceURL(c *gin.Context) {
	id, ok := taskParam(c)
	if !ok {
		return
	}
	var req ResourceURLReq
	if err := c.ShouldBind(&req); err != nil {
		common.ErrorResp(c, err, 400)
		return
	}
	if err := db.UpdateTaskState(id, map[string]any{"resource_url": req.ResourceURL}); err != nil {
		common.ErrorResp(c, err, 500, true)
		return
	}
	common.SuccessResp(c)
}

func ListTaskLogs(c *gin.Context) {
	id, ok := taskParam(c)
	if !ok {
		return
	}
	logs, err := db.ListLogs(id)
	if err != nil {
		common.ErrorResp(c, err, 500, true)
		return
	}
	common.SuccessResp(c, logs)
}

// RefreshTaskIndex manually rescans a task's destination path on the
// index service.
func RefreshTaskIndex(c *gin.Context) {
	id, ok := taskParam(c)
	if !ok {
		return
	}
	task, err := db.GetTask(id)
	if err != nil {
		common.ErrorStrResp(c, "task not found", 404)
		return
	}
	snap, err := db.Snapshot()
	if err != nil {
		common.ErrorResp(c, err, 500, true)
		return
	}
	scanPath, err := reconcile.Default.RefreshTaskIndex(c.Request.Context(), task, snap)
	if err != nil {
		_ = db.AppendLog(id, "manual index refresh failed: "+err.Error())
		common.ErrorResp(c, err, 500)
		return
	}
	_ = db.AppendLog(id, "manual index refresh requested for "+scanPath)
	common.SuccessResp(c, gin.H{"path": scanPath})
}

const baiduScanCooldown = time.Hour

var (
	baiduScanMu   sync.Mutex
	lastBaiduScan time.Time
)

type ScanPathReq struct {
	Path string `json:"path" binding:"required"`
}

// ScanPath rescans an arbitrary index path. The Baidu mount is throttled
// to one scan per hour; its backend rate-limits aggressive rescans.
func ScanPath(c *gin.Context) {
	var req ScanPathReq
	if err := c.ShouldBind(&req); err != nil {
		common.ErrorResp(c, err, 400)
		return
	}
	if req.Path == "/百度网盘" {
		baiduScanMu.Lock()
		wait := baiduScanCooldown - time.Since(lastBaiduScan)
		if wait > 0 {
			baiduScanMu.Unlock()
			common.ErrorStrResp(c, "baidu scan is cooling down, try again in "+wait.Round(time.Minute).String(), 429)
			return
		}
		lastBaiduScan = time.Now()
		baiduScanMu.Unlock()
	}
	snap, err := db.Snapshot()
	if err != nil {
		common.ErrorResp(c, err, 500, true)
		return
	}
	if err := reconcile.Default.ScanPath(c.Request.Context(), req.Path, snap); err != nil {
		common.ErrorResp(c, err, 500)
		return
	}
	common.SuccessResp(c, gin.H{"message": "scan requested"})
}
