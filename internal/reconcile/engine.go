package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/shareporter/shareporter/internal/conf"
	"github.com/shareporter/shareporter/internal/drive115"
	"github.com/shareporter/shareporter/internal/model"
	"github.com/shareporter/shareporter/internal/openlist"
	"github.com/shareporter/shareporter/pkg/utils"
)

// Default is the process-wide engine, wired during bootstrap.
var Default *Engine

type Trigger string

const (
	TriggerManual Trigger = "manual"
	TriggerCron   Trigger = "cron"
)

// Drive is the remote storage surface the engine needs. drive115.Client
// implements it; tests substitute a fake.
type Drive interface {
	ShareSnap(ctx context.Context, cookie, shareCode, receiveCode string) (*drive115.ShareInfo, error)
	Receive(ctx context.Context, cookie, targetCid, shareCode, receiveCode string, itemIDs []string) (drive115.ReceiveResult, error)
	AddFolder(ctx context.Context, cookie, parentCid, name string) (string, error)
	DeleteItems(ctx context.Context, cookie string, ids []string) error
	RenameItem(ctx context.Context, cookie, id, newName string) error
	RecentItems(ctx context.Context, cookie, cid string, limit int) ([]drive115.Item, error)
	ListFolder(ctx context.Context, cookie, cid string, limit int) ([]drive115.Item, error)
	ResolvePath(ctx context.Context, cookie, cid string) (string, error)
	SettlePostTransfer(ctx context.Context)
	SettlePostDelete(ctx context.Context)
}

// Indexer triggers the downstream index refresh.
type Indexer interface {
	Refresh(ctx context.Context, path string) error
}

// Store is the slice of the task store the engine writes through.
type Store interface {
	GetTask(id uint) (*model.Task, error)
	UpdateTaskState(id uint, fields map[string]any) error
	AppendLog(taskID uint, message string) error
}

// IndexerFactory builds an index client for one pass from the pass's
// settings snapshot.
type IndexerFactory func(snap conf.Snapshot) Indexer

const (
	// discoveryLimit is how many recent entries to fetch when locating the
	// folder a transfer just produced.
	discoveryLimit = 20
	// verifyLimit is how many entries prove a deduplicated transfer really
	// landed in the destination.
	verifyLimit = 5
)

// Engine runs reconciliation passes. At most one pass per task id is ever
// in flight: a trigger arriving while the id is active is dropped with a
// log note rather than queued.
type Engine struct {
	store    Store
	drive    Drive
	newIndex IndexerFactory
	now      func() time.Time

	mu       sync.Mutex
	inflight map[uint]struct{}
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

func WithIndexerFactory(f IndexerFactory) Option {
	return func(e *Engine) {
		e.newIndex = f
	}
}

func New(store Store, drive Drive, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		drive:    drive,
		now:      time.Now,
		inflight: make(map[uint]struct{}),
		newIndex: func(snap conf.Snapshot) Indexer {
			timeout := 10 * time.Second
			settle := 3 * time.Second
			if conf.Conf != nil {
				timeout = conf.Conf.RemoteTimeout
				settle = conf.Conf.PreScanSettleDelay
			}
			return openlist.NewClient(snap.OpenListURL, snap.OpenListToken, timeout,
				openlist.WithPreScanSettle(settle))
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) begin(id uint) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, busy := e.inflight[id]; busy {
		return false
	}
	e.inflight[id] = struct{}{}
	return true
}

func (e *Engine) end(id uint) {
	e.mu.Lock()
	delete(e.inflight, id)
	e.mu.Unlock()
}

// Reconcile performs one full pass for the task: skip checks, stale
// cleanup, transfer, naming reconciliation, state update and index
// refresh. It never returns an error; every failure ends as a task status
// plus a log line.
func (e *Engine) Reconcile(ctx context.Context, taskID uint, trigger Trigger, snap conf.Snapshot) {
	if !e.begin(taskID) {
		_ = e.store.AppendLog(taskID, "a run is already in progress, this trigger was ignored")
		utils.Log.Infof("[reconcile] task %d busy, %s trigger coalesced", taskID, trigger)
		return
	}
	defer e.end(taskID)

	task, err := e.store.GetTask(taskID)
	if err != nil {
		utils.Log.Warnf("[reconcile] task %d not loadable: %+v", taskID, err)
		return
	}

	runID := uuid.NewString()[:8]
	logf := func(format string, args ...any) {
		msg := fmt.Sprintf(format, args...)
		if err := e.store.AppendLog(taskID, msg); err != nil {
			utils.Log.Warnf("[reconcile] task %d log write failed: %+v", taskID, err)
		}
		utils.Log.Infof("[reconcile][%s] task %d: %s", runID, taskID, msg)
	}
	setStatus := func(status model.TaskStatus) {
		if err := e.store.UpdateTaskState(taskID, map[string]any{"status": status}); err != nil {
			utils.Log.Warnf("[reconcile] task %d status update failed: %+v", taskID, err)
		}
	}
	// cron runs never park in error: they fall back to scheduled and get
	// retried on the next tick
	failStatus := model.StatusError
	if trigger == TriggerCron {
		failStatus = model.StatusScheduled
	}

	if snap.Cookie == "" {
		logf("no 115 cookie configured")
		setStatus(failStatus)
		return
	}

	today := e.now().Format("2006-01-02")
	if trigger == TriggerCron && task.Status == model.StatusScheduled && task.LastSuccessDate == today {
		logf("already transferred successfully today, skipping")
		return
	}

	setStatus(model.StatusRunning)
	logf("run started: %s", task.Name)

	info, err := e.drive.ShareSnap(ctx, snap.Cookie, task.ShareCode, task.ReceiveCode)
	if err != nil {
		logf("failed to read share link: %v", err)
		setStatus(failStatus)
		return
	}
	logf("share resolved: %s", info.Title)

	if len(info.ItemIDs) == 0 {
		logf("share has no content")
		setStatus(failStatus)
		return
	}

	fingerprint := Fingerprint(info.ItemIDs)
	if trigger == TriggerCron && task.LastFingerprint != "" && task.LastFingerprint == fingerprint {
		logf("share content unchanged, skipping transfer")
		setStatus(model.StatusScheduled)
		return
	}

	if stale := task.SavedIDs(); len(stale) > 0 {
		logf("removing %d stale item(s) from the previous run", len(stale))
		if err := e.drive.DeleteItems(ctx, snap.Cookie, stale); err != nil {
			// the old output may already be gone; never abort on cleanup
			logf("stale cleanup failed: %v (continuing)", err)
		} else {
			e.drive.SettlePostDelete(ctx)
		}
	}

	target := snap.Target(task.Category)
	singleFolder := len(info.Items) == 1 && info.Items[0].IsDir

	destCid := target.Cid
	createdFolderID := ""
	if !singleFolder {
		logf("share is a loose collection, creating folder %q in %s", task.Name, target.Name)
		cid, err := e.drive.AddFolder(ctx, snap.Cookie, target.Cid, task.Name)
		if err != nil {
			logf("failed to create target folder: %v", err)
			setStatus(failStatus)
			return
		}
		createdFolderID = cid
		destCid = cid
		logf("target folder ready (cid %s)", cid)
	}

	res, err := e.drive.Receive(ctx, snap.Cookie, destCid, task.ShareCode, task.ReceiveCode, info.ItemIDs)
	if err != nil {
		logf("transfer request failed: %v", err)
		setStatus(failStatus)
		return
	}

	deduplicated := false
	switch res.Status {
	case drive115.ReceiveOK:
	case drive115.ReceiveDuplicate:
		// the provider claims the content was already received; only a
		// non-empty destination proves that it landed where we want it
		items, verr := e.drive.RecentItems(ctx, snap.Cookie, destCid, verifyLimit)
		if verr != nil || len(items) == 0 {
			logf("content already exists elsewhere in the drive and cannot be relocated")
			setStatus(failStatus)
			return
		}
		deduplicated = true
		logf("content already present at destination (provider dedup)")
	default:
		logf("transfer rejected: %s", res.Reason)
		setStatus(failStatus)
		return
	}

	e.drive.SettlePostTransfer(ctx)

	var savedIDs []string
	switch {
	case createdFolderID != "":
		savedIDs = []string{createdFolderID}
	case deduplicated:
		items, _ := e.drive.RecentItems(ctx, snap.Cookie, destCid, verifyLimit)
		for _, it := range items {
			savedIDs = append(savedIDs, it.ID)
		}
	default:
		savedIDs = e.reconcileSingleFolder(ctx, snap, task, info, target, logf)
	}

	e.persistSuccess(task, today, fingerprint, savedIDs)
	logf("transfer complete")

	e.refreshIndex(ctx, snap, destCid, logf)

	final := model.StatusSuccess
	if trigger == TriggerCron {
		final = model.StatusScheduled
	}
	setStatus(final)
	logf("run finished")
}

// reconcileSingleFolder locates the folder a direct transfer just produced
// (the provider does not report its id), resolves any name collision with
// a pre-existing item, and renames it to the task's canonical name. It
// returns the ids to record as this pass's output.
func (e *Engine) reconcileSingleFolder(ctx context.Context, snap conf.Snapshot, task *model.Task, info *drive115.ShareInfo, target conf.CategoryTarget, logf func(string, ...any)) []string {
	originalName := info.Items[0].Name
	recent, err := e.drive.RecentItems(ctx, snap.Cookie, target.Cid, discoveryLimit)
	if err != nil {
		logf("discovery listing failed: %v, rename skipped", err)
		return nil
	}
	var found *drive115.Item
	for i := range recent {
		if recent[i].Name == originalName {
			found = &recent[i]
			break
		}
	}
	if found == nil {
		logf("could not locate the transferred folder %q, it may need a manual rename", originalName)
		return nil
	}
	if found.Name != task.Name {
		// a leftover item already bearing the task name would make the
		// rename collide; drop it first
		if listing, lerr := e.drive.ListFolder(ctx, snap.Cookie, target.Cid, 0); lerr == nil {
			for _, existing := range listing {
				if existing.Name == task.Name && existing.ID != found.ID {
					logf("removing colliding item %q (id %s)", existing.Name, existing.ID)
					if derr := e.drive.DeleteItems(ctx, snap.Cookie, []string{existing.ID}); derr != nil {
						logf("failed to remove colliding item: %v", derr)
					} else {
						e.drive.SettlePostDelete(ctx)
					}
					break
				}
			}
		} else {
			logf("collision check failed: %v", lerr)
		}
		logf("renaming %q -> %q", found.Name, task.Name)
		if err := e.drive.RenameItem(ctx, snap.Cookie, found.ID, task.Name); err != nil {
			logf("rename failed: %v", err)
		}
	}
	return []string{found.ID}
}

// persistSuccess records the pass outcome in one state update: success
// date, fingerprint, this pass's output ids and the claimed share URL.
func (e *Engine) persistSuccess(task *model.Task, today, fingerprint string, savedIDs []string) {
	fields := map[string]any{
		"last_success_date": today,
		"last_fingerprint":  fingerprint,
		"last_saved_ids":    utils.MustJsonString(savedIDs),
	}
	urls := task.ExecutedURLs()
	if task.ShareURL != "" && !utils.SliceContains(urls, task.ShareURL) {
		urls = append(urls, task.ShareURL)
		fields["executed_share_urls"] = utils.MustJsonString(urls)
	}
	if err := e.store.UpdateTaskState(task.ID, fields); err != nil {
		utils.Log.Warnf("[reconcile] task %d success state update failed: %+v", task.ID, err)
	}
}

// refreshIndex resolves the destination's drive path, maps it into the
// index service's namespace and requests a rescan. Index failures never
// downgrade the pass: the transfer already succeeded, only discoverability
// lags.
func (e *Engine) refreshIndex(ctx context.Context, snap conf.Snapshot, destCid string, logf func(string, ...any)) {
	if snap.OpenListURL == "" || snap.OpenListToken == "" {
		logf("index service not configured, refresh skipped")
		return
	}
	fullPath, err := e.drive.ResolvePath(ctx, snap.Cookie, destCid)
	if err != nil {
		logf("could not resolve destination path: %v, refresh skipped", err)
		return
	}
	scanPath := openlist.MapPath(fullPath, snap.RootPath, snap.MountPrefix)
	if err := e.newIndex(snap).Refresh(ctx, scanPath); err != nil {
		if errors.Is(err, openlist.ErrIndexingDisabled) {
			logf("index refresh failed: indexing is disabled on the index service, enable it in its admin panel")
		} else {
			logf("index refresh failed: %v", err)
		}
		return
	}
	logf("index scan requested for %s", scanPath)
}
