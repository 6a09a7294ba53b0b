package reconcile

import (
	"context"

	"github.com/pkg/errors"

	"github.com/shareporter/shareporter/internal/conf"
	"github.com/shareporter/shareporter/internal/model"
	"github.com/shareporter/shareporter/internal/openlist"
)

// RefreshTaskIndex requests an index rescan of a task's destination
// without running a transfer (the manual "refresh index" action). The path
// is built from the category's configured index path plus the task name,
// so it works even when the drive is unreachable.
func (e *Engine) RefreshTaskIndex(ctx context.Context, task *model.Task, snap conf.Snapshot) (string, error) {
	if snap.OpenListURL == "" || snap.OpenListToken == "" {
		return "", errors.New("index service is not configured")
	}
	target := snap.Target(task.Category)
	if target.IndexPath == "" {
		return "", errors.Errorf("category %q has no index path configured", task.Category)
	}
	scanPath := openlist.MapPath(
		openlist.NormalizePath(target.IndexPath+"/"+task.Name),
		snap.RootPath, snap.MountPrefix)
	if err := e.newIndex(snap).Refresh(ctx, scanPath); err != nil {
		return scanPath, err
	}
	return scanPath, nil
}

// ScanPath requests an index rescan of an arbitrary mapped path.
func (e *Engine) ScanPath(ctx context.Context, path string, snap conf.Snapshot) error {
	if snap.OpenListURL == "" || snap.OpenListToken == "" {
		return errors.New("index service is not configured")
	}
	return e.newIndex(snap).Refresh(ctx, openlist.NormalizePath(path))
}
