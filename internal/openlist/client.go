package openlist

import (
	"context"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/shareporter/shareporter/pkg/utils"
)

// ErrIndexingDisabled means the index feature is turned off on the
// OpenList side; the user has to enable it in the admin panel, so it is
// surfaced distinctly from generic scan failures.
var ErrIndexingDisabled = errors.New("indexing is not enabled on the index service")

// Client triggers index refreshes on a downstream OpenList instance.
type Client struct {
	http          *resty.Client
	token         string
	preScanSettle time.Duration
	sleep         func(ctx context.Context, d time.Duration)
}

type Option func(*Client)

func WithPreScanSettle(d time.Duration) Option {
	return func(c *Client) {
		c.preScanSettle = d
	}
}

func NewClient(baseURL, token string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		http: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetTimeout(timeout).
			SetHeader("Authorization", token).
			SetHeader("Content-Type", "application/json"),
		token:         token,
		preScanSettle: 3 * time.Second,
		sleep: func(ctx context.Context, d time.Duration) {
			if d <= 0 {
				return
			}
			t := time.NewTimer(d)
			defer t.Stop()
			select {
			case <-ctx.Done():
			case <-t.C:
			}
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type apiResp struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// RefreshCache forces a fresh listing of path so the instance notices new
// entries before the scan walks them.
func (c *Client) RefreshCache(ctx context.Context, path string) error {
	var out apiResp
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"path":     path,
			"password": "",
			"page":     1,
			"per_page": 0,
			"refresh":  true,
		}).
		SetResult(&out).
		Post("/api/fs/list")
	if err != nil {
		return errors.Wrap(err, "cache refresh request failed")
	}
	if resp.IsError() || out.Code != 200 {
		return errors.Errorf("cache refresh rejected: %s (code %d)", out.Message, out.Code)
	}
	return nil
}

// StartScan asks the instance to index path.
func (c *Client) StartScan(ctx context.Context, path string) error {
	var out apiResp
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"path":  path,
			"limit": 0,
		}).
		SetResult(&out).
		Post("/api/admin/scan/start")
	if err != nil {
		return errors.Wrap(err, "scan request failed")
	}
	if out.Code == 200 {
		return nil
	}
	if out.Code == 404 && strings.Contains(out.Message, "search not available") {
		return ErrIndexingDisabled
	}
	if resp.IsError() && out.Message == "" {
		return errors.Errorf("scan rejected with status %s", resp.Status())
	}
	return errors.Errorf("scan rejected: %s (code %d)", out.Message, out.Code)
}

// Refresh makes path discoverable: it refreshes the cached listing of the
// parent (best-effort), waits for the refresh to propagate, then starts a
// scan of path itself.
func (c *Client) Refresh(ctx context.Context, path string) error {
	path = NormalizePath(path)
	if err := c.RefreshCache(ctx, ParentPath(path)); err != nil {
		utils.Log.Warnf("[openlist] cache refresh of %s failed: %v", ParentPath(path), err)
	}
	c.sleep(ctx, c.preScanSettle)
	return c.StartScan(ctx, path)
}
