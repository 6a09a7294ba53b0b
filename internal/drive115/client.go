package drive115

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/shareporter/shareporter/pkg/utils"
)

const (
	defaultBaseURL = "https://webapi.115.com"
	// The provider caps folder listings at a page size; requesting 1000
	// approximates "list all" for the directory sizes this tool manages.
	listPageSize = 1000

	userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/98.0.4758.102 Safari/537.36"
	referer   = "https://115.com/"
)

// Delays are the named eventual-consistency waits the engine observes
// between a mutation and the next listing. They live here so they can be
// tuned, or replaced with polling, without touching the engine.
type Delays struct {
	PostTransfer time.Duration
	PostDelete   time.Duration
}

// Client talks to the 115 web API. It is stateless: the credential cookie
// is passed per call so a settings update never affects an in-flight pass.
type Client struct {
	http   *resty.Client
	delays Delays
	sleep  func(ctx context.Context, d time.Duration)
}

type Option func(*Client)

// WithBaseURL points the client at a different API host (tests).
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.http.SetBaseURL(strings.TrimRight(u, "/"))
	}
}

func WithDelays(d Delays) Option {
	return func(c *Client) {
		c.delays = d
	}
}

func NewClient(timeout time.Duration, opts ...Option) *Client {
	hc := resty.New().
		SetBaseURL(defaultBaseURL).
		SetTimeout(timeout).
		SetHeader("User-Agent", userAgent).
		SetHeader("Referer", referer)
	c := &Client{
		http:  hc,
		sleep: sleepCtx,
		delays: Delays{
			PostTransfer: 3 * time.Second,
			PostDelete:   2 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// SettlePostTransfer waits out the provider's consistency window after a
// transfer, before any discovery listing.
func (c *Client) SettlePostTransfer(ctx context.Context) {
	c.sleep(ctx, c.delays.PostTransfer)
}

// SettlePostDelete waits after a delete so a follow-up listing does not
// still report the removed items.
func (c *Client) SettlePostDelete(ctx context.Context) {
	c.sleep(ctx, c.delays.PostDelete)
}

// getJSON performs a GET with retries on transport failures only; an API
// response, even a rejection, is never retried.
func (c *Client) getJSON(ctx context.Context, cookie, path string, query map[string]string, out any) error {
	return retry.Do(func() error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetHeader("Cookie", cookie).
			SetQueryParams(query).
			SetResult(out).
			ForceContentType("application/json").
			Get(path)
		if err != nil {
			return err
		}
		if resp.IsError() {
			return retry.Unrecoverable(errors.Errorf("unexpected status %s from %s", resp.Status(), path))
		}
		return nil
	}, retry.Attempts(3), retry.Delay(500*time.Millisecond), retry.LastErrorOnly(true), retry.Context(ctx))
}

func (c *Client) postForm(ctx context.Context, cookie, path string, form map[string]string, out any) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Cookie", cookie).
		SetFormData(form).
		SetResult(out).
		ForceContentType("application/json").
		Post(path)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return errors.Errorf("unexpected status %s from %s", resp.Status(), path)
	}
	return nil
}

// UserInfo validates the credential and returns the account's display name.
func (c *Client) UserInfo(ctx context.Context, cookie string) (string, error) {
	if cookie == "" {
		return "", errors.New("cookie is empty")
	}
	var out userInfoResp
	if err := c.getJSON(ctx, cookie, "/files/index_info", nil, &out); err != nil {
		return "", errors.Wrap(err, "failed to reach 115")
	}
	if !out.State {
		return "", errors.New("cookie is invalid or expired")
	}
	name := out.Data.UserName
	if name == "" {
		name = "115用户"
	}
	return name, nil
}

// ListFolder lists a folder's entries, folders included, newest first.
func (c *Client) ListFolder(ctx context.Context, cookie, cid string, limit int) ([]Item, error) {
	if limit < listPageSize {
		limit = listPageSize
	}
	items, _, err := c.listFiles(ctx, cookie, cid, limit)
	return items, err
}

// RecentItems returns the most recently modified entries of a folder, used
// to discover the output of a transfer the provider did not identify.
func (c *Client) RecentItems(ctx context.Context, cookie, cid string, limit int) ([]Item, error) {
	if limit <= 0 {
		return nil, nil
	}
	items, _, err := c.listFiles(ctx, cookie, cid, limit)
	return items, err
}

func (c *Client) listFiles(ctx context.Context, cookie, cid string, limit int) ([]Item, []pathEntry, error) {
	var out listResp
	err := c.getJSON(ctx, cookie, "/files", map[string]string{
		"aid":      "1",
		"cid":      cid,
		"o":        "user_ptime",
		"asc":      "0",
		"offset":   "0",
		"show_dir": "1",
		"limit":    fmt.Sprint(limit),
		"type":     "0",
		"format":   "json",
	}, &out)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to list folder %s", cid)
	}
	if !out.State {
		return nil, nil, errors.Errorf("list folder %s rejected: %s", cid, out.reason())
	}
	items := make([]Item, 0, len(out.Data))
	for _, e := range out.Data {
		items = append(items, e.item())
	}
	return items, out.Path, nil
}

// ResolvePath returns the absolute drive path of a folder, "/a/b/c" style.
func (c *Client) ResolvePath(ctx context.Context, cookie, cid string) (string, error) {
	var out listResp
	err := c.getJSON(ctx, cookie, "/files", map[string]string{
		"aid":    "1",
		"cid":    cid,
		"limit":  "1",
		"format": "json",
	}, &out)
	if err != nil {
		return "", errors.Wrapf(err, "failed to resolve path of %s", cid)
	}
	if !out.State {
		return "", errors.Errorf("resolve path of %s rejected: %s", cid, out.reason())
	}
	segs := make([]string, 0, len(out.Path))
	for _, p := range out.Path {
		// the provider includes a synthetic root entry
		if p.Cid == "0" {
			continue
		}
		segs = append(segs, p.Name)
	}
	return "/" + strings.Join(segs, "/"), nil
}

// ShareSnap fetches a share's metadata: title, entries and sorted item ids.
func (c *Client) ShareSnap(ctx context.Context, cookie, shareCode, receiveCode string) (*ShareInfo, error) {
	var out shareSnapResp
	err := c.getJSON(ctx, cookie, "/share/snap", map[string]string{
		"share_code":   shareCode,
		"receive_code": receiveCode,
		"offset":       "0",
		"limit":        "100",
	}, &out)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch share info")
	}
	if !out.State {
		reason := out.reason()
		if reason == "" {
			reason = "链接无效或提取码错误"
		}
		return nil, errors.New(reason)
	}
	info := &ShareInfo{Title: out.Data.ShareTitle}
	for _, e := range out.Data.List {
		info.Items = append(info.Items, e.item())
		info.ItemIDs = append(info.ItemIDs, e.item().ID)
	}
	sort.Strings(info.ItemIDs)
	if info.Title == "" && len(info.Items) > 0 {
		info.Title = info.Items[0].Name
	}
	return info, nil
}

// Receive transfers the given share items into the target folder. Provider
// rejections come back as a typed result; only transport failures error.
func (c *Client) Receive(ctx context.Context, cookie, targetCid, shareCode, receiveCode string, itemIDs []string) (ReceiveResult, error) {
	if len(itemIDs) == 0 {
		return ReceiveResult{Status: ReceiveOK}, nil
	}
	var out respEnvelope
	err := c.postForm(ctx, cookie, "/share/receive", map[string]string{
		"cid":          targetCid,
		"share_code":   shareCode,
		"receive_code": receiveCode,
		"file_id":      strings.Join(itemIDs, ","),
	}, &out)
	if err != nil {
		return ReceiveResult{}, errors.Wrap(err, "transfer request failed")
	}
	if out.State {
		return ReceiveResult{Status: ReceiveOK}, nil
	}
	if strings.Contains(out.Error, "无需重复接收") {
		return ReceiveResult{Status: ReceiveDuplicate, Reason: out.Error}, nil
	}
	reason := out.reason()
	if reason == "" {
		reason = "转存被拒绝"
	}
	return ReceiveResult{Status: ReceiveRejected, Reason: reason}, nil
}

// AddFolder creates a folder under parentCid and returns its id. When the
// provider reports the name already exists (or acknowledges the create
// without a payload), a disambiguation listing recovers the real id of the
// same-named folder instead of failing.
func (c *Client) AddFolder(ctx context.Context, cookie, parentCid, name string) (string, error) {
	var out addFolderResp
	err := c.postForm(ctx, cookie, "/files/add", map[string]string{
		"pid":   parentCid,
		"cname": name,
	}, &out)
	if err != nil {
		return "", errors.Wrap(err, "create folder request failed")
	}
	if out.State && out.Data != nil {
		if out.Data.FileID != "" {
			return out.Data.FileID, nil
		}
		if out.Data.Cid != "" {
			return out.Data.Cid, nil
		}
	}
	if strings.Contains(out.Error, "已存在") || out.State {
		items, err := c.ListFolder(ctx, cookie, parentCid, listPageSize)
		if err != nil {
			return "", errors.Wrap(err, "folder exists but lookup failed")
		}
		for _, it := range items {
			if it.IsDir && it.Name == name {
				utils.Log.Debugf("[drive115] folder %q already exists, reusing cid %s", name, it.ID)
				return it.ID, nil
			}
		}
		if out.State {
			return "", errors.Errorf("folder %q created but not yet visible in %s", name, parentCid)
		}
		return "", errors.Errorf("folder name %q is taken by a same-named file", name)
	}
	reason := out.reason()
	if reason == "" {
		reason = "创建文件夹失败"
	}
	return "", errors.New(reason)
}

// DeleteItems moves the given items to the recycle bin. A nil/empty id set
// is a no-op.
func (c *Client) DeleteItems(ctx context.Context, cookie string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	form := make(map[string]string, len(ids))
	for i, id := range ids {
		form[fmt.Sprintf("fid[%d]", i)] = id
	}
	var out respEnvelope
	if err := c.postForm(ctx, cookie, "/rb/delete", form, &out); err != nil {
		return errors.Wrap(err, "delete request failed")
	}
	if !out.State {
		return errors.Errorf("delete rejected: %s", out.reason())
	}
	return nil
}

// RenameItem renames a single file or folder.
func (c *Client) RenameItem(ctx context.Context, cookie, id, newName string) error {
	var out respEnvelope
	err := c.postForm(ctx, cookie, "/files/batch_rename", map[string]string{
		fmt.Sprintf("files_new_name[%s]", id): newName,
	}, &out)
	if err != nil {
		return errors.Wrap(err, "rename request failed")
	}
	if !out.State {
		return errors.Errorf("rename rejected: %s", out.reason())
	}
	return nil
}
