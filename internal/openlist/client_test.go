package openlist

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shareporter/shareporter/pkg/utils"
)

type recordedReq struct {
	path string
	body map[string]any
}

func newTestServer(t *testing.T, scanCode int, scanMessage string) (*httptest.Server, *[]recordedReq) {
	t.Helper()
	var mu sync.Mutex
	var reqs []recordedReq
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, utils.Json.NewDecoder(r.Body).Decode(&body))
		mu.Lock()
		reqs = append(reqs, recordedReq{path: r.URL.Path, body: body})
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/fs/list":
			_, _ = w.Write([]byte(`{"code":200,"message":"success"}`))
		case "/api/admin/scan/start":
			_ = utils.Json.NewEncoder(w).Encode(map[string]any{
				"code": scanCode, "message": scanMessage,
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &reqs
}

func noSleep(c *Client) {
	c.sleep = func(context.Context, time.Duration) {}
}

func TestRefreshRefreshesParentThenScans(t *testing.T) {
	srv, reqs := newTestServer(t, 200, "success")
	c := NewClient(srv.URL, "tok", time.Second)
	noSleep(c)

	err := c.Refresh(context.Background(), "/cloud/电视剧/some-show")
	require.NoError(t, err)

	require.Len(t, *reqs, 2)
	assert.Equal(t, "/api/fs/list", (*reqs)[0].path)
	assert.Equal(t, "/cloud/电视剧", (*reqs)[0].body["path"])
	assert.Equal(t, true, (*reqs)[0].body["refresh"])
	assert.Equal(t, "/api/admin/scan/start", (*reqs)[1].path)
	assert.Equal(t, "/cloud/电视剧/some-show", (*reqs)[1].body["path"])
}

func TestRefreshSurvivesCacheRefreshFailure(t *testing.T) {
	var scans int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/api/fs/list" {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"code":500,"message":"boom"}`))
			return
		}
		scans++
		_, _ = w.Write([]byte(`{"code":200,"message":"success"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", time.Second)
	noSleep(c)

	err := c.Refresh(context.Background(), "/cloud/x")
	require.NoError(t, err)
	assert.Equal(t, 1, scans)
}

func TestStartScanIndexingDisabled(t *testing.T) {
	srv, _ := newTestServer(t, 404, "search not available")
	c := NewClient(srv.URL, "tok", time.Second)
	noSleep(c)

	err := c.StartScan(context.Background(), "/cloud/x")
	assert.ErrorIs(t, err, ErrIndexingDisabled)
}

func TestStartScanRejected(t *testing.T) {
	srv, _ := newTestServer(t, 403, "permission denied")
	c := NewClient(srv.URL, "tok", time.Second)
	noSleep(c)

	err := c.StartScan(context.Background(), "/cloud/x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
}
