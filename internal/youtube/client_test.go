package youtube

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"duoverse-backend/internal/config"
)

type memoryCache struct {
	items map[string][]byte
}

func (m *memoryCache) GetJSON(_ context.Context, key string, dst interface{}) (bool, error) {
	data, ok := m.items[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, dst)
}

func (m *memoryCache) SetJSON(_ context.Context, key string, value interface{}, _ time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.items[key] = data
	return nil
}

func newFakeAPI(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("key") != "test-api-key-123456" {
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"error":{"code":403,"message":"API key not valid","errors":[{"reason":"keyInvalid"}]}}`))
			return
		}
		switch r.URL.Path {
		case "/youtube/v3/videos":
			if r.URL.Query().Get("id") == "missing" {
				w.Write([]byte(`{"items":[]}`))
				return
			}
			w.Write([]byte(`{"items":[{"id":"` + r.URL.Query().Get("id") + `","snippet":{"title":"Our Song","channelTitle":"Duo","thumbnails":{"high":{"url":"https://img/high.jpg"}}},"contentDetails":{"duration":"PT3M33S"}}]}`))
		case "/youtube/v3/search":
			w.Write([]byte(`{"items":[{"id":{"kind":"youtube#video","videoId":"v1"},"snippet":{"title":"First","channelTitle":"A","thumbnails":{"default":{"url":"https://img/1.jpg"}}}},{"id":{"kind":"youtube#channel"},"snippet":{"title":"Channel"}}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, srv *httptest.Server, key string, metadata MetadataCache) *Client {
	t.Helper()
	cfg := config.YouTubeConfig{APIKey: key, CheckTimeout: 2 * time.Second, CacheTTL: time.Hour}
	c, err := New(context.Background(), cfg, metadata, nil, option.WithEndpoint(srv.URL+"/"))
	require.NoError(t, err)
	return c
}

func TestVideoDetailsUsesCache(t *testing.T) {
	var hits int32
	srv := newFakeAPI(t, &hits)
	metadata := &memoryCache{items: map[string][]byte{}}
	c := newTestClient(t, srv, "test-api-key-123456", metadata)

	video, err := c.VideoDetails(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "Our Song", video.Title)
	assert.Equal(t, "Duo", video.Channel)
	assert.Equal(t, "https://img/high.jpg", video.Thumbnail)
	assert.Equal(t, "PT3M33S", video.Duration)

	again, err := c.VideoDetails(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, video, again)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestVideoDetailsNotFound(t *testing.T) {
	var hits int32
	c := newTestClient(t, newFakeAPI(t, &hits), "test-api-key-123456", nil)

	_, err := c.VideoDetails(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrVideoNotFound)
}

func TestSearchSkipsNonVideos(t *testing.T) {
	var hits int32
	c := newTestClient(t, newFakeAPI(t, &hits), "test-api-key-123456", nil)

	videos, err := c.Search(context.Background(), "love songs", 5)
	require.NoError(t, err)
	require.Len(t, videos, 1)
	assert.Equal(t, "v1", videos[0].ID)
	assert.Equal(t, "https://img/1.jpg", videos[0].Thumbnail)
}

func TestCheckAPIKey(t *testing.T) {
	var hits int32
	srv := newFakeAPI(t, &hits)

	assert.True(t, newTestClient(t, srv, "test-api-key-123456", nil).CheckAPIKey(context.Background()))
	assert.False(t, newTestClient(t, srv, "wrong-key-0000000", nil).CheckAPIKey(context.Background()))
}

func TestDisabledClient(t *testing.T) {
	c, err := New(context.Background(), config.YouTubeConfig{}, nil, nil)
	require.NoError(t, err)

	assert.False(t, c.Enabled())
	assert.False(t, c.CheckAPIKey(context.Background()))
	_, err = c.VideoDetails(context.Background(), "abc")
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = c.Search(context.Background(), "q", 5)
	assert.ErrorIs(t, err, ErrNotConfigured)
}
