package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"duoverse-backend/internal/config"
)

func newTestClient(t *testing.T) (*RedisClient, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewRedisClient(config.RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client, mr
}

type cachedVideo struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func TestJSONCache(t *testing.T) {
	client, mr := newTestClient(t)
	ctx := context.Background()

	var got cachedVideo
	found, err := client.GetJSON(ctx, VideoKey("abc"), &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, client.SetJSON(ctx, VideoKey("abc"), cachedVideo{ID: "abc", Title: "Song"}, time.Hour))
	found, err = client.GetJSON(ctx, VideoKey("abc"), &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Song", got.Title)

	mr.FastForward(2 * time.Hour)
	found, err = client.GetJSON(ctx, VideoKey("abc"), &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCorruptEntryIsMiss(t *testing.T) {
	client, mr := newTestClient(t)
	require.NoError(t, mr.Set(VideoKey("bad"), "{not json"))

	var got cachedVideo
	found, err := client.GetJSON(context.Background(), VideoKey("bad"), &got)
	require.NoError(t, err)
	assert.False(t, found)
	assert.False(t, mr.Exists(VideoKey("bad")))
}

func TestLimiterStorage(t *testing.T) {
	client, mr := newTestClient(t)
	store := client.LimiterStorage()

	val, err := store.Get("ip")
	require.NoError(t, err)
	assert.Nil(t, val)

	require.NoError(t, store.Set("ip", []byte("3"), time.Minute))
	val, err = store.Get("ip")
	require.NoError(t, err)
	assert.Equal(t, []byte("3"), val)

	require.NoError(t, mr.Set(VideoKey("keep"), "{}"))
	require.NoError(t, store.Reset())
	assert.False(t, mr.Exists(limiterKeyPrefix+"ip"))
	assert.True(t, mr.Exists(VideoKey("keep")))

	require.NoError(t, store.Set("ip", []byte("1"), 0))
	require.NoError(t, store.Delete("ip"))
	val, err = store.Get("ip")
	require.NoError(t, err)
	assert.Nil(t, val)
}
