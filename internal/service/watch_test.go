package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"duoverse-backend/internal/testutil"
)

func TestWatchStateCreatedLazily(t *testing.T) {
	db := testutil.NewDB(t)
	m := testutil.CreateMeeting(t, db, "room-1", "2025-01-01", "19:00")
	svc := NewWatchService(db, nil)

	state, err := svc.State(m.ID)
	require.NoError(t, err)
	assert.Nil(t, state.VideoID)
	assert.False(t, state.IsPlaying)
	assert.Equal(t, 100, state.Volume)
	assert.Empty(t, state.Playlist)
	assert.NotNil(t, state.Playlist)
}

func TestLoadResetsPlayback(t *testing.T) {
	db := testutil.NewDB(t)
	m := testutil.CreateMeeting(t, db, "room-1", "2025-01-01", "19:00")
	svc := NewWatchService(db, nil)

	require.NoError(t, svc.Load(m.ID, "first", "First"))
	require.NoError(t, svc.Play(m.ID, true, 42.5))

	state, err := svc.State(m.ID)
	require.NoError(t, err)
	assert.True(t, state.IsPlaying)
	assert.Equal(t, 42.5, state.CurrentTime)

	require.NoError(t, svc.Load(m.ID, "second", "Second"))
	state, err = svc.State(m.ID)
	require.NoError(t, err)
	require.NotNil(t, state.VideoID)
	assert.Equal(t, "second", *state.VideoID)
	assert.False(t, state.IsPlaying)
	assert.Zero(t, state.CurrentTime)
}

func TestUpdatesWithoutSessionAreIgnored(t *testing.T) {
	db := testutil.NewDB(t)
	m := testutil.CreateMeeting(t, db, "room-1", "2025-01-01", "19:00")
	svc := NewWatchService(db, nil)

	require.NoError(t, svc.Seek(m.ID, 10))
	require.NoError(t, svc.SetVolume(m.ID, 20))

	state, err := svc.State(m.ID)
	require.NoError(t, err)
	assert.Zero(t, state.CurrentTime)
	assert.Equal(t, 100, state.Volume)
}

func TestVolumeClamped(t *testing.T) {
	db := testutil.NewDB(t)
	m := testutil.CreateMeeting(t, db, "room-1", "2025-01-01", "19:00")
	svc := NewWatchService(db, nil)

	_, err := svc.State(m.ID)
	require.NoError(t, err)

	require.NoError(t, svc.SetVolume(m.ID, 150))
	state, err := svc.State(m.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, state.Volume)

	require.NoError(t, svc.SetVolume(m.ID, -5))
	state, err = svc.State(m.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, state.Volume)
}

func TestPlaylistDedupAndRemove(t *testing.T) {
	db := testutil.NewDB(t)
	m := testutil.CreateMeeting(t, db, "room-1", "2025-01-01", "19:00")
	svc := NewWatchService(db, nil)

	playlist, err := svc.AddToPlaylist(m.ID, "a", "A")
	require.NoError(t, err)
	assert.Len(t, playlist, 1)

	_, err = svc.AddToPlaylist(m.ID, "b", "B")
	require.NoError(t, err)
	playlist, err = svc.AddToPlaylist(m.ID, "a", "A again")
	require.NoError(t, err)
	require.Len(t, playlist, 2)
	assert.Equal(t, "A", playlist[0].Title)

	require.NoError(t, svc.RemoveFromPlaylist(m.ID, "a"))
	state, err := svc.State(m.ID)
	require.NoError(t, err)
	require.Len(t, state.Playlist, 1)
	assert.Equal(t, "b", state.Playlist[0].ID)
}

func TestDecodePlaylistToleratesGarbage(t *testing.T) {
	assert.Empty(t, decodePlaylist(""))
	assert.Empty(t, decodePlaylist("{broken"))
	assert.Len(t, decodePlaylist(`[{"id":"x","title":"X","added_at":"2025-01-01T00:00:00"}]`), 1)
}
