package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"duoverse-backend/internal/model"
	"duoverse-backend/internal/testutil"
)

func TestFindByRoom(t *testing.T) {
	db := testutil.NewDB(t)
	created := testutil.CreateMeeting(t, db, "room-1", "2025-01-01", "19:00")
	svc := NewMeetingService(db, nil)

	m, err := svc.FindByRoom("room-1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, m.ID)

	_, err = svc.FindByRoom("missing")
	assert.ErrorIs(t, err, ErrMeetingNotFound)
}

func TestIsStartedUsesClock(t *testing.T) {
	db := testutil.NewDB(t)
	m := testutil.CreateMeeting(t, db, "room-1", "2025-01-01", "19:00")

	before := NewMeetingService(db, func() time.Time {
		return time.Date(2025, 1, 1, 18, 59, 0, 0, time.Local)
	})
	after := NewMeetingService(db, func() time.Time {
		return time.Date(2025, 1, 1, 19, 0, 0, 0, time.Local)
	})

	assert.False(t, before.IsStarted(m))
	assert.True(t, after.IsStarted(m))
}

func TestEndAndSetQRCodePath(t *testing.T) {
	db := testutil.NewDB(t)
	m := testutil.CreateMeeting(t, db, "room-1", "2025-01-01", "19:00")
	svc := NewMeetingService(db, nil)

	require.NoError(t, svc.SetQRCodePath(m, "qrcodes/qr_room-1.png"))
	require.NoError(t, svc.End("room-1"))
	require.NoError(t, svc.End("unknown"))

	var reloaded model.Meeting
	require.NoError(t, db.First(&reloaded, m.ID).Error)
	assert.False(t, reloaded.IsActive)
	require.NotNil(t, reloaded.QRCodePath)
	assert.Equal(t, "qrcodes/qr_room-1.png", *reloaded.QRCodePath)
}

func TestCreate(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewMeetingService(db, nil)

	m, err := svc.Create("Date Night", "", "2025-01-01", "19:00", "16092008")
	require.NoError(t, err)
	assert.Len(t, m.RoomID, 36)
	assert.True(t, m.IsActive)

	found, err := svc.FindByRoom(m.RoomID)
	require.NoError(t, err)
	assert.Equal(t, "Date Night", found.Title)
	assert.Nil(t, found.QRCodePath)
}
