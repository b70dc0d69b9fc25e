package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"duoverse-backend/internal/model"
	"duoverse-backend/internal/testutil"
)

func clockAt(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

var afterStart = time.Date(2025, 1, 1, 20, 0, 0, 0, time.Local)

func TestCreateJoinRequestRequiresStartedActiveMeeting(t *testing.T) {
	db := testutil.NewDB(t)
	m := testutil.CreateMeeting(t, db, "room-1", "2025-01-01", "19:00")

	early := NewJoinRequestService(db, clockAt(time.Date(2025, 1, 1, 18, 0, 0, 0, time.Local)))
	_, err := early.Create(m)
	assert.ErrorIs(t, err, ErrMeetingNotStarted)

	svc := NewJoinRequestService(db, clockAt(afterStart))
	req, err := svc.Create(m)
	require.NoError(t, err)
	assert.Equal(t, model.JoinRequestPending, req.Status)
	assert.Len(t, req.Requester, 36)

	m.IsActive = false
	_, err = svc.Create(m)
	assert.ErrorIs(t, err, ErrMeetingInactive)
}

func TestRespond(t *testing.T) {
	db := testutil.NewDB(t)
	m := testutil.CreateMeeting(t, db, "room-1", "2025-01-01", "19:00")
	svc := NewJoinRequestService(db, clockAt(afterStart))

	req, err := svc.Create(m)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Respond(req.ID, "maybe"), ErrInvalidAction)
	assert.ErrorIs(t, svc.Respond(9999, model.ActionAccept), ErrJoinRequestNotFound)
	require.NoError(t, svc.Respond(req.ID, model.ActionAccept))

	found, err := svc.FindByRequester(m.ID, req.Requester)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, model.JoinRequestAccepted, found.Status)
	require.NotNil(t, found.RespondedAt)

	missing, err := svc.FindByRequester(m.ID, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestListStatsAndBatch(t *testing.T) {
	db := testutil.NewDB(t)
	m := testutil.CreateMeeting(t, db, "room-1", "2025-01-01", "19:00")
	other := testutil.CreateMeeting(t, db, "room-2", "2025-01-01", "19:00")
	svc := NewJoinRequestService(db, clockAt(afterStart))

	var ids []int64
	for i := 0; i < 3; i++ {
		req, err := svc.Create(m)
		require.NoError(t, err)
		ids = append(ids, req.ID)
	}
	foreign, err := svc.Create(other)
	require.NoError(t, err)

	accepted, err := svc.BatchRespond(m.ID, []int64{ids[0], foreign.ID}, model.JoinRequestAccepted)
	require.NoError(t, err)
	assert.Equal(t, int64(1), accepted)

	rejected, err := svc.BatchRespond(m.ID, []int64{ids[1]}, model.JoinRequestRejected)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rejected)

	stats, err := svc.Stats(m.ID)
	require.NoError(t, err)
	assert.Equal(t, JoinRequestStats{Total: 3, Pending: 1, Accepted: 1, Rejected: 1}, *stats)

	pending, err := svc.List(m.ID, model.JoinRequestPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, ids[2], pending[0].ID)

	all, err := svc.List(m.ID, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, ids[2], all[0].ID)

	cleared, err := svc.ClearRejected(m.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cleared)

	stats, err = svc.Stats(other.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Pending)
}

func TestClearRejectedFor(t *testing.T) {
	db := testutil.NewDB(t)
	m := testutil.CreateMeeting(t, db, "room-1", "2025-01-01", "19:00")
	svc := NewJoinRequestService(db, clockAt(afterStart))

	req, err := svc.Create(m)
	require.NoError(t, err)

	// pending 요청은 지우지 않음
	require.NoError(t, svc.ClearRejectedFor(m.ID, req.Requester))
	found, err := svc.FindByRequester(m.ID, req.Requester)
	require.NoError(t, err)
	require.NotNil(t, found)

	require.NoError(t, svc.Respond(req.ID, model.ActionReject))
	require.NoError(t, svc.ClearRejectedFor(m.ID, req.Requester))
	found, err = svc.FindByRequester(m.ID, req.Requester)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestGetLoadsMeeting(t *testing.T) {
	db := testutil.NewDB(t)
	m := testutil.CreateMeeting(t, db, "room-1", "2025-01-01", "19:00")
	svc := NewJoinRequestService(db, clockAt(afterStart))

	req, err := svc.Create(m)
	require.NoError(t, err)

	got, err := svc.Get(req.ID)
	require.NoError(t, err)
	assert.Equal(t, "room-1", got.Meeting.RoomID)

	_, err = svc.Get(999)
	assert.ErrorIs(t, err, ErrJoinRequestNotFound)
}
