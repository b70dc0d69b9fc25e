package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"duoverse-backend/internal/model"
	"duoverse-backend/internal/service"
	"duoverse-backend/internal/testutil"
)

// recordingStore 삭제 시점에 DB 레코드가 남아 있었는지 기록
type recordingStore struct {
	db           *gorm.DB
	deleted      []string
	rowsOnDelete []int64
	deleteErr    error
}

func (s *recordingStore) Save(_ context.Context, key, _ string, _ []byte) (string, error) {
	return s.URL(key), nil
}

func (s *recordingStore) Delete(_ context.Context, key string) error {
	var count int64
	s.db.Model(&model.GalleryImage{}).Where("image_path = ?", key).Count(&count)
	s.rowsOnDelete = append(s.rowsOnDelete, count)
	s.deleted = append(s.deleted, key)
	return s.deleteErr
}

func (s *recordingStore) URL(key string) string {
	return "/static/uploads/" + key
}

func newGalleryApp(t *testing.T, store *recordingStore) (*fiber.App, *gorm.DB) {
	t.Helper()

	db := testutil.NewDB(t)
	store.db = db
	now := func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.Local) }
	h := NewGalleryHandler(db, service.NewMeetingService(db, now), store, "16092008", zap.NewNop())

	app := fiber.New()
	app.Delete("/api/delete-image/:id", h.Delete)
	return app, db
}

func TestGalleryDeleteRemovesRowBeforeFile(t *testing.T) {
	store := &recordingStore{}
	app, db := newGalleryApp(t, store)
	meeting := testutil.CreateMeeting(t, db, "room-1", "2026-05-01", "11:00")

	img := model.GalleryImage{MeetingID: meeting.ID, ImagePath: "room-1/a.png"}
	require.NoError(t, db.Create(&img).Error)

	resp, err := app.Test(httptest.NewRequest("DELETE", fmt.Sprintf("/api/delete-image/%d", img.ID), nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	require.Equal(t, []string{"room-1/a.png"}, store.deleted)
	assert.Equal(t, []int64{0}, store.rowsOnDelete)
}

func TestGalleryDeleteIgnoresFileErrors(t *testing.T) {
	store := &recordingStore{deleteErr: errors.New("bucket unavailable")}
	app, db := newGalleryApp(t, store)
	meeting := testutil.CreateMeeting(t, db, "room-1", "2026-05-01", "11:00")

	img := model.GalleryImage{MeetingID: meeting.ID, ImagePath: "room-1/b.png"}
	require.NoError(t, db.Create(&img).Error)

	resp, err := app.Test(httptest.NewRequest("DELETE", fmt.Sprintf("/api/delete-image/%d", img.ID), nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var count int64
	require.NoError(t, db.Model(&model.GalleryImage{}).Count(&count).Error)
	assert.Zero(t, count)
}
