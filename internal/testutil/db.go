package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"duoverse-backend/internal/database"
	"duoverse-backend/internal/model"
)

var dbSeq atomic.Int64

// NewDB 테스트마다 독립된 인메모리 SQLite DB
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, dbSeq.Add(1))

	db, err := database.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() { sqlDB.Close() })
	return db
}

// CreateMeeting 테스트용 미팅 생성
func CreateMeeting(t *testing.T, db *gorm.DB, roomID, date, clock string) *model.Meeting {
	t.Helper()

	m := &model.Meeting{
		RoomID:          roomID,
		Title:           "Date Night",
		Date:            date,
		Time:            clock,
		GalleryPassword: "16092008",
		IsActive:        true,
	}
	require.NoError(t, db.Create(m).Error)
	return m
}
