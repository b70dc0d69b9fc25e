package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"duoverse-backend/internal/config"
	"duoverse-backend/internal/model"
)

func TestDialectorSelectsDriver(t *testing.T) {
	d, err := Dialector(&config.DatabaseConfig{Driver: "sqlite", SQLitePath: "test.db"})
	require.NoError(t, err)
	assert.Equal(t, "sqlite", d.Name())

	d, err = Dialector(&config.DatabaseConfig{Driver: "postgres", DSN: "postgres://u:p@localhost/db"})
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())

	_, err = Dialector(&config.DatabaseConfig{Driver: "mysql"})
	assert.Error(t, err)
}

func TestOpenMigratesSchema(t *testing.T) {
	db, err := Open(sqlite.Open("file:migrate_test?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	for _, table := range []any{
		&model.Meeting{},
		&model.Message{},
		&model.JoinRequest{},
		&model.GalleryImage{},
		&model.YouTubeSession{},
	} {
		assert.True(t, db.Migrator().HasTable(table))
	}
	assert.True(t, db.Migrator().HasColumn(&model.YouTubeSession{}, "playback_position"))
}
