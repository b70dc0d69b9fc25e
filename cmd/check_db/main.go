package main

import (
	"fmt"
	"log"

	"gorm.io/gorm"

	"duoverse-backend/internal/config"
	"duoverse-backend/internal/database"
	"duoverse-backend/internal/model"
)

// 스키마 점검 대상 (테이블 -> 필수 컬럼)
var expectedColumns = []struct {
	model   interface{}
	table   string
	columns []string
}{
	{&model.Meeting{}, "meetings", []string{"room_id", "title", "date", "time", "gallery_password", "is_active", "qr_code_path"}},
	{&model.Message{}, "messages", []string{"meeting_id", "sender", "message", "is_image", "timestamp"}},
	{&model.JoinRequest{}, "join_requests", []string{"meeting_id", "requester", "status", "timestamp", "responded_at"}},
	{&model.GalleryImage{}, "gallery_images", []string{"meeting_id", "image_path", "created_at"}},
	{&model.YouTubeSession{}, "youtube_sessions", []string{"meeting_id", "video_id", "is_playing", "playback_position", "volume", "playlist"}},
}

func main() {
	cfg := config.Load()

	dialector, err := database.Dialector(&cfg.Database)
	if err != nil {
		log.Fatal("Invalid database config:", err)
	}

	// 마이그레이션 없이 현재 스키마 그대로 확인
	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	fmt.Printf("✅ Connected to database (%s)\n", cfg.Database.Driver)
	fmt.Println()

	missing := 0
	migrator := db.Migrator()
	for _, t := range expectedColumns {
		if !migrator.HasTable(t.model) {
			fmt.Printf("❌ Table %s does NOT exist\n", t.table)
			missing++
			continue
		}

		var count int64
		if err := db.Table(t.table).Count(&count).Error; err != nil {
			log.Fatalf("Failed to count %s: %v", t.table, err)
		}
		fmt.Printf("📊 %s: %d rows\n", t.table, count)

		for _, col := range t.columns {
			if !migrator.HasColumn(t.model, col) {
				fmt.Printf("  - ❌ missing column %s\n", col)
				missing++
			}
		}
	}
	fmt.Println()

	if missing > 0 {
		fmt.Println("⚠️  Schema is out of date, start the server once to run AutoMigrate")
		return
	}

	// 입장 요청 상태 통계
	type StatusStats struct {
		Total    int64
		Pending  int64
		Accepted int64
		Rejected int64
	}
	var stats StatusStats
	query := `
		SELECT
			COUNT(*) as total,
			COUNT(CASE WHEN status = 'pending' THEN 1 END) as pending,
			COUNT(CASE WHEN status = 'accepted' THEN 1 END) as accepted,
			COUNT(CASE WHEN status = 'rejected' THEN 1 END) as rejected
		FROM join_requests
	`
	if err := db.Raw(query).Scan(&stats).Error; err != nil {
		log.Fatal("Failed to get statistics:", err)
	}

	fmt.Println("📈 Join Request Statistics:")
	fmt.Printf("  - Total: %d\n", stats.Total)
	fmt.Printf("  - pending: %d\n", stats.Pending)
	fmt.Printf("  - accepted: %d\n", stats.Accepted)
	fmt.Printf("  - rejected: %d\n", stats.Rejected)
	fmt.Println()

	// 최근 미팅
	var meetings []model.Meeting
	if err := db.Order("id DESC").Limit(10).Find(&meetings).Error; err != nil {
		log.Fatal("Failed to get recent meetings:", err)
	}

	fmt.Println("💑 Recent Meetings (last 10):")
	for _, m := range meetings {
		fmt.Printf("  - ID: %d, Room: %s, Title: %s, Scheduled: %s %s, Active: %v\n",
			m.ID, m.RoomID, m.Title, m.Date, m.Time, m.IsActive)
	}
}
