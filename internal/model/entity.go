package model

import (
	"time"
)

// Meeting 미팅 (room_id 로 외부에 노출)
type Meeting struct {
	ID              int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	RoomID          string    `gorm:"type:varchar(36);uniqueIndex;not null" json:"room_id"`
	Title           string    `gorm:"type:varchar(200);not null" json:"title"`
	Description     string    `gorm:"type:text" json:"description"`
	Date            string    `gorm:"type:varchar(20);not null" json:"date"` // YYYY-MM-DD
	Time            string    `gorm:"type:varchar(20);not null" json:"time"` // HH:MM
	GalleryPassword string    `gorm:"type:varchar(50);not null" json:"-"`
	IsActive        bool      `gorm:"default:true" json:"is_active"`
	QRCodePath      *string   `gorm:"type:varchar(500)" json:"qr_code_path,omitempty"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relations
	Messages       []Message       `gorm:"foreignKey:MeetingID" json:"messages,omitempty"`
	JoinRequests   []JoinRequest   `gorm:"foreignKey:MeetingID" json:"join_requests,omitempty"`
	GalleryImages  []GalleryImage  `gorm:"foreignKey:MeetingID" json:"gallery_images,omitempty"`
	YouTubeSession *YouTubeSession `gorm:"foreignKey:MeetingID" json:"youtube_session,omitempty"`
}

func (Meeting) TableName() string {
	return "meetings"
}

// ScheduledAt 예정 시각 (서버 로컬 타임존 기준)
func (m *Meeting) ScheduledAt() (time.Time, error) {
	return time.ParseInLocation(ScheduleLayout, m.Date+" "+m.Time, time.Local)
}

// IsStarted 예정 시각이 지났는지 여부 (파싱 실패 시 시작 전으로 취급)
func (m *Meeting) IsStarted(now time.Time) bool {
	scheduled, err := m.ScheduledAt()
	if err != nil {
		return false
	}
	return !now.Before(scheduled)
}

// Message 채팅 메시지 (추가 전용)
type Message struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	MeetingID int64     `gorm:"not null;index" json:"meeting_id"`
	Sender    string    `gorm:"type:varchar(100);not null" json:"sender"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	IsImage   bool      `gorm:"default:false" json:"is_image"`
	Timestamp time.Time `gorm:"autoCreateTime" json:"timestamp"`

	// Relations
	Meeting Meeting `gorm:"foreignKey:MeetingID" json:"-"`
}

func (Message) TableName() string {
	return "messages"
}

// JoinRequest 파트너 입장 요청
type JoinRequest struct {
	ID          int64             `gorm:"primaryKey;autoIncrement" json:"id"`
	MeetingID   int64             `gorm:"not null;index" json:"meeting_id"`
	Requester   string            `gorm:"type:varchar(100);not null;index" json:"requester"`
	Status      JoinRequestStatus `gorm:"type:varchar(20);default:'pending'" json:"status"`
	Timestamp   time.Time         `gorm:"autoCreateTime" json:"timestamp"`
	UpdatedAt   time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
	RespondedAt *time.Time        `json:"responded_at,omitempty"`

	// Relations
	Meeting Meeting `gorm:"foreignKey:MeetingID" json:"-"`
}

func (JoinRequest) TableName() string {
	return "join_requests"
}

// GalleryImage 갤러리 이미지
type GalleryImage struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	MeetingID int64     `gorm:"not null;index" json:"meeting_id"`
	ImagePath string    `gorm:"type:varchar(500);not null" json:"image_path"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relations
	Meeting Meeting `gorm:"foreignKey:MeetingID" json:"-"`
}

func (GalleryImage) TableName() string {
	return "gallery_images"
}

// YouTubeSession 같이 보기 상태 (미팅당 최대 1개)
type YouTubeSession struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	MeetingID   int64     `gorm:"not null;uniqueIndex" json:"meeting_id"`
	VideoID     *string   `gorm:"type:varchar(100)" json:"video_id"`
	VideoTitle  *string   `gorm:"type:varchar(200)" json:"video_title"`
	IsPlaying   bool      `gorm:"default:false" json:"is_playing"`
	CurrentTime float64   `gorm:"column:playback_position;default:0" json:"current_time"` // current_time 은 SQL 예약어
	Volume      int       `gorm:"default:100" json:"volume"`
	Playlist    string    `gorm:"type:text;default:'[]'" json:"-"` // JSON 배열
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Meeting Meeting `gorm:"foreignKey:MeetingID" json:"-"`
}

func (YouTubeSession) TableName() string {
	return "youtube_sessions"
}

// PlaylistItem 재생 대기열 항목
type PlaylistItem struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	AddedAt string `json:"added_at"`
}
