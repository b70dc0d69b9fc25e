package service

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"duoverse-backend/internal/model"
)

// ErrMeetingNotFound room_id 에 해당하는 미팅 없음
var ErrMeetingNotFound = errors.New("meeting not found")

// MeetingService 미팅 조회/상태 관련 비즈니스 로직
type MeetingService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewMeetingService MeetingService 생성
func NewMeetingService(db *gorm.DB, now func() time.Time) *MeetingService {
	if now == nil {
		now = time.Now
	}
	return &MeetingService{db: db, now: now}
}

// Now 현재 시각 (테스트에서 교체 가능)
func (s *MeetingService) Now() time.Time {
	return s.now()
}

// Create 새 room_id 로 활성 미팅 생성
func (s *MeetingService) Create(title, description, date, clock, galleryPassword string) (*model.Meeting, error) {
	meeting := &model.Meeting{
		RoomID:          uuid.NewString(),
		Title:           title,
		Description:     description,
		Date:            date,
		Time:            clock,
		GalleryPassword: galleryPassword,
		IsActive:        true,
	}
	if err := s.db.Create(meeting).Error; err != nil {
		return nil, err
	}
	return meeting, nil
}

// FindByRoom room_id 로 미팅 조회
func (s *MeetingService) FindByRoom(roomID string) (*model.Meeting, error) {
	var meeting model.Meeting
	err := s.db.Where("room_id = ?", roomID).First(&meeting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMeetingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &meeting, nil
}

// IsStarted 미팅 예정 시각 경과 여부
func (s *MeetingService) IsStarted(m *model.Meeting) bool {
	return m.IsStarted(s.now())
}

// SetQRCodePath 생성된 QR 경로 저장
func (s *MeetingService) SetQRCodePath(m *model.Meeting, path string) error {
	if err := s.db.Model(m).Update("qr_code_path", path).Error; err != nil {
		return err
	}
	m.QRCodePath = &path
	return nil
}

// End 미팅 비활성화 (없는 미팅은 무시)
func (s *MeetingService) End(roomID string) error {
	return s.db.Model(&model.Meeting{}).
		Where("room_id = ?", roomID).
		Update("is_active", false).Error
}
