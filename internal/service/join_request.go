package service

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"duoverse-backend/internal/model"
)

var (
	ErrMeetingInactive     = errors.New("meeting is not active")
	ErrMeetingNotStarted   = errors.New("meeting has not started yet")
	ErrJoinRequestNotFound = errors.New("join request not found")
	ErrInvalidAction       = errors.New("invalid action")
)

// JoinRequestStats 상태별 요청 수
type JoinRequestStats struct {
	Total    int64 `json:"total"`
	Pending  int64 `json:"pending"`
	Accepted int64 `json:"accepted"`
	Rejected int64 `json:"rejected"`
}

// JoinRequestService 파트너 입장 요청 처리
type JoinRequestService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewJoinRequestService JoinRequestService 생성
func NewJoinRequestService(db *gorm.DB, now func() time.Time) *JoinRequestService {
	if now == nil {
		now = time.Now
	}
	return &JoinRequestService{db: db, now: now}
}

// Create 활성 상태이고 시작 시각이 지난 미팅에만 pending 요청 생성
func (s *JoinRequestService) Create(meeting *model.Meeting) (*model.JoinRequest, error) {
	if !meeting.IsActive {
		return nil, ErrMeetingInactive
	}
	if !meeting.IsStarted(s.now()) {
		return nil, ErrMeetingNotStarted
	}

	req := &model.JoinRequest{
		MeetingID: meeting.ID,
		Requester: uuid.NewString(),
		Status:    model.JoinRequestPending,
		Timestamp: s.now(),
	}
	if err := s.db.Create(req).Error; err != nil {
		return nil, err
	}
	return req, nil
}

// List 미팅의 요청 목록 (최신순, status 가 비어 있으면 전체)
func (s *JoinRequestService) List(meetingID int64, status model.JoinRequestStatus) ([]model.JoinRequest, error) {
	query := s.db.Where("meeting_id = ?", meetingID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var requests []model.JoinRequest
	if err := query.Order("timestamp DESC").Order("id DESC").Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

// Stats 상태별 개수 집계
func (s *JoinRequestService) Stats(meetingID int64) (*JoinRequestStats, error) {
	var rows []struct {
		Status model.JoinRequestStatus
		Count  int64
	}
	err := s.db.Model(&model.JoinRequest{}).
		Select("status, COUNT(*) AS count").
		Where("meeting_id = ?", meetingID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	stats := &JoinRequestStats{}
	for _, row := range rows {
		stats.Total += row.Count
		switch row.Status {
		case model.JoinRequestPending:
			stats.Pending = row.Count
		case model.JoinRequestAccepted:
			stats.Accepted = row.Count
		case model.JoinRequestRejected:
			stats.Rejected = row.Count
		}
	}
	return stats, nil
}

// Get 요청을 미팅과 함께 조회
func (s *JoinRequestService) Get(requestID int64) (*model.JoinRequest, error) {
	var req model.JoinRequest
	err := s.db.Preload("Meeting").First(&req, requestID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrJoinRequestNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// Respond 호스트의 수락/거절 (요청 존재 여부를 먼저 확인)
func (s *JoinRequestService) Respond(requestID int64, action model.JoinRequestAction) error {
	var req model.JoinRequest
	err := s.db.First(&req, requestID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrJoinRequestNotFound
	}
	if err != nil {
		return err
	}

	status, ok := action.Status()
	if !ok {
		return ErrInvalidAction
	}

	now := s.now()
	return s.db.Model(&req).Updates(map[string]interface{}{
		"status":       status,
		"responded_at": now,
	}).Error
}

// BatchRespond 여러 요청에 같은 상태 적용 (다른 미팅의 요청은 무시), 실제 변경 수 반환
func (s *JoinRequestService) BatchRespond(meetingID int64, ids []int64, status model.JoinRequestStatus) (int64, error) {
	var affected int64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.JoinRequest{}).
			Where("id IN ? AND meeting_id = ?", ids, meetingID).
			Updates(map[string]interface{}{
				"status":       status,
				"responded_at": s.now(),
			})
		if result.Error != nil {
			return result.Error
		}
		affected = result.RowsAffected
		return nil
	})
	return affected, err
}

// ClearRejected 미팅의 거절된 요청 전체 삭제
func (s *JoinRequestService) ClearRejected(meetingID int64) (int64, error) {
	result := s.db.Where("meeting_id = ? AND status = ?", meetingID, model.JoinRequestRejected).
		Delete(&model.JoinRequest{})
	return result.RowsAffected, result.Error
}

// ClearRejectedFor 특정 요청자의 거절된 요청 삭제 (없으면 무시)
func (s *JoinRequestService) ClearRejectedFor(meetingID int64, requester string) error {
	return s.db.Where("meeting_id = ? AND requester = ? AND status = ?",
		meetingID, requester, model.JoinRequestRejected).
		Delete(&model.JoinRequest{}).Error
}

// FindByRequester 요청자 토큰으로 요청 조회 (없으면 nil)
func (s *JoinRequestService) FindByRequester(meetingID int64, requester string) (*model.JoinRequest, error) {
	var req model.JoinRequest
	err := s.db.Where("meeting_id = ? AND requester = ?", meetingID, requester).
		Order("id DESC").
		First(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}
