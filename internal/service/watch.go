package service

import (
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"

	"duoverse-backend/internal/model"
)

// WatchState 클라이언트에 내려주는 같이 보기 상태
type WatchState struct {
	VideoID     *string              `json:"video_id"`
	VideoTitle  *string              `json:"video_title"`
	IsPlaying   bool                 `json:"is_playing"`
	CurrentTime float64              `json:"current_time"`
	Volume      int                  `json:"volume"`
	Playlist    []model.PlaylistItem `json:"playlist"`
}

// WatchService YouTube 같이 보기 세션 (마지막 쓰기가 이김)
type WatchService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewWatchService WatchService 생성
func NewWatchService(db *gorm.DB, now func() time.Time) *WatchService {
	if now == nil {
		now = time.Now
	}
	return &WatchService{db: db, now: now}
}

func newSession(meetingID int64) *model.YouTubeSession {
	return &model.YouTubeSession{
		MeetingID: meetingID,
		Volume:    model.DefaultVolume,
		Playlist:  "[]",
	}
}

// findOrCreate 미팅 세션 조회, 없으면 생성
func findOrCreate(tx *gorm.DB, meetingID int64) (*model.YouTubeSession, error) {
	var session model.YouTubeSession
	err := tx.Where("meeting_id = ?", meetingID).First(&session).Error
	if err == nil {
		return &session, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	created := newSession(meetingID)
	if err := tx.Create(created).Error; err != nil {
		return nil, err
	}
	return created, nil
}

// find 세션이 없으면 nil
func find(tx *gorm.DB, meetingID int64) (*model.YouTubeSession, error) {
	var session model.YouTubeSession
	err := tx.Where("meeting_id = ?", meetingID).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// State 세션 상태 조회 (최초 접근 시 생성)
func (s *WatchService) State(meetingID int64) (*WatchState, error) {
	var state *WatchState
	err := s.db.Transaction(func(tx *gorm.DB) error {
		session, err := findOrCreate(tx, meetingID)
		if err != nil {
			return err
		}
		state = toState(session)
		return nil
	})
	return state, err
}

// Load 영상 교체, 재생 위치 0 / 일시정지로 초기화
func (s *WatchService) Load(meetingID int64, videoID, title string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		session, err := findOrCreate(tx, meetingID)
		if err != nil {
			return err
		}
		return tx.Model(session).Updates(map[string]interface{}{
			"video_id":          videoID,
			"video_title":       title,
			"is_playing":        false,
			"playback_position": 0,
		}).Error
	})
}

// Play 재생/일시정지와 위치 반영 (세션이 없으면 무시)
func (s *WatchService) Play(meetingID int64, playing bool, position float64) error {
	return s.updateExisting(meetingID, map[string]interface{}{
		"is_playing":        playing,
		"playback_position": position,
	})
}

// Seek 재생 위치만 변경 (세션이 없으면 무시)
func (s *WatchService) Seek(meetingID int64, position float64) error {
	return s.updateExisting(meetingID, map[string]interface{}{
		"playback_position": position,
	})
}

// SetVolume 0..100 으로 보정 후 저장 (세션이 없으면 무시)
func (s *WatchService) SetVolume(meetingID int64, volume int) error {
	return s.updateExisting(meetingID, map[string]interface{}{
		"volume": ClampVolume(volume),
	})
}

// ClampVolume 볼륨 범위 보정
func ClampVolume(volume int) int {
	if volume < model.MinVolume {
		return model.MinVolume
	}
	if volume > model.MaxVolume {
		return model.MaxVolume
	}
	return volume
}

func (s *WatchService) updateExisting(meetingID int64, values map[string]interface{}) error {
	return s.db.Model(&model.YouTubeSession{}).
		Where("meeting_id = ?", meetingID).
		Updates(values).Error
}

// AddToPlaylist 대기열 끝에 추가 (같은 영상 ID 는 한 번만)
func (s *WatchService) AddToPlaylist(meetingID int64, videoID, title string) ([]model.PlaylistItem, error) {
	var playlist []model.PlaylistItem
	err := s.db.Transaction(func(tx *gorm.DB) error {
		session, err := findOrCreate(tx, meetingID)
		if err != nil {
			return err
		}

		playlist = decodePlaylist(session.Playlist)
		for _, item := range playlist {
			if item.ID == videoID {
				return nil
			}
		}

		playlist = append(playlist, model.PlaylistItem{
			ID:      videoID,
			Title:   title,
			AddedAt: s.now().Format("2006-01-02T15:04:05.999999"),
		})
		return savePlaylist(tx, session, playlist)
	})
	return playlist, err
}

// RemoveFromPlaylist 해당 영상 ID 항목 모두 제거 (세션이 없으면 무시)
func (s *WatchService) RemoveFromPlaylist(meetingID int64, videoID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		session, err := find(tx, meetingID)
		if err != nil || session == nil {
			return err
		}

		current := decodePlaylist(session.Playlist)
		kept := make([]model.PlaylistItem, 0, len(current))
		for _, item := range current {
			if item.ID != videoID {
				kept = append(kept, item)
			}
		}
		return savePlaylist(tx, session, kept)
	})
}

func savePlaylist(tx *gorm.DB, session *model.YouTubeSession, playlist []model.PlaylistItem) error {
	data, err := json.Marshal(playlist)
	if err != nil {
		return err
	}
	return tx.Model(session).Update("playlist", string(data)).Error
}

// decodePlaylist 빈 값이나 깨진 JSON 은 빈 목록
func decodePlaylist(raw string) []model.PlaylistItem {
	playlist := []model.PlaylistItem{}
	if raw == "" {
		return playlist
	}
	if err := json.Unmarshal([]byte(raw), &playlist); err != nil {
		return []model.PlaylistItem{}
	}
	return playlist
}

func toState(session *model.YouTubeSession) *WatchState {
	return &WatchState{
		VideoID:     session.VideoID,
		VideoTitle:  session.VideoTitle,
		IsPlaying:   session.IsPlaying,
		CurrentTime: session.CurrentTime,
		Volume:      session.Volume,
		Playlist:    decodePlaylist(session.Playlist),
	}
}
