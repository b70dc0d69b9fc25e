package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"duoverse-backend/internal/model"
	"duoverse-backend/internal/service"
	"duoverse-backend/internal/youtube"
)

// 검색 결과 최대 개수
const searchMaxResults = 10

// YouTubeHandler 같이 보기 핸들러
type YouTubeHandler struct {
	meetings *service.MeetingService
	watch    *service.WatchService
	yt       *youtube.Client
	log      *zap.Logger
}

// NewYouTubeHandler YouTubeHandler 생성
func NewYouTubeHandler(meetings *service.MeetingService, watch *service.WatchService, yt *youtube.Client, log *zap.Logger) *YouTubeHandler {
	return &YouTubeHandler{meetings: meetings, watch: watch, yt: yt, log: log}
}

// WatchRequest 같이 보기 제어 요청 (엔드포인트별로 일부 필드만 사용)
type WatchRequest struct {
	RoomID      string  `json:"room_id"`
	VideoID     string  `json:"video_id"`
	VideoTitle  string  `json:"video_title"`
	IsPlaying   bool    `json:"is_playing"`
	CurrentTime float64 `json:"current_time"`
	Volume      *int    `json:"volume"`
}

func (h *YouTubeHandler) parse(c *fiber.Ctx) (*WatchRequest, *model.Meeting, error) {
	var req WatchRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	meeting, err := h.meetings.FindByRoom(req.RoomID)
	if err != nil {
		return nil, nil, meetingError(c, err)
	}
	return &req, meeting, nil
}

func (h *YouTubeHandler) internalError(c *fiber.Ctx, msg string, err error) error {
	h.log.Error(msg, zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": msg,
	})
}

// Session 세션 상태 조회 (없으면 생성)
func (h *YouTubeHandler) Session(c *fiber.Ctx) error {
	meeting, err := findRoom(c, h.meetings)
	if err != nil {
		return meetingError(c, err)
	}

	state, err := h.watch.State(meeting.ID)
	if err != nil {
		return h.internalError(c, "failed to get youtube session", err)
	}
	return c.JSON(state)
}

// Load 영상 불러오기 (제목이 없으면 API 로 조회)
func (h *YouTubeHandler) Load(c *fiber.Ctx) error {
	req, meeting, err := h.parse(c)
	if req == nil {
		return err
	}
	if req.VideoID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "video_id is required",
		})
	}

	title := req.VideoTitle
	if title == "" && h.yt.Enabled() {
		if video, err := h.yt.VideoDetails(c.UserContext(), req.VideoID); err == nil {
			title = video.Title
		} else {
			h.log.Warn("video title lookup failed", zap.String("video_id", req.VideoID), zap.Error(err))
		}
	}

	if err := h.watch.Load(meeting.ID, req.VideoID, title); err != nil {
		return h.internalError(c, "failed to load video", err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// Play 재생/일시정지
func (h *YouTubeHandler) Play(c *fiber.Ctx) error {
	req, meeting, err := h.parse(c)
	if req == nil {
		return err
	}
	if err := h.watch.Play(meeting.ID, req.IsPlaying, req.CurrentTime); err != nil {
		return h.internalError(c, "failed to update playback", err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// Seek 재생 위치 이동
func (h *YouTubeHandler) Seek(c *fiber.Ctx) error {
	req, meeting, err := h.parse(c)
	if req == nil {
		return err
	}
	if err := h.watch.Seek(meeting.ID, req.CurrentTime); err != nil {
		return h.internalError(c, "failed to seek", err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// Volume 볼륨 변경 (기본 100)
func (h *YouTubeHandler) Volume(c *fiber.Ctx) error {
	req, meeting, err := h.parse(c)
	if req == nil {
		return err
	}
	volume := model.DefaultVolume
	if req.Volume != nil {
		volume = *req.Volume
	}
	if err := h.watch.SetVolume(meeting.ID, volume); err != nil {
		return h.internalError(c, "failed to change volume", err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// AddToPlaylist 대기열 추가
func (h *YouTubeHandler) AddToPlaylist(c *fiber.Ctx) error {
	req, meeting, err := h.parse(c)
	if req == nil {
		return err
	}
	if req.VideoID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "video_id is required",
		})
	}

	playlist, err := h.watch.AddToPlaylist(meeting.ID, req.VideoID, req.VideoTitle)
	if err != nil {
		return h.internalError(c, "failed to update playlist", err)
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"playlist": playlist,
	})
}

// RemoveFromPlaylist 대기열에서 제거
func (h *YouTubeHandler) RemoveFromPlaylist(c *fiber.Ctx) error {
	req, meeting, err := h.parse(c)
	if req == nil {
		return err
	}
	if err := h.watch.RemoveFromPlaylist(meeting.ID, req.VideoID); err != nil {
		return h.internalError(c, "failed to update playlist", err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// Video 영상 메타데이터 조회
func (h *YouTubeHandler) Video(c *fiber.Ctx) error {
	video, err := h.yt.VideoDetails(c.UserContext(), c.Params("videoId"))
	switch {
	case errors.Is(err, youtube.ErrNotConfigured):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "YouTube API is not configured",
		})
	case errors.Is(err, youtube.ErrVideoNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Video not found",
		})
	case err != nil:
		h.log.Warn("youtube video lookup failed", zap.String("video_id", c.Params("videoId")), zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "YouTube API request failed",
		})
	}
	return c.JSON(video)
}

// Search 영상 검색
func (h *YouTubeHandler) Search(c *fiber.Ctx) error {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "q is required",
		})
	}

	videos, err := h.yt.Search(c.UserContext(), query, searchMaxResults)
	switch {
	case errors.Is(err, youtube.ErrNotConfigured):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "YouTube API is not configured",
		})
	case err != nil:
		h.log.Warn("youtube search failed", zap.String("query", query), zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "YouTube API request failed",
		})
	}
	return c.JSON(fiber.Map{"items": videos})
}
