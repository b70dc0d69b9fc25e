package handler

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"duoverse-backend/internal/auth"
	"duoverse-backend/internal/config"
	"duoverse-backend/internal/qrcode"
	"duoverse-backend/internal/service"
)

// MeetingHandler 미팅 생성/종료 핸들러
type MeetingHandler struct {
	meetings *service.MeetingService
	qr       *qrcode.Generator
	tokens   *auth.HostTokenManager
	cfg      *config.Config
	log      *zap.Logger
}

// NewMeetingHandler MeetingHandler 생성
func NewMeetingHandler(meetings *service.MeetingService, qr *qrcode.Generator, tokens *auth.HostTokenManager, cfg *config.Config, log *zap.Logger) *MeetingHandler {
	return &MeetingHandler{meetings: meetings, qr: qr, tokens: tokens, cfg: cfg, log: log}
}

// CreateMeetingRequest 미팅 생성 요청
type CreateMeetingRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"` // YYYY-MM-DD
	Time        string `json:"time"` // HH:MM
}

// CreateMeeting 미팅 생성 + QR 생성 + 호스트 토큰 발급
// QR 생성 실패는 미팅 생성을 막지 않음
func (h *MeetingHandler) CreateMeeting(c *fiber.Ctx) error {
	var req CreateMeetingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" || req.Date == "" || req.Time == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "title, date and time are required",
		})
	}

	meeting, err := h.meetings.Create(req.Title, req.Description, req.Date, req.Time, h.cfg.Auth.GalleryPassword)
	if err != nil {
		h.log.Error("failed to create meeting", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to create meeting",
		})
	}

	var qrPath interface{}
	qr := h.qr.Generate(baseURL(c, h.cfg.Server.BaseURL), meeting.RoomID, meeting.Title)
	if qr.Success {
		if err := h.meetings.SetQRCodePath(meeting, qr.Path); err != nil {
			h.log.Warn("failed to store qr path", zap.String("room_id", meeting.RoomID), zap.Error(err))
		}
		qrPath = staticURL(qr.Path)
	}

	token, err := h.tokens.Generate(meeting.RoomID)
	if err != nil {
		h.log.Error("failed to issue host token", zap.String("room_id", meeting.RoomID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to issue host token",
		})
	}
	c.Cookie(&fiber.Cookie{
		Name:     auth.HostTokenCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.tokens.Expiry()),
		Secure:   h.cfg.Auth.SecureCookie,
		HTTPOnly: h.cfg.Auth.CookieHTTPOnly,
		SameSite: h.cfg.Auth.CookieSameSite,
	})

	h.log.Info("🎉 Meeting created",
		zap.String("room_id", meeting.RoomID),
		zap.Bool("qr_generated", qr.Success))

	return c.JSON(fiber.Map{
		"room_id":      meeting.RoomID,
		"qr_generated": qr.Success,
		"qr_path":      qrPath,
		"host_token":   token,
	})
}

// EndMeeting 미팅 비활성화 (없는 미팅도 성공)
func (h *MeetingHandler) EndMeeting(c *fiber.Ctx) error {
	if err := h.meetings.End(c.Params("room")); err != nil {
		h.log.Error("failed to end meeting", zap.String("room_id", c.Params("room")), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to end meeting",
		})
	}
	return c.JSON(fiber.Map{"success": true})
}

// CheckMeetingActive 미팅 활성 여부
func (h *MeetingHandler) CheckMeetingActive(c *fiber.Ctx) error {
	meeting, err := findRoom(c, h.meetings)
	if err != nil {
		return meetingError(c, err)
	}
	return c.JSON(fiber.Map{"is_active": meeting.IsActive})
}

// GenerateQR 미팅 QR 재생성
func (h *MeetingHandler) GenerateQR(c *fiber.Ctx) error {
	meeting, err := findRoom(c, h.meetings)
	if err != nil {
		return meetingError(c, err)
	}

	qr := h.qr.Generate(baseURL(c, h.cfg.Server.BaseURL), meeting.RoomID, meeting.Title)
	if !qr.Success {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   qr.Error,
			"url":     qr.URL,
		})
	}

	if err := h.meetings.SetQRCodePath(meeting, qr.Path); err != nil {
		h.log.Warn("failed to store qr path", zap.String("room_id", meeting.RoomID), zap.Error(err))
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"qr_path":   staticURL(qr.Path),
		"qr_base64": qr.Base64,
		"qr_url":    qr.URL,
	})
}
