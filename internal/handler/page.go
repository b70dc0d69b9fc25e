package handler

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"duoverse-backend/internal/auth"
	"duoverse-backend/internal/config"
	"duoverse-backend/internal/model"
	"duoverse-backend/internal/qrcode"
	"duoverse-backend/internal/service"
)

const (
	appName    = "DuoVerse"
	appVersion = "1.0.0"
)

// PageHandler 서버 렌더링 페이지 핸들러
type PageHandler struct {
	meetings *service.MeetingService
	qr       *qrcode.Generator
	tokens   *auth.HostTokenManager
	cfg      *config.Config
	log      *zap.Logger
}

// NewPageHandler PageHandler 생성
func NewPageHandler(meetings *service.MeetingService, qr *qrcode.Generator, tokens *auth.HostTokenManager, cfg *config.Config, log *zap.Logger) *PageHandler {
	return &PageHandler{meetings: meetings, qr: qr, tokens: tokens, cfg: cfg, log: log}
}

// CommonData 모든 템플릿에 들어가는 값
func CommonData(cfg *config.Config, now time.Time) fiber.Map {
	return fiber.Map{
		"app_name":      appName,
		"app_version":   appVersion,
		"is_production": cfg.IsProduction(),
		"environment":   string(cfg.Env),
		"now":           now,
	}
}

func (h *PageHandler) render(c *fiber.Ctx, name string, data fiber.Map) error {
	view := CommonData(h.cfg, h.meetings.Now())
	for k, v := range data {
		view[k] = v
	}
	return c.Render(name, view)
}

// meeting 페이지용 미팅 조회, 없으면 404 오프라인 페이지
func (h *PageHandler) meeting(c *fiber.Ctx) (*model.Meeting, error) {
	meeting, err := findRoom(c, h.meetings)
	if errors.Is(err, service.ErrMeetingNotFound) {
		return nil, fiber.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return meeting, nil
}

func (h *PageHandler) Intro(c *fiber.Ctx) error {
	return h.render(c, "intro", nil)
}

func (h *PageHandler) Setup(c *fiber.Ctx) error {
	return h.render(c, "setup", nil)
}

func (h *PageHandler) Offline(c *fiber.Ctx) error {
	return h.render(c, "offline", nil)
}

// MeetingLinks 생성 직후 링크/QR 안내 페이지 (저장된 QR 이 없으면 새로 생성)
func (h *PageHandler) MeetingLinks(c *fiber.Ctx) error {
	meeting, err := h.meeting(c)
	if err != nil {
		return err
	}

	base := baseURL(c, h.cfg.Server.BaseURL)

	var qrBase64 string
	if meeting.QRCodePath != nil {
		if data, err := os.ReadFile(h.qr.File(*meeting.QRCodePath)); err == nil {
			qrBase64 = base64.StdEncoding.EncodeToString(data)
		}
	}
	if qrBase64 == "" {
		qr := h.qr.Generate(base, meeting.RoomID, meeting.Title)
		if qr.Success {
			qrBase64 = qr.Base64
			if err := h.meetings.SetQRCodePath(meeting, qr.Path); err != nil {
				h.log.Warn("failed to store qr path", zap.String("room_id", meeting.RoomID), zap.Error(err))
			}
		}
	}

	var qrPath interface{}
	if meeting.QRCodePath != nil {
		qrPath = staticURL(*meeting.QRCodePath)
	}

	return h.render(c, "link", fiber.Map{
		"room_id":             meeting.RoomID,
		"meeting_title":       meeting.Title,
		"meeting_date":        meeting.Date,
		"meeting_time":        meeting.Time,
		"meeting_description": meeting.Description,
		"gallery_password":    h.cfg.Auth.GalleryPassword,
		"qr_base64":           qrBase64,
		"qr_path":             qrPath,
		"partner_link":        qrcode.PartnerLink(base, meeting.RoomID),
		"base_url":            base,
	})
}

// Meet 미팅 메인 페이지
func (h *PageHandler) Meet(c *fiber.Ctx) error {
	meeting, err := h.meeting(c)
	if err != nil {
		return err
	}
	return h.render(c, "meet", fiber.Map{
		"meeting":         meeting,
		"room_id":         meeting.RoomID,
		"is_host":         auth.IsHostQuery(c),
		"is_started":      h.meetings.IsStarted(meeting),
		"youtube_api_key": h.cfg.YouTube.APIKey,
	})
}

func (h *PageHandler) Chat(c *fiber.Ctx) error {
	return h.meetingPage(c, "chat")
}

func (h *PageHandler) Capture(c *fiber.Ctx) error {
	return h.meetingPage(c, "capture")
}

func (h *PageHandler) Gallery(c *fiber.Ctx) error {
	return h.meetingPage(c, "gallery")
}

// JoinRequestForm 파트너 입장 요청 페이지
func (h *PageHandler) JoinRequestForm(c *fiber.Ctx) error {
	return h.meetingPage(c, "join_request_form")
}

func (h *PageHandler) meetingPage(c *fiber.Ctx, name string) error {
	meeting, err := h.meeting(c)
	if err != nil {
		return err
	}
	return h.render(c, name, fiber.Map{
		"meeting": meeting,
		"room_id": meeting.RoomID,
	})
}

// JoinRequests 호스트 전용 입장 요청 관리 페이지
func (h *PageHandler) JoinRequests(c *fiber.Ctx) error {
	meeting, err := h.meeting(c)
	if err != nil {
		return err
	}
	if err := auth.CheckHost(c, h.tokens, h.cfg.Auth.RequireHostToken); err != nil {
		return err
	}

	return h.render(c, "join_requests", fiber.Map{
		"meeting":             meeting,
		"room_id":             meeting.RoomID,
		"meeting_title":       meeting.Title,
		"meeting_date":        meeting.Date,
		"meeting_time":        meeting.Time,
		"meeting_description": meeting.Description,
	})
}

// QRView QR 보기 페이지
func (h *PageHandler) QRView(c *fiber.Ctx) error {
	meeting, err := h.meeting(c)
	if err != nil {
		return err
	}

	var qrPath interface{}
	if meeting.QRCodePath != nil {
		qrPath = staticURL(*meeting.QRCodePath)
	}

	return h.render(c, "qr_view", fiber.Map{
		"meeting":  meeting,
		"room_id":  meeting.RoomID,
		"qr_path":  qrPath,
		"base_url": baseURL(c, h.cfg.Server.BaseURL),
	})
}

// QRDownload 새 QR 을 생성해 첨부 파일로 전송
func (h *PageHandler) QRDownload(c *fiber.Ctx) error {
	meeting, err := h.meeting(c)
	if err != nil {
		return err
	}

	qr := h.qr.Generate(baseURL(c, h.cfg.Server.BaseURL), meeting.RoomID, meeting.Title)
	if !qr.Success {
		return fiber.ErrInternalServerError
	}

	roomPrefix := meeting.RoomID
	if len(roomPrefix) > 8 {
		roomPrefix = roomPrefix[:8]
	}
	return c.Download(h.qr.File(qr.Path), fmt.Sprintf("DuoVerse_%s_%s.png", meeting.Title, roomPrefix))
}

// Manifest 웹 앱 매니페스트 (아이콘은 절대 URL)
func (h *PageHandler) Manifest(c *fiber.Ctx) error {
	base := baseURL(c, h.cfg.Server.BaseURL)
	icon := func(size string) fiber.Map {
		return fiber.Map{
			"src":     fmt.Sprintf("%s/static/icons/icon-%s.png", base, size),
			"sizes":   size + "x" + size,
			"type":    "image/png",
			"purpose": "any maskable",
		}
	}

	return c.JSON(fiber.Map{
		"name":             appName,
		"short_name":       appName,
		"description":      "Virtual meeting space for couples",
		"start_url":        "/",
		"display":          "standalone",
		"theme_color":      "#4DA3FF",
		"background_color": "#0A0F1E",
		"icons":            []fiber.Map{icon("192"), icon("512")},
	})
}
