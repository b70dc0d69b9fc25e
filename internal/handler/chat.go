package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"duoverse-backend/internal/model"
	"duoverse-backend/internal/service"
)

// ChatHandler 미팅 채팅 핸들러 (클라이언트 폴링)
type ChatHandler struct {
	db       *gorm.DB
	meetings *service.MeetingService
	log      *zap.Logger
}

// NewChatHandler ChatHandler 생성
func NewChatHandler(db *gorm.DB, meetings *service.MeetingService, log *zap.Logger) *ChatHandler {
	return &ChatHandler{db: db, meetings: meetings, log: log}
}

// SendMessageRequest 메시지 전송 요청
type SendMessageRequest struct {
	Sender  string `json:"sender"`
	Message string `json:"message"`
	IsImage bool   `json:"is_image"`
}

// MessageResponse 메시지 응답
type MessageResponse struct {
	ID        int64  `json:"id"`
	Sender    string `json:"sender"`
	Message   string `json:"message"`
	IsImage   bool   `json:"is_image"`
	Timestamp string `json:"timestamp"`
}

// SendMessage 메시지 저장
func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	meeting, err := findRoom(c, h.meetings)
	if err != nil {
		return meetingError(c, err)
	}

	var req SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if strings.TrimSpace(req.Message) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "message is required",
		})
	}
	if req.Sender == "" {
		req.Sender = model.DefaultSender
	}

	msg := model.Message{
		MeetingID: meeting.ID,
		Sender:    req.Sender,
		Message:   req.Message,
		IsImage:   req.IsImage,
		Timestamp: h.meetings.Now(),
	}
	if err := h.db.Create(&msg).Error; err != nil {
		h.log.Error("failed to save message", zap.String("room_id", meeting.RoomID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to save message",
		})
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"message_id": msg.ID,
	})
}

// GetMessages since 이후 메시지 (id 오름차순)
func (h *ChatHandler) GetMessages(c *fiber.Ctx) error {
	meeting, err := findRoom(c, h.meetings)
	if err != nil {
		return meetingError(c, err)
	}

	since := c.QueryInt("since", 0)

	var messages []model.Message
	err = h.db.
		Where("meeting_id = ? AND id > ?", meeting.ID, since).
		Order("id ASC").
		Find(&messages).Error
	if err != nil {
		h.log.Error("failed to get messages", zap.String("room_id", meeting.RoomID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to get messages",
		})
	}

	responses := make([]MessageResponse, len(messages))
	for i, m := range messages {
		responses[i] = MessageResponse{
			ID:        m.ID,
			Sender:    m.Sender,
			Message:   m.Message,
			IsImage:   m.IsImage,
			Timestamp: isoTime(m.Timestamp),
		}
	}
	return c.JSON(responses)
}
