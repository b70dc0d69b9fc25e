package handler

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"duoverse-backend/internal/auth"
	"duoverse-backend/internal/model"
	"duoverse-backend/internal/service"
)

// CSV 내보내기 시각 형식
const csvTimeLayout = "2006-01-02 15:04:05"

// JoinRequestHandler 파트너 입장 요청 핸들러
type JoinRequestHandler struct {
	meetings    *service.MeetingService
	requests    *service.JoinRequestService
	tokens      *auth.HostTokenManager
	requireHost bool
	log         *zap.Logger
}

// NewJoinRequestHandler requireHost 가 켜져 있으면 수락/거절에도 호스트 토큰 필요
func NewJoinRequestHandler(meetings *service.MeetingService, requests *service.JoinRequestService, tokens *auth.HostTokenManager, requireHost bool, log *zap.Logger) *JoinRequestHandler {
	return &JoinRequestHandler{
		meetings:    meetings,
		requests:    requests,
		tokens:      tokens,
		requireHost: requireHost,
		log:         log,
	}
}

// JoinRequestResponse 전체 목록 항목
type JoinRequestResponse struct {
	ID             int64   `json:"id"`
	Requester      string  `json:"requester"`
	RequesterShort string  `json:"requester_short"`
	Status         string  `json:"status"`
	Timestamp      string  `json:"timestamp"`
	RespondedAt    *string `json:"responded_at"`
}

// BatchRequest 일괄 처리 요청
type BatchRequest struct {
	RequestIDs []int64 `json:"request_ids"`
}

// ClearRejectedRequest 요청자별 거절 기록 삭제 요청
type ClearRejectedRequest struct {
	RequesterID string `json:"requester_id"`
}

func (h *JoinRequestHandler) internalError(c *fiber.Ctx, msg string, err error) error {
	h.log.Error(msg, zap.String("room_id", c.Params("room")), zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": msg,
	})
}

// Create 파트너 입장 요청 생성
func (h *JoinRequestHandler) Create(c *fiber.Ctx) error {
	meeting, err := findRoom(c, h.meetings)
	if err != nil {
		return meetingError(c, err)
	}

	req, err := h.requests.Create(meeting)
	switch {
	case errors.Is(err, service.ErrMeetingInactive):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Meeting is not active",
		})
	case errors.Is(err, service.ErrMeetingNotStarted):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Meeting has not started yet",
		})
	case err != nil:
		return h.internalError(c, "failed to create join request", err)
	}

	h.log.Info("🙋 Join request created",
		zap.String("room_id", meeting.RoomID),
		zap.Int64("request_id", req.ID))

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":      true,
		"request_id":   req.ID,
		"requester_id": req.Requester,
	})
}

// Pending 대기 중인 요청 목록 (최신순)
func (h *JoinRequestHandler) Pending(c *fiber.Ctx) error {
	meeting, err := findRoom(c, h.meetings)
	if err != nil {
		return meetingError(c, err)
	}

	requests, err := h.requests.List(meeting.ID, model.JoinRequestPending)
	if err != nil {
		return h.internalError(c, "failed to get join requests", err)
	}

	items := make([]fiber.Map, len(requests))
	for i, r := range requests {
		items[i] = fiber.Map{
			"id":        r.ID,
			"requester": shortRequester(r.Requester),
			"timestamp": isoTime(r.Timestamp),
		}
	}
	return c.JSON(items)
}

// All 모든 상태의 요청 목록 (최신순)
func (h *JoinRequestHandler) All(c *fiber.Ctx) error {
	meeting, err := findRoom(c, h.meetings)
	if err != nil {
		return meetingError(c, err)
	}

	requests, err := h.requests.List(meeting.ID, "")
	if err != nil {
		return h.internalError(c, "failed to get join requests", err)
	}

	items := make([]JoinRequestResponse, len(requests))
	for i, r := range requests {
		items[i] = JoinRequestResponse{
			ID:             r.ID,
			Requester:      r.Requester,
			RequesterShort: shortRequester(r.Requester),
			Status:         r.Status.String(),
			Timestamp:      isoTime(r.Timestamp),
		}
		if r.RespondedAt != nil {
			responded := isoTime(*r.RespondedAt)
			items[i].RespondedAt = &responded
		}
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"requests": items,
	})
}

// Stats 상태별 요청 수
func (h *JoinRequestHandler) Stats(c *fiber.Ctx) error {
	meeting, err := findRoom(c, h.meetings)
	if err != nil {
		return meetingError(c, err)
	}

	stats, err := h.requests.Stats(meeting.ID)
	if err != nil {
		return h.internalError(c, "failed to get join request stats", err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"stats":   stats,
	})
}

// Respond 요청 수락/거절
func (h *JoinRequestHandler) Respond(c *fiber.Ctx) error {
	requestID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Request not found",
		})
	}

	// 경로에 room 이 없으므로 요청의 미팅으로 호스트 토큰 확인
	if h.requireHost {
		req, err := h.requests.Get(int64(requestID))
		if errors.Is(err, service.ErrJoinRequestNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Request not found",
			})
		}
		if err != nil {
			return h.internalError(c, "failed to get join request", err)
		}
		if _, err := auth.ValidateHostCookie(c, h.tokens, req.Meeting.RoomID); err != nil {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "host token required",
			})
		}
	}

	err = h.requests.Respond(int64(requestID), model.JoinRequestAction(c.Params("action")))
	switch {
	case errors.Is(err, service.ErrJoinRequestNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Request not found",
		})
	case errors.Is(err, service.ErrInvalidAction):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid action",
		})
	case err != nil:
		return h.internalError(c, "failed to update join request", err)
	}

	return c.JSON(fiber.Map{"success": true})
}

// BatchAccept 여러 요청 일괄 수락
func (h *JoinRequestHandler) BatchAccept(c *fiber.Ctx) error {
	return h.batch(c, model.JoinRequestAccepted, "accepted_count")
}

// BatchReject 여러 요청 일괄 거절
func (h *JoinRequestHandler) BatchReject(c *fiber.Ctx) error {
	return h.batch(c, model.JoinRequestRejected, "rejected_count")
}

func (h *JoinRequestHandler) batch(c *fiber.Ctx, status model.JoinRequestStatus, countKey string) error {
	meeting, err := findRoom(c, h.meetings)
	if err != nil {
		return meetingError(c, err)
	}

	var req BatchRequest
	if err := c.BodyParser(&req); err != nil || len(req.RequestIDs) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No request IDs provided",
		})
	}

	count, err := h.requests.BatchRespond(meeting.ID, req.RequestIDs, status)
	if err != nil {
		return h.internalError(c, "failed to update join requests", err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		countKey:  count,
	})
}

// Export 요청 목록 CSV 다운로드
func (h *JoinRequestHandler) Export(c *fiber.Ctx) error {
	meeting, err := findRoom(c, h.meetings)
	if err != nil {
		return meetingError(c, err)
	}

	requests, err := h.requests.List(meeting.ID, "")
	if err != nil {
		return h.internalError(c, "failed to export join requests", err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write([]string{"Request ID", "Requester", "Status", "Requested At", "Responded At"})
	for _, r := range requests {
		responded := ""
		if r.RespondedAt != nil {
			responded = r.RespondedAt.Format(csvTimeLayout)
		}
		w.Write([]string{
			strconv.FormatInt(r.ID, 10),
			r.Requester,
			r.Status.String(),
			r.Timestamp.Format(csvTimeLayout),
			responded,
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return h.internalError(c, "failed to export join requests", err)
	}

	filename := fmt.Sprintf("join_requests_%s_%s.csv", meeting.RoomID, h.meetings.Now().Format("20060102"))
	c.Set(fiber.HeaderContentDisposition, "attachment; filename="+filename)
	c.Set(fiber.HeaderContentType, "text/csv")
	return c.Send(buf.Bytes())
}

// ClearRejected 거절된 요청 전체 삭제
func (h *JoinRequestHandler) ClearRejected(c *fiber.Ctx) error {
	meeting, err := findRoom(c, h.meetings)
	if err != nil {
		return meetingError(c, err)
	}

	if _, err := h.requests.ClearRejected(meeting.ID); err != nil {
		return h.internalError(c, "failed to clear rejected requests", err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// ClearRejectedFor 요청자 본인의 거절 기록 삭제 (재요청용)
func (h *JoinRequestHandler) ClearRejectedFor(c *fiber.Ctx) error {
	meeting, err := findRoom(c, h.meetings)
	if err != nil {
		return meetingError(c, err)
	}

	var req ClearRejectedRequest
	if err := c.BodyParser(&req); err != nil || req.RequesterID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Requester ID required",
		})
	}

	if err := h.requests.ClearRejectedFor(meeting.ID, req.RequesterID); err != nil {
		return h.internalError(c, "failed to clear rejected request", err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// Status 요청자 토큰의 요청 상태 ("none" 이면 요청 없음)
func (h *JoinRequestHandler) Status(c *fiber.Ctx) error {
	meeting, err := findRoom(c, h.meetings)
	if err != nil {
		return meetingError(c, err)
	}

	requester := c.Query("requester_id")
	if requester == "" {
		return c.JSON(fiber.Map{"status": "none"})
	}

	req, err := h.requests.FindByRequester(meeting.ID, requester)
	if err != nil {
		return h.internalError(c, "failed to get join request status", err)
	}
	if req == nil {
		return c.JSON(fiber.Map{"status": "none"})
	}

	return c.JSON(fiber.Map{
		"status":     req.Status,
		"request_id": req.ID,
	})
}

// CheckAccepted 요청자가 수락되었는지 여부
func (h *JoinRequestHandler) CheckAccepted(c *fiber.Ctx) error {
	meeting, err := findRoom(c, h.meetings)
	if err != nil {
		return meetingError(c, err)
	}

	requester := c.Query("requester_id")
	if requester == "" {
		return c.JSON(fiber.Map{"accepted": false})
	}

	req, err := h.requests.FindByRequester(meeting.ID, requester)
	if err != nil {
		return h.internalError(c, "failed to check join status", err)
	}

	return c.JSON(fiber.Map{
		"accepted": req != nil && req.Status == model.JoinRequestAccepted,
	})
}
