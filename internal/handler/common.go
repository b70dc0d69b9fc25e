package handler

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"duoverse-backend/internal/model"
	"duoverse-backend/internal/service"
)

// 마이크로초까지, 타임존 없는 ISO 8601
const isoLayout = "2006-01-02T15:04:05.999999"

func isoTime(t time.Time) string {
	return t.Format(isoLayout)
}

// shortRequester 요청자 토큰 앞 8자리 + "..."
func shortRequester(requester string) string {
	if len(requester) > 8 {
		requester = requester[:8]
	}
	return requester + "..."
}

// staticURL static 디렉터리 기준 상대 경로를 공개 URL 로 변환
func staticURL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return "/static/" + strings.TrimLeft(path, "/")
}

// baseURL 설정값이 없으면 요청 호스트 기준
func baseURL(c *fiber.Ctx, configured string) string {
	if configured != "" {
		return configured
	}
	return strings.TrimRight(c.BaseURL(), "/")
}

// meetingError 미팅 조회 실패 응답
func meetingError(c *fiber.Ctx, err error) error {
	if errors.Is(err, service.ErrMeetingNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Meeting not found",
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "failed to load meeting",
	})
}

// findRoom :room 파라미터의 미팅 조회
func findRoom(c *fiber.Ctx, meetings *service.MeetingService) (*model.Meeting, error) {
	return meetings.FindByRoom(c.Params("room"))
}
