package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CheckHost 호스트 전용 페이지 확인
// ?host=true 가 없으면 403, enforceToken 이 켜져 있으면 room 에 맞는 호스트 토큰도 필요
func CheckHost(c *fiber.Ctx, manager *HostTokenManager, enforceToken bool) error {
	if !IsHostQuery(c) {
		return fiber.ErrForbidden
	}
	if !enforceToken {
		return nil
	}

	claims, err := ValidateHostCookie(c, manager, c.Params("room"))
	if err != nil {
		return fiber.ErrForbidden
	}
	c.Locals("hostClaims", claims)
	return nil
}

// RequireHostToken 호스트 관리 API 가드 (enabled 가 꺼져 있으면 통과)
func RequireHostToken(manager *HostTokenManager, enabled bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !enabled {
			return c.Next()
		}

		claims, err := ValidateHostCookie(c, manager, c.Params("room"))
		if err != nil {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "host token required",
			})
		}
		c.Locals("hostClaims", claims)
		return c.Next()
	}
}

// ValidateHostCookie host_token 쿠키가 roomID 의 호스트 토큰인지 확인
// 경로에 :room 이 없는 라우트는 조회한 미팅의 room 으로 호출
func ValidateHostCookie(c *fiber.Ctx, manager *HostTokenManager, roomID string) (*HostClaims, error) {
	token := c.Cookies(HostTokenCookie)
	if token == "" {
		return nil, ErrInvalidToken
	}
	return manager.Validate(token, roomID)
}

// IsHostQuery ?host=true 여부 (대소문자 무시)
func IsHostQuery(c *fiber.Ctx) bool {
	return strings.EqualFold(c.Query("host"), "true")
}
