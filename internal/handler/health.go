package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"duoverse-backend/internal/cache"
	"duoverse-backend/internal/youtube"
)

// HealthHandler 헬스체크 핸들러
type HealthHandler struct {
	db    *gorm.DB
	redis *cache.RedisClient
	yt    *youtube.Client
}

// NewHealthHandler redis 는 nil 가능 (설정되지 않은 경우)
func NewHealthHandler(db *gorm.DB, redis *cache.RedisClient, yt *youtube.Client) *HealthHandler {
	return &HealthHandler{db: db, redis: redis, yt: yt}
}

// ComponentCheck 컴포넌트 상태
type ComponentCheck struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HealthResponse 헬스체크 응답
type HealthResponse struct {
	Status    string                    `json:"status"`
	Timestamp string                    `json:"timestamp"`
	Checks    map[string]ComponentCheck `json:"checks"`
}

// Check 전체 상태 확인 (DB + Redis + YouTube 설정)
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
		Checks:    make(map[string]ComponentCheck),
	}

	// 1. Database 체크
	dbStart := time.Now()
	sqlDB, err := h.db.DB()
	if err != nil {
		response.Status = "unhealthy"
		response.Checks["database"] = ComponentCheck{
			Status: "unhealthy",
			Error:  "failed to get database connection",
		}
	} else if err := sqlDB.Ping(); err != nil {
		response.Status = "unhealthy"
		response.Checks["database"] = ComponentCheck{
			Status: "unhealthy",
			Error:  "database ping failed",
		}
	} else {
		response.Checks["database"] = ComponentCheck{
			Status:  "healthy",
			Latency: time.Since(dbStart).String(),
		}
	}

	// 2. Redis 체크 (캐시/요청 제한용, 실패해도 서비스는 동작)
	if h.redis != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		redisStart := time.Now()
		if err := h.redis.Health(ctx); err != nil {
			if response.Status == "healthy" {
				response.Status = "degraded"
			}
			response.Checks["redis"] = ComponentCheck{
				Status: "degraded",
				Error:  "redis ping failed",
			}
		} else {
			response.Checks["redis"] = ComponentCheck{
				Status:  "healthy",
				Latency: time.Since(redisStart).String(),
			}
		}
	} else {
		response.Checks["redis"] = ComponentCheck{Status: "not_configured"}
	}

	// 3. YouTube API 키 설정 여부
	if h.yt.Enabled() {
		response.Checks["youtube"] = ComponentCheck{Status: "configured"}
	} else {
		response.Checks["youtube"] = ComponentCheck{Status: "not_configured"}
	}

	statusCode := fiber.StatusOK
	if response.Status == "unhealthy" {
		statusCode = fiber.StatusServiceUnavailable
	}

	return c.Status(statusCode).JSON(response)
}

// Liveness 단순 생존 확인
func (h *HealthHandler) Liveness(c *fiber.Ctx) error {
	return c.SendString("OK")
}

// Readiness DB 연결 확인
func (h *HealthHandler) Readiness(c *fiber.Ctx) error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).SendString("NOT READY")
	}
	if err := sqlDB.Ping(); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).SendString("NOT READY")
	}
	return c.SendString("READY")
}
