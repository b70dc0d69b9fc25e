package handler

import (
	"errors"
	"io"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"duoverse-backend/internal/model"
	"duoverse-backend/internal/service"
	"duoverse-backend/internal/storage"
)

// GalleryHandler 미팅 갤러리 핸들러
type GalleryHandler struct {
	db       *gorm.DB
	meetings *service.MeetingService
	store    storage.Store
	password string
	log      *zap.Logger
}

// NewGalleryHandler GalleryHandler 생성
func NewGalleryHandler(db *gorm.DB, meetings *service.MeetingService, store storage.Store, password string, log *zap.Logger) *GalleryHandler {
	return &GalleryHandler{db: db, meetings: meetings, store: store, password: password, log: log}
}

// GalleryImageResponse 갤러리 이미지 응답
type GalleryImageResponse struct {
	ID        int64  `json:"id"`
	Path      string `json:"path"`
	CreatedAt string `json:"created_at"`
}

// Upload 이미지 업로드 (1200x1200 이내로 축소)
func (h *GalleryHandler) Upload(c *fiber.Ctx) error {
	meeting, err := findRoom(c, h.meetings)
	if err != nil {
		return meetingError(c, err)
	}

	file, err := c.FormFile("image")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No image provided",
		})
	}
	if file.Filename == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No image selected",
		})
	}

	src, err := file.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "failed to read image",
		})
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "failed to read image",
		})
	}

	contentType := file.Header.Get(fiber.HeaderContentType)
	data, format := storage.Downscale(data, storage.MaxImageDimension)
	if format != "" {
		contentType = "image/" + format
	}

	key := storage.UploadKey(meeting.RoomID, file.Filename)
	url, err := h.store.Save(c.UserContext(), key, contentType, data)
	if err != nil {
		h.log.Error("failed to store image", zap.String("room_id", meeting.RoomID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to store image",
		})
	}

	image := model.GalleryImage{
		MeetingID: meeting.ID,
		ImagePath: key,
		CreatedAt: h.meetings.Now(),
	}
	if err := h.db.Create(&image).Error; err != nil {
		h.log.Error("failed to save image record", zap.String("room_id", meeting.RoomID), zap.Error(err))
		if delErr := h.store.Delete(c.UserContext(), key); delErr != nil {
			h.log.Warn("failed to remove orphaned image", zap.String("key", key), zap.Error(delErr))
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to save image",
		})
	}

	h.log.Info("📷 Image uploaded", zap.String("room_id", meeting.RoomID), zap.Int64("image_id", image.ID))

	return c.JSON(fiber.Map{
		"success":    true,
		"image_id":   image.ID,
		"image_path": url,
	})
}

// List 비밀번호 확인 후 이미지 목록 (최신순)
func (h *GalleryHandler) List(c *fiber.Ctx) error {
	meeting, err := findRoom(c, h.meetings)
	if err != nil {
		return meetingError(c, err)
	}

	if c.Query("password") != h.password {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid password",
		})
	}

	var images []model.GalleryImage
	err = h.db.
		Where("meeting_id = ?", meeting.ID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&images).Error
	if err != nil {
		h.log.Error("failed to get images", zap.String("room_id", meeting.RoomID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to get images",
		})
	}

	responses := make([]GalleryImageResponse, len(images))
	for i, img := range images {
		responses[i] = GalleryImageResponse{
			ID:        img.ID,
			Path:      h.store.URL(img.ImagePath),
			CreatedAt: isoTime(img.CreatedAt),
		}
	}
	return c.JSON(responses)
}

// Delete 레코드를 먼저 지우고 파일은 best-effort 로 삭제
func (h *GalleryHandler) Delete(c *fiber.Ctx) error {
	imageID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Image not found",
		})
	}

	var image model.GalleryImage
	err = h.db.First(&image, imageID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Image not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to get image",
		})
	}

	if err := h.db.Delete(&image).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to delete image",
		})
	}

	if err := h.store.Delete(c.UserContext(), image.ImagePath); err != nil {
		h.log.Warn("failed to delete image file", zap.String("key", image.ImagePath), zap.Error(err))
	}

	return c.JSON(fiber.Map{"success": true})
}
