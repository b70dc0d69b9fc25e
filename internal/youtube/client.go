package youtube

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"duoverse-backend/internal/cache"
	"duoverse-backend/internal/config"
	"duoverse-backend/internal/logger"
)

// 항상 재생 가능한 공개 영상 (API 키 점검용)
const probeVideoID = "dQw4w9WgXcQ"

var (
	ErrNotConfigured = errors.New("youtube api key not configured")
	ErrVideoNotFound = errors.New("video not found")
)

// MetadataCache 영상 메타데이터 캐시 (Redis)
type MetadataCache interface {
	GetJSON(ctx context.Context, key string, dst interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// Video 영상 메타데이터
type Video struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Channel   string `json:"channel"`
	Thumbnail string `json:"thumbnail"`
	Duration  string `json:"duration,omitempty"`
}

// Client YouTube Data API v3 클라이언트
type Client struct {
	svc          *yt.Service
	apiKey       string
	checkTimeout time.Duration
	cacheTTL     time.Duration
	cache        MetadataCache
	log          *zap.Logger
}

// New API 키가 비어 있으면 비활성 클라이언트 반환
func New(ctx context.Context, cfg config.YouTubeConfig, metadata MetadataCache, log *zap.Logger, opts ...option.ClientOption) (*Client, error) {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Client{
		apiKey:       cfg.APIKey,
		checkTimeout: cfg.CheckTimeout,
		cacheTTL:     cfg.CacheTTL,
		cache:        metadata,
		log:          log,
	}
	if cfg.APIKey == "" {
		return c, nil
	}

	opts = append([]option.ClientOption{option.WithAPIKey(cfg.APIKey)}, opts...)
	svc, err := yt.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}
	c.svc = svc
	return c, nil
}

// Enabled API 키 설정 여부
func (c *Client) Enabled() bool {
	return c != nil && c.svc != nil
}

// VideoDetails 영상 제목/채널/썸네일/길이 조회 (캐시 우선)
func (c *Client) VideoDetails(ctx context.Context, videoID string) (*Video, error) {
	if !c.Enabled() {
		return nil, ErrNotConfigured
	}

	key := cache.VideoKey(videoID)
	if c.cache != nil {
		var cached Video
		if found, err := c.cache.GetJSON(ctx, key, &cached); err == nil && found {
			return &cached, nil
		} else if err != nil {
			c.log.Warn("video cache read failed", zap.String("video_id", videoID), zap.Error(err))
		}
	}

	resp, err := c.svc.Videos.List([]string{"snippet", "contentDetails"}).Id(videoID).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	if len(resp.Items) == 0 || resp.Items[0].Snippet == nil {
		return nil, ErrVideoNotFound
	}

	item := resp.Items[0]
	video := &Video{
		ID:        item.Id,
		Title:     item.Snippet.Title,
		Channel:   item.Snippet.ChannelTitle,
		Thumbnail: thumbnailURL(item.Snippet.Thumbnails),
	}
	if item.ContentDetails != nil {
		video.Duration = item.ContentDetails.Duration
	}

	if c.cache != nil {
		if err := c.cache.SetJSON(ctx, key, video, c.cacheTTL); err != nil {
			c.log.Warn("video cache write failed", zap.String("video_id", videoID), zap.Error(err))
		}
	}
	return video, nil
}

// Search 영상 검색 (요청당 100 quota 사용)
func (c *Client) Search(ctx context.Context, query string, maxResults int64) ([]Video, error) {
	if !c.Enabled() {
		return nil, ErrNotConfigured
	}

	resp, err := c.svc.Search.List([]string{"snippet"}).
		Q(query).
		Type("video").
		MaxResults(maxResults).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}

	videos := make([]Video, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.VideoId == "" || item.Snippet == nil {
			continue
		}
		videos = append(videos, Video{
			ID:        item.Id.VideoId,
			Title:     item.Snippet.Title,
			Channel:   item.Snippet.ChannelTitle,
			Thumbnail: thumbnailURL(item.Snippet.Thumbnails),
		})
	}
	return videos, nil
}

// CheckAPIKey 시작 시 API 키 동작 여부를 로그로 남김 (서비스 시작을 막지 않음)
func (c *Client) CheckAPIKey(ctx context.Context) bool {
	if c.apiKey == "" {
		c.log.Warn("❌ No YouTube API key configured; Watch Together metadata is unavailable",
			zap.String("hint", "enable YouTube Data API v3 in the Google Cloud console and set YOUTUBE_API_KEY"))
		return false
	}
	c.log.Info("🔍 YouTube API health check", zap.String("api_key", logger.MaskSecret(c.apiKey)))

	ctx, cancel := context.WithTimeout(ctx, c.checkTimeout)
	defer cancel()

	resp, err := c.svc.Videos.List([]string{"snippet"}).Id(probeVideoID).Context(ctx).Do()
	if err != nil {
		c.logCheckError(ctx, err)
		return false
	}
	if len(resp.Items) == 0 || resp.Items[0].Snippet == nil {
		c.log.Warn("⚠️ YouTube API responded but no video found")
		return false
	}

	c.log.Info("✅ YouTube API is working",
		zap.String("test_video", truncate(resp.Items[0].Snippet.Title, 50)),
		zap.String("quota", "10,000 units/day; search 100, video details 1"))
	return true
}

func (c *Client) logCheckError(ctx context.Context, err error) {
	var apiErr *googleapi.Error
	switch {
	case errors.As(err, &apiErr):
		reason := "Unknown"
		if len(apiErr.Errors) > 0 {
			reason = apiErr.Errors[0].Reason
		}
		fields := []zap.Field{
			zap.Int("status", apiErr.Code),
			zap.String("reason", reason),
			zap.String("message", apiErr.Message),
		}
		switch apiErr.Code {
		case 403:
			fields = append(fields, zap.String("hint", "key invalid or expired, API not enabled, key restrictions, or quota exceeded"))
		case 400:
			fields = append(fields, zap.String("hint", "invalid API key format or malformed request"))
		}
		c.log.Error("❌ YouTube API error", fields...)
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		c.log.Error("❌ YouTube API request timed out", zap.Duration("timeout", c.checkTimeout))
	default:
		c.log.Error("❌ Cannot reach YouTube API", zap.Error(err))
	}
}

func thumbnailURL(t *yt.ThumbnailDetails) string {
	if t == nil {
		return ""
	}
	for _, th := range []*yt.Thumbnail{t.High, t.Medium, t.Default} {
		if th != nil && th.Url != "" {
			return th.Url
		}
	}
	return ""
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
