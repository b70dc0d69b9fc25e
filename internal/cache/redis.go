package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"duoverse-backend/internal/config"
)

const (
	videoKeyPrefix   = "youtube:video:"
	limiterKeyPrefix = "limiter:"
)

// RedisClient YouTube 메타데이터 캐시와 요청 제한 카운터 저장소
type RedisClient struct {
	client *redis.Client
}

// NewRedisClient 연결 후 Ping 으로 확인
func NewRedisClient(cfg config.RedisConfig) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return &RedisClient{client: client}, nil
}

// VideoKey 영상 메타데이터 캐시 키
func VideoKey(videoID string) string {
	return videoKeyPrefix + videoID
}

// GetJSON 키가 있으면 dst 로 디코딩, 없으면 false
func (r *RedisClient) GetJSON(ctx context.Context, key string, dst interface{}) (bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := json.Unmarshal(data, dst); err != nil {
		// 깨진 항목은 지우고 miss 처리
		r.client.Del(ctx, key)
		return false, nil
	}
	return true, nil
}

// SetJSON 값을 JSON 으로 저장 (TTL 적용)
func (r *RedisClient) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

// Health Redis 상태 확인
func (r *RedisClient) Health(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close Redis 연결 종료
func (r *RedisClient) Close() error {
	return r.client.Close()
}

// LimiterStorage fiber limiter 카운터를 Redis 에 보관 (fiber.Storage 구현)
type LimiterStorage struct {
	client *redis.Client
}

// LimiterStorage fiber.Storage 어댑터 반환
func (r *RedisClient) LimiterStorage() *LimiterStorage {
	return &LimiterStorage{client: r.client}
}

// Get 키가 없으면 nil, nil
func (s *LimiterStorage) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}
	val, err := s.client.Get(context.Background(), limiterKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return val, err
}

// Set exp 가 0 이면 만료 없음
func (s *LimiterStorage) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}
	return s.client.Set(context.Background(), limiterKeyPrefix+key, val, exp).Err()
}

func (s *LimiterStorage) Delete(key string) error {
	if key == "" {
		return nil
	}
	return s.client.Del(context.Background(), limiterKeyPrefix+key).Err()
}

// Reset limiter 키만 삭제
func (s *LimiterStorage) Reset() error {
	ctx := context.Background()
	iter := s.client.Scan(ctx, 0, limiterKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// Close 연결은 RedisClient 가 소유하므로 아무것도 하지 않음
func (s *LimiterStorage) Close() error {
	return nil
}
