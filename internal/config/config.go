package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment 실행 환경
type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
)

// 모든 미팅이 공유하는 갤러리 비밀번호 기본값
const DefaultGalleryPassword = "16092008"

// Config 애플리케이션 전체 설정
type Config struct {
	Env      Environment
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Storage  StorageConfig
	YouTube  YouTubeConfig
	CORS     CORSConfig
	S3       S3Config
	Redis    RedisConfig
}

// ServerConfig HTTP 서버 설정
type ServerConfig struct {
	Port         string
	BaseURL      string // 비어 있으면 요청 호스트에서 계산
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig 데이터베이스 설정
type DatabaseConfig struct {
	Driver     string // sqlite, postgres
	DSN        string
	SQLitePath string
	Host       string
	Port       string
	User       string
	Password   string
	DBName     string
	SSLMode    string
	TimeZone   string
}

// AuthConfig 호스트 토큰/쿠키 설정
type AuthConfig struct {
	SecretKey        string
	HostTokenExpiry  time.Duration
	SecureCookie     bool
	CookieHTTPOnly   bool
	CookieSameSite   string
	RequireHostToken bool
	GalleryPassword  string
}

// StorageConfig 로컬 파일 저장 경로
type StorageConfig struct {
	StaticDir      string
	UploadDir      string
	QRDir          string
	MaxUploadBytes int
}

// YouTubeConfig YouTube Data API 설정
type YouTubeConfig struct {
	APIKey       string
	CheckTimeout time.Duration
	CacheTTL     time.Duration
}

// CORSConfig CORS 설정
type CORSConfig struct {
	AllowOrigins string
	AllowHeaders string
}

// S3Config AWS S3 설정 (갤러리 이미지 저장용, 선택)
type S3Config struct {
	Region          string
	BucketName      string
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string
}

// Enabled 버킷과 자격 증명이 모두 설정된 경우
func (c S3Config) Enabled() bool {
	return c.BucketName != "" && c.AccessKeyID != ""
}

// RedisConfig Redis 설정 (선택)
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// IsProduction 운영 환경 여부
func (c *Config) IsProduction() bool {
	return c.Env == Production
}

// Load 환경 변수에서 설정 로드
func Load() *Config {
	// .env 파일 로드 (없어도 에러 무시)
	if err := godotenv.Load(); err != nil {
		log.Println("ℹ️ No .env file found, using environment variables")
	}

	env := DetectEnvironment()
	prod := env == Production

	cfg := &Config{
		Env: env,
		Server: ServerConfig{
			Port:         getEnv("PORT", ":5000"),
			BaseURL:      strings.TrimRight(getEnv("BASE_URL", ifProd(prod, "https://duo01.pythonanywhere.com", "")), "/"),
			ReadTimeout:  getDuration("READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDuration("WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  getDuration("IDLE_TIMEOUT", 120*time.Second),
		},
		Database: DatabaseConfig{
			Driver:     getEnv("DB_DRIVER", ifProd(prod, "postgres", "sqlite")),
			DSN:        getEnv("DATABASE_URL", ""),
			SQLitePath: getEnv("SQLITE_PATH", "database.db"),
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnv("DB_PORT", "5432"),
			User:       getEnv("DB_USER", "postgres"),
			Password:   getEnv("DB_PASSWORD", ""),
			DBName:     getEnv("DB_NAME", "duoverse"),
			SSLMode:    getEnv("DB_SSLMODE", ifProd(prod, "require", "disable")),
			TimeZone:   getEnv("DB_TIMEZONE", "UTC"),
		},
		Auth: AuthConfig{
			SecretKey:        getEnv("SECRET_KEY", "duoverse-secret-key-change-in-production"),
			HostTokenExpiry:  getDuration("HOST_TOKEN_EXPIRY", 30*24*time.Hour),
			SecureCookie:     getBool("SECURE_COOKIE", prod),
			CookieHTTPOnly:   true,
			CookieSameSite:   getEnv("COOKIE_SAMESITE", "Lax"),
			RequireHostToken: getBool("REQUIRE_HOST_TOKEN", false),
			GalleryPassword:  getEnv("GALLERY_PASSWORD", DefaultGalleryPassword),
		},
		Storage: StorageConfig{
			StaticDir:      getEnv("STATIC_DIR", "static"),
			UploadDir:      getEnv("UPLOAD_DIR", "static/uploads"),
			QRDir:          getEnv("QR_DIR", "static/qrcodes"),
			MaxUploadBytes: getInt("MAX_UPLOAD_BYTES", 16*1024*1024),
		},
		YouTube: YouTubeConfig{
			APIKey:       getEnv("YOUTUBE_API_KEY", ""),
			CheckTimeout: getDuration("YOUTUBE_CHECK_TIMEOUT", 10*time.Second),
			CacheTTL:     getDuration("YOUTUBE_CACHE_TTL", 24*time.Hour),
		},
		CORS: CORSConfig{
			AllowOrigins: getEnv("CORS_ALLOW_ORIGINS", "*"),
			AllowHeaders: getEnv("CORS_ALLOW_HEADERS", "Origin, Content-Type, Accept"),
		},
		S3: S3Config{
			Region:          getEnv("AWS_REGION", "ap-northeast-2"),
			BucketName:      getEnv("AWS_S3_BUCKET", ""),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			PublicBaseURL:   strings.TrimRight(getEnv("S3_PUBLIC_BASE_URL", ""), "/"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getInt("REDIS_DB", 0),
		},
	}

	if prod && cfg.Auth.SecretKey == "duoverse-secret-key-change-in-production" {
		log.Println("🚨 SECRET_KEY is still the default value in production!")
	}

	return cfg
}

// DetectEnvironment 운영/개발 환경 판별
func DetectEnvironment() Environment {
	if os.Getenv("PYTHONANYWHERE_DOMAIN") != "" {
		return Production
	}

	for _, key := range []string{"APP_ENV", "ENV", "FLASK_ENV"} {
		if strings.EqualFold(os.Getenv(key), string(Production)) {
			return Production
		}
	}

	// 배포 서버 홈 디렉터리 존재 여부
	if home := getEnv("PRODUCTION_HOME_DIR", "/home/duo01"); home != "" {
		if info, err := os.Stat(home); err == nil && info.IsDir() {
			return Production
		}
	}

	return Development
}

func ifProd(prod bool, prodValue, devValue string) string {
	if prod {
		return prodValue
	}
	return devValue
}

// getEnv 환경 변수 조회 (기본값 지원)
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getInt 정수형 환경 변수 조회
func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getBool 불리언 환경 변수 조회
func getBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

// getDuration 시간 환경 변수 조회
func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		// 숫자만 있으면 초로 간주
		if !strings.ContainsAny(value, "smh") {
			if secs, err := strconv.Atoi(value); err == nil {
				return time.Duration(secs) * time.Second
			}
		}
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
