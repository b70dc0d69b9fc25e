package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New 실행 환경에 맞는 zap 로거 생성
// 운영 환경은 JSON, 개발 환경은 컬러 콘솔 출력
func New(production bool) (*zap.Logger, error) {
	if production {
		cfg := zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "time"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		return cfg.Build()
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.DisableStacktrace = true
	return cfg.Build()
}

// MaskSecret 비밀 값 앞 8자리와 뒤 4자리만 남김
func MaskSecret(secret string) string {
	if len(secret) <= 12 {
		return "***"
	}
	return secret[:8] + "..." + secret[len(secret)-4:]
}
