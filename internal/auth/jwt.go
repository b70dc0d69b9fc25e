package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrRoomMismatch = errors.New("token issued for another room")
)

// HostTokenCookie 호스트 토큰 쿠키 이름
const HostTokenCookie = "host_token"

// HostClaims 호스트 토큰 클레임
type HostClaims struct {
	RoomID string `json:"room_id"`
	jwt.RegisteredClaims
}

// HostTokenManager 미팅 호스트 토큰 관리자
type HostTokenManager struct {
	secretKey []byte
	expiry    time.Duration
	now       func() time.Time
}

// NewHostTokenManager HostTokenManager 생성
func NewHostTokenManager(secretKey string, expiry time.Duration) *HostTokenManager {
	return &HostTokenManager{
		secretKey: []byte(secretKey),
		expiry:    expiry,
		now:       time.Now,
	}
}

// Expiry 토큰 유효 기간
func (m *HostTokenManager) Expiry() time.Duration {
	return m.expiry
}

// Generate 미팅 생성자에게 발급하는 토큰
func (m *HostTokenManager) Generate(roomID string) (string, error) {
	now := m.now()
	claims := &HostClaims{
		RoomID: roomID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "duoverse",
			Subject:   roomID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secretKey)
}

// Validate 토큰 검증 후 해당 room 의 호스트인지 확인
func (m *HostTokenManager) Validate(tokenString, roomID string) (*HostClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &HostClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secretKey, nil
	}, jwt.WithTimeFunc(m.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*HostClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.RoomID != roomID {
		return nil, ErrRoomMismatch
	}

	return claims, nil
}
