package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostTokenRoundTrip(t *testing.T) {
	m := NewHostTokenManager("secret", time.Hour)

	token, err := m.Generate("room-1")
	require.NoError(t, err)

	claims, err := m.Validate(token, "room-1")
	require.NoError(t, err)
	assert.Equal(t, "room-1", claims.RoomID)

	_, err = m.Validate(token, "room-2")
	assert.ErrorIs(t, err, ErrRoomMismatch)

	_, err = NewHostTokenManager("other", time.Hour).Validate(token, "room-1")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestHostTokenExpired(t *testing.T) {
	m := NewHostTokenManager("secret", time.Minute)
	issued := time.Now().Add(-time.Hour)
	m.now = func() time.Time { return issued }

	token, err := m.Generate("room-1")
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Validate(token, "room-1")
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func newHostApp(m *HostTokenManager, enforce bool) *fiber.App {
	app := fiber.New()
	app.Get("/join-requests/:room", func(c *fiber.Ctx) error {
		if err := CheckHost(c, m, enforce); err != nil {
			return err
		}
		return c.SendString("ok")
	})
	app.Get("/api/join-requests/stats/:room", RequireHostToken(m, enforce), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func TestCheckHostQueryOnly(t *testing.T) {
	app := newHostApp(NewHostTokenManager("secret", time.Hour), false)

	resp, err := app.Test(httptest.NewRequest("GET", "/join-requests/room-1", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/join-requests/room-1?host=TRUE", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/join-requests/stats/room-1", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestCheckHostEnforcesToken(t *testing.T) {
	m := NewHostTokenManager("secret", time.Hour)
	app := newHostApp(m, true)

	resp, err := app.Test(httptest.NewRequest("GET", "/join-requests/room-1?host=true", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	token, err := m.Generate("room-1")
	require.NoError(t, err)

	for _, path := range []string{"/join-requests/room-1?host=true", "/api/join-requests/stats/room-1"} {
		req := httptest.NewRequest("GET", path, nil)
		req.Header.Set("Cookie", HostTokenCookie+"="+token)
		resp, err = app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode, path)
	}

	for _, path := range []string{"/join-requests/room-2?host=true", "/api/join-requests/stats/room-2"} {
		req := httptest.NewRequest("GET", path, nil)
		req.Header.Set("Cookie", HostTokenCookie+"="+token)
		resp, err = app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode, path)
	}
}
