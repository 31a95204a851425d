package handlers

import (
	"testing"

	"github.com/gharbeti/gharbeti-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db, nil)

	w := doJSON(t, r, "POST", "/api/auth/register", "", map[string]interface{}{
		"username": "sita",
		"email":    "sita@example.com",
		"password": "hunter22",
		"phone":    "9841000000",
	})
	require.Equal(t, 201, w.Code, w.Body.String())

	var user models.User
	require.NoError(t, db.Where("email = ?", "sita@example.com").First(&user).Error)
	assert.Equal(t, models.RoleUser, user.Role, "self-registration never grants admin")
	assert.NotEqual(t, "hunter22", user.PasswordHash)

	t.Run("login returns a usable token", func(t *testing.T) {
		w := doJSON(t, r, "POST", "/api/auth/login", "", map[string]interface{}{
			"email":    "sita@example.com",
			"password": "hunter22",
		})
		require.Equal(t, 200, w.Code, w.Body.String())

		token, ok := decodeBody(t, w)["token"].(string)
		require.True(t, ok)

		w = doJSON(t, r, "GET", "/api/bookings/my-bookings", token, nil)
		assert.Equal(t, 200, w.Code)
	})

	t.Run("wrong password", func(t *testing.T) {
		w := doJSON(t, r, "POST", "/api/auth/login", "", map[string]interface{}{
			"email":    "sita@example.com",
			"password": "wrong",
		})
		assert.Equal(t, 401, w.Code)
	})

	t.Run("unknown email", func(t *testing.T) {
		w := doJSON(t, r, "POST", "/api/auth/login", "", map[string]interface{}{
			"email":    "nobody@example.com",
			"password": "hunter22",
		})
		assert.Equal(t, 401, w.Code)
	})

	t.Run("duplicate email", func(t *testing.T) {
		w := doJSON(t, r, "POST", "/api/auth/register", "", map[string]interface{}{
			"username": "sita2",
			"email":    "sita@example.com",
			"password": "hunter22",
		})
		assert.Equal(t, 500, w.Code)
	})
}

func TestLoginRejectsBannedAccount(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db, nil)

	w := doJSON(t, r, "POST", "/api/auth/register", "", map[string]interface{}{
		"username": "ram",
		"email":    "ram@example.com",
		"password": "hunter22",
	})
	require.Equal(t, 201, w.Code)

	require.NoError(t, db.Model(&models.User{}).
		Where("email = ?", "ram@example.com").
		Updates(map[string]interface{}{"is_banned": true, "ban_reason": "spam listings"}).Error)

	w = doJSON(t, r, "POST", "/api/auth/login", "", map[string]interface{}{
		"email":    "ram@example.com",
		"password": "hunter22",
	})
	assert.Equal(t, 403, w.Code)
	assert.Contains(t, w.Body.String(), "spam listings")
}
