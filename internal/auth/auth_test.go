package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poker-rooms/internal/middleware"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewService("secret")
	id, name := GuestIdentity("alice")
	require.Equal(t, "alice", name)

	token, err := svc.GenerateToken(id, name)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.PlayerID)
	assert.Equal(t, "alice", claims.PlayerName)
}

func TestValidateTokenRejectsOtherSecret(t *testing.T) {
	token, err := NewService("one").GenerateToken("p1", "alice")
	require.NoError(t, err)

	_, err = NewService("two").ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	svc := NewService("secret")
	svc.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	token, err := svc.GenerateToken("p1", "alice")
	require.NoError(t, err)

	_, err = NewService("secret").ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGuestIdentityNamesAnonymousPlayers(t *testing.T) {
	id, name := GuestIdentity("  ")
	assert.NotEmpty(t, id)
	assert.Equal(t, "Guest-"+id[:8], name)
}

func TestRequireAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := NewService("secret")
	token, err := svc.GenerateToken("p1", "alice")
	require.NoError(t, err)

	r := gin.New()
	r.GET("/me", svc.RequireAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": c.GetString(middleware.PlayerIDKey), "name": c.GetString(PlayerNameKey)})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"p1","name":"alice"}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me?token="+token, nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
