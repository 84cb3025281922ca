package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"poker-rooms/internal/middleware"
)

const (
	// PlayerNameKey holds the display name of the authenticated caller.
	PlayerNameKey = "player_name"

	defaultTTL = 24 * time.Hour
)

var ErrInvalidToken = errors.New("invalid token")

// Claims identify a player. The engine trusts the id it is given.
type Claims struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	jwt.RegisteredClaims
}

type Service struct {
	jwtSecret []byte
	ttl       time.Duration
	now       func() time.Time
}

func NewService(secret string) *Service {
	return &Service{jwtSecret: []byte(secret), ttl: defaultTTL, now: time.Now}
}

// GuestIdentity mints a fresh player id for name.
func GuestIdentity(name string) (string, string) {
	id := uuid.NewString()
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Guest-" + id[:8]
	}
	return id, name
}

func (s *Service) GenerateToken(playerID, playerName string) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		PlayerID:   playerID,
		PlayerName: playerName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   playerID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	})
	return token.SignedString(s.jwtSecret)
}

func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.PlayerID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// RequireAuth resolves the bearer token into the caller's player id and name.
// WebSocket clients may pass the token as a query parameter instead.
func (s *Service) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if raw == "" {
			raw = c.Query("token")
		}
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}
		claims, err := s.ValidateToken(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(middleware.PlayerIDKey, claims.PlayerID)
		c.Set(PlayerNameKey, claims.PlayerName)
		c.Next()
	}
}
