package auth

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"masterful/services/chat-api/internal/config"
	"masterful/services/chat-api/internal/utils/platformerrors"
)

var (
	// ErrMissingToken is returned when no bearer token is present.
	ErrMissingToken = errors.New("missing bearer token")
	// ErrInvalidToken is returned when the token fails validation.
	ErrInvalidToken = errors.New("invalid token")
)

// Validator validates the marketplace's HS256 bearer tokens.
type Validator struct {
	cfg *config.Config
	log zerolog.Logger
}

// Claims are the token claims the chat service cares about.
type Claims struct {
	Subject string
	Role    string
}

// NewValidator creates a token validator from the service configuration.
func NewValidator(cfg *config.Config, log zerolog.Logger) *Validator {
	return &Validator{cfg: cfg, log: log.With().Str("component", "auth").Logger()}
}

// Validate parses and verifies a bearer token, returning its claims.
func (v *Validator) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(v.cfg.AuthSecret), nil
	}, jwt.WithIssuer(v.cfg.AuthIssuer), jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	sub, _ := mapClaims["sub"].(string)
	if sub == "" {
		return nil, ErrInvalidToken
	}
	role, _ := mapClaims["role"].(string)

	return &Claims{Subject: sub, Role: role}, nil
}

// Middleware enforces bearer auth on REST routes when enabled.
func (v *Validator) Middleware() gin.HandlerFunc {
	if v == nil || !v.cfg.AuthEnabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		tokenString := BearerToken(c.GetHeader("Authorization"))
		if tokenString == "" {
			abortUnauthorized(c, "missing bearer token")
			return
		}

		claims, err := v.Validate(tokenString)
		if err != nil {
			v.log.Debug().Err(err).Msg("token validation failed")
			abortUnauthorized(c, "invalid token")
			return
		}

		c.Set("user_id", claims.Subject)
		c.Set("user_role", claims.Role)
		c.Next()
	}
}

// Authenticate resolves the user for a WebSocket upgrade request. The token
// may arrive in the Authorization header or the "token" query parameter
// since browser WebSocket clients cannot set headers.
func (v *Validator) Authenticate(c *gin.Context) (string, error) {
	if !v.cfg.AuthEnabled {
		if userID := strings.TrimSpace(c.Query("user_id")); userID != "" {
			return userID, nil
		}
		return "anonymous", nil
	}

	tokenString := BearerToken(c.GetHeader("Authorization"))
	if tokenString == "" {
		tokenString = strings.TrimSpace(c.Query("token"))
	}
	if tokenString == "" {
		return "", ErrMissingToken
	}

	claims, err := v.Validate(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

func abortUnauthorized(c *gin.Context, message string) {
	platformerrors.WriteUnauthorized(c, message)
	c.Abort()
}
