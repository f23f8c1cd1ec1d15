package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type bearerTokenKey struct{}

// WithBearerToken stores the raw bearer token; it is only verified when
// a caller asks for the current user.
func WithBearerToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, bearerTokenKey{}, token)
}

func BearerToken(ctx context.Context) string {
	token, _ := ctx.Value(bearerTokenKey{}).(string)
	return token
}

// TokenFromHeader extracts the token from an "Authorization: Bearer ..." value.
func TokenFromHeader(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

type userClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

type JWTUserProvider struct {
	secret []byte
	logger *slog.Logger
}

func NewJWTUserProvider(secret string, logger *slog.Logger) *JWTUserProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &JWTUserProvider{secret: []byte(secret), logger: logger}
}

// CurrentUserID returns "" for guests and for tokens that fail verification.
func (p *JWTUserProvider) CurrentUserID(ctx context.Context) string {
	raw := BearerToken(ctx)
	if raw == "" || len(p.secret) == 0 {
		return ""
	}
	userID, err := p.Parse(raw)
	if err != nil {
		p.logger.Debug("bearer token rejected", "error", err.Error())
		return ""
	}
	return userID
}

func (p *JWTUserProvider) Parse(raw string) (string, error) {
	parsed, err := jwt.ParseWithClaims(raw, &userClaims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
		}
		return p.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithLeeway(30*time.Second))
	if err != nil {
		return "", err
	}
	claims, ok := parsed.Claims.(*userClaims)
	if !ok || !parsed.Valid {
		return "", errors.New("invalid token claims")
	}
	if claims.Subject != "" {
		return claims.Subject, nil
	}
	if claims.UserID != "" {
		return claims.UserID, nil
	}
	return "", errors.New("token carries no user id")
}
