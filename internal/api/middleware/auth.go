package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"auction-marketplace/internal/domain"
	"auction-marketplace/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const (
	userIDKey = "user_id"
	tierKey   = "subscription_tier"
)

// Claims are issued by the identity provider. The subject is the user id;
// Subscription carries the seller tier (Free, Gold or Platinum).
type Claims struct {
	Subscription string `json:"subscription,omitempty"`
	jwt.RegisteredClaims
}

// TierRecorder stores the tier a token claims for its user.
type TierRecorder interface {
	Record(ctx context.Context, userID string, tier domain.Tier) error
}

// GenerateToken signs an HS256 token for userID. Used by tests and local tooling;
// production tokens come from the identity provider.
func GenerateToken(secret, userID string, tier domain.Tier, ttl time.Duration) (string, error) {
	claims := Claims{
		Subscription: string(tier),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and validates a JWT, returning the claims.
func ValidateToken(secret, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// JWTAuth rejects requests without a valid bearer token. The token's
// subscription tier is recorded before the handler runs.
func JWTAuth(secret string, recorder TierRecorder, log logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(header, "Bearer ") {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing or invalid authorization header")
			}

			claims, err := ValidateToken(secret, strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				log.Debug("Rejected bearer token", "error", err)
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set(userIDKey, claims.Subject)
			// A missing claim means Free, so a downgrade takes effect on the next request.
			tier := domain.ParseTier(claims.Subscription)
			c.Set(tierKey, tier)
			if recorder != nil {
				if err := recorder.Record(c.Request().Context(), claims.Subject, tier); err != nil {
					log.Warn("Failed to record subscription tier", "user_id", claims.Subject, "error", err)
				}
			}

			return next(c)
		}
	}
}

// UserID returns the authenticated user, or "" outside JWTAuth.
func UserID(c echo.Context) string {
	id, _ := c.Get(userIDKey).(string)
	return id
}
