package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const coachIDKey = "coach_id"

// CoachAuth проверяет Bearer токен (HS256) и кладет UUID тренера из sub в контекст
func CoachAuth(secret string) echo.MiddlewareFunc {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(auth, "Bearer ") {
				return unauthorized(c, "missing bearer token")
			}

			var claims jwt.RegisteredClaims
			tok, err := parser.ParseWithClaims(strings.TrimPrefix(auth, "Bearer "), &claims, func(*jwt.Token) (any, error) {
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return unauthorized(c, "invalid token")
			}

			coachID, err := uuid.Parse(claims.Subject)
			if err != nil {
				return unauthorized(c, "invalid subject")
			}

			c.Set(coachIDKey, coachID)
			return next(c)
		}
	}
}

// IssueCoachToken выпускает токен тренера, который принимает CoachAuth
func IssueCoachToken(secret string, coachID uuid.UUID, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   coachID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func currentCoachID(c echo.Context) (uuid.UUID, error) {
	id, ok := c.Get(coachIDKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, errors.New("coach id missing in context")
	}
	return id, nil
}

func unauthorized(c echo.Context, msg string) error {
	return c.JSON(http.StatusUnauthorized, errorResponse{Error: "unauthorized", Message: msg})
}
