package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/InQaaaaGit/lnboost.git/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// contextKey используется как ключ для значений в контексте
type contextKey string

const (
	// AccessTokenKey используется как ключ для хранения токена доступа Alby в контексте
	AccessTokenKey contextKey = "alby_access_token"
	// SessionCookieName используется как имя куки с JWT сессии Alby
	SessionCookieName = "awt"
)

// WithAlbyAuth проверяет JWT из куки awt и кладет токен доступа Alby в контекст.
// Запрос без куки или с невалидным токеном передается дальше без токена,
// решение о том, как на это ответить, принимает обработчик.
func WithAlbyAuth(secret string, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			accessToken, err := ParseSessionToken(cookie.Value, secret)
			if err != nil {
				logger.Debug("Invalid session token", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), AccessTokenKey, accessToken)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ParseSessionToken проверяет подпись JWT сессии и возвращает токен доступа Alby
func ParseSessionToken(tokenString, secret string) (string, error) {
	claims := &models.AlbyClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(secret), nil
		})
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", fmt.Errorf("token is not valid")
	}
	if claims.AccessToken == "" {
		return "", fmt.Errorf("token has no access_token claim")
	}
	return claims.AccessToken, nil
}

// NewSessionToken подписывает JWT сессии с токеном доступа Alby
func NewSessionToken(accessToken, secret string) (string, error) {
	claims := &models.AlbyClaims{AccessToken: accessToken}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// AccessTokenFromContext возвращает токен доступа Alby, если запрос аутентифицирован
func AccessTokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(AccessTokenKey).(string)
	return token, ok && token != ""
}
