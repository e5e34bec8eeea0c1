package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const (
	// ViewerHeader передаёт идентификатор зрителя. Аутентификации нет.
	ViewerHeader = "X-Viewer-ID"
	// ModeratorRole — роль, открывающая административные маршруты.
	ModeratorRole = "moderator"
	tokenIssuer   = "tiktroq"

	maxViewerIDLen = 64
)

type viewerKey struct{}

var (
	errNoViewer     = errors.New("не указан " + ViewerHeader)
	errBadViewer    = errors.New("некорректный " + ViewerHeader)
	errUnauthorized = errors.New("доступ запрещён")
)

// ViewerMiddleware кладёт идентификатор зрителя в контекст запроса.
func ViewerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(ViewerHeader))
		if id == "" {
			WriteError(w, http.StatusUnauthorized, errNoViewer)
			return
		}
		if len(id) > maxViewerIDLen || strings.ContainsAny(id, " \t\r\n/") {
			WriteError(w, http.StatusBadRequest, errBadViewer)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), viewerKey{}, id)))
	})
}

// ViewerID возвращает идентификатор зрителя из контекста.
func ViewerID(ctx context.Context) string {
	id, _ := ctx.Value(viewerKey{}).(string)
	return id
}

// ModeratorClaims — содержимое токена модератора.
type ModeratorClaims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// IssueModeratorToken подписывает HS256-токен модератора.
func IssueModeratorToken(secret, subject string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("пустой секрет")
	}
	now := time.Now()
	claims := ModeratorClaims{
		Roles: []string{ModeratorRole},
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseModeratorToken проверяет подпись, срок и роль.
func ParseModeratorToken(secret, raw string) (*ModeratorClaims, error) {
	token, err := jwt.ParseWithClaims(raw, &ModeratorClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*ModeratorClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if !claims.VerifyIssuer(tokenIssuer, true) || !slices.Contains(claims.Roles, ModeratorRole) {
		return nil, errors.New("нет роли модератора")
	}
	return claims, nil
}

// AdminMiddleware пропускает только запросы с действующим токеном модератора
// в заголовке Authorization. Пустой секрет закрывает доступ полностью.
func AdminMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if secret == "" || !ok {
				WriteError(w, http.StatusUnauthorized, errUnauthorized)
				return
			}
			if _, err := ParseModeratorToken(secret, strings.TrimSpace(raw)); err != nil {
				WriteError(w, http.StatusUnauthorized, errUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ErrorResponse описывает ошибку.
type ErrorResponse struct {
	Error  string `json:"error"`
	Notice string `json:"notice,omitempty"`
}

// WriteError отправляет JSON с ошибкой.
func WriteError(w http.ResponseWriter, status int, err error) {
	WriteJSON(w, status, ErrorResponse{Error: err.Error()})
}

// WriteJSON кодирует ответ в JSON.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
