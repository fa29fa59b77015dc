package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/m04kA/SMC-DetailingService/internal/api/handlers"
	"github.com/m04kA/SMC-DetailingService/internal/domain"
)

// Заголовки идентичности, которые выставляет gateway
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"
)

const (
	msgMissingUserID = "отсутствует ID пользователя"
	msgInvalidUserID = "некорректный ID пользователя"
	msgAdminOnly     = "операция доступна только администратору"
)

type actorKey struct{}

// Identity читает заголовки идентичности, если они есть
// Запрос без X-User-ID проходит как анонимный
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok, err := actorFromHeaders(r)
		if err != nil {
			handlers.RespondBadRequest(w, msgInvalidUserID)
			return
		}
		if ok {
			r = r.WithContext(WithActor(r.Context(), actor))
		}
		next.ServeHTTP(w, r)
	})
}

// Auth требует X-User-ID
func Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok, err := actorFromHeaders(r)
		if err != nil {
			handlers.RespondBadRequest(w, msgInvalidUserID)
			return
		}
		if !ok {
			handlers.RespondUnauthorized(w, msgMissingUserID)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}

// RequireAdmin пропускает только роль admin, ставится после Auth
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := GetActor(r.Context())
		if actor.IsAnonymous() {
			handlers.RespondUnauthorized(w, msgMissingUserID)
			return
		}
		if !actor.IsAdmin() {
			handlers.RespondForbidden(w, msgAdminOnly)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithActor кладет идентичность в контекст
func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// GetActor возвращает идентичность запроса, для анонимного - нулевой Actor
func GetActor(ctx context.Context) domain.Actor {
	actor, _ := ctx.Value(actorKey{}).(domain.Actor)
	return actor
}

// GetUserID возвращает ID пользователя из контекста
func GetUserID(ctx context.Context) (int64, bool) {
	actor := GetActor(ctx)
	return actor.UserID, !actor.IsAnonymous()
}

func actorFromHeaders(r *http.Request) (domain.Actor, bool, error) {
	raw := strings.TrimSpace(r.Header.Get(HeaderUserID))
	if raw == "" {
		return domain.Actor{}, false, nil
	}
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || userID <= 0 {
		return domain.Actor{}, false, strconv.ErrSyntax
	}

	role := strings.ToLower(strings.TrimSpace(r.Header.Get(HeaderUserRole)))
	if role != domain.RoleAdmin {
		role = domain.RoleCustomer
	}
	return domain.Actor{UserID: userID, Role: role}, true, nil
}
