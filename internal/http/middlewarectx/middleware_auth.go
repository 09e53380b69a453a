// Package middlewarectx содержит HTTP middleware: проверку bearer-токена,
// проверку пробного периода и ограничение частоты запросов.
//
// Auth проверяет токен через провайдера идентификации и кладёт в контекст
// идентификатор субъекта и email. При ошибке проверки возвращает 401,
// при таймауте провайдера 504.
package middlewarectx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/biteplans/internal/http/response"
	"github.com/magabrotheeeer/biteplans/internal/lib/sl"
	"github.com/magabrotheeeer/biteplans/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// SubjectUID: ключ идентификатора субъекта в контексте
	SubjectUID Key = "subject_uid"
	// Email: ключ email субъекта в контексте
	Email Key = "email"
)

// Subject возвращает идентификатор субъекта из контекста.
func Subject(ctx context.Context) (string, bool) {
	uid, ok := ctx.Value(SubjectUID).(string)
	return uid, ok && uid != ""
}

// SubjectEmail возвращает email субъекта из контекста.
func SubjectEmail(ctx context.Context) string {
	email, _ := ctx.Value(Email).(string)
	return email
}

// Auth возвращает middleware, проверяющий заголовок Authorization.
func Auth(verifier Verifier, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.Auth"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Warn("missing or invalid authorization header")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error(response.CodeUnauthorized, "Unauthorized: No token provided"))
				return
			}
			token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

			id, err := verifier.Verify(r.Context(), token)
			if err != nil {
				if errors.Is(err, models.ErrVerifierTimeout) {
					log.Error("identity verifier timed out", sl.Err(err))
					render.Status(r, http.StatusGatewayTimeout)
					render.JSON(w, r, response.Error(response.CodeVerifierTimeout, "Identity provider did not respond"))
					return
				}
				log.Warn("invalid or expired token", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error(response.CodeUnauthorized, "Unauthorized: Invalid token"))
				return
			}

			ctx := context.WithValue(r.Context(), SubjectUID, id.UID)
			ctx = context.WithValue(ctx, Email, id.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
