package middlewarectx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/biteplans/internal/http/response"
	"github.com/magabrotheeeer/biteplans/internal/lib/sl"
	"github.com/magabrotheeeer/biteplans/internal/models"
)

// TrialGate снимает истёкший пробный период перед обработчиком.
// Запрос пропускается дальше в любом случае, кроме отсутствия аккаунта
// или ошибки его чтения.
func TrialGate(service TrialService, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.TrialGate"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			uid, ok := Subject(r.Context())
			if !ok {
				log.Error("subject missing in context")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error(response.CodeUnauthorized, "Unauthorized"))
				return
			}

			if _, err := service.ExpireTrial(r.Context(), uid); err != nil {
				log.Error("trial check failed", sl.Err(err))
				if models.IsNotFound(err) {
					response.Fail(w, r, err, "User not found")
					return
				}
				response.Fail(w, r, err, "Server error during trial check")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
