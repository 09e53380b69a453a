// Package update реализует HTTP-обработчик изменения профиля.
package update

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/biteplans/internal/http/middlewarectx"
	"github.com/magabrotheeeer/biteplans/internal/http/response"
	"github.com/magabrotheeeer/biteplans/internal/lib/sl"
	"github.com/magabrotheeeer/biteplans/internal/models"
)

// Request тело запроса. ProfileImage: ссылка на изображение, сами файлы не принимаются.
type Request struct {
	Name         string `json:"name" validate:"omitempty,max=100"`
	ProfileImage string `json:"profileImage" validate:"omitempty,max=2048"`
}

type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс изменения профиля.
type Service interface {
	UpdateProfile(ctx context.Context, subjectUID, name, profileImage string) (*models.Account, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Изменить профиль
// @Tags Account
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body Request true "Новые данные профиля"
// @Success 200 {object} map[string]any
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /update [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.account.update"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	uid, ok := middlewarectx.Subject(r.Context())
	if !ok {
		log.Error("subject not found in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error(response.CodeUnauthorized, "Unauthorized"))
		return
	}

	var req Request
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(response.CodeInvalidInput, "invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	account, err := h.service.UpdateProfile(r.Context(), uid, req.Name, req.ProfileImage)
	if err != nil {
		log.Error("failed to update profile", sl.Err(err))
		if models.IsNotFound(err) {
			response.Fail(w, r, err, "User not found")
			return
		}
		response.Fail(w, r, err, "Failed to update profile")
		return
	}

	log.Info("profile updated")
	render.JSON(w, r, response.OK(map[string]any{
		"message": "Profile updated successfully",
		"user":    account,
	}))
}
