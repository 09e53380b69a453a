// Package me реализует HTTP-обработчик получения профиля текущего пользователя.
package me

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/biteplans/internal/http/middlewarectx"
	"github.com/magabrotheeeer/biteplans/internal/http/response"
	"github.com/magabrotheeeer/biteplans/internal/lib/sl"
	"github.com/magabrotheeeer/biteplans/internal/models"
)

type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс чтения профиля.
type Service interface {
	Profile(ctx context.Context, subjectUID string) (*models.Account, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Профиль текущего пользователя
// @Tags Account
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]any
// @Failure 401 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /me [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.account.me"
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

	account, err := h.service.Profile(r.Context(), uid)
	if err != nil {
		log.Error("failed to get profile", sl.Err(err))
		if models.IsNotFound(err) {
			response.Fail(w, r, err, "User not found in database")
			return
		}
		response.Fail(w, r, err, "Something went wrong while getting profile")
		return
	}

	render.JSON(w, r, response.OK(map[string]any{
		"user": account,
	}))
}
