// Package list реализует HTTP-обработчик списка активных планов для страницы тарифов.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/biteplans/internal/http/response"
	"github.com/magabrotheeeer/biteplans/internal/lib/sl"
	"github.com/magabrotheeeer/biteplans/internal/models"
	"github.com/magabrotheeeer/biteplans/internal/services/catalog"
)

type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс чтения планов.
type Service interface {
	ListPlans(ctx context.Context) ([]catalog.PlanView, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Список планов
// @Tags Plans
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 404 {object} response.ErrorResponse "Нет активных планов"
// @Failure 500 {object} response.ErrorResponse
// @Router /plans [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.plans.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	plans, err := h.service.ListPlans(r.Context())
	if err != nil {
		log.Error("failed to fetch plans", sl.Err(err))
		response.Fail(w, r, err, "Something went wrong while fetching plans")
		return
	}
	if len(plans) == 0 {
		response.Fail(w, r, models.ErrPlanNotFound, "No plans found")
		return
	}

	render.JSON(w, r, response.OK(map[string]any{
		"data": plans,
	}))
}
