// Package subscribe реализует HTTP-обработчик создания заказа PayPal на покупку плана.
package subscribe

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/biteplans/internal/http/middlewarectx"
	"github.com/magabrotheeeer/biteplans/internal/http/response"
	"github.com/magabrotheeeer/biteplans/internal/lib/sl"
	"github.com/magabrotheeeer/biteplans/internal/models"
	"github.com/magabrotheeeer/biteplans/internal/paymentprovider"
)

type Request struct {
	PlanID string `json:"planId" validate:"required"`
}

type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс создания заказа.
type Service interface {
	CreateOrder(ctx context.Context, subjectUID, planID string) (*paymentprovider.Order, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Создать заказ на подписку
// @Description Возвращает идентификатор заказа и ссылку для подтверждения оплаты в PayPal.
// @Tags Plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body Request true "План"
// @Success 200 {object} map[string]any
// @Failure 400 {object} response.ErrorResponse "Неизвестный или неактивный план"
// @Failure 404 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Failure 504 {object} response.ErrorResponse
// @Router /plans/subscribe [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.plans.subscribe"
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
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	order, err := h.service.CreateOrder(r.Context(), uid, req.PlanID)
	if err != nil {
		log.Error("failed to create order", sl.Err(err))
		switch {
		case errors.Is(err, models.ErrPlanNotFound), errors.Is(err, models.ErrPlanInactive):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(response.CodeFor(err), "Invalid or inactive plan"))
		case models.IsNotFound(err):
			response.Fail(w, r, err, "User not found")
		default:
			response.Fail(w, r, err, "Failed to create PayPal order")
		}
		return
	}

	log.Info("order created", slog.String("order_id", order.ID))
	render.JSON(w, r, response.OK(map[string]any{
		"orderId":     order.ID,
		"approvalUrl": order.ApprovalURL,
	}))
}
