// Package confirm реализует HTTP-обработчик подтверждения подписки после оплаты.
//
// Handler захватывает оплату заказа, выдаёт план и записывает транзакцию.
// Повтор запроса с тем же заказом возвращает уже выданный план.
package confirm

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
	"github.com/magabrotheeeer/biteplans/internal/services/subscription"
)

type Request struct {
	OrderID string `json:"orderId" validate:"required"`
	PlanID  string `json:"planId" validate:"required"`
}

type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс подтверждения подписки.
type Service interface {
	ConfirmSubscription(ctx context.Context, subjectUID, orderID, planID string) (*subscription.ConfirmResult, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Подтвердить подписку
// @Tags Plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body Request true "Заказ и план"
// @Success 200 {object} map[string]any
// @Failure 400 {object} response.ErrorResponse "Неверный запрос или оплата не захвачена"
// @Failure 404 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse "Заказ уже подтверждается"
// @Failure 500 {object} response.ErrorResponse
// @Failure 504 {object} response.ErrorResponse
// @Router /plans/confirm-subscription [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.plans.confirm"
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

	res, err := h.service.ConfirmSubscription(r.Context(), uid, req.OrderID, req.PlanID)
	if err != nil {
		log.Error("failed to confirm subscription", sl.Err(err))
		switch {
		case errors.Is(err, models.ErrPlanNotFound), errors.Is(err, models.ErrPlanInactive):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(response.CodeFor(err), "Invalid or inactive plan"))
		case errors.Is(err, models.ErrCaptureFailed):
			response.Fail(w, r, err, "PayPal capture failed")
		case errors.Is(err, models.ErrConfirmInProgress):
			response.Fail(w, r, err, "Order confirmation already in progress")
		case models.IsNotFound(err):
			response.Fail(w, r, err, "User not found")
		default:
			response.Fail(w, r, err, "Failed to confirm subscription")
		}
		return
	}

	log.Info("subscription confirmed", slog.String("order_id", req.OrderID))
	render.JSON(w, r, response.OK(map[string]any{
		"message":       "Subscription confirmed",
		"currentPlan":   res.CurrentPlan,
		"transactionId": res.TransactionID,
	}))
}
