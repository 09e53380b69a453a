// Package use реализует HTTP-обработчик использования продукта за кредиты.
//
// Перед обработчиком стоит проверка пробного периода (middlewarectx.TrialGate).
package use

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/biteplans/internal/http/middlewarectx"
	"github.com/magabrotheeeer/biteplans/internal/http/response"
	"github.com/magabrotheeeer/biteplans/internal/lib/sl"
	"github.com/magabrotheeeer/biteplans/internal/models"
	"github.com/magabrotheeeer/biteplans/internal/services/credit"
)

type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс списания кредитов.
type Service interface {
	UseProduct(ctx context.Context, subjectUID, productID string) (*credit.UseResult, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Использовать продукт
// @Description Списывает стоимость продукта с баланса. Безлимитный баланс не уменьшается.
// @Tags Products
// @Produce json
// @Security BearerAuth
// @Param productId path string true "Идентификатор продукта"
// @Success 200 {object} map[string]any
// @Failure 403 {object} response.ErrorResponse "Недостаточно кредитов"
// @Failure 404 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /products/{productId}/use [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.products.use"
	productID := chi.URLParam(r, "productId")
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("product_id", productID),
	)

	uid, ok := middlewarectx.Subject(r.Context())
	if !ok {
		log.Error("subject not found in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error(response.CodeUnauthorized, "Unauthorized"))
		return
	}

	res, err := h.service.UseProduct(r.Context(), uid, productID)
	if err != nil {
		log.Error("failed to use product", sl.Err(err))
		switch {
		case errors.Is(err, models.ErrInsufficientCredits):
			response.Fail(w, r, err, "Not enough credits")
		case errors.Is(err, models.ErrAccountNotFound):
			response.Fail(w, r, err, "User not found")
		case errors.Is(err, models.ErrProductNotFound), errors.Is(err, models.ErrProductInactive):
			response.Fail(w, r, err, "Product not available")
		case errors.Is(err, models.ErrConcurrentUpdate):
			response.Fail(w, r, err, "Balance is being updated, try again")
		default:
			response.Fail(w, r, err, "Server error during credit deduction")
		}
		return
	}

	render.JSON(w, r, response.OK(map[string]any{
		"message":          res.Product.Name + " used successfully.",
		"remainingCredits": res.RemainingCredits,
	}))
}
