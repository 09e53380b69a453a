// Package read реализует HTTP-обработчик получения транзакции по идентификатору заказа.
package read

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
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

// Service описывает интерфейс чтения транзакции.
type Service interface {
	GetTransaction(ctx context.Context, subjectUID, orderID string) (*models.Transaction, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Транзакция по заказу
// @Tags Transactions
// @Produce json
// @Security BearerAuth
// @Param orderId path string true "Идентификатор заказа"
// @Success 200 {object} map[string]any
// @Failure 404 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /transactions/{orderId} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.transactions.read"
	orderID := chi.URLParam(r, "orderId")
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("order_id", orderID),
	)

	uid, ok := middlewarectx.Subject(r.Context())
	if !ok {
		log.Error("subject not found in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error(response.CodeUnauthorized, "Unauthorized"))
		return
	}

	tx, err := h.service.GetTransaction(r.Context(), uid, orderID)
	if err != nil {
		log.Error("failed to fetch transaction", sl.Err(err))
		if models.IsNotFound(err) {
			response.Fail(w, r, err, "Transaction not found")
			return
		}
		response.Fail(w, r, err, "Server error while fetching transaction")
		return
	}

	render.JSON(w, r, response.OK(map[string]any{
		"transaction": tx,
	}))
}
