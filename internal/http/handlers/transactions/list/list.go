// Package list реализует HTTP-обработчик списка транзакций пользователя.
package list

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

// Service описывает интерфейс чтения транзакций.
type Service interface {
	ListTransactions(ctx context.Context, subjectUID string) ([]*models.Transaction, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Транзакции пользователя
// @Tags Transactions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]any
// @Failure 404 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /transactions [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.transactions.list"
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

	txs, err := h.service.ListTransactions(r.Context(), uid)
	if err != nil {
		log.Error("failed to fetch transactions", sl.Err(err))
		if models.IsNotFound(err) {
			response.Fail(w, r, err, "User not found in DB")
			return
		}
		response.Fail(w, r, err, "Server error while getting transactions")
		return
	}
	if len(txs) == 0 {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error(response.CodeNotFound, "No transactions found for this user"))
		return
	}

	render.JSON(w, r, response.OK(map[string]any{
		"data": txs,
	}))
}
