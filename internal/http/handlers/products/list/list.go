// Package list реализует HTTP-обработчик списка активных продуктов.
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
)

type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс чтения продуктов.
type Service interface {
	ListProducts(ctx context.Context) ([]*models.Product, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Список продуктов
// @Tags Products
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 404 {object} response.ErrorResponse "Нет активных продуктов"
// @Failure 500 {object} response.ErrorResponse
// @Router /products [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.products.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	products, err := h.service.ListProducts(r.Context())
	if err != nil {
		log.Error("failed to fetch products", sl.Err(err))
		response.Fail(w, r, err, "Something went wrong while getting products")
		return
	}
	if len(products) == 0 {
		response.Fail(w, r, models.ErrProductNotFound, "No products available")
		return
	}

	render.JSON(w, r, response.OK(map[string]any{
		"data": products,
	}))
}
