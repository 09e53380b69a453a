// Package read реализует HTTP-обработчик получения продукта по идентификатору.
package read

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
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

// Service описывает интерфейс чтения продукта.
type Service interface {
	GetProduct(ctx context.Context, productID string) (*models.Product, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Продукт по идентификатору
// @Tags Products
// @Produce json
// @Param productId path string true "Идентификатор продукта"
// @Success 200 {object} map[string]any
// @Failure 404 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /products/{productId} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.products.read"
	productID := chi.URLParam(r, "productId")
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("product_id", productID),
	)

	product, err := h.service.GetProduct(r.Context(), productID)
	if err != nil {
		log.Error("failed to read product", sl.Err(err))
		if models.IsNotFound(err) {
			response.Fail(w, r, err, "Product not found")
			return
		}
		response.Fail(w, r, err, "Something went wrong while getting the product")
		return
	}

	render.JSON(w, r, response.OK(map[string]any{
		"product": product,
	}))
}
