// Package register реализует HTTP-обработчик регистрации пользователя после входа
// через провайдера идентификации.
//
// Новый аккаунт получает пробный период и стартовые кредиты. Повторная регистрация
// не ошибка: возвращается 200 вместо 201.
package register

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
)

// Request тело запроса регистрации. Пустой email заменяется email из токена.
type Request struct {
	Email string `json:"email" validate:"omitempty,email"`
	Name  string `json:"name" validate:"required,max=100"`
}

type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс регистрации.
type Service interface {
	Register(ctx context.Context, subjectUID, email, name string) (bool, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Регистрация пользователя
// @Description Создает аккаунт с пробным периодом на 7 дней и 100 кредитами.
// @Tags Account
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body Request true "Данные пользователя"
// @Success 201 {object} response.Response "Пользователь зарегистрирован"
// @Success 200 {object} response.Response "Пользователь уже существует"
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /register [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.account.register"
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
	if req.Email == "" {
		req.Email = middlewarectx.SubjectEmail(r.Context())
	}

	created, err := h.service.Register(r.Context(), uid, req.Email, req.Name)
	if err != nil {
		log.Error("failed to register user", sl.Err(err))
		response.Fail(w, r, err, "Something went wrong while registering user")
		return
	}

	if !created {
		log.Info("user already exists")
		render.JSON(w, r, response.OK(map[string]any{
			"message": "User already exists",
		}))
		return
	}

	log.Info("user registered")
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OK(map[string]any{
		"message": "User registered successfully",
	}))
}
