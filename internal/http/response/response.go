// Package response формирует единые JSON-ответы обработчиков и сопоставляет
// доменные ошибки с HTTP-статусами и кодами ошибок.
package response

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/biteplans/internal/models"
)

// Коды ошибок в ответе.
const (
	CodeNotFound            = "NOT_FOUND"
	CodeInvalidInput        = "INVALID_INPUT"
	CodeInsufficientCredits = "INSUFFICIENT_CREDITS"
	CodeInactive            = "INACTIVE"
	CodeExternalFailure     = "EXTERNAL_SERVICE_FAILURE"
	CodeProcessorTimeout    = "PROCESSOR_TIMEOUT"
	CodeVerifierTimeout     = "VERIFIER_TIMEOUT"
	CodePersistenceFailure  = "PERSISTENCE_FAILURE"
	CodeConflict            = "CONFLICT"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeRateLimited         = "RATE_LIMITED"
)

// Response: ответ с ошибкой или простым сообщением.
type Response struct {
	Success bool   `json:"success"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse: структура ошибки для Swagger-документации.
type ErrorResponse struct {
	Success bool   `json:"success" example:"false"`
	Code    string `json:"code" example:"NOT_FOUND"`
	Message string `json:"message" example:"Product not available"`
}

// Error возвращает Response с ошибкой.
func Error(code, msg string) Response {
	return Response{Code: code, Message: msg}
}

// OK возвращает тело успешного ответа: success=true и переданные поля.
func OK(fields map[string]any) map[string]any {
	body := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		body[k] = v
	}
	body["success"] = true
	return body
}

// Fail пишет ответ с ошибкой: статус и код выводятся из err, текст берётся из msg.
// Текст err клиенту не отдаётся.
func Fail(w http.ResponseWriter, r *http.Request, err error, msg string) {
	render.Status(r, StatusFor(err))
	render.JSON(w, r, Error(CodeFor(err), msg))
}

// StatusFor сопоставляет ошибку с HTTP-статусом.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, models.ErrInsufficientCredits):
		return http.StatusForbidden
	case models.IsNotFound(err), errors.Is(err, models.ErrProductInactive):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidInput), errors.Is(err, models.ErrPlanInactive):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrConcurrentUpdate),
		errors.Is(err, models.ErrConfirmInProgress),
		errors.Is(err, models.ErrVersionConflict):
		return http.StatusConflict
	case errors.Is(err, models.ErrProcessorTimeout), errors.Is(err, models.ErrVerifierTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, models.ErrVerifierFailed):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrCaptureFailed):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// CodeFor сопоставляет ошибку с кодом ответа.
func CodeFor(err error) string {
	switch {
	case errors.Is(err, models.ErrInsufficientCredits):
		return CodeInsufficientCredits
	case errors.Is(err, models.ErrProductInactive), errors.Is(err, models.ErrPlanInactive):
		return CodeInactive
	case models.IsNotFound(err):
		return CodeNotFound
	case errors.Is(err, models.ErrInvalidInput):
		return CodeInvalidInput
	case errors.Is(err, models.ErrConcurrentUpdate),
		errors.Is(err, models.ErrConfirmInProgress),
		errors.Is(err, models.ErrVersionConflict):
		return CodeConflict
	case errors.Is(err, models.ErrProcessorTimeout):
		return CodeProcessorTimeout
	case errors.Is(err, models.ErrVerifierTimeout):
		return CodeVerifierTimeout
	case errors.Is(err, models.ErrVerifierFailed):
		return CodeUnauthorized
	case models.IsExternal(err):
		return CodeExternalFailure
	default:
		return CodePersistenceFailure
	}
}

// ValidationError формирует Response на основе ошибок валидации.
func ValidationError(errs validator.ValidationErrors) Response {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "email":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be a valid email", err.Field()))
		case "max":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is too long", err.Field()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not valid", err.Field()))
		}
	}
	return Error(CodeInvalidInput, strings.Join(errsMsgs, ", "))
}
