package models

import "errors"

// Ошибки хранилища и бизнес-логики. Слои оборачивают их через fmt.Errorf("%s: %w", op, err),
// HTTP-обработчики сопоставляют их со статусами через errors.Is.
var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrAccountExists       = errors.New("account already exists")
	ErrPlanNotFound        = errors.New("plan not found")
	ErrProductNotFound     = errors.New("product not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrTransactionExists   = errors.New("transaction already exists")
	ErrUsageEventExists    = errors.New("usage event already exists")

	ErrInvalidInput        = errors.New("invalid input")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrPlanInactive        = errors.New("plan is inactive")
	ErrProductInactive     = errors.New("product is inactive")

	ErrVersionConflict   = errors.New("account version conflict")
	ErrConcurrentUpdate  = errors.New("account is being updated concurrently")
	ErrConfirmInProgress = errors.New("order confirmation already in progress")

	ErrProcessorAuthFailed  = errors.New("payment processor authentication failed")
	ErrProcessorOrderFailed = errors.New("payment processor rejected order")
	ErrCaptureFailed        = errors.New("payment capture failed")
	ErrProcessorTimeout     = errors.New("payment processor timeout")
	ErrVerifierFailed       = errors.New("identity verification failed")
	ErrVerifierTimeout      = errors.New("identity verifier timeout")

	ErrPersistence = errors.New("persistence failure")

	// ErrUnrecoverable: повтор не поможет, сообщение уходит в очередь мёртвых писем.
	ErrUnrecoverable = errors.New("unrecoverable message")
)

// IsNotFound сообщает, что ошибка означает отсутствие сущности.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrPlanNotFound) ||
		errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrTransactionNotFound)
}

// IsExternal сообщает, что ошибка пришла от внешнего сервиса.
func IsExternal(err error) bool {
	return errors.Is(err, ErrProcessorAuthFailed) ||
		errors.Is(err, ErrProcessorOrderFailed) ||
		errors.Is(err, ErrCaptureFailed) ||
		errors.Is(err, ErrVerifierFailed)
}
