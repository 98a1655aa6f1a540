package errors

import "fmt"

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

type AppError struct {
	Code        string
	Message     string
	UserMessage string
	Severity    Severity
	Retryable   bool
	cause       error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

func (e *AppError) Cause() error {
	return e.Unwrap()
}

func NewValidationError(msg string) *AppError {
	return &AppError{
		Code:        "E100",
		Message:     msg,
		UserMessage: fmt.Sprintf("Неверный формат данных. %s", msg),
		Severity:    SeverityLow,
		Retryable:   false,
		cause:       nil,
	}
}

func NewDatabaseError(cause error) *AppError {
	var underlyingMsg string
	if cause != nil {
		underlyingMsg = cause.Error()
	}

	return &AppError{
		Code:        "E200",
		Message:     fmt.Sprintf("Database error: %s", underlyingMsg),
		UserMessage: "Временная проблема, попробуйте позже",
		Severity:    SeverityHigh,
		Retryable:   true,
		cause:       cause,
	}
}

// NewGenerationError covers failed sends to a workflow endpoint.
func NewGenerationError(kind string, cause error) *AppError {
	return &AppError{
		Code:        "E300",
		Message:     fmt.Sprintf("Generation request failed: %s", kind),
		UserMessage: "Не удалось обработать запрос. Попробуйте еще раз",
		Severity:    SeverityMedium,
		Retryable:   true,
		cause:       cause,
	}
}

// NewGenerationTimeoutError covers replies that never arrived in the window.
func NewGenerationTimeoutError(kind string) *AppError {
	return &AppError{
		Code:        "E301",
		Message:     fmt.Sprintf("Generation reply timed out: %s", kind),
		UserMessage: "Ответ не пришел вовремя. Попробуйте еще раз",
		Severity:    SeverityMedium,
		Retryable:   true,
		cause:       nil,
	}
}

func NewStateError(msg string) *AppError {
	return &AppError{
		Code:        "E400",
		Message:     msg,
		UserMessage: "Операция невозможна в текущем состоянии",
		Severity:    SeverityMedium,
		Retryable:   false,
		cause:       nil,
	}
}

// NewPublishError covers channel verification and publishing failures.
func NewPublishError(cause error) *AppError {
	var underlyingMsg string
	if cause != nil {
		underlyingMsg = cause.Error()
	}

	return &AppError{
		Code:        "E500",
		Message:     fmt.Sprintf("Channel publish failed: %s", underlyingMsg),
		UserMessage: "Не удалось опубликовать пост. Проверьте права бота в канале",
		Severity:    SeverityMedium,
		Retryable:   true,
		cause:       cause,
	}
}
