package middleware

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hisabapp/hisab/internal/errs"
	"github.com/hisabapp/hisab/internal/logger"
	"github.com/hisabapp/hisab/internal/validation"
)

type BadRequestErrorResponse struct {
	Message string            `json:"message"`
	Details []errs.FieldError `json:"details"`
}

// BatchErrorResponse reports rejected batch intents keyed by their index.
type BatchErrorResponse struct {
	Message           string                       `json:"message"`
	TransactionErrors map[string][]errs.FieldError `json:"transactionErrors"`
}

func ValidateRequest(obj any) []errs.FieldError {
	return validation.Struct(obj)
}

func RespondWithValidationError(c *gin.Context, validationErrors []errs.FieldError) {
	c.JSON(http.StatusBadRequest, BadRequestErrorResponse{
		Message: "Invalid request data",
		Details: validationErrors,
	})
}

func RespondWithBatchError(c *gin.Context, be *errs.BatchError) {
	out := make(map[string][]errs.FieldError, len(be.Intents))
	for i, fe := range be.Intents {
		out[strconv.Itoa(i)] = fe
	}
	c.JSON(http.StatusBadRequest, BatchErrorResponse{
		Message:           "Please correct the transaction errors",
		TransactionErrors: out,
	})
}

func RespondWithError(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{
		"message": message,
	})
}

// RespondWithDomainError maps the errs kinds onto status codes. notFound is
// the message used for errs.ErrNotFound; fallback for anything unexpected.
func RespondWithDomainError(c *gin.Context, err error, notFound, fallback string) {
	var (
		ve *errs.ValidationError
		be *errs.BatchError
		ie *errs.IntegrityError
	)
	switch {
	case errors.As(err, &ve):
		RespondWithValidationError(c, ve.Details)
	case errors.As(err, &be):
		RespondWithBatchError(c, be)
	case errors.As(err, &ie):
		c.JSON(http.StatusConflict, BadRequestErrorResponse{
			Message: ie.Message,
			Details: []errs.FieldError{{Field: ie.Field, Message: ie.Message, Type: "unique"}},
		})
	case errors.Is(err, errs.ErrNotFound):
		RespondWithError(c, http.StatusNotFound, notFound)
	default:
		logger.FromContext(c.Request.Context()).Error().Err(err).Str("path", c.FullPath()).Msg(fallback)
		RespondWithError(c, http.StatusInternalServerError, fallback)
	}
}
