package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/upb/llm-dispatch/services"
	"github.com/upb/llm-dispatch/services/providers"
	"github.com/upb/llm-dispatch/utils"
	"go.uber.org/zap"
)

// HandleServiceError maps dispatcher and provider errors to HTTP responses
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	details := services.GetErrorDetails(err)

	var provErr *providers.ProviderError
	var writeErr error

	switch {
	case services.IsUnsupportedProviderError(err):
		writeErr = utils.WriteBadRequest(w, err.Error(), details)

	case services.IsValidationError(err):
		writeErr = utils.WriteBadRequest(w, err.Error(), details)

	case services.IsNotConfiguredError(err):
		writeErr = utils.WriteError(w, http.StatusServiceUnavailable, err.Error(), details)

	case services.IsNotFoundError(err):
		writeErr = utils.WriteNotFound(w, err.Error())

	case services.IsUnauthorizedError(err):
		writeErr = utils.WriteUnauthorized(w, err.Error())

	case errors.Is(err, context.DeadlineExceeded):
		// Adapters wrap transport errors, so check the deadline first
		var timeoutDetails map[string]interface{}
		if errors.As(err, &provErr) {
			timeoutDetails = map[string]interface{}{"provider": provErr.Provider}
		}
		writeErr = utils.WriteError(w, http.StatusGatewayTimeout, "provider request timed out", timeoutDetails)

	case errors.As(err, &provErr):
		// Upstream failures after all attempts are exhausted
		writeErr = utils.WriteError(w, http.StatusBadGateway, provErr.Error(), map[string]interface{}{
			"provider":    provErr.Provider,
			"code":        provErr.Code,
			"status_code": provErr.StatusCode,
		})

	case services.IsExternalError(err):
		writeErr = utils.WriteError(w, http.StatusBadGateway, err.Error(), details)

	case services.IsInternalError(err):
		// Log internal errors but return generic message
		logger.Error("internal server error", zap.Error(err))
		writeErr = utils.WriteInternalServerError(w, "An internal error occurred")

	default:
		logger.Error("unhandled error type",
			zap.Error(err),
			zap.String("error_type", string(services.GetErrorType(err))))
		writeErr = utils.WriteInternalServerError(w, "An unexpected error occurred")
	}

	if writeErr != nil {
		logger.Error("failed to write error response", zap.Error(writeErr))
	}
}

// HandleValidationError handles validation errors from request parsing
func HandleValidationError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if utils.IsValidationError(err) {
		fields := utils.GetValidationFields(err)
		details := make(map[string]interface{}, len(fields))
		for k, v := range fields {
			details[k] = v
		}
		if err := utils.WriteBadRequest(w, "Validation failed", details); err != nil {
			logger.Error("failed to write validation error response", zap.Error(err))
		}
		return
	}

	if err := utils.WriteBadRequest(w, err.Error(), nil); err != nil {
		logger.Error("failed to write validation error response", zap.Error(err))
	}
}
