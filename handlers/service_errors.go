package handlers

import (
	"net/http"

	"github.com/coccinelle-ai/channel-engine/services"
	"github.com/coccinelle-ai/channel-engine/utils"
	"go.uber.org/zap"
)

// HandleServiceError maps domain errors to HTTP responses
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	details := services.GetErrorDetails(err)

	switch {
	case services.IsNotFoundError(err):
		if err := utils.WriteNotFound(w, err.Error()); err != nil {
			logger.Error("failed to write not found response", zap.Error(err))
		}

	case services.IsValidationError(err):
		if err := utils.WriteBadRequest(w, err.Error(), details); err != nil {
			logger.Error("failed to write bad request response", zap.Error(err))
		}

	case services.IsConfigurationError(err):
		// Tenant has no usable channel credentials at all
		if err := utils.WriteUnprocessableEntity(w, "not_configured", err.Error(), details); err != nil {
			logger.Error("failed to write configuration error response", zap.Error(err))
		}

	case services.IsNoChannelError(err):
		// Configured channels exist but none can reach this recipient
		if err := utils.WriteUnprocessableEntity(w, "no_channel_available", err.Error(), details); err != nil {
			logger.Error("failed to write no channel response", zap.Error(err))
		}

	case services.IsProviderError(err):
		// Provider failures after exhausting fallback map to 502
		if err := utils.WriteBadGateway(w, err.Error(), details); err != nil {
			logger.Error("failed to write bad gateway response", zap.Error(err))
		}

	case services.IsCancelledError(err):
		if err := utils.WriteClientClosedRequest(w); err != nil {
			logger.Error("failed to write cancelled response", zap.Error(err))
		}

	default:
		// Unknown error type - log and return internal error
		logger.Error("unhandled error type",
			zap.Error(err),
			zap.String("error_type", string(services.GetErrorType(err))))
		if err := utils.WriteInternalServerError(w, "An unexpected error occurred"); err != nil {
			logger.Error("failed to write internal error response", zap.Error(err))
		}
	}
}

// HandleValidationError handles validation errors from request parsing
func HandleValidationError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if utils.IsValidationError(err) {
		fields := utils.GetValidationFields(err)
		details := make(map[string]interface{})
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
