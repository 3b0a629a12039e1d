// Package rest provides HTTP handlers for the product and sale APIs.
package rest

import (
	"log/slog"
	"net/http"

	serrors "github.com/abgdnv/storemanager/internal/errors"
	"github.com/abgdnv/storemanager/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RegisterRoutes mounts both APIs under /api/v1 and the health probe.
func RegisterRoutes(r chi.Router, products *ProductHandler, sales *SaleHandler) {
	r.Route("/api/v1", func(r chi.Router) {
		products.RegisterRoutes(r)
		sales.RegisterRoutes(r)
	})
	r.Get("/healthz", HealthCheck)
}

// HealthCheck is a simple health check endpoint.
func HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// respondServiceError maps the error kind to a status. Unknown failures are logged
// and answered with a generic message that does not leak internals.
func respondServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, failure string) {
	de, ok := serrors.As(err)
	if !ok {
		logger.ErrorContext(r.Context(), failure, "error", err)
		web.RespondError(w, logger, http.StatusInternalServerError, failure)
		return
	}

	switch de.Kind {
	case serrors.KindNotFound:
		logger.WarnContext(r.Context(), de.Message, "product_id", de.ProductID)
		web.RespondError(w, logger, http.StatusNotFound, de.Message)
	case serrors.KindConflict:
		logger.WarnContext(r.Context(), de.Message)
		web.RespondError(w, logger, http.StatusConflict, de.Message)
	case serrors.KindInvalid:
		logger.WarnContext(r.Context(), de.Message, "product_id", de.ProductID)
		web.RespondError(w, logger, http.StatusUnprocessableEntity, de.Message)
	case serrors.KindInsufficientStock:
		logger.WarnContext(r.Context(), de.Message, "product_id", de.ProductID)
		web.RespondJSON(w, logger, http.StatusUnprocessableEntity, map[string]any{
			"error":     de.Message,
			"productId": de.ProductID,
		})
	default:
		logger.ErrorContext(r.Context(), failure, "error", err)
		web.RespondError(w, logger, http.StatusInternalServerError, failure)
	}
}

// loggerWithReqID creates a logger with the request ID from the context.
func loggerWithReqID(logger *slog.Logger, r *http.Request) *slog.Logger {
	return logger.With("request_id", middleware.GetReqID(r.Context()))
}
