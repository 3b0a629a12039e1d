package rest

import (
	"log/slog"
	"net/http"

	"github.com/abgdnv/storemanager/internal/service"
	"github.com/abgdnv/storemanager/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type SaleHandler struct {
	service  service.SaleService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewSaleHandler creates the sale API on top of svc.
func NewSaleHandler(svc service.SaleService, logger *slog.Logger) *SaleHandler {
	return &SaleHandler{
		service:  svc,
		validate: web.NewValidator(),
		logger:   logger.With("component", "rest", "resource", "sales"),
	}
}

// RegisterRoutes registers the sale routes on r.
func (h *SaleHandler) RegisterRoutes(r chi.Router) {
	r.Route("/sales", func(r chi.Router) {
		r.Get("/", h.FindAll)
		r.Post("/", h.Create)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.FindByID)
			r.Put("/", h.Update)
			r.Delete("/", h.Delete)
		})
	})
}

// FindByID retrieves a sale with its items.
func (h *SaleHandler) FindByID(w http.ResponseWriter, r *http.Request) {
	mLogger := loggerWithReqID(h.logger, r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	mLogger.DebugContext(r.Context(), "Received request to find sale by ID", "ID", id)
	found, err := h.service.FindByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, mLogger, err, "Failed to retrieve sale")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, found)
}

// FindAll retrieves all sales.
func (h *SaleHandler) FindAll(w http.ResponseWriter, r *http.Request) {
	mLogger := loggerWithReqID(h.logger, r)
	list, err := h.service.FindAll(r.Context())
	if err != nil {
		respondServiceError(w, r, mLogger, err, "Failed to fetch sales")
		return
	}
	mLogger.DebugContext(r.Context(), "Successfully retrieved sale list", "count", len(list))
	web.RespondJSON(w, mLogger, http.StatusOK, list)
}

// Create registers a sale of the products in the body.
func (h *SaleHandler) Create(w http.ResponseWriter, r *http.Request) {
	mLogger := loggerWithReqID(h.logger, r)
	items, ok := h.decodeItems(w, r, mLogger)
	if !ok {
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to create sale", "items", len(items))
	created, err := h.service.CreateSale(r.Context(), items)
	if err != nil {
		respondServiceError(w, r, mLogger, err, "Failed to create sale")
		return
	}
	mLogger.InfoContext(r.Context(), "Sale created successfully", "ID", created.ID)
	web.RespondJSON(w, mLogger, http.StatusCreated, created)
}

// Update overwrites the quantities of items already in the sale.
func (h *SaleHandler) Update(w http.ResponseWriter, r *http.Request) {
	mLogger := loggerWithReqID(h.logger, r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	items, ok := h.decodeItems(w, r, mLogger)
	if !ok {
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to update sale", "ID", id, "items", len(items))
	updated, err := h.service.UpdateSale(r.Context(), id, items)
	if err != nil {
		respondServiceError(w, r, mLogger, err, "Failed to update sale")
		return
	}
	mLogger.InfoContext(r.Context(), "Sale updated successfully", "ID", id)
	web.RespondJSON(w, mLogger, http.StatusOK, updated)
}

// Delete removes a sale and returns its items to stock.
func (h *SaleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	mLogger := loggerWithReqID(h.logger, r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	mLogger.DebugContext(r.Context(), "Received request to delete sale", "ID", id)
	if err := h.service.DeleteSale(r.Context(), id); err != nil {
		respondServiceError(w, r, mLogger, err, "Failed to delete sale")
		return
	}
	mLogger.InfoContext(r.Context(), "Sale deleted successfully", "ID", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *SaleHandler) decodeItems(w http.ResponseWriter, r *http.Request, logger *slog.Logger) ([]service.SaleItemDto, bool) {
	var req saleItemsRequest
	if !web.DecodeJSON(w, r, logger, &req.Items) {
		return nil, false
	}
	if err := h.validate.Struct(req); err != nil {
		web.RespondValidationError(w, logger, err)
		return nil, false
	}
	items := make([]service.SaleItemDto, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, service.SaleItemDto{ProductID: it.ProductID, Quantity: *it.Quantity})
	}
	return items, true
}
