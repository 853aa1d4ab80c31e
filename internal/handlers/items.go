package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"

	"github.com/sbilibin2017/gw-home-inventory/internal/models"
	"github.com/sbilibin2017/gw-home-inventory/internal/services"
)

//go:generate mockgen -source=items.go -destination=mock_items.go -package=handlers

// ItemManager defines the interface that the inventory service must implement.
type ItemManager interface {
	Create(ctx context.Context, ownerID uuid.UUID, in models.ItemInput) (*models.ItemDB, error)
	Get(ctx context.Context, ownerID, itemID uuid.UUID) (*models.ItemDB, error)
	List(ctx context.Context, ownerID uuid.UUID, category *string) ([]models.ItemDB, error)
	Update(ctx context.Context, ownerID, itemID uuid.UUID, upd models.ItemUpdate) (*models.ItemDB, error)
	Delete(ctx context.Context, ownerID, itemID uuid.UUID) error
	Report(ctx context.Context, ownerID uuid.UUID) ([]models.CategoryReport, error)
}

// ItemResponse is the public view of an inventory item
// swagger:model ItemResponse
type ItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Quantity    int             `json:"quantity"`
	Unit        string          `json:"unit"`
	UnitPrice   float64         `json:"unitPrice"`
	Description string          `json:"description"`
	Attributes  json.RawMessage `json:"attributes" swaggertype:"object"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func newItemResponse(item *models.ItemDB) ItemResponse {
	attrs := json.RawMessage(item.Attributes)
	if len(attrs) == 0 {
		attrs = json.RawMessage(`{}`)
	}
	return ItemResponse{
		ID:          item.ItemID,
		Name:        item.Name,
		Category:    item.Category,
		Quantity:    item.Quantity,
		Unit:        item.Unit,
		UnitPrice:   item.UnitPrice,
		Description: item.Description,
		Attributes:  attrs,
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}
}

// ItemListResponse wraps a list of items
// swagger:model ItemListResponse
type ItemListResponse struct {
	Items []ItemResponse `json:"items"`
}

// ReportResponse aggregates items per category
// swagger:model ReportResponse
type ReportResponse struct {
	Categories []models.CategoryReport `json:"categories"`
	TotalItems int                     `json:"totalItems"`
	TotalValue float64                 `json:"totalValue"`
}

// CreateItemRequest represents the JSON body for creating an item
// swagger:model CreateItemRequest
type CreateItemRequest struct {
	// required: true
	// default: Rice
	Name string `json:"name" validate:"required,min=1,max=100"`

	// required: true
	// default: Kitchen
	Category string `json:"category" validate:"required,min=1,max=50"`

	// default: 1
	Quantity int `json:"quantity" validate:"gte=0"`

	// default: kg
	Unit string `json:"unit" validate:"max=20"`

	// default: 2.5
	UnitPrice float64 `json:"unitPrice" validate:"gte=0"`

	Description string `json:"description" validate:"max=500"`

	// Free-form JSON object
	Attributes json.RawMessage `json:"attributes" swaggertype:"object"`
}

// UpdateItemRequest is a partial item change
// swagger:model UpdateItemRequest
type UpdateItemRequest struct {
	Name        *string          `json:"name" validate:"omitnil,min=1,max=100"`
	Category    *string          `json:"category" validate:"omitnil,min=1,max=50"`
	Quantity    *int             `json:"quantity" validate:"omitnil,gte=0"`
	Unit        *string          `json:"unit" validate:"omitnil,max=20"`
	UnitPrice   *float64         `json:"unitPrice" validate:"omitnil,gte=0"`
	Description *string          `json:"description" validate:"omitnil,max=500"`
	Attributes  *json.RawMessage `json:"attributes" swaggertype:"object"`
}

// NewListItemsHandler returns an HTTP handler listing the caller's items.
// @Summary List items
// @Description Returns the authenticated user's items ordered by name
// @Tags items
// @Produce json
// @Param category query string false "Only items of this category"
// @Success 200 {object} handlers.ItemListResponse
// @Failure 401 {object} handlers.ErrorResponse "Invalid or expired token"
// @Failure 403 {object} handlers.ErrorResponse "Missing token"
// @Failure 500 {object} handlers.ErrorResponse "Internal server error"
// @Router /api/items [get]
// @Security BearerAuth
func NewListItemsHandler(svc ItemManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := sessionUserID(w, r)
		if !ok {
			return
		}

		var category *string
		if c := r.URL.Query().Get("category"); c != "" {
			category = &c
		}

		items, err := svc.List(r.Context(), ownerID, category)
		if err != nil {
			writeItemError(w, err)
			return
		}

		resp := ItemListResponse{Items: make([]ItemResponse, 0, len(items))}
		for i := range items {
			resp.Items = append(resp.Items, newItemResponse(&items[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// NewGetItemHandler returns an HTTP handler reading one of the caller's items.
// @Summary Get item
// @Tags items
// @Produce json
// @Param id path string true "Item ID"
// @Success 200 {object} handlers.ItemResponse
// @Failure 400 {object} handlers.ErrorResponse "Invalid item id"
// @Failure 401 {object} handlers.ErrorResponse "Invalid or expired token"
// @Failure 403 {object} handlers.ErrorResponse "Missing token"
// @Failure 404 {object} handlers.ErrorResponse "Item not found"
// @Failure 500 {object} handlers.ErrorResponse "Internal server error"
// @Router /api/items/{id} [get]
// @Security BearerAuth
func NewGetItemHandler(svc ItemManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, itemID, ok := itemRequestIDs(w, r)
		if !ok {
			return
		}

		item, err := svc.Get(r.Context(), ownerID, itemID)
		if err != nil {
			writeItemError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, newItemResponse(item))
	}
}

// NewCreateItemHandler returns an HTTP handler adding an item for the caller.
// @Summary Create item
// @Tags items
// @Accept json
// @Produce json
// @Param createItemRequest body handlers.CreateItemRequest true "New item"
// @Success 201 {object} handlers.ItemResponse
// @Failure 400 {object} handlers.ErrorResponse "Invalid request"
// @Failure 401 {object} handlers.ErrorResponse "Invalid or expired token"
// @Failure 403 {object} handlers.ErrorResponse "Missing token"
// @Failure 500 {object} handlers.ErrorResponse "Internal server error"
// @Router /api/items [post]
// @Security BearerAuth
func NewCreateItemHandler(svc ItemManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := sessionUserID(w, r)
		if !ok {
			return
		}

		var req CreateItemRequest
		if err := decodeJSON(r, &req); err != nil {
			writeDecodeError(w, err)
			return
		}

		item, err := svc.Create(r.Context(), ownerID, models.ItemInput{
			Name:        req.Name,
			Category:    req.Category,
			Quantity:    req.Quantity,
			Unit:        req.Unit,
			UnitPrice:   req.UnitPrice,
			Description: req.Description,
			Attributes:  types.JSONText(req.Attributes),
		})
		if err != nil {
			writeItemError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, newItemResponse(item))
	}
}

// NewUpdateItemHandler returns an HTTP handler partially updating one of the caller's items.
// @Summary Update item
// @Tags items
// @Accept json
// @Produce json
// @Param id path string true "Item ID"
// @Param updateItemRequest body handlers.UpdateItemRequest true "Item changes"
// @Success 200 {object} handlers.ItemResponse
// @Failure 400 {object} handlers.ErrorResponse "Invalid request"
// @Failure 401 {object} handlers.ErrorResponse "Invalid or expired token"
// @Failure 403 {object} handlers.ErrorResponse "Missing token"
// @Failure 404 {object} handlers.ErrorResponse "Item not found"
// @Failure 500 {object} handlers.ErrorResponse "Internal server error"
// @Router /api/items/{id} [put]
// @Security BearerAuth
func NewUpdateItemHandler(svc ItemManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, itemID, ok := itemRequestIDs(w, r)
		if !ok {
			return
		}

		var req UpdateItemRequest
		if err := decodeJSON(r, &req); err != nil {
			writeDecodeError(w, err)
			return
		}

		upd := models.ItemUpdate{
			Name:        req.Name,
			Category:    req.Category,
			Quantity:    req.Quantity,
			Unit:        req.Unit,
			UnitPrice:   req.UnitPrice,
			Description: req.Description,
		}
		if req.Attributes != nil {
			attrs := types.JSONText(*req.Attributes)
			upd.Attributes = &attrs
		}

		item, err := svc.Update(r.Context(), ownerID, itemID, upd)
		if err != nil {
			writeItemError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, newItemResponse(item))
	}
}

// NewDeleteItemHandler returns an HTTP handler removing one of the caller's items.
// @Summary Delete item
// @Tags items
// @Produce json
// @Param id path string true "Item ID"
// @Success 200 {object} handlers.MessageResponse
// @Failure 400 {object} handlers.ErrorResponse "Invalid item id"
// @Failure 401 {object} handlers.ErrorResponse "Invalid or expired token"
// @Failure 403 {object} handlers.ErrorResponse "Missing token"
// @Failure 404 {object} handlers.ErrorResponse "Item not found"
// @Failure 500 {object} handlers.ErrorResponse "Internal server error"
// @Router /api/items/{id} [delete]
// @Security BearerAuth
func NewDeleteItemHandler(svc ItemManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, itemID, ok := itemRequestIDs(w, r)
		if !ok {
			return
		}

		if err := svc.Delete(r.Context(), ownerID, itemID); err != nil {
			writeItemError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, MessageResponse{Message: "Item deleted successfully"})
	}
}

// NewItemReportHandler returns an HTTP handler summarising the caller's items per category.
// @Summary Inventory report
// @Description Per-category item counts, total quantity and total value
// @Tags items
// @Produce json
// @Success 200 {object} handlers.ReportResponse
// @Failure 401 {object} handlers.ErrorResponse "Invalid or expired token"
// @Failure 403 {object} handlers.ErrorResponse "Missing token"
// @Failure 500 {object} handlers.ErrorResponse "Internal server error"
// @Router /api/items/report [get]
// @Security BearerAuth
func NewItemReportHandler(svc ItemManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := sessionUserID(w, r)
		if !ok {
			return
		}

		report, err := svc.Report(r.Context(), ownerID)
		if err != nil {
			writeItemError(w, err)
			return
		}

		resp := ReportResponse{Categories: report}
		if resp.Categories == nil {
			resp.Categories = []models.CategoryReport{}
		}
		for _, c := range report {
			resp.TotalItems += c.Items
			resp.TotalValue += c.TotalValue
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func itemRequestIDs(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	ownerID, ok := sessionUserID(w, r)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}

	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid item id")
		return uuid.Nil, uuid.Nil, false
	}

	return ownerID, itemID, true
}

func writeItemError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrItemNotFound):
		writeError(w, http.StatusNotFound, "Item not found")
	case errors.Is(err, services.ErrInvalidAttributes):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeInternalError(w, err)
	}
}
