package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"

	"github.com/sbilibin2017/gw-home-inventory/internal/logger"
	"github.com/sbilibin2017/gw-home-inventory/internal/models"
	"github.com/sbilibin2017/gw-home-inventory/internal/repositories"
)

//go:generate mockgen -source=inventory.go -destination=mock_inventory.go -package=services

// ItemReader defines read-only operations for items.
type ItemReader interface {
	GetByID(ctx context.Context, ownerID, itemID uuid.UUID) (*models.ItemDB, error)
	List(ctx context.Context, ownerID uuid.UUID, category *string) ([]models.ItemDB, error)
	Report(ctx context.Context, ownerID uuid.UUID) ([]models.CategoryReport, error)
}

// ItemWriter defines write operations for items.
type ItemWriter interface {
	Save(ctx context.Context, item *models.ItemDB) error
	Update(ctx context.Context, ownerID, itemID uuid.UUID, upd models.ItemUpdate) (*models.ItemDB, error)
	Delete(ctx context.Context, ownerID, itemID uuid.UUID) error
	DeleteByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error)
}

// InventoryService handles owner-scoped item operations.
type InventoryService struct {
	reader ItemReader
	writer ItemWriter
	events EventPublisher
}

// NewInventoryService creates a new InventoryService instance.
func NewInventoryService(reader ItemReader, writer ItemWriter, events EventPublisher) *InventoryService {
	if events == nil {
		events = NewKafkaEventPublisher(nil)
	}
	return &InventoryService{
		reader: reader,
		writer: writer,
		events: events,
	}
}

// Create stores a new item for the owner.
func (s *InventoryService) Create(ctx context.Context, ownerID uuid.UUID, in models.ItemInput) (*models.ItemDB, error) {
	attrs, err := normalizeAttributes(in.Attributes)
	if err != nil {
		return nil, err
	}

	item := &models.ItemDB{
		ItemID:      uuid.New(),
		OwnerID:     ownerID,
		Name:        in.Name,
		Category:    in.Category,
		Quantity:    in.Quantity,
		Unit:        in.Unit,
		UnitPrice:   in.UnitPrice,
		Description: in.Description,
		Attributes:  attrs,
	}

	if err := s.writer.Save(ctx, item); err != nil {
		logger.Log.Errorw("failed to save item", "owner_id", ownerID, "err", err)
		return nil, err
	}

	s.events.Publish(ctx, models.EventItemCreated, ownerID, item.ItemID.String(), map[string]string{
		"name":     item.Name,
		"category": item.Category,
		"quantity": strconv.Itoa(item.Quantity),
	})

	return item, nil
}

// Get returns one of the owner's items.
func (s *InventoryService) Get(ctx context.Context, ownerID, itemID uuid.UUID) (*models.ItemDB, error) {
	item, err := s.reader.GetByID(ctx, ownerID, itemID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		logger.Log.Errorw("failed to get item", "item_id", itemID, "err", err)
		return nil, err
	}
	return item, nil
}

// List returns the owner's items, optionally restricted to one category.
func (s *InventoryService) List(ctx context.Context, ownerID uuid.UUID, category *string) ([]models.ItemDB, error) {
	items, err := s.reader.List(ctx, ownerID, category)
	if err != nil {
		logger.Log.Errorw("failed to list items", "owner_id", ownerID, "err", err)
		return nil, err
	}
	return items, nil
}

// Update applies a partial update to one of the owner's items.
func (s *InventoryService) Update(ctx context.Context, ownerID, itemID uuid.UUID, upd models.ItemUpdate) (*models.ItemDB, error) {
	if upd.IsEmpty() {
		return s.Get(ctx, ownerID, itemID)
	}

	if upd.Attributes != nil {
		attrs, err := normalizeAttributes(*upd.Attributes)
		if err != nil {
			return nil, err
		}
		upd.Attributes = &attrs
	}

	item, err := s.writer.Update(ctx, ownerID, itemID, upd)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		logger.Log.Errorw("failed to update item", "item_id", itemID, "err", err)
		return nil, err
	}

	s.events.Publish(ctx, models.EventItemUpdated, ownerID, itemID.String(), map[string]string{
		"quantity": strconv.Itoa(item.Quantity),
	})

	return item, nil
}

// Delete removes one of the owner's items.
func (s *InventoryService) Delete(ctx context.Context, ownerID, itemID uuid.UUID) error {
	if err := s.writer.Delete(ctx, ownerID, itemID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrItemNotFound
		}
		logger.Log.Errorw("failed to delete item", "item_id", itemID, "err", err)
		return err
	}

	s.events.Publish(ctx, models.EventItemDeleted, ownerID, itemID.String(), nil)

	return nil
}

// Report aggregates the owner's items per category.
func (s *InventoryService) Report(ctx context.Context, ownerID uuid.UUID) ([]models.CategoryReport, error) {
	report, err := s.reader.Report(ctx, ownerID)
	if err != nil {
		logger.Log.Errorw("failed to build report", "owner_id", ownerID, "err", err)
		return nil, err
	}
	return report, nil
}

// PurgeOwner removes every item belonging to ownerID.
func (s *InventoryService) PurgeOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	n, err := s.writer.DeleteByOwner(ctx, ownerID)
	if err != nil {
		logger.Log.Errorw("failed to purge owner items", "owner_id", ownerID, "err", err)
		return 0, err
	}
	logger.Log.Infow("owner items purged", "owner_id", ownerID, "count", n)
	return n, nil
}

// HandleUserEvent reacts to user lifecycle events. Deleted accounts lose their items.
func (s *InventoryService) HandleUserEvent(ctx context.Context, event models.Event) error {
	if event.Type != models.EventUserDeleted {
		return nil
	}

	ownerID, err := uuid.Parse(event.UserID)
	if err != nil {
		return fmt.Errorf("invalid user id in event %s: %w", event.EventID, err)
	}

	_, err = s.PurgeOwner(ctx, ownerID)
	return err
}

// normalizeAttributes defaults empty attributes to {} and rejects anything but a JSON object.
func normalizeAttributes(attrs types.JSONText) (types.JSONText, error) {
	if len(attrs) == 0 || string(attrs) == "null" {
		return types.JSONText(`{}`), nil
	}

	var obj map[string]any
	if err := json.Unmarshal(attrs, &obj); err != nil || obj == nil {
		return nil, ErrInvalidAttributes
	}
	return attrs, nil
}
