package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/Skotchmaster/sweet_shop/internal/models"
	"github.com/Skotchmaster/sweet_shop/internal/repo"
	"github.com/Skotchmaster/sweet_shop/internal/transport"
)

type InventoryService struct {
	Repo *repo.GormRepo
}

func (s *InventoryService) ListItems(ctx context.Context) ([]models.InventoryItem, error) {
	return s.Repo.ListInventory(ctx)
}

func (s *InventoryService) GetItem(ctx context.Context, id uint) (*models.InventoryItem, error) {
	item, err := s.Repo.GetInventoryItem(ctx, id)
	if err != nil {
		return nil, notFound(err, "Inventory item", id)
	}
	return item, nil
}

func (s *InventoryService) CreateItem(ctx context.Context, req transport.InventoryRequest) (*models.InventoryItem, error) {
	item, err := validateInventory(req)
	if err != nil {
		return nil, err
	}
	return s.Repo.CreateInventoryItem(ctx, item)
}

func (s *InventoryService) UpdateItem(ctx context.Context, id uint, req transport.InventoryRequest) (*models.InventoryItem, error) {
	upd, err := validateInventory(req)
	if err != nil {
		return nil, err
	}
	item, err := s.Repo.UpdateInventoryItem(ctx, id, *upd)
	if err != nil {
		return nil, notFound(err, "Inventory item", id)
	}
	return item, nil
}

func (s *InventoryService) DeleteItem(ctx context.Context, id uint) error {
	if err := s.Repo.DeleteInventoryItem(ctx, id); err != nil {
		return notFound(err, "Inventory item", id)
	}
	return nil
}

func validateInventory(req transport.InventoryRequest) (*models.InventoryItem, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: Name is required", ErrValidation)
	}
	if req.Price == nil || math.IsNaN(*req.Price) || *req.Price < 0 {
		return nil, fmt.Errorf("%w: Price must be a non-negative number", ErrValidation)
	}
	qty := 0
	if req.Quantity != nil {
		qty = *req.Quantity
	}
	if qty < 0 {
		return nil, fmt.Errorf("%w: Quantity cannot be negative", ErrValidation)
	}
	return &models.InventoryItem{
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Price:       *req.Price,
		Quantity:    qty,
	}, nil
}
