package service

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Skotchmaster/sweet_shop/internal/models"
	"github.com/Skotchmaster/sweet_shop/internal/repo"
	"github.com/Skotchmaster/sweet_shop/internal/transport"
	"github.com/Skotchmaster/sweet_shop/pkg/events"
)

type OrderService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
}

func (s *OrderService) ListOrders(ctx context.Context) ([]models.Order, error) {
	return s.Repo.ListOrders(ctx)
}

func (s *OrderService) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	order, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		return nil, notFound(err, "Order", id)
	}
	return order, nil
}

func (s *OrderService) CreateOrder(ctx context.Context, req transport.OrderRequest) (*models.Order, error) {
	name := strings.TrimSpace(req.CustomerName)
	if name == "" {
		return nil, fmt.Errorf("%w: Customer name is required", ErrValidation)
	}
	if req.TotalAmount == nil {
		return nil, fmt.Errorf("%w: Total amount is required", ErrValidation)
	}
	if math.IsNaN(*req.TotalAmount) || *req.TotalAmount < 0 {
		return nil, fmt.Errorf("%w: Total amount must be >= 0", ErrValidation)
	}

	order, err := s.Repo.CreateOrder(ctx, &models.Order{
		CustomerName: name,
		TotalAmount:  roundMoney(*req.TotalAmount),
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.Events, events.TopicOrders, strconv.FormatUint(uint64(order.ID), 10), "order_created", order)
	return order, nil
}

func (s *OrderService) DeleteOrder(ctx context.Context, id uint) error {
	if err := s.Repo.DeleteOrder(ctx, id); err != nil {
		return notFound(err, "Order", id)
	}
	publish(ctx, s.Events, events.TopicOrders, strconv.FormatUint(uint64(id), 10), "order_deleted", map[string]any{"orderId": id})
	return nil
}
