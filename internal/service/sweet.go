package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Skotchmaster/sweet_shop/internal/models"
	"github.com/Skotchmaster/sweet_shop/internal/repo"
	"github.com/Skotchmaster/sweet_shop/internal/search"
	"github.com/Skotchmaster/sweet_shop/internal/transport"
	"github.com/Skotchmaster/sweet_shop/pkg/cache"
	"github.com/Skotchmaster/sweet_shop/pkg/events"
	"github.com/Skotchmaster/sweet_shop/pkg/logging"
)

// idemPending marks a purchase idempotency key whose request has not finished.
const idemPending = "pending"

type SweetService struct {
	Repo   *repo.GormRepo
	Cache  cache.Store
	Events events.Publisher
	Search search.Searcher
}

func (s *SweetService) ListSweets(ctx context.Context) ([]models.SweetItem, error) {
	l := logging.FromContext(ctx).With("svc", "sweets.list")

	if raw, ok, err := s.cache().Get(ctx, cache.KeySweetsList); err != nil {
		l.Warn("cache_get_error", "key", cache.KeySweetsList, "error", err)
	} else if ok {
		var items []models.SweetItem
		if err := json.Unmarshal(raw, &items); err == nil {
			return items, nil
		}
	}

	items, err := s.Repo.ListSweets(ctx)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(items); err == nil {
		if err := s.cache().Set(ctx, cache.KeySweetsList, raw, cache.TTLSweetsList); err != nil {
			l.Warn("cache_set_error", "key", cache.KeySweetsList, "error", err)
		}
	}
	return items, nil
}

func (s *SweetService) GetSweet(ctx context.Context, id uint) (*models.SweetItem, error) {
	item, err := s.Repo.GetSweet(ctx, id)
	if err != nil {
		return nil, notFound(err, "Sweet", id)
	}
	return item, nil
}

func (s *SweetService) CreateSweet(ctx context.Context, req transport.SweetRequest) (*models.SweetItem, error) {
	name, desc, price, err := validateSweet(req)
	if err != nil {
		return nil, err
	}

	item, err := s.Repo.CreateSweet(ctx, &models.SweetItem{Name: name, Description: desc, Price: price})
	if err != nil {
		return nil, err
	}

	s.afterWrite(ctx, "sweet_created", item)
	return item, nil
}

func (s *SweetService) UpdateSweet(ctx context.Context, id uint, req transport.SweetRequest) (*models.SweetItem, error) {
	name, desc, price, err := validateSweet(req)
	if err != nil {
		return nil, err
	}

	item, err := s.Repo.UpdateSweet(ctx, id, name, desc, price)
	if err != nil {
		return nil, notFound(err, "Sweet", id)
	}

	s.afterWrite(ctx, "sweet_updated", item)
	return item, nil
}

func (s *SweetService) DeleteSweet(ctx context.Context, id uint) error {
	if err := s.Repo.DeleteSweet(ctx, id); err != nil {
		return notFound(err, "Sweet", id)
	}

	s.invalidateList(ctx)
	if s.Search != nil {
		if err := s.Search.Remove(ctx, id); err != nil {
			logging.FromContext(ctx).Warn("search_remove_error", "sweet_id", id, "error", err)
		}
	}
	publish(ctx, s.Events, events.TopicSweets, sweetKey(id), "sweet_deleted", map[string]any{"sweetId": id})
	return nil
}

// Restock records the intent only: stock levels are not tracked for sweets on the server.
func (s *SweetService) Restock(ctx context.Context, id uint, quantity int) (*models.SweetItem, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: Quantity must be greater than 0", ErrValidation)
	}
	item, err := s.GetSweet(ctx, id)
	if err != nil {
		return nil, err
	}

	publish(ctx, s.Events, events.TopicSweets, sweetKey(id), "sweet_restocked", map[string]any{
		"sweetId":  id,
		"quantity": quantity,
	})
	return item, nil
}

// Purchase records an order for the buyer. A repeated idempotency key returns the first result
// with replayed=true instead of creating a second order.
func (s *SweetService) Purchase(ctx context.Context, userID, id uint, quantity int, idemKey string) (*transport.PurchaseResponse, bool, error) {
	l := logging.FromContext(ctx).With("svc", "sweets.purchase", "sweet_id", id)

	if quantity <= 0 {
		return nil, false, fmt.Errorf("%w: Quantity must be greater than 0", ErrValidation)
	}

	key, prev, err := s.reservePurchase(ctx, userID, idemKey)
	if err != nil {
		return nil, false, err
	}
	if prev != nil {
		return prev, true, nil
	}

	resp, order, err := s.purchase(ctx, userID, id, quantity)
	if err != nil {
		// release the key so the client can retry with it
		if key != "" {
			if err := s.cache().Del(ctx, key); err != nil {
				l.Warn("cache_del_error", "key", key, "error", err)
			}
		}
		return nil, false, err
	}

	if key != "" {
		if raw, err := json.Marshal(resp); err == nil {
			if err := s.cache().Set(ctx, key, raw, cache.TTLIdempotency); err != nil {
				l.Warn("cache_set_error", "key", key, "error", err)
			}
		}
	}

	publish(ctx, s.Events, events.TopicSweets, sweetKey(id), "sweet_purchased", map[string]any{
		"sweetId":     resp.SweetID,
		"userId":      userID,
		"quantity":    quantity,
		"totalAmount": resp.TotalAmount,
	})
	publish(ctx, s.Events, events.TopicOrders, strconv.FormatUint(uint64(order.ID), 10), "order_created", order)
	return resp, false, nil
}

// reservePurchase claims the idempotency key with a pending marker before any order is written.
// It returns the stored response once the key has completed and ErrConflict while another
// request still holds it. An unreachable cache turns idempotency off for the request.
func (s *SweetService) reservePurchase(ctx context.Context, userID uint, idemKey string) (string, *transport.PurchaseResponse, error) {
	idemKey = strings.TrimSpace(idemKey)
	if idemKey == "" {
		return "", nil, nil
	}
	l := logging.FromContext(ctx).With("svc", "sweets.purchase")
	key := cache.IdemPurchaseKey(strconv.FormatUint(uint64(userID), 10), idemKey)

	won, err := s.cache().SetNX(ctx, key, []byte(idemPending), cache.TTLIdempotency)
	if err != nil {
		l.Warn("cache_setnx_error", "key", key, "error", err)
		return "", nil, nil
	}
	if won {
		return key, nil, nil
	}

	raw, ok, err := s.cache().Get(ctx, key)
	if err != nil {
		l.Warn("cache_get_error", "key", key, "error", err)
		return "", nil, nil
	}
	if ok && string(raw) != idemPending {
		var prev transport.PurchaseResponse
		if err := json.Unmarshal(raw, &prev); err == nil {
			return "", &prev, nil
		}
		l.Warn("cache_decode_error", "key", key, "error", err)
	}
	return "", nil, fmt.Errorf("%w: A purchase with this idempotency key is already in progress", ErrConflict)
}

func (s *SweetService) purchase(ctx context.Context, userID, id uint, quantity int) (*transport.PurchaseResponse, *models.Order, error) {
	item, err := s.GetSweet(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	user, err := s.Repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, nil, notFound(err, "User", userID)
	}

	total := roundMoney(item.Price * float64(quantity))
	order, err := s.Repo.CreateOrder(ctx, &models.Order{
		CustomerName: user.Name,
		TotalAmount:  total,
		UserID:       &user.ID,
	})
	if err != nil {
		return nil, nil, err
	}

	return &transport.PurchaseResponse{
		SweetID:     item.ID,
		SweetName:   item.Name,
		TotalAmount: total,
		Quantity:    quantity,
	}, order, nil
}

// SearchSweets asks the search index first and falls back to the database when it is absent or failing.
func (s *SweetService) SearchSweets(ctx context.Context, q string) ([]models.SweetItem, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return s.ListSweets(ctx)
	}
	if s.Search != nil {
		items, err := s.Search.Search(ctx, q)
		if err == nil {
			return items, nil
		}
		logging.FromContext(ctx).Warn("search_error", "reason", "falling back to database", "error", err)
	}
	return s.Repo.SearchSweets(ctx, q)
}

func (s *SweetService) afterWrite(ctx context.Context, eventType string, item *models.SweetItem) {
	s.invalidateList(ctx)
	if s.Search != nil {
		if err := s.Search.Index(ctx, *item); err != nil {
			logging.FromContext(ctx).Warn("search_index_error", "sweet_id", item.ID, "error", err)
		}
	}
	publish(ctx, s.Events, events.TopicSweets, sweetKey(item.ID), eventType, item)
}

func (s *SweetService) invalidateList(ctx context.Context) {
	if err := s.cache().Del(ctx, cache.KeySweetsList); err != nil {
		logging.FromContext(ctx).Warn("cache_del_error", "key", cache.KeySweetsList, "error", err)
	}
}

func (s *SweetService) cache() cache.Store {
	if s.Cache == nil {
		return cache.Noop{}
	}
	return s.Cache
}

func validateSweet(req transport.SweetRequest) (string, *string, float64, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return "", nil, 0, fmt.Errorf("%w: Name is required", ErrValidation)
	}
	if req.Price == nil {
		return "", nil, 0, fmt.Errorf("%w: Price is required", ErrValidation)
	}
	if math.IsNaN(*req.Price) || math.IsInf(*req.Price, 0) || *req.Price < 0 {
		return "", nil, 0, fmt.Errorf("%w: Price must be a non-negative number", ErrValidation)
	}

	var desc *string
	if req.Description != nil {
		if d := strings.TrimSpace(*req.Description); d != "" {
			desc = &d
		}
	}
	return name, desc, *req.Price, nil
}

func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

func sweetKey(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
