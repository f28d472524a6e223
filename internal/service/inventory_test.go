package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/sweet_shop/internal/transport"
)

func TestInventoryService(t *testing.T) {
	t.Parallel()

	svc := &InventoryService{Repo: newTestRepo(t)}
	ctx := context.Background()

	_, err := svc.CreateItem(ctx, transport.InventoryRequest{Price: floatPtr(1)})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.CreateItem(ctx, transport.InventoryRequest{Name: "Sugar"})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.CreateItem(ctx, transport.InventoryRequest{Name: "Sugar", Price: floatPtr(1), Quantity: intPtr(-1)})
	assert.ErrorIs(t, err, ErrValidation)

	item, err := svc.CreateItem(ctx, transport.InventoryRequest{Name: "Sugar", Description: "50kg sack", Price: floatPtr(2200)})
	require.NoError(t, err)
	assert.Equal(t, 0, item.Quantity)

	upd, err := svc.UpdateItem(ctx, item.ID, transport.InventoryRequest{Name: "Sugar", Price: floatPtr(2100), Quantity: intPtr(8)})
	require.NoError(t, err)
	assert.Equal(t, 8, upd.Quantity)
	assert.Equal(t, 2100.0, upd.Price)

	_, err = svc.UpdateItem(ctx, 99, transport.InventoryRequest{Name: "Ghee", Price: floatPtr(1)})
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := svc.ListItems(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.DeleteItem(ctx, item.ID))
	_, err = svc.GetItem(ctx, item.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
