package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/sweet_shop/internal/transport"
)

func TestOrderService(t *testing.T) {
	t.Parallel()

	pub := &recordingPublisher{}
	svc := &OrderService{Repo: newTestRepo(t), Events: pub}
	ctx := context.Background()

	tests := []struct {
		name string
		req  transport.OrderRequest
	}{
		{name: "blank customer", req: transport.OrderRequest{CustomerName: " ", TotalAmount: floatPtr(1)}},
		{name: "missing total", req: transport.OrderRequest{CustomerName: "Asha"}},
		{name: "negative total", req: transport.OrderRequest{CustomerName: "Asha", TotalAmount: floatPtr(-0.5)}},
	}
	for _, tt := range tests {
		_, err := svc.CreateOrder(ctx, tt.req)
		assert.ErrorIs(t, err, ErrValidation, tt.name)
	}

	order, err := svc.CreateOrder(ctx, transport.OrderRequest{CustomerName: "Asha", TotalAmount: floatPtr(0)})
	require.NoError(t, err)
	assert.False(t, order.CreatedAt.IsZero())

	got, err := svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "Asha", got.CustomerName)

	list, err := svc.ListOrders(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.DeleteOrder(ctx, order.ID))
	assert.ErrorIs(t, svc.DeleteOrder(ctx, order.ID), ErrNotFound)
	_, err = svc.GetOrder(ctx, order.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, []string{"order_created", "order_deleted"}, pub.types())
}
