package clients

import (
	"context"
	"fmt"
	"net/http"
)

// CreateOrder posts a checkout. With IsDraft the server opens a draft order
// that later items are added to.
func (c *RaffleClient) CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderResult, error) {
	var result OrderResult
	if err := c.do(ctx, http.MethodPost, "/order/checkout", nil, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *RaffleClient) AddItem(ctx context.Context, orderID int64, item OrderItem) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/order/%d/add-item", orderID), nil, item, nil)
}

func (c *RaffleClient) ConfirmOrder(ctx context.Context, orderID int64) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/order/confirm/%d", orderID), nil, nil, nil)
}

func (c *RaffleClient) UserOrders(ctx context.Context, userID int64) ([]Order, error) {
	var orders []Order
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/order/user/%d", userID), nil, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *RaffleClient) AllOrders(ctx context.Context) ([]Order, error) {
	var orders []Order
	if err := c.do(ctx, http.MethodGet, "/order/all", nil, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}
