package services

import (
	"context"
	"net/http"
	"sort"

	"raffle-bff/apperrors"
	"raffle-bff/clients"
	"raffle-bff/reconcile"
)

// OrderHistoryAPI lists a user's orders.
type OrderHistoryAPI interface {
	UserOrders(ctx context.Context, userID int64) ([]clients.Order, error)
}

const (
	OrderStatusDraft     = "draft"
	OrderStatusConfirmed = "confirmed"
)

type OrderView struct {
	clients.Order
	Status string `json:"status"`
}

// OrderService defines the interface for the signed-in user's orders.
type OrderService interface {
	Mine(ctx context.Context, owner reconcile.Owner) ([]OrderView, error)
}

type orderServiceImpl struct {
	api OrderHistoryAPI
}

func NewOrderService(api OrderHistoryAPI) OrderService {
	return &orderServiceImpl{api: api}
}

// Mine returns the user's orders, newest first.
func (s *orderServiceImpl) Mine(ctx context.Context, owner reconcile.Owner) ([]OrderView, error) {
	if owner.Identity.IsZero() {
		return nil, apperrors.ErrAuthRequired
	}
	if owner.Identity.UserID == 0 {
		return nil, apperrors.New(http.StatusBadRequest, "Order history needs a numeric user id", nil)
	}

	orders, err := s.api.UserOrders(ctx, owner.Identity.UserID)
	if err != nil {
		return nil, err
	}
	views := viewOrders(orders)
	sort.SliceStable(views, func(i, j int) bool { return views[i].ID > views[j].ID })
	return views, nil
}

func viewOrders(orders []clients.Order) []OrderView {
	views := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		status := OrderStatusConfirmed
		if o.IsDraft {
			status = OrderStatusDraft
		}
		views = append(views, OrderView{Order: o, Status: status})
	}
	return views
}
