package services

import (
	"context"
	"errors"

	"raffle-bff/cart"
	"raffle-bff/clients"
	"raffle-bff/reconcile"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const enrichConcurrency = 4

// CartLineView is a cart line with the gift as the catalog currently has it.
type CartLineView struct {
	GiftID   int64           `json:"giftId"`
	Quantity int             `json:"quantity"`
	Name     string          `json:"name,omitempty"`
	Category string          `json:"category,omitempty"`
	Price    decimal.Decimal `json:"ticketPrice"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Gift     *clients.Gift   `json:"gift,omitempty"`
}

// CartView is what the cart page shows. EstimatedTotal is for display only;
// the server prices the order at checkout.
type CartView struct {
	Lines          []CartLineView  `json:"lines"`
	State          string          `json:"state"`
	DraftOrderID   int64           `json:"draftOrderId,omitempty"`
	TicketCount    int             `json:"ticketCount"`
	EstimatedTotal decimal.Decimal `json:"estimatedTotal"`
}

// CartService defines the interface for cart operations.
type CartService interface {
	View(ctx context.Context, owner reconcile.Owner) (*CartView, error)
	Add(ctx context.Context, owner reconcile.Owner, giftID int64, quantity float64) (*CartView, error)
	Remove(ctx context.Context, owner reconcile.Owner, giftID int64) (*CartView, error)
	Clear(ctx context.Context, owner reconcile.Owner) error
	Confirm(ctx context.Context, owner reconcile.Owner) (*reconcile.Confirmation, error)
	Watch(ctx context.Context, owner reconcile.Owner) <-chan []cart.Line
}

type cartServiceImpl struct {
	policy *reconcile.Policy
	gifts  GiftAPI
	logger *zap.Logger
}

func NewCartService(policy *reconcile.Policy, gifts GiftAPI, logger *zap.Logger) CartService {
	return &cartServiceImpl{policy: policy, gifts: gifts, logger: logger}
}

func (s *cartServiceImpl) View(ctx context.Context, owner reconcile.Owner) (*CartView, error) {
	lines, err := s.policy.Lines(ctx, owner)
	if err != nil {
		return nil, err
	}
	return s.buildView(ctx, owner, lines)
}

// Add puts tickets in the cart. The gift is looked up first so the line keeps
// a snapshot of it; a failed lookup does not block the add.
func (s *cartServiceImpl) Add(ctx context.Context, owner reconcile.Owner, giftID int64, quantity float64) (*CartView, error) {
	var snapshot *cart.Snapshot
	if giftID > 0 {
		gift, err := s.gifts.GetGift(ctx, giftID)
		if err != nil {
			s.logger.Warn("Adding gift without snapshot", zap.Int64("gift_id", giftID), zap.Error(err))
		} else {
			snapshot = snapshotOf(gift)
		}
	}

	lines, err := s.policy.AddToCart(ctx, owner, giftID, quantity, snapshot)
	if err != nil {
		return nil, err
	}
	return s.buildView(ctx, owner, lines)
}

func (s *cartServiceImpl) Remove(ctx context.Context, owner reconcile.Owner, giftID int64) (*CartView, error) {
	lines, err := s.policy.RemoveFromCart(ctx, owner, giftID)
	if err != nil {
		return nil, err
	}
	return s.buildView(ctx, owner, lines)
}

func (s *cartServiceImpl) Clear(ctx context.Context, owner reconcile.Owner) error {
	return s.policy.ClearCart(ctx, owner)
}

func (s *cartServiceImpl) Confirm(ctx context.Context, owner reconcile.Owner) (*reconcile.Confirmation, error) {
	return s.policy.Confirm(ctx, owner)
}

func (s *cartServiceImpl) Watch(ctx context.Context, owner reconcile.Owner) <-chan []cart.Line {
	return s.policy.Watch(ctx, owner)
}

func (s *cartServiceImpl) buildView(ctx context.Context, owner reconcile.Owner, lines []cart.Line) (*CartView, error) {
	state, handle, err := s.policy.State(ctx, owner)
	if err != nil {
		return nil, err
	}

	views := make([]CartLineView, len(lines))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(enrichConcurrency)
	for i, line := range lines {
		views[i] = CartLineView{GiftID: line.GiftID, Quantity: line.Quantity}
		if line.Gift != nil {
			views[i].Name = line.Gift.Name
			views[i].Category = line.Gift.Category
			views[i].Price = line.Gift.Price
		}
		i, giftID := i, line.GiftID
		g.Go(func() error {
			gift, err := s.gifts.GetGift(gctx, giftID)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}
				// the snapshot is good enough when the catalog is unreachable
				s.logger.Warn("Failed to refresh cart gift", zap.Int64("gift_id", giftID), zap.Error(err))
				return nil
			}
			views[i].Gift = gift
			views[i].Name = gift.Name
			views[i].Category = gift.Category
			views[i].Price = gift.TicketPrice
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	view := &CartView{
		Lines:          views,
		State:          state.String(),
		EstimatedTotal: decimal.Zero,
	}
	if handle != nil {
		view.DraftOrderID = handle.OrderID
	}
	for i := range views {
		views[i].Subtotal = views[i].Price.Mul(decimal.NewFromInt(int64(views[i].Quantity)))
		view.EstimatedTotal = view.EstimatedTotal.Add(views[i].Subtotal)
		view.TicketCount += views[i].Quantity
	}
	return view, nil
}

func snapshotOf(g *clients.Gift) *cart.Snapshot {
	return &cart.Snapshot{Name: g.Name, Price: g.TicketPrice, Category: g.Category}
}
