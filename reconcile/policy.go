// Package reconcile keeps a user's cart in step with their server-side draft
// order: it decides whether an add creates a draft or appends to one, recovers
// from drafts the server has dropped, and confirms checkouts.
package reconcile

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"raffle-bff/apperrors"
	"raffle-bff/cart"
	"raffle-bff/clients"
	awspkg "raffle-bff/pkg/aws"
	"raffle-bff/session"
	"raffle-bff/store"

	"go.uber.org/zap"
)

// State of an identity's cart with respect to the server.
type State int

const (
	NoDraft State = iota
	HasDraft
)

func (s State) String() string {
	if s == HasDraft {
		return "has_draft"
	}
	return "no_draft"
}

// Owner scopes an operation: the device whose store holds the cart, the
// identity the cart belongs to, and the bearer token for remote calls.
type Owner struct {
	Namespace string
	Identity  session.Identity
	Token     string
}

func (o Owner) lockKey() string {
	return o.Namespace + "|" + o.Identity.Key()
}

// OrderAPI is the slice of the raffle API the policy drives.
type OrderAPI interface {
	CreateOrder(ctx context.Context, req clients.CreateOrderRequest) (*clients.OrderResult, error)
	AddItem(ctx context.Context, orderID int64, item clients.OrderItem) error
	ConfirmOrder(ctx context.Context, orderID int64) error
}

// Metrics counts reconciliation outcomes.
type Metrics interface {
	RecordCount(ctx context.Context, metricName string, dimensions map[string]string) error
}

// Confirmation describes a completed checkout.
type Confirmation struct {
	OrderID   int64       `json:"orderId,omitempty"`
	FromDraft bool        `json:"fromDraft"`
	Lines     []cart.Line `json:"lines"`
}

// OrderConfirmedEvent is published after every successful checkout.
type OrderConfirmedEvent struct {
	EventType string              `json:"event_type"`
	OrderID   int64               `json:"order_id,omitempty"`
	UserID    int64               `json:"user_id,omitempty"`
	UserEmail string              `json:"user_email,omitempty"`
	FromDraft bool                `json:"from_draft"`
	Items     []clients.OrderItem `json:"items"`
	Timestamp time.Time           `json:"timestamp"`
}

type Option func(*Policy)

// WithMetrics enables outcome counters.
func WithMetrics(m Metrics) Option {
	return func(p *Policy) { p.metrics = m }
}

// WithEvents publishes order.confirmed events to topicArn.
func WithEvents(pub awspkg.SNSPublisher, topicArn string) Option {
	return func(p *Policy) {
		p.events = pub
		p.topicArn = topicArn
	}
}

// Policy is the cart/draft state machine. Operations for one owner run one at
// a time; different owners proceed in parallel.
type Policy struct {
	api      OrderAPI
	kv       store.Store
	hub      *cart.Hub
	log      *zap.Logger
	locks    *keyedMutex
	metrics  Metrics
	events   awspkg.SNSPublisher
	topicArn string
}

func New(api OrderAPI, kv store.Store, hub *cart.Hub, log *zap.Logger, opts ...Option) *Policy {
	if log == nil {
		log = zap.NewNop()
	}
	if hub == nil {
		hub = cart.NewHub()
	}
	p := &Policy{
		api:   api,
		kv:    kv,
		hub:   hub,
		log:   log,
		locks: newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Topic is the hub topic carrying owner's cart updates.
func Topic(owner Owner) string {
	return owner.lockKey()
}

// Subscribe calls fn with owner's lines after every change.
func (p *Policy) Subscribe(owner Owner, fn func([]cart.Line)) func() {
	return p.hub.Subscribe(Topic(owner), fn)
}

// Watch streams owner's cart updates until ctx is done.
func (p *Policy) Watch(ctx context.Context, owner Owner) <-chan []cart.Line {
	return p.hub.Watch(ctx, Topic(owner))
}

// AddToCart adds quantity tickets for giftID, creating a draft order when the
// owner has none and appending to it otherwise. A draft the server no longer
// accepts is dropped and replaced once.
func (p *Policy) AddToCart(ctx context.Context, owner Owner, giftID int64, quantity float64, snapshot *cart.Snapshot) ([]cart.Line, error) {
	if giftID <= 0 {
		return nil, apperrors.New(http.StatusBadRequest, "Invalid gift id", nil)
	}
	item := clients.OrderItem{GiftID: giftID, Quantity: NormalizeQuantity(quantity)}

	var lines []cart.Line
	err := p.withOwner(ctx, owner, func(ctx context.Context, mirror *cart.Mirror, drafts *cart.DraftTracker) error {
		ownerKey := owner.Identity.Key()
		handle, err := drafts.Handle(ctx, ownerKey)
		if err != nil {
			return err
		}

		if handle != nil {
			err := p.api.AddItem(ctx, handle.OrderID, item)
			switch {
			case err == nil:
				if err := mirror.AddLine(ctx, item.GiftID, item.Quantity, snapshot); err != nil {
					return err
				}
				lines = mirror.Lines()
				return nil
			case IsStaleDraft(err):
				p.log.Warn("Draft order rejected, starting a new one",
					zap.String("owner", ownerKey),
					zap.Int64("order_id", handle.OrderID),
					zap.Error(err),
				)
				p.count(ctx, awspkg.MetricStaleDraftRetries)
				if err := drafts.ClearHandle(ctx, ownerKey); err != nil {
					return err
				}
			case IsRaffleClosed(err):
				p.count(ctx, awspkg.MetricRaffleClosedRejections)
				return err
			default:
				return err
			}
		}

		result, err := p.api.CreateOrder(ctx, clients.CreateOrderRequest{
			UserID:     owner.Identity.UserID,
			IsDraft:    true,
			OrderItems: []clients.OrderItem{item},
		})
		if err != nil {
			if IsRaffleClosed(err) {
				p.count(ctx, awspkg.MetricRaffleClosedRejections)
			}
			return err
		}

		if id := result.Identifier(); id > 0 {
			if err := drafts.SetHandle(ctx, ownerKey, id); err != nil {
				return err
			}
		} else {
			p.log.Warn("Checkout response carried no order id", zap.String("owner", ownerKey))
		}
		if err := mirror.AddLine(ctx, item.GiftID, item.Quantity, snapshot); err != nil {
			return err
		}
		lines = mirror.Lines()
		return nil
	})
	return lines, err
}

// RemoveFromCart drops giftID from the local cart.
func (p *Policy) RemoveFromCart(ctx context.Context, owner Owner, giftID int64) ([]cart.Line, error) {
	var lines []cart.Line
	err := p.withOwner(ctx, owner, func(ctx context.Context, mirror *cart.Mirror, _ *cart.DraftTracker) error {
		if err := mirror.RemoveLine(ctx, giftID); err != nil {
			return err
		}
		lines = mirror.Lines()
		return nil
	})
	return lines, err
}

// ClearCart empties the cart and forgets the draft order.
func (p *Policy) ClearCart(ctx context.Context, owner Owner) error {
	return p.withOwner(ctx, owner, func(ctx context.Context, mirror *cart.Mirror, drafts *cart.DraftTracker) error {
		if err := drafts.ClearHandle(ctx, owner.Identity.Key()); err != nil {
			return err
		}
		return mirror.Clear(ctx)
	})
}

// Confirm checks out: the draft order when there is one, otherwise the local
// lines as a single non-draft order.
func (p *Policy) Confirm(ctx context.Context, owner Owner) (*Confirmation, error) {
	var conf *Confirmation
	err := p.withOwner(ctx, owner, func(ctx context.Context, mirror *cart.Mirror, drafts *cart.DraftTracker) error {
		ownerKey := owner.Identity.Key()
		handle, err := drafts.Handle(ctx, ownerKey)
		if err != nil {
			return err
		}
		lines := mirror.Lines()

		if handle != nil {
			if err := p.api.ConfirmOrder(ctx, handle.OrderID); err != nil {
				return err
			}
			conf = &Confirmation{OrderID: handle.OrderID, FromDraft: true, Lines: lines}
			if err := drafts.ClearHandle(ctx, ownerKey); err != nil {
				p.log.Error("Order confirmed but draft handle not cleared",
					zap.String("owner", ownerKey), zap.Int64("order_id", handle.OrderID), zap.Error(err))
			}
			p.clearConfirmed(ctx, mirror, ownerKey, handle.OrderID)
			return nil
		}

		if len(lines) == 0 {
			return apperrors.ErrEmptyCart
		}
		result, err := p.api.CreateOrder(ctx, clients.CreateOrderRequest{
			UserID:     owner.Identity.UserID,
			IsDraft:    false,
			OrderItems: orderItems(lines),
		})
		if err != nil {
			return err
		}
		conf = &Confirmation{OrderID: result.Identifier(), Lines: lines}
		p.clearConfirmed(ctx, mirror, ownerKey, conf.OrderID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	p.count(ctx, awspkg.MetricCartCheckouts)
	p.publishConfirmed(ctx, owner, conf)
	return conf, nil
}

// clearConfirmed empties the cart after the server accepted the order. The
// order stands either way, so a failed local write is only logged.
func (p *Policy) clearConfirmed(ctx context.Context, mirror *cart.Mirror, ownerKey string, orderID int64) {
	if err := mirror.Clear(ctx); err != nil {
		p.log.Error("Order confirmed but cart not cleared",
			zap.String("owner", ownerKey), zap.Int64("order_id", orderID), zap.Error(err))
	}
}

// Logout forgets owner's cart and draft. Other identities on the same device
// keep theirs.
func (p *Policy) Logout(ctx context.Context, owner Owner) error {
	if owner.Identity.Key() == "" {
		return nil
	}
	return p.ClearCart(ctx, owner)
}

// Lines returns owner's cart.
func (p *Policy) Lines(ctx context.Context, owner Owner) ([]cart.Line, error) {
	var lines []cart.Line
	err := p.withOwner(ctx, owner, func(_ context.Context, mirror *cart.Mirror, _ *cart.DraftTracker) error {
		lines = mirror.Lines()
		return nil
	})
	return lines, err
}

// State reports whether owner has a draft order, and which.
func (p *Policy) State(ctx context.Context, owner Owner) (State, *cart.DraftHandle, error) {
	var handle *cart.DraftHandle
	err := p.withOwner(ctx, owner, func(ctx context.Context, _ *cart.Mirror, drafts *cart.DraftTracker) error {
		var err error
		handle, err = drafts.Handle(ctx, owner.Identity.Key())
		return err
	})
	if err != nil {
		return NoDraft, nil, err
	}
	if handle == nil {
		return NoDraft, nil, nil
	}
	return HasDraft, handle, nil
}

type ownerFunc func(ctx context.Context, mirror *cart.Mirror, drafts *cart.DraftTracker) error

// withOwner runs fn under owner's lock with the mirror and tracker loaded
// from the device store and the token attached to ctx.
func (p *Policy) withOwner(ctx context.Context, owner Owner, fn ownerFunc) error {
	ownerKey := owner.Identity.Key()
	if ownerKey == "" {
		return apperrors.ErrAuthRequired
	}

	unlock, err := p.locks.lock(ctx, owner.lockKey())
	if err != nil {
		return err
	}
	defer unlock()

	if owner.Token != "" {
		ctx = clients.WithToken(ctx, owner.Token)
	}
	kv := store.ForDevice(p.kv, owner.Namespace)
	mirror, err := cart.OpenMirror(ctx, kv, ownerKey, p.hub, Topic(owner), p.log)
	if err != nil {
		return err
	}
	return fn(ctx, mirror, cart.NewDraftTracker(kv, p.log))
}

func orderItems(lines []cart.Line) []clients.OrderItem {
	items := make([]clients.OrderItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, clients.OrderItem{GiftID: l.GiftID, Quantity: l.Quantity})
	}
	return items
}

func (p *Policy) count(ctx context.Context, metric string) {
	if p.metrics == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := p.metrics.RecordCount(ctx, metric, map[string]string{"Service": "raffle-bff"}); err != nil {
		p.log.Warn("Failed to record metric", zap.String("metric", metric), zap.Error(err))
	}
}

func (p *Policy) publishConfirmed(ctx context.Context, owner Owner, conf *Confirmation) {
	if p.events == nil || p.topicArn == "" {
		return
	}

	event := OrderConfirmedEvent{
		EventType: "order.confirmed",
		OrderID:   conf.OrderID,
		UserID:    owner.Identity.UserID,
		UserEmail: owner.Identity.Email,
		FromDraft: conf.FromDraft,
		Items:     orderItems(conf.Lines),
		Timestamp: time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		p.log.Error("Failed to marshal order.confirmed event", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := p.events.Publish(ctx, p.topicArn, event.EventType, payload); err != nil {
		p.log.Warn("Failed to publish order.confirmed event", zap.Int64("order_id", conf.OrderID), zap.Error(err))
		return
	}
	p.log.Info("Published order.confirmed event", zap.Int64("order_id", conf.OrderID))
}

var _ OrderAPI = (*clients.RaffleClient)(nil)
