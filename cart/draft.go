package cart

import (
	"context"
	"strconv"

	"raffle-bff/store"

	"go.uber.org/zap"
)

// DraftTracker remembers the pending draft order per identity. It only
// touches the store.
type DraftTracker struct {
	kv  store.Store
	log *zap.Logger
}

func NewDraftTracker(kv store.Store, log *zap.Logger) *DraftTracker {
	if log == nil {
		log = zap.NewNop()
	}
	return &DraftTracker{kv: kv, log: log}
}

// Handle returns owner's draft, or nil when there is none. A draft id stored
// under the legacy unscoped key is moved to owner on first read so no other
// identity can pick it up.
func (d *DraftTracker) Handle(ctx context.Context, owner string) (*DraftHandle, error) {
	var orderID int64
	found, err := store.ReadJSON(ctx, d.kv, DraftKey(owner), &orderID, d.log)
	if err != nil {
		return nil, err
	}
	if found && orderID > 0 {
		return &DraftHandle{OrderID: orderID, OwnerKey: owner}, nil
	}

	found, err = store.ReadJSON(ctx, d.kv, legacyDraftKey, &orderID, d.log)
	if err != nil {
		return nil, err
	}
	if !found || orderID <= 0 {
		return nil, nil
	}
	if err := d.SetHandle(ctx, owner, orderID); err != nil {
		return nil, err
	}
	if err := d.kv.Delete(ctx, legacyDraftKey); err != nil {
		return nil, err
	}
	d.log.Info("Adopted legacy draft order", zap.String("owner", owner), zap.Int64("order_id", orderID))
	return &DraftHandle{OrderID: orderID, OwnerKey: owner}, nil
}

// SetHandle records orderID as owner's draft.
func (d *DraftTracker) SetHandle(ctx context.Context, owner string, orderID int64) error {
	return d.kv.Set(ctx, DraftKey(owner), strconv.FormatInt(orderID, 10))
}

// ClearHandle forgets owner's draft, including any legacy unscoped id.
func (d *DraftTracker) ClearHandle(ctx context.Context, owner string) error {
	return store.Remove(ctx, d.kv, DraftKey(owner), legacyDraftKey)
}
