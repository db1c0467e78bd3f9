package cart

import (
	"context"
	"fmt"

	"raffle-bff/store"

	"go.uber.org/zap"
)

// Mirror is the local copy of a user's cart: the last known contents of their
// draft order, kept for display between server round trips. Every mutation
// persists the lines and then publishes them once on the hub.
//
// A Mirror is not safe for concurrent use; callers serialize access per owner.
type Mirror struct {
	kv    store.Store
	owner string
	hub   *Hub
	topic string
	log   *zap.Logger
	lines []Line
}

// OpenMirror loads owner's cart from kv. A cart saved before carts were
// namespaced is adopted on first open. hub may be nil.
func OpenMirror(ctx context.Context, kv store.Store, owner string, hub *Hub, topic string, log *zap.Logger) (*Mirror, error) {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Mirror{kv: kv, owner: owner, hub: hub, topic: topic, log: log}

	var lines []Line
	found, err := store.ReadJSON(ctx, kv, CartKey(owner), &lines, log)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if !found {
		legacyFound, err := store.ReadJSON(ctx, kv, legacyCartKey, &lines, log)
		if err != nil {
			return nil, fmt.Errorf("load legacy cart: %w", err)
		}
		if legacyFound {
			m.lines = sanitize(lines)
			if err := m.persist(ctx); err != nil {
				return nil, err
			}
			if err := kv.Delete(ctx, legacyCartKey); err != nil {
				return nil, err
			}
			log.Info("Adopted legacy cart", zap.String("owner", owner), zap.Int("lines", len(m.lines)))
			return m, nil
		}
	}
	m.lines = sanitize(lines)
	return m, nil
}

// Lines returns a copy of the current lines. No I/O.
func (m *Mirror) Lines() []Line {
	return cloneLines(m.lines)
}

// Quantity returns the quantity held for giftID, 0 when absent.
func (m *Mirror) Quantity(giftID int64) int {
	for _, l := range m.lines {
		if l.GiftID == giftID {
			return l.Quantity
		}
	}
	return 0
}

// AddLine adds quantity tickets for giftID, merging into an existing line.
// A non-nil snapshot replaces the cached gift details.
func (m *Mirror) AddLine(ctx context.Context, giftID int64, quantity int, snapshot *Snapshot) error {
	if quantity < 1 {
		quantity = 1
	}
	found := false
	for i := range m.lines {
		if m.lines[i].GiftID == giftID {
			m.lines[i].Quantity += quantity
			if snapshot != nil {
				snap := *snapshot
				m.lines[i].Gift = &snap
			}
			found = true
			break
		}
	}
	if !found {
		line := Line{GiftID: giftID, Quantity: quantity}
		if snapshot != nil {
			snap := *snapshot
			line.Gift = &snap
		}
		m.lines = append(m.lines, line)
	}
	return m.commit(ctx)
}

// RemoveLine drops giftID. Removing an absent gift still writes and publishes.
func (m *Mirror) RemoveLine(ctx context.Context, giftID int64) error {
	kept := make([]Line, 0, len(m.lines))
	for _, l := range m.lines {
		if l.GiftID != giftID {
			kept = append(kept, l)
		}
	}
	m.lines = kept
	return m.commit(ctx)
}

// Clear empties the cart and deletes its stored copies.
func (m *Mirror) Clear(ctx context.Context) error {
	m.lines = nil
	err := store.Remove(ctx, m.kv, CartKey(m.owner), legacyCartKey)
	m.publish()
	return err
}

func (m *Mirror) persist(ctx context.Context) error {
	lines := m.lines
	if lines == nil {
		lines = []Line{}
	}
	if err := store.WriteJSON(ctx, m.kv, CartKey(m.owner), lines); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

// commit persists then publishes. The publish happens even when the write
// fails so observers always see the in-memory state.
func (m *Mirror) commit(ctx context.Context) error {
	err := m.persist(ctx)
	m.publish()
	return err
}

func (m *Mirror) publish() {
	if m.hub == nil {
		return
	}
	lines := m.lines
	if lines == nil {
		lines = []Line{}
	}
	m.hub.Publish(m.topic, lines)
}
