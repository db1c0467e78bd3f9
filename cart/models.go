package cart

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Storage keys. The unscoped variants predate per-user namespacing and are
// only read for migration and cleared alongside the scoped ones.
const (
	legacyCartKey  = "cart"
	legacyDraftKey = "currentDraftOrderId"
)

// CartKey is where an identity's cart lines are stored.
func CartKey(owner string) string { return fmt.Sprintf("cart_%s", owner) }

// DraftKey is where an identity's draft order id is stored.
func DraftKey(owner string) string { return fmt.Sprintf("currentDraftOrderId_%s", owner) }

// Snapshot caches the gift details shown next to a line.
type Snapshot struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Category string          `json:"category,omitempty"`
}

// Line is one gift in the cart. Quantity is always at least 1.
type Line struct {
	GiftID   int64     `json:"giftId"`
	Quantity int       `json:"quantity"`
	Gift     *Snapshot `json:"giftSnapshot,omitempty"`
}

// DraftHandle points at the server-side draft order backing the cart.
type DraftHandle struct {
	OrderID  int64  `json:"orderId"`
	OwnerKey string `json:"ownerKey"`
}

func cloneLines(lines []Line) []Line {
	out := make([]Line, len(lines))
	for i, l := range lines {
		out[i] = l
		if l.Gift != nil {
			snap := *l.Gift
			out[i].Gift = &snap
		}
	}
	return out
}

// sanitize merges duplicate gifts and drops lines that cannot be valid.
func sanitize(lines []Line) []Line {
	out := make([]Line, 0, len(lines))
	index := make(map[int64]int, len(lines))
	for _, l := range lines {
		if l.GiftID <= 0 || l.Quantity < 1 {
			continue
		}
		if i, ok := index[l.GiftID]; ok {
			out[i].Quantity += l.Quantity
			if l.Gift != nil {
				out[i].Gift = l.Gift
			}
			continue
		}
		index[l.GiftID] = len(out)
		out = append(out, l)
	}
	return out
}
