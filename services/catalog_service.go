package services

import (
	"context"
	"net/url"
	"sort"
	"strings"

	"raffle-bff/clients"

	"go.uber.org/zap"
)

// GiftAPI is the read side of the gift catalog.
type GiftAPI interface {
	ListGifts(ctx context.Context, query url.Values) ([]clients.Gift, error)
	SearchGifts(ctx context.Context, search clients.GiftSearch) ([]clients.Gift, error)
	GetGift(ctx context.Context, id int64) (*clients.Gift, error)
}

// Sort fields accepted by CatalogQuery.SortBy.
const (
	SortByName     = "name"
	SortByPrice    = "price"
	SortByCategory = "category"
)

type CatalogQuery struct {
	Category   string
	SortBy     string
	Descending bool
	Search     clients.GiftSearch
}

// Catalog is one page of the shop. Categories lists every category in the
// unfiltered result so the filter can be changed without refetching.
type Catalog struct {
	Gifts      []clients.Gift `json:"gifts"`
	Categories []string       `json:"categories"`
}

// CatalogService defines the interface for browsing gifts.
type CatalogService interface {
	Browse(ctx context.Context, q CatalogQuery) (*Catalog, error)
	Gift(ctx context.Context, id int64) (*clients.Gift, error)
}

type catalogServiceImpl struct {
	api    GiftAPI
	logger *zap.Logger
}

func NewCatalogService(api GiftAPI, logger *zap.Logger) CatalogService {
	return &catalogServiceImpl{api: api, logger: logger}
}

func (s *catalogServiceImpl) Browse(ctx context.Context, q CatalogQuery) (*Catalog, error) {
	var (
		gifts []clients.Gift
		err   error
	)
	if q.Search.IsZero() {
		gifts, err = s.api.ListGifts(ctx, nil)
	} else {
		gifts, err = s.api.SearchGifts(ctx, q.Search)
	}
	if err != nil {
		s.logger.Error("Failed to load gifts", zap.Error(err))
		return nil, err
	}

	catalog := &Catalog{
		Gifts:      FilterByCategory(gifts, q.Category),
		Categories: Categories(gifts),
	}
	SortGifts(catalog.Gifts, q.SortBy, q.Descending)
	return catalog, nil
}

func (s *catalogServiceImpl) Gift(ctx context.Context, id int64) (*clients.Gift, error) {
	return s.api.GetGift(ctx, id)
}

// Categories returns the distinct non-empty categories, sorted.
func Categories(gifts []clients.Gift) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, g := range gifts {
		if g.Category == "" {
			continue
		}
		if _, ok := seen[g.Category]; ok {
			continue
		}
		seen[g.Category] = struct{}{}
		out = append(out, g.Category)
	}
	sort.Strings(out)
	return out
}

// FilterByCategory keeps gifts in category. An empty category keeps all.
func FilterByCategory(gifts []clients.Gift, category string) []clients.Gift {
	out := make([]clients.Gift, 0, len(gifts))
	for _, g := range gifts {
		if category == "" || g.Category == category {
			out = append(out, g)
		}
	}
	return out
}

// SortGifts orders gifts in place by name, price or category. Unknown fields
// sort by name.
func SortGifts(gifts []clients.Gift, sortBy string, descending bool) {
	less := func(a, b clients.Gift) int {
		switch sortBy {
		case SortByPrice:
			return a.TicketPrice.Cmp(b.TicketPrice)
		case SortByCategory:
			return strings.Compare(strings.ToLower(a.Category), strings.ToLower(b.Category))
		default:
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		}
	}
	sort.SliceStable(gifts, func(i, j int) bool {
		c := less(gifts[i], gifts[j])
		if descending {
			return c > 0
		}
		return c < 0
	})
}
