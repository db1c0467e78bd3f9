package clients

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// ListGifts returns the catalog. query is passed through as filters.
func (c *RaffleClient) ListGifts(ctx context.Context, query url.Values) ([]Gift, error) {
	var gifts []Gift
	if err := c.do(ctx, http.MethodGet, "/gifts", query, nil, &gifts); err != nil {
		return nil, err
	}
	return gifts, nil
}

func (c *RaffleClient) SearchGifts(ctx context.Context, search GiftSearch) ([]Gift, error) {
	q := url.Values{}
	if search.Name != "" {
		q.Set("name", search.Name)
	}
	if search.Donor != "" {
		q.Set("donor", search.Donor)
	}
	if search.MinPrice != nil {
		q.Set("minPrice", search.MinPrice.String())
	}
	if search.MaxPrice != nil {
		q.Set("maxPrice", search.MaxPrice.String())
	}

	var gifts []Gift
	if err := c.do(ctx, http.MethodGet, "/gifts/search", q, nil, &gifts); err != nil {
		return nil, err
	}
	return gifts, nil
}

func (c *RaffleClient) GetGift(ctx context.Context, id int64) (*Gift, error) {
	var gift Gift
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/gifts/%d", id), nil, nil, &gift); err != nil {
		return nil, err
	}
	return &gift, nil
}

func (c *RaffleClient) CreateGift(ctx context.Context, gift Gift) error {
	gift.ID = 0
	return c.do(ctx, http.MethodPost, "/gifts", nil, gift, nil)
}

func (c *RaffleClient) UpdateGift(ctx context.Context, gift Gift) error {
	return c.do(ctx, http.MethodPut, "/gifts", nil, gift, nil)
}

func (c *RaffleClient) DeleteGift(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/gifts/%d", id), nil, nil, nil)
}

func (c *RaffleClient) ListDonors(ctx context.Context) ([]Donor, error) {
	var donors []Donor
	if err := c.do(ctx, http.MethodGet, "/donors", nil, nil, &donors); err != nil {
		return nil, err
	}
	return donors, nil
}

func (c *RaffleClient) GetDonor(ctx context.Context, id int64) (*Donor, error) {
	var donor Donor
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/donors/%d", id), nil, nil, &donor); err != nil {
		return nil, err
	}
	return &donor, nil
}

func (c *RaffleClient) CreateDonor(ctx context.Context, donor Donor) (*Donor, error) {
	donor.ID = 0
	donor.Gifts = nil
	var created Donor
	if err := c.do(ctx, http.MethodPost, "/donors", nil, donor, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *RaffleClient) UpdateDonor(ctx context.Context, id int64, donor Donor) (*Donor, error) {
	donor.ID = id
	var updated Donor
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/donors/%d", id), nil, donor, &updated); err != nil {
		return nil, err
	}
	if updated.ID == 0 {
		updated = donor
	}
	return &updated, nil
}

func (c *RaffleClient) DeleteDonor(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/donors/%d", id), nil, nil, nil)
}
