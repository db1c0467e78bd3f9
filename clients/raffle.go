package clients

import (
	"context"
	"fmt"
	"net/http"
)

// ConductRaffle asks the server to draw a winner for giftID. Older servers
// only expose /raffle/run, which is tried when /raffle/conduct is missing.
func (c *RaffleClient) ConductRaffle(ctx context.Context, giftID int64) (*Winner, error) {
	var winner Winner
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/raffle/conduct/%d", giftID), nil, struct{}{}, &winner)
	if apiErr, ok := AsAPIError(err); ok && apiErr.Status == http.StatusNotFound {
		err = c.do(ctx, http.MethodPost, fmt.Sprintf("/raffle/run/%d", giftID), nil, struct{}{}, &winner)
	}
	if err != nil {
		return nil, err
	}
	if winner.GiftID == 0 {
		winner.GiftID = giftID
	}
	return &winner, nil
}

func (c *RaffleClient) Winners(ctx context.Context) ([]Winner, error) {
	var winners []Winner
	if err := c.do(ctx, http.MethodGet, "/winner", nil, nil, &winners); err != nil {
		return nil, err
	}
	return winners, nil
}

func (c *RaffleClient) SalesSummary(ctx context.Context) (*SalesSummary, error) {
	var summary SalesSummary
	if err := c.do(ctx, http.MethodGet, "/gift/sales-summary", nil, nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

func (c *RaffleClient) GiftsWithWinners(ctx context.Context) ([]GiftWithWinner, error) {
	var gifts []GiftWithWinner
	if err := c.do(ctx, http.MethodGet, "/gift/gifts-with-winners", nil, nil, &gifts); err != nil {
		return nil, err
	}
	return gifts, nil
}
