package services

import (
	"context"
	"net/http"
	"net/mail"
	"net/url"
	"strings"

	"raffle-bff/apperrors"
	"raffle-bff/clients"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// AdminAPI is the management side of the raffle API.
type AdminAPI interface {
	ListGifts(ctx context.Context, query url.Values) ([]clients.Gift, error)
	GetGift(ctx context.Context, id int64) (*clients.Gift, error)
	CreateGift(ctx context.Context, gift clients.Gift) error
	UpdateGift(ctx context.Context, gift clients.Gift) error
	DeleteGift(ctx context.Context, id int64) error

	ListDonors(ctx context.Context) ([]clients.Donor, error)
	GetDonor(ctx context.Context, id int64) (*clients.Donor, error)
	CreateDonor(ctx context.Context, donor clients.Donor) (*clients.Donor, error)
	UpdateDonor(ctx context.Context, id int64, donor clients.Donor) (*clients.Donor, error)
	DeleteDonor(ctx context.Context, id int64) error

	ConductRaffle(ctx context.Context, giftID int64) (*clients.Winner, error)
	Winners(ctx context.Context) ([]clients.Winner, error)
	AllOrders(ctx context.Context) ([]clients.Order, error)
	ConfirmOrder(ctx context.Context, orderID int64) error
	SalesSummary(ctx context.Context) (*clients.SalesSummary, error)
	GiftsWithWinners(ctx context.Context) ([]clients.GiftWithWinner, error)
}

// Dashboard is the admin landing page.
type Dashboard struct {
	Donors       []clients.Donor       `json:"donors"`
	Gifts        []clients.Gift        `json:"gifts"`
	Winners      []clients.Winner      `json:"winners"`
	Sales        *clients.SalesSummary `json:"sales"`
	PendingDraws int                   `json:"pendingDraws"`
}

// AdminService defines the interface for managing the raffle.
type AdminService interface {
	Dashboard(ctx context.Context) (*Dashboard, error)

	Donors(ctx context.Context) ([]clients.Donor, error)
	Donor(ctx context.Context, id int64) (*clients.Donor, error)
	CreateDonor(ctx context.Context, donor clients.Donor) (*clients.Donor, error)
	UpdateDonor(ctx context.Context, id int64, donor clients.Donor) (*clients.Donor, error)
	DeleteDonor(ctx context.Context, id int64) error

	CreateGift(ctx context.Context, gift clients.Gift) error
	UpdateGift(ctx context.Context, id int64, gift clients.Gift) error
	DeleteGift(ctx context.Context, id int64) error

	ConductRaffle(ctx context.Context, giftID int64) (*clients.Winner, error)
	Winners(ctx context.Context) ([]clients.Winner, error)
	Orders(ctx context.Context) ([]OrderView, error)
	ConfirmOrder(ctx context.Context, orderID int64) error
	SalesReport(ctx context.Context) (*clients.SalesSummary, error)
	GiftsWithWinners(ctx context.Context) ([]clients.GiftWithWinner, error)
}

type adminServiceImpl struct {
	api    AdminAPI
	logger *zap.Logger
}

func NewAdminService(api AdminAPI, logger *zap.Logger) AdminService {
	return &adminServiceImpl{api: api, logger: logger}
}

// Dashboard loads donors, gifts, winners and sales side by side.
func (s *adminServiceImpl) Dashboard(ctx context.Context) (*Dashboard, error) {
	d := &Dashboard{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		d.Donors, err = s.api.ListDonors(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		d.Gifts, err = s.api.ListGifts(gctx, nil)
		return err
	})
	g.Go(func() error {
		var err error
		d.Winners, err = s.api.Winners(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		d.Sales, err = s.api.SalesSummary(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("Failed to load admin dashboard", zap.Error(err))
		return nil, err
	}

	for _, gift := range d.Gifts {
		if !gift.HasWinner {
			d.PendingDraws++
		}
	}
	return d, nil
}

func (s *adminServiceImpl) Donors(ctx context.Context) ([]clients.Donor, error) {
	return s.api.ListDonors(ctx)
}

func (s *adminServiceImpl) Donor(ctx context.Context, id int64) (*clients.Donor, error) {
	return s.api.GetDonor(ctx, id)
}

func (s *adminServiceImpl) CreateDonor(ctx context.Context, donor clients.Donor) (*clients.Donor, error) {
	if err := validateDonor(&donor); err != nil {
		return nil, err
	}
	created, err := s.api.CreateDonor(ctx, donor)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Donor created", zap.Int64("donor_id", created.ID))
	return created, nil
}

func (s *adminServiceImpl) UpdateDonor(ctx context.Context, id int64, donor clients.Donor) (*clients.Donor, error) {
	if err := validateDonor(&donor); err != nil {
		return nil, err
	}
	return s.api.UpdateDonor(ctx, id, donor)
}

func (s *adminServiceImpl) DeleteDonor(ctx context.Context, id int64) error {
	if err := s.api.DeleteDonor(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Donor deleted", zap.Int64("donor_id", id))
	return nil
}

func (s *adminServiceImpl) CreateGift(ctx context.Context, gift clients.Gift) error {
	if err := validateGift(&gift); err != nil {
		return err
	}
	return s.api.CreateGift(ctx, gift)
}

func (s *adminServiceImpl) UpdateGift(ctx context.Context, id int64, gift clients.Gift) error {
	if err := validateGift(&gift); err != nil {
		return err
	}
	gift.ID = id
	return s.api.UpdateGift(ctx, gift)
}

func (s *adminServiceImpl) DeleteGift(ctx context.Context, id int64) error {
	return s.api.DeleteGift(ctx, id)
}

// ConductRaffle refuses gifts that already have a winner before asking the
// server to draw.
func (s *adminServiceImpl) ConductRaffle(ctx context.Context, giftID int64) (*clients.Winner, error) {
	gift, err := s.api.GetGift(ctx, giftID)
	if err != nil {
		return nil, err
	}
	if gift.HasWinner {
		return nil, apperrors.New(http.StatusConflict, "Gift already has a winner", nil)
	}

	winner, err := s.api.ConductRaffle(ctx, giftID)
	if err != nil {
		return nil, err
	}
	if winner.GiftName == "" {
		winner.GiftName = gift.Name
	}
	s.logger.Info("Raffle conducted", zap.Int64("gift_id", giftID), zap.String("winner", winner.WinnerName))
	return winner, nil
}

func (s *adminServiceImpl) Winners(ctx context.Context) ([]clients.Winner, error) {
	return s.api.Winners(ctx)
}

func (s *adminServiceImpl) Orders(ctx context.Context) ([]OrderView, error) {
	orders, err := s.api.AllOrders(ctx)
	if err != nil {
		return nil, err
	}
	return viewOrders(orders), nil
}

func (s *adminServiceImpl) ConfirmOrder(ctx context.Context, orderID int64) error {
	return s.api.ConfirmOrder(ctx, orderID)
}

func (s *adminServiceImpl) SalesReport(ctx context.Context) (*clients.SalesSummary, error) {
	return s.api.SalesSummary(ctx)
}

func (s *adminServiceImpl) GiftsWithWinners(ctx context.Context) ([]clients.GiftWithWinner, error) {
	return s.api.GiftsWithWinners(ctx)
}

func validateDonor(d *clients.Donor) error {
	d.Name = strings.TrimSpace(d.Name)
	d.Email = strings.TrimSpace(d.Email)
	if d.Name == "" {
		return apperrors.New(http.StatusBadRequest, "Donor name is required", nil)
	}
	if _, err := mail.ParseAddress(d.Email); err != nil {
		return apperrors.New(http.StatusBadRequest, "Donor email is invalid", err)
	}
	return nil
}

func validateGift(g *clients.Gift) error {
	g.Name = strings.TrimSpace(g.Name)
	g.Category = strings.TrimSpace(g.Category)
	if g.Name == "" || g.Category == "" {
		return apperrors.New(http.StatusBadRequest, "Gift name and category are required", nil)
	}
	if !g.TicketPrice.IsPositive() {
		return apperrors.New(http.StatusBadRequest, "Ticket price must be positive", nil)
	}
	return nil
}
