package controllers

import (
	"context"

	"raffle-bff/cart"
	"raffle-bff/clients"
	"raffle-bff/reconcile"
	"raffle-bff/services"
	"raffle-bff/session"
	"raffle-bff/store"

	"github.com/stretchr/testify/mock"
)

// --- Mock Services ---

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(ctx context.Context, kv store.Store, req clients.LoginRequest) (*services.AuthResult, error) {
	args := m.Called(ctx, kv, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.AuthResult), args.Error(1)
}

func (m *MockAuthService) Register(ctx context.Context, kv store.Store, req clients.RegisterRequest) (*services.AuthResult, error) {
	args := m.Called(ctx, kv, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.AuthResult), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, kv store.Store, namespace string) error {
	return m.Called(ctx, kv, namespace).Error(0)
}

func (m *MockAuthService) Current(ctx context.Context, kv store.Store) (*session.Session, error) {
	args := m.Called(ctx, kv)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.Session), args.Error(1)
}

type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) Browse(ctx context.Context, q services.CatalogQuery) (*services.Catalog, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Catalog), args.Error(1)
}

func (m *MockCatalogService) Gift(ctx context.Context, id int64) (*clients.Gift, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clients.Gift), args.Error(1)
}

type MockCartService struct {
	mock.Mock
}

func (m *MockCartService) View(ctx context.Context, owner reconcile.Owner) (*services.CartView, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.CartView), args.Error(1)
}

func (m *MockCartService) Add(ctx context.Context, owner reconcile.Owner, giftID int64, quantity float64) (*services.CartView, error) {
	args := m.Called(ctx, owner, giftID, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.CartView), args.Error(1)
}

func (m *MockCartService) Remove(ctx context.Context, owner reconcile.Owner, giftID int64) (*services.CartView, error) {
	args := m.Called(ctx, owner, giftID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.CartView), args.Error(1)
}

func (m *MockCartService) Clear(ctx context.Context, owner reconcile.Owner) error {
	return m.Called(ctx, owner).Error(0)
}

func (m *MockCartService) Confirm(ctx context.Context, owner reconcile.Owner) (*reconcile.Confirmation, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reconcile.Confirmation), args.Error(1)
}

func (m *MockCartService) Watch(ctx context.Context, owner reconcile.Owner) <-chan []cart.Line {
	return m.Called(ctx, owner).Get(0).(<-chan []cart.Line)
}

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) Mine(ctx context.Context, owner reconcile.Owner) ([]services.OrderView, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]services.OrderView), args.Error(1)
}

type MockAdminService struct {
	mock.Mock
}

func (m *MockAdminService) Dashboard(ctx context.Context) (*services.Dashboard, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Dashboard), args.Error(1)
}

func (m *MockAdminService) Donors(ctx context.Context) ([]clients.Donor, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]clients.Donor), args.Error(1)
}

func (m *MockAdminService) Donor(ctx context.Context, id int64) (*clients.Donor, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clients.Donor), args.Error(1)
}

func (m *MockAdminService) CreateDonor(ctx context.Context, donor clients.Donor) (*clients.Donor, error) {
	args := m.Called(ctx, donor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clients.Donor), args.Error(1)
}

func (m *MockAdminService) UpdateDonor(ctx context.Context, id int64, donor clients.Donor) (*clients.Donor, error) {
	args := m.Called(ctx, id, donor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clients.Donor), args.Error(1)
}

func (m *MockAdminService) DeleteDonor(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockAdminService) CreateGift(ctx context.Context, gift clients.Gift) error {
	return m.Called(ctx, gift).Error(0)
}

func (m *MockAdminService) UpdateGift(ctx context.Context, id int64, gift clients.Gift) error {
	return m.Called(ctx, id, gift).Error(0)
}

func (m *MockAdminService) DeleteGift(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockAdminService) ConductRaffle(ctx context.Context, giftID int64) (*clients.Winner, error) {
	args := m.Called(ctx, giftID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clients.Winner), args.Error(1)
}

func (m *MockAdminService) Winners(ctx context.Context) ([]clients.Winner, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]clients.Winner), args.Error(1)
}

func (m *MockAdminService) Orders(ctx context.Context) ([]services.OrderView, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]services.OrderView), args.Error(1)
}

func (m *MockAdminService) ConfirmOrder(ctx context.Context, orderID int64) error {
	return m.Called(ctx, orderID).Error(0)
}

func (m *MockAdminService) SalesReport(ctx context.Context) (*clients.SalesSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clients.SalesSummary), args.Error(1)
}

func (m *MockAdminService) GiftsWithWinners(ctx context.Context) ([]clients.GiftWithWinner, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]clients.GiftWithWinner), args.Error(1)
}
