package clients

import "github.com/shopspring/decimal"

type Gift struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	ImageURL    string          `json:"imageUrl,omitempty"`
	TicketPrice decimal.Decimal `json:"ticketPrice"`
	Category    string          `json:"category"`
	DonorName   string          `json:"donorName"`
	TicketsSold int             `json:"ticketsSold,omitempty"`
	HasWinner   bool            `json:"hasWinner,omitempty"`
}

// GiftWithWinner is a gift row from the winners report.
type GiftWithWinner struct {
	Gift
	WinnerName  string `json:"winnerName,omitempty"`
	WinnerEmail string `json:"winnerEmail,omitempty"`
}

// GiftSearch holds the optional filters of GET /gifts/search.
type GiftSearch struct {
	Name     string
	Donor    string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
}

func (s GiftSearch) IsZero() bool {
	return s.Name == "" && s.Donor == "" && s.MinPrice == nil && s.MaxPrice == nil
}

type Donor struct {
	ID      int64  `json:"id,omitempty"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
	Gifts   []Gift `json:"gifts,omitempty"`
}

type User struct {
	ID    int64  `json:"id,omitempty"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
	Role  string `json:"role,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// AuthResponse is returned by login and register. User is optional; when
// absent the identity comes from the token.
type AuthResponse struct {
	Token   string `json:"token"`
	User    *User  `json:"user,omitempty"`
	Message string `json:"message,omitempty"`
}

type OrderItem struct {
	GiftID   int64 `json:"giftId"`
	Quantity int   `json:"quantity"`
}

// CreateOrderRequest is the checkout payload. There is no total: the server
// prices orders itself.
type CreateOrderRequest struct {
	UserID     int64       `json:"userId"`
	IsDraft    bool        `json:"isDraft"`
	OrderItems []OrderItem `json:"orderItems"`
}

// OrderResult is the checkout response. Servers disagree on whether the new
// id is called orderId or id.
type OrderResult struct {
	OrderID int64  `json:"orderId,omitempty"`
	ID      int64  `json:"id,omitempty"`
	Message string `json:"message,omitempty"`
}

func (r OrderResult) Identifier() int64 {
	if r.OrderID != 0 {
		return r.OrderID
	}
	return r.ID
}

type Order struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"userId"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	IsDraft     bool            `json:"isDraft"`
	OrderDate   string          `json:"orderDate,omitempty"`
	OrderItems  []OrderItem     `json:"orderItems"`
}

type Winner struct {
	GiftID      int64  `json:"giftId"`
	GiftName    string `json:"giftName,omitempty"`
	WinnerName  string `json:"winnerName,omitempty"`
	WinnerEmail string `json:"winnerEmail,omitempty"`
	DrawDate    string `json:"drawDate,omitempty"`
}

type GiftSales struct {
	GiftName        string          `json:"giftName"`
	PurchaseCount   int             `json:"purchaseCount"`
	RevenueFromGift decimal.Decimal `json:"revenueFromGift"`
}

type SalesSummary struct {
	TotalRevenue     decimal.Decimal `json:"totalRevenue"`
	TotalTicketsSold int             `json:"totalTicketsSold"`
	SalesPerGift     []GiftSales     `json:"salesPerGift"`
}
