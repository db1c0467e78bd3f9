package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"raffle-bff/apperrors"
	"raffle-bff/cart"
	"raffle-bff/clients"
	awspkg "raffle-bff/pkg/aws"
	"raffle-bff/session"
	"raffle-bff/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeOrderAPI struct {
	mu       sync.Mutex
	calls    []string
	requests []clients.CreateOrderRequest

	CreateOrderFn  func(ctx context.Context, req clients.CreateOrderRequest) (*clients.OrderResult, error)
	AddItemFn      func(ctx context.Context, orderID int64, item clients.OrderItem) error
	ConfirmOrderFn func(ctx context.Context, orderID int64) error
}

func (f *fakeOrderAPI) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeOrderAPI) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeOrderAPI) CreateOrder(ctx context.Context, req clients.CreateOrderRequest) (*clients.OrderResult, error) {
	f.record("create")
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	return f.CreateOrderFn(ctx, req)
}

func (f *fakeOrderAPI) AddItem(ctx context.Context, orderID int64, item clients.OrderItem) error {
	f.record("add")
	return f.AddItemFn(ctx, orderID, item)
}

func (f *fakeOrderAPI) ConfirmOrder(ctx context.Context, orderID int64) error {
	f.record("confirm")
	return f.ConfirmOrderFn(ctx, orderID)
}

type mockMetrics struct{ mock.Mock }

func (m *mockMetrics) RecordCount(ctx context.Context, name string, dims map[string]string) error {
	return m.Called(name).Error(0)
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(ctx context.Context, topicArn, eventType string, message []byte) error {
	return m.Called(topicArn, eventType, message).Error(0)
}

var (
	userA = Owner{Namespace: "dev1", Identity: session.Identity{UserID: 7, Email: "a@example.com"}, Token: "tok-a"}
	userB = Owner{Namespace: "dev1", Identity: session.Identity{UserID: 8, Email: "b@example.com"}, Token: "tok-b"}
)

func created(id int64) func(context.Context, clients.CreateOrderRequest) (*clients.OrderResult, error) {
	return func(context.Context, clients.CreateOrderRequest) (*clients.OrderResult, error) {
		return &clients.OrderResult{OrderID: id}, nil
	}
}

func setup(t *testing.T, api *fakeOrderAPI, opts ...Option) (*Policy, *store.MemoryStore) {
	t.Helper()
	kv := store.NewMemoryStore()
	return New(api, kv, cart.NewHub(), nil, opts...), kv
}

func seedDraft(t *testing.T, kv store.Store, owner Owner, orderID int64) {
	t.Helper()
	drafts := cart.NewDraftTracker(store.ForDevice(kv, owner.Namespace), nil)
	require.NoError(t, drafts.SetHandle(context.Background(), owner.Identity.Key(), orderID))
}

func requireState(t *testing.T, p *Policy, owner Owner, want State, orderID int64) {
	t.Helper()
	state, handle, err := p.State(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, want, state)
	if want == HasDraft {
		require.NotNil(t, handle)
		assert.Equal(t, orderID, handle.OrderID)
	} else {
		assert.Nil(t, handle)
	}
}

// statusOf is the HTTP status an application error maps to, 0 otherwise.
func statusOf(err error) int {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return 0
}

func TestNormalizeQuantity(t *testing.T) {
	cases := map[float64]int{
		2:            2,
		2.9:          2,
		1:            1,
		0.5:          1,
		0:            1,
		-3:           1,
		math.NaN():   1,
		math.Inf(1):  1,
		math.Inf(-1): 1,
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeQuantity(in), "%v", in)
	}
}

func TestClassification(t *testing.T) {
	apiErr := func(status int, msg string) error {
		return &clients.APIError{Status: status, Message: msg}
	}
	cases := []struct {
		err          error
		stale, close bool
	}{
		{apiErr(404, "order not found"), true, false},
		{apiErr(410, "gone"), true, false},
		{apiErr(400, "Draft order expired"), true, false},
		{apiErr(400, "Order already confirmed"), true, false},
		{apiErr(400, "quantity must be positive"), false, false},
		{apiErr(400, `{"errorCode":"DRAFT_EXPIRED"}`), true, false},
		{apiErr(400, "Gift already has a winner"), false, true},
		{apiErr(404, "Gift was drawn, order closed"), false, true},
		{apiErr(500, "order store down"), false, false},
		{errors.New("connection refused"), false, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.stale, IsStaleDraft(tc.err), tc.err.Error())
		assert.Equal(t, tc.close, IsRaffleClosed(tc.err), tc.err.Error())
	}
}

// Scenario A
func TestConfirm_EmptyCartMakesNoCall(t *testing.T) {
	api := &fakeOrderAPI{}
	p, _ := setup(t, api)

	_, err := p.Confirm(context.Background(), userA)
	assert.ErrorIs(t, err, apperrors.ErrEmptyCart)
	assert.Empty(t, api.Calls())
}

// Scenario B
func TestAddToCart_NoDraftCreatesDraft(t *testing.T) {
	var token string
	api := &fakeOrderAPI{CreateOrderFn: func(ctx context.Context, req clients.CreateOrderRequest) (*clients.OrderResult, error) {
		token = clients.TokenFrom(ctx)
		return &clients.OrderResult{OrderID: 101}, nil
	}}
	p, _ := setup(t, api)

	lines, err := p.AddToCart(context.Background(), userA, 7, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, []cart.Line{{GiftID: 7, Quantity: 2}}, lines)
	requireState(t, p, userA, HasDraft, 101)

	require.Len(t, api.requests, 1)
	assert.Equal(t, clients.CreateOrderRequest{
		UserID:     7,
		IsDraft:    true,
		OrderItems: []clients.OrderItem{{GiftID: 7, Quantity: 2}},
	}, api.requests[0])
	assert.Equal(t, "tok-a", token)
}

func TestAddToCart_CreateUsesIDFallback(t *testing.T) {
	api := &fakeOrderAPI{CreateOrderFn: func(context.Context, clients.CreateOrderRequest) (*clients.OrderResult, error) {
		return &clients.OrderResult{ID: 55}, nil
	}}
	p, _ := setup(t, api)

	_, err := p.AddToCart(context.Background(), userA, 1, 1, nil)
	require.NoError(t, err)
	requireState(t, p, userA, HasDraft, 55)
}

func TestAddToCart_CreateFailureStaysNoDraft(t *testing.T) {
	api := &fakeOrderAPI{CreateOrderFn: func(context.Context, clients.CreateOrderRequest) (*clients.OrderResult, error) {
		return nil, &clients.APIError{Status: 400, Message: "quantity too high"}
	}}
	p, _ := setup(t, api)

	_, err := p.AddToCart(context.Background(), userA, 1, 1, nil)
	apiErr, ok := clients.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "quantity too high", apiErr.Message)
	requireState(t, p, userA, NoDraft, 0)

	lines, err := p.Lines(context.Background(), userA)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

// Scenario C
func TestAddToCart_HasDraftAppends(t *testing.T) {
	var appendedTo int64
	api := &fakeOrderAPI{
		CreateOrderFn: created(101),
		AddItemFn: func(_ context.Context, orderID int64, item clients.OrderItem) error {
			appendedTo = orderID
			assert.Equal(t, clients.OrderItem{GiftID: 7, Quantity: 1}, item)
			return nil
		},
	}
	p, _ := setup(t, api)
	ctx := context.Background()

	_, err := p.AddToCart(ctx, userA, 7, 2, nil)
	require.NoError(t, err)
	lines, err := p.AddToCart(ctx, userA, 7, 1, nil)
	require.NoError(t, err)

	assert.Equal(t, []cart.Line{{GiftID: 7, Quantity: 3}}, lines)
	assert.Equal(t, int64(101), appendedTo)
	assert.Equal(t, []string{"create", "add"}, api.Calls())
	requireState(t, p, userA, HasDraft, 101)
}

// Scenario D
func TestAddToCart_StaleDraftRetriesOnce(t *testing.T) {
	metrics := &mockMetrics{}
	metrics.On("RecordCount", awspkg.MetricStaleDraftRetries).Return(nil).Once()

	api := &fakeOrderAPI{
		CreateOrderFn: created(102),
		AddItemFn: func(context.Context, int64, clients.OrderItem) error {
			return &clients.APIError{Status: http.StatusNotFound, Message: "order not found"}
		},
	}
	p, kv := setup(t, api, WithMetrics(metrics))
	seedDraft(t, kv, userA, 101)

	lines, err := p.AddToCart(context.Background(), userA, 7, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, []cart.Line{{GiftID: 7, Quantity: 1}}, lines)
	assert.Equal(t, []string{"add", "create"}, api.Calls())
	requireState(t, p, userA, HasDraft, 102)
	metrics.AssertExpectations(t)
}

func TestAddToCart_StaleDraftRetryFailureLeavesNoDraft(t *testing.T) {
	api := &fakeOrderAPI{
		CreateOrderFn: func(context.Context, clients.CreateOrderRequest) (*clients.OrderResult, error) {
			return nil, &clients.APIError{Status: 503, Message: "unavailable"}
		},
		AddItemFn: func(context.Context, int64, clients.OrderItem) error {
			return &clients.APIError{Status: 400, Message: "Draft expired"}
		},
	}
	p, kv := setup(t, api)
	seedDraft(t, kv, userA, 101)

	_, err := p.AddToCart(context.Background(), userA, 7, 1, nil)
	apiErr, ok := clients.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, 503, apiErr.Status)
	assert.Equal(t, []string{"add", "create"}, api.Calls())
	requireState(t, p, userA, NoDraft, 0)
}

// Scenario E
func TestAddToCart_RaffleClosedNoRetry(t *testing.T) {
	metrics := &mockMetrics{}
	metrics.On("RecordCount", awspkg.MetricRaffleClosedRejections).Return(errors.New("ignored")).Once()

	closed := &clients.APIError{Status: 400, Message: "Gift already has a winner"}
	api := &fakeOrderAPI{
		AddItemFn: func(context.Context, int64, clients.OrderItem) error { return closed },
	}
	p, kv := setup(t, api, WithMetrics(metrics))
	seedDraft(t, kv, userA, 101)

	_, err := p.AddToCart(context.Background(), userA, 7, 1, nil)
	assert.Same(t, closed, err)
	assert.Equal(t, []string{"add"}, api.Calls())
	requireState(t, p, userA, HasDraft, 101)
	metrics.AssertExpectations(t)
}

func TestAddToCart_OtherFailureKeepsState(t *testing.T) {
	api := &fakeOrderAPI{
		AddItemFn: func(context.Context, int64, clients.OrderItem) error {
			return &clients.APIError{Status: 500, Message: "boom"}
		},
	}
	p, kv := setup(t, api)
	seedDraft(t, kv, userA, 101)

	_, err := p.AddToCart(context.Background(), userA, 7, 1, nil)
	require.Error(t, err)
	assert.Equal(t, []string{"add"}, api.Calls())
	requireState(t, p, userA, HasDraft, 101)
}

// Scenario F
func TestLogout_ClearsOnlyThatIdentity(t *testing.T) {
	ids := map[int64]int64{7: 101, 8: 201}
	api := &fakeOrderAPI{CreateOrderFn: func(_ context.Context, req clients.CreateOrderRequest) (*clients.OrderResult, error) {
		return &clients.OrderResult{OrderID: ids[req.UserID]}, nil
	}}
	p, _ := setup(t, api)
	ctx := context.Background()

	_, err := p.AddToCart(ctx, userA, 1, 1, nil)
	require.NoError(t, err)
	_, err = p.AddToCart(ctx, userB, 2, 4, nil)
	require.NoError(t, err)

	require.NoError(t, p.Logout(ctx, userA))

	requireState(t, p, userA, NoDraft, 0)
	linesA, err := p.Lines(ctx, userA)
	require.NoError(t, err)
	assert.Empty(t, linesA)

	requireState(t, p, userB, HasDraft, 201)
	linesB, err := p.Lines(ctx, userB)
	require.NoError(t, err)
	assert.Equal(t, []cart.Line{{GiftID: 2, Quantity: 4}}, linesB)
}

func TestLogout_AnonymousIsNoop(t *testing.T) {
	p, _ := setup(t, &fakeOrderAPI{})
	assert.NoError(t, p.Logout(context.Background(), Owner{Namespace: "dev1"}))
}

func TestConfirm_HasDraft(t *testing.T) {
	metrics := &mockMetrics{}
	metrics.On("RecordCount", awspkg.MetricCartCheckouts).Return(nil).Once()
	pub := &mockPublisher{}
	pub.On("Publish", "arn:orders", "order.confirmed", mock.MatchedBy(func(msg []byte) bool {
		var ev OrderConfirmedEvent
		return json.Unmarshal(msg, &ev) == nil &&
			ev.EventType == "order.confirmed" && ev.OrderID == 101 && ev.FromDraft && len(ev.Items) == 1
	})).Return(nil).Once()

	var confirmed int64
	api := &fakeOrderAPI{
		CreateOrderFn: created(101),
		ConfirmOrderFn: func(_ context.Context, orderID int64) error {
			confirmed = orderID
			return nil
		},
	}
	p, _ := setup(t, api, WithMetrics(metrics), WithEvents(pub, "arn:orders"))
	ctx := context.Background()

	_, err := p.AddToCart(ctx, userA, 7, 2, nil)
	require.NoError(t, err)
	conf, err := p.Confirm(ctx, userA)
	require.NoError(t, err)

	assert.Equal(t, int64(101), confirmed)
	assert.Equal(t, int64(101), conf.OrderID)
	assert.True(t, conf.FromDraft)
	requireState(t, p, userA, NoDraft, 0)
	lines, err := p.Lines(ctx, userA)
	require.NoError(t, err)
	assert.Empty(t, lines)
	metrics.AssertExpectations(t)
	pub.AssertExpectations(t)
}

// brokenWrites fails every Set and Delete once broken is set.
type brokenWrites struct {
	store.Store
	broken atomic.Bool
}

func (b *brokenWrites) Set(ctx context.Context, key, value string) error {
	if b.broken.Load() {
		return errors.New("disk full")
	}
	return b.Store.Set(ctx, key, value)
}

func (b *brokenWrites) Delete(ctx context.Context, key string) error {
	if b.broken.Load() {
		return errors.New("disk full")
	}
	return b.Store.Delete(ctx, key)
}

func TestConfirm_LocalClearFailureStillConfirms(t *testing.T) {
	metrics := &mockMetrics{}
	metrics.On("RecordCount", awspkg.MetricCartCheckouts).Return(nil).Once()
	pub := &mockPublisher{}
	pub.On("Publish", "arn:orders", "order.confirmed", mock.Anything).Return(nil).Once()

	kv := &brokenWrites{Store: store.NewMemoryStore()}
	api := &fakeOrderAPI{
		CreateOrderFn: created(101),
		ConfirmOrderFn: func(context.Context, int64) error {
			kv.broken.Store(true)
			return nil
		},
	}
	p := New(api, kv, cart.NewHub(), nil, WithMetrics(metrics), WithEvents(pub, "arn:orders"))
	ctx := context.Background()

	_, err := p.AddToCart(ctx, userA, 7, 2, nil)
	require.NoError(t, err)
	conf, err := p.Confirm(ctx, userA)
	require.NoError(t, err)
	require.NotNil(t, conf)
	assert.Equal(t, int64(101), conf.OrderID)
	assert.True(t, conf.FromDraft)
	assert.Equal(t, []string{"create", "confirm"}, api.Calls())
	metrics.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestConfirm_HasDraftFailureKeepsState(t *testing.T) {
	api := &fakeOrderAPI{
		CreateOrderFn: created(101),
		ConfirmOrderFn: func(context.Context, int64) error {
			return &clients.APIError{Status: 400, Message: "Order already confirmed"}
		},
	}
	p, _ := setup(t, api)
	ctx := context.Background()

	_, err := p.AddToCart(ctx, userA, 7, 2, nil)
	require.NoError(t, err)
	_, err = p.Confirm(ctx, userA)
	require.Error(t, err)

	requireState(t, p, userA, HasDraft, 101)
	lines, err := p.Lines(ctx, userA)
	require.NoError(t, err)
	assert.Len(t, lines, 1)
}

func TestConfirm_LegacyLinesWithoutDraft(t *testing.T) {
	pub := &mockPublisher{}
	pub.On("Publish", "arn:orders", "order.confirmed", mock.Anything).Return(errors.New("sns down")).Once()

	api := &fakeOrderAPI{CreateOrderFn: created(300)}
	p, kv := setup(t, api, WithEvents(pub, "arn:orders"))
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, "device:dev1:cart", `[{"giftId":4,"quantity":2},{"giftId":5,"quantity":1}]`))

	conf, err := p.Confirm(ctx, userA)
	require.NoError(t, err)
	assert.Equal(t, int64(300), conf.OrderID)
	assert.False(t, conf.FromDraft)

	require.Len(t, api.requests, 1)
	assert.False(t, api.requests[0].IsDraft)
	assert.Equal(t, []clients.OrderItem{{GiftID: 4, Quantity: 2}, {GiftID: 5, Quantity: 1}}, api.requests[0].OrderItems)

	lines, err := p.Lines(ctx, userA)
	require.NoError(t, err)
	assert.Empty(t, lines)
	pub.AssertExpectations(t)
}

func TestConfirm_LegacyFailureKeepsLines(t *testing.T) {
	api := &fakeOrderAPI{CreateOrderFn: func(context.Context, clients.CreateOrderRequest) (*clients.OrderResult, error) {
		return nil, errors.New("timeout")
	}}
	p, kv := setup(t, api)
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, "device:dev1:cart_7", `[{"giftId":4,"quantity":2}]`))

	_, err := p.Confirm(ctx, userA)
	require.Error(t, err)
	lines, err := p.Lines(ctx, userA)
	require.NoError(t, err)
	assert.Len(t, lines, 1)
}

func TestOperationsRequireIdentity(t *testing.T) {
	api := &fakeOrderAPI{}
	p, _ := setup(t, api)
	anon := Owner{Namespace: "dev1"}
	ctx := context.Background()

	_, err := p.AddToCart(ctx, anon, 1, 1, nil)
	assert.ErrorIs(t, err, apperrors.ErrAuthRequired)
	_, err = p.Confirm(ctx, anon)
	assert.ErrorIs(t, err, apperrors.ErrAuthRequired)
	_, err = p.RemoveFromCart(ctx, anon, 1)
	assert.ErrorIs(t, err, apperrors.ErrAuthRequired)
	assert.Empty(t, api.Calls())
}

func TestAddToCart_InvalidGift(t *testing.T) {
	api := &fakeOrderAPI{}
	p, _ := setup(t, api)

	_, err := p.AddToCart(context.Background(), userA, 0, 1, nil)
	assert.Equal(t, http.StatusBadRequest, statusOf(err))
	assert.Empty(t, api.Calls())
}

func TestRemoveAndClear(t *testing.T) {
	api := &fakeOrderAPI{CreateOrderFn: created(101), AddItemFn: func(context.Context, int64, clients.OrderItem) error { return nil }}
	p, _ := setup(t, api)
	ctx := context.Background()

	_, err := p.AddToCart(ctx, userA, 1, 1, nil)
	require.NoError(t, err)
	_, err = p.AddToCart(ctx, userA, 2, 1, nil)
	require.NoError(t, err)

	lines, err := p.RemoveFromCart(ctx, userA, 1)
	require.NoError(t, err)
	assert.Equal(t, []cart.Line{{GiftID: 2, Quantity: 1}}, lines)

	require.NoError(t, p.ClearCart(ctx, userA))
	requireState(t, p, userA, NoDraft, 0)
	lines, err = p.Lines(ctx, userA)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestSubscribe_SeesEveryMutation(t *testing.T) {
	api := &fakeOrderAPI{CreateOrderFn: created(101)}
	p, _ := setup(t, api)
	ctx := context.Background()

	var updates [][]cart.Line
	unsubscribe := p.Subscribe(userA, func(lines []cart.Line) { updates = append(updates, lines) })
	defer unsubscribe()
	otherCalled := false
	defer p.Subscribe(userB, func([]cart.Line) { otherCalled = true })()

	_, err := p.AddToCart(ctx, userA, 3, 1, &cart.Snapshot{Name: "Bike"})
	require.NoError(t, err)
	_, err = p.RemoveFromCart(ctx, userA, 3)
	require.NoError(t, err)

	require.Len(t, updates, 2)
	assert.Equal(t, "Bike", updates[0][0].Gift.Name)
	assert.Empty(t, updates[1])
	assert.False(t, otherCalled)
}

func TestAddToCart_ConcurrentAddsCreateOneDraft(t *testing.T) {
	var creates int32
	release := make(chan struct{})
	api := &fakeOrderAPI{
		CreateOrderFn: func(context.Context, clients.CreateOrderRequest) (*clients.OrderResult, error) {
			atomic.AddInt32(&creates, 1)
			<-release
			return &clients.OrderResult{OrderID: 101}, nil
		},
		AddItemFn: func(context.Context, int64, clients.OrderItem) error { return nil },
	}
	p, _ := setup(t, api)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.AddToCart(ctx, userA, 7, 1, nil)
			assert.NoError(t, err)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&creates))
	assert.Equal(t, []string{"create", "add"}, api.Calls())
	lines, err := p.Lines(ctx, userA)
	require.NoError(t, err)
	assert.Equal(t, []cart.Line{{GiftID: 7, Quantity: 2}}, lines)
	assert.Equal(t, 0, p.locks.size())
}

func TestAddToCart_DifferentIdentitiesRunInParallel(t *testing.T) {
	started := make(chan struct{}, 2)
	release := make(chan struct{})
	api := &fakeOrderAPI{CreateOrderFn: func(context.Context, clients.CreateOrderRequest) (*clients.OrderResult, error) {
		started <- struct{}{}
		<-release
		return &clients.OrderResult{OrderID: 1}, nil
	}}
	p, _ := setup(t, api)

	var wg sync.WaitGroup
	for _, owner := range []Owner{userA, userB} {
		wg.Add(1)
		go func(o Owner) {
			defer wg.Done()
			_, _ = p.AddToCart(context.Background(), o, 1, 1, nil)
		}(owner)
	}
	for i := 0; i < 2; i++ {
		select {
		case <-started:
		case <-time.After(time.Second):
			t.Fatal("identities were serialized")
		}
	}
	close(release)
	wg.Wait()
}

func TestLockHonoursCancellation(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	api := &fakeOrderAPI{CreateOrderFn: func(context.Context, clients.CreateOrderRequest) (*clients.OrderResult, error) {
		close(entered)
		<-release
		return &clients.OrderResult{OrderID: 1}, nil
	}}
	p, _ := setup(t, api)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = p.AddToCart(context.Background(), userA, 1, 1, nil)
	}()
	<-entered

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := p.AddToCart(ctx, userA, 1, 1, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	<-done
}
