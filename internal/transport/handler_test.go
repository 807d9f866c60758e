package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"milkdirect-be/internal/assistant"
	"milkdirect-be/internal/auth"
	"milkdirect-be/internal/cart"
	"milkdirect-be/internal/order"
	"milkdirect-be/internal/predictor"
	"milkdirect-be/internal/seller"
	"milkdirect-be/internal/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- service mocks ---

type MockUserService struct{ mock.Mock }

func (m *MockUserService) Register(ctx context.Context, email, password string) (string, user.User, error) {
	args := m.Called(ctx, email, password)
	return args.String(0), args.Get(1).(user.User), args.Error(2)
}

func (m *MockUserService) Login(ctx context.Context, email, password string) (string, user.User, error) {
	args := m.Called(ctx, email, password)
	return args.String(0), args.Get(1).(user.User), args.Error(2)
}

func (m *MockUserService) GetProfile(ctx context.Context, session auth.Session) (*user.Profile, error) {
	args := m.Called(ctx, session)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.Profile), args.Error(1)
}

func (m *MockUserService) UpdateProfile(ctx context.Context, session auth.Session, params user.UpdateProfileParams) (*user.Profile, error) {
	args := m.Called(ctx, session, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.Profile), args.Error(1)
}

type MockSellerService struct{ mock.Mock }

func (m *MockSellerService) ListSellers(ctx context.Context) ([]seller.Seller, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]seller.Seller), args.Error(1)
}

func (m *MockSellerService) GetSeller(ctx context.Context, id int) (*seller.Seller, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*seller.Seller), args.Error(1)
}

func (m *MockSellerService) UpdateTelemetry(ctx context.Context, id int, t seller.Telemetry) error {
	args := m.Called(ctx, id, t)
	return args.Error(0)
}

type MockCartService struct{ mock.Mock }

func (m *MockCartService) AddItem(ctx context.Context, session auth.Session, params cart.AddItemParams) (*cart.CartItem, error) {
	args := m.Called(ctx, session, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.CartItem), args.Error(1)
}

func (m *MockCartService) GetCart(ctx context.Context, session auth.Session) ([]cart.CartItem, error) {
	args := m.Called(ctx, session)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]cart.CartItem), args.Error(1)
}

func (m *MockCartService) UpdateQuantity(ctx context.Context, session auth.Session, itemID string, quantity int) error {
	args := m.Called(ctx, session, itemID, quantity)
	return args.Error(0)
}

func (m *MockCartService) RemoveItem(ctx context.Context, session auth.Session, itemID string) error {
	args := m.Called(ctx, session, itemID)
	return args.Error(0)
}

func (m *MockCartService) Clear(ctx context.Context, session auth.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

type MockOrderService struct{ mock.Mock }

func (m *MockOrderService) Checkout(ctx context.Context, session auth.Session) ([]order.Order, error) {
	args := m.Called(ctx, session)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderService) ListOrders(ctx context.Context, session auth.Session) ([]order.Order, error) {
	args := m.Called(ctx, session)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderService) UpdateOrderStatus(ctx context.Context, session auth.Session, orderID string, status order.OrderStatus) error {
	args := m.Called(ctx, session, orderID, status)
	return args.Error(0)
}

func (m *MockOrderService) CartSummary(ctx context.Context, session auth.Session) (*order.Summary, error) {
	args := m.Called(ctx, session)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Summary), args.Error(1)
}

type fixture struct {
	users   *MockUserService
	sellers *MockSellerService
	carts   *MockCartService
	orders  *MockOrderService
	router  http.Handler
}

// addrCounter hands every test request its own client address so the
// IP-keyed rate limiter never throttles across tests.
var addrCounter uint32

func newFixture(chat *assistant.Client) *fixture {
	f := &fixture{
		users:   new(MockUserService),
		sellers: new(MockSellerService),
		carts:   new(MockCartService),
		orders:  new(MockOrderService),
	}
	h := NewHandler(f.users, f.sellers, f.carts, f.orders, predictor.NewModel(), chat)

	router := NewRouter(h)
	f.router = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddUint32(&addrCounter, 1)
		r.RemoteAddr = fmt.Sprintf("10.9.%d.%d:5555", (n>>8)&0xff, n&0xff)
		router.ServeHTTP(w, r)
	})
	return f
}

func authedRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	t.Setenv("JWT_SECRET", "transport-test-secret")

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)

	token, err := auth.GenerateJWT(1, string(auth.RoleUser), "buyer@milk.test")
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func testSession() auth.Session {
	return auth.Session{UserID: 1, Email: "buyer@milk.test", Role: auth.RoleUser}
}

func TestHealth(t *testing.T) {
	f := newFixture(nil)

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestAuthEndpoints(t *testing.T) {
	t.Run("Register Success", func(t *testing.T) {
		f := newFixture(nil)
		f.users.On("Register", mock.Anything, "new@milk.test", "secret123").
			Return("tok123", user.User{ID: 5, Email: "new@milk.test", Role: "user"}, nil)

		body, _ := json.Marshal(map[string]string{"email": "new@milk.test", "password": "secret123"})
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, httptest.NewRequest("POST", "/api/v1/auth/register", bytes.NewReader(body)))

		assert.Equal(t, http.StatusCreated, w.Code)

		var resp authResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "tok123", resp.Token)
		assert.Equal(t, 5, resp.User.ID)

		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "access_token", cookies[0].Name)
		assert.Equal(t, "tok123", cookies[0].Value)
	})

	t.Run("Register Conflict", func(t *testing.T) {
		f := newFixture(nil)
		f.users.On("Register", mock.Anything, "dup@milk.test", "secret123").
			Return("", user.User{}, user.ErrEmailExists)

		body, _ := json.Marshal(map[string]string{"email": "dup@milk.test", "password": "secret123"})
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, httptest.NewRequest("POST", "/api/v1/auth/register", bytes.NewReader(body)))

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("Login Invalid Credentials", func(t *testing.T) {
		f := newFixture(nil)
		f.users.On("Login", mock.Anything, "a@b.c", "wrong").
			Return("", user.User{}, user.ErrInvalidCredentials)

		body, _ := json.Marshal(map[string]string{"email": "a@b.c", "password": "wrong"})
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, httptest.NewRequest("POST", "/api/v1/auth/login", bytes.NewReader(body)))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Logout clears cookie", func(t *testing.T) {
		f := newFixture(nil)

		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, httptest.NewRequest("POST", "/api/v1/auth/logout", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, -1, cookies[0].MaxAge)
	})

	t.Run("Me requires session", func(t *testing.T) {
		f := newFixture(nil)

		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/me", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Me with session", func(t *testing.T) {
		f := newFixture(nil)

		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, authedRequest(t, "GET", "/api/v1/me", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "buyer@milk.test")
	})
}

func TestCartEndpoints(t *testing.T) {
	t.Run("GetCart", func(t *testing.T) {
		f := newFixture(nil)
		items := []cart.CartItem{
			{ID: "c1", SellerID: 1, SellerName: "Green Valley Farm", MilkType: "Cow Milk", Price: 55, Quantity: 2},
		}
		f.carts.On("GetCart", mock.Anything, testSession()).Return(items, nil)

		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, authedRequest(t, "GET", "/api/v1/cart", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Items  []cart.CartItem `json:"items"`
			Totals cart.Totals     `json:"totals"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Len(t, resp.Items, 1)
		assert.Equal(t, 2, resp.Totals.Items)
		assert.Equal(t, 110.0, resp.Totals.Price)
	})

	t.Run("GetCart degrades to empty on read failure", func(t *testing.T) {
		f := newFixture(nil)
		f.carts.On("GetCart", mock.Anything, testSession()).
			Return(nil, cart.ErrFailedGetCart)

		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, authedRequest(t, "GET", "/api/v1/cart", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Items  []cart.CartItem `json:"items"`
			Totals cart.Totals     `json:"totals"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Empty(t, resp.Items)
		assert.Equal(t, 0, resp.Totals.Items)
	})

	t.Run("AddItem", func(t *testing.T) {
		f := newFixture(nil)
		params := cart.AddItemParams{SellerID: 2, SellerName: "Sundar A2 Farms", MilkType: "A2 Milk", Price: 85}
		f.carts.On("AddItem", mock.Anything, testSession(), params).
			Return(&cart.CartItem{ID: "c2", SellerID: 2, Quantity: 1, Price: 85}, nil)

		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, authedRequest(t, "POST", "/api/v1/cart/items", map[string]any{
			"seller_id": 2, "seller_name": "Sundar A2 Farms", "milk_type": "A2 Milk", "price": 85,
		}))

		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("UpdateItem NotFound", func(t *testing.T) {
		f := newFixture(nil)
		f.carts.On("UpdateQuantity", mock.Anything, testSession(), "missing", 3).
			Return(cart.ErrCartItemNotFound)

		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, authedRequest(t, "PUT", "/api/v1/cart/items/missing", map[string]int{"quantity": 3}))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Unauthenticated mutation", func(t *testing.T) {
		f := newFixture(nil)

		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, httptest.NewRequest("DELETE", "/api/v1/cart", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		f.carts.AssertNotCalled(t, "Clear")
	})
}

func TestOrderEndpoints(t *testing.T) {
	t.Run("Checkout Success", func(t *testing.T) {
		f := newFixture(nil)
		created := []order.Order{
			{ID: "o1", Status: order.StatusPending, Total: 110},
			{ID: "o2", Status: order.StatusPending, Total: 85},
		}
		f.orders.On("Checkout", mock.Anything, testSession()).Return(created, nil)

		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, authedRequest(t, "POST", "/api/v1/cart/checkout", nil))

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.NotContains(t, w.Body.String(), "warning")
	})

	t.Run("Checkout EmptyCart", func(t *testing.T) {
		f := newFixture(nil)
		f.orders.On("Checkout", mock.Anything, testSession()).Return(nil, order.ErrCartEmpty)

		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, authedRequest(t, "POST", "/api/v1/cart/checkout", nil))

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("Checkout clear failure still returns orders", func(t *testing.T) {
		f := newFixture(nil)
		created := []order.Order{{ID: "o1", Status: order.StatusPending, Total: 110}}
		f.orders.On("Checkout", mock.Anything, testSession()).Return(created, order.ErrFailedClearCart)

		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, authedRequest(t, "POST", "/api/v1/cart/checkout", nil))

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), "warning")
		assert.Contains(t, w.Body.String(), "o1")
	})

	t.Run("ListOrders empty", func(t *testing.T) {
		f := newFixture(nil)
		f.orders.On("ListOrders", mock.Anything, testSession()).Return(nil, nil)

		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, authedRequest(t, "GET", "/api/v1/orders", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"orders":[]}`, w.Body.String())
	})

	t.Run("UpdateStatus invalid", func(t *testing.T) {
		f := newFixture(nil)
		f.orders.On("UpdateOrderStatus", mock.Anything, testSession(), "o1", order.OrderStatus("teleported")).
			Return(order.ErrInvalidStatus)

		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, authedRequest(t, "PATCH", "/api/v1/orders/o1/status", map[string]string{"status": "teleported"}))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("UpdateStatus forbidden", func(t *testing.T) {
		f := newFixture(nil)
		f.orders.On("UpdateOrderStatus", mock.Anything, testSession(), "o1", order.StatusDelivered).
			Return(order.ErrForbidden)

		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, authedRequest(t, "PATCH", "/api/v1/orders/o1/status", map[string]string{"status": "delivered"}))

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("Summary", func(t *testing.T) {
		f := newFixture(nil)
		f.orders.On("CartSummary", mock.Anything, testSession()).
			Return(&order.Summary{Subtotal: 195, Savings: 39, DeliveryFee: 30, Total: 186}, nil)

		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, authedRequest(t, "GET", "/api/v1/cart/summary", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"subtotal":195,"savings":39,"delivery_fee":30,"total":186}`, w.Body.String())
	})
}

func TestSellerEndpoints(t *testing.T) {
	t.Run("List", func(t *testing.T) {
		f := newFixture(nil)
		f.sellers.On("ListSellers", mock.Anything).Return([]seller.Seller{
			{ID: 1, Name: "Green Valley Farm", Price: 55},
		}, nil)

		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/sellers", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Green Valley Farm")
	})

	t.Run("Get NotFound", func(t *testing.T) {
		f := newFixture(nil)
		f.sellers.On("GetSeller", mock.Anything, 99).Return(nil, seller.ErrSellerNotFound)

		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/sellers/99", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Telemetry requires admin", func(t *testing.T) {
		f := newFixture(nil)

		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, authedRequest(t, "PUT", "/api/v1/sellers/1/telemetry", map[string]any{"temp_celsius": 4.2}))

		assert.Equal(t, http.StatusForbidden, w.Code)
		f.sellers.AssertNotCalled(t, "UpdateTelemetry")
	})
}

func TestPredictEndpoint(t *testing.T) {
	f := newFixture(nil)

	t.Run("Success", func(t *testing.T) {
		body, _ := json.Marshal(map[string]any{"milk_type": "a2", "quantity": 5, "season": "winter"})
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, httptest.NewRequest("POST", "/api/v1/predict", bytes.NewReader(body)))

		assert.Equal(t, http.StatusOK, w.Code)
		var p predictor.Prediction
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
		assert.Greater(t, p.Price, 0.0)
		assert.NotEmpty(t, p.Factors)
	})

	t.Run("InvalidQuantity", func(t *testing.T) {
		body, _ := json.Marshal(map[string]any{"milk_type": "cow", "quantity": 0})
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, httptest.NewRequest("POST", "/api/v1/predict", bytes.NewReader(body)))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestStatusFor_Default(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("boom")))
	assert.Equal(t, http.StatusBadGateway, statusFor(assistant.ErrGatewayUnavailable))
}

// The limiter must see the resolved session, so the same user is throttled
// across distinct client addresses. Uses the chat tier (smallest burst).
func TestRateLimitKeysOnSessionUser(t *testing.T) {
	t.Setenv("JWT_SECRET", "transport-test-secret")

	f := newFixture(assistant.NewClient("", ""))

	token, err := auth.GenerateJWT(4242, "user", "heavy@milk.test")
	require.NoError(t, err)

	var codes []int
	for i := 0; i < 4; i++ {
		body, _ := json.Marshal(map[string]any{
			"messages": []map[string]string{{"role": "user", "content": "hi"}},
		})
		req := httptest.NewRequest("POST", "/api/v1/chat/stream", bytes.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+token)

		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	// Burst of 3, then throttled even though every request came from a
	// different address.
	assert.Equal(t, http.StatusOK, codes[0])
	assert.Equal(t, http.StatusOK, codes[1])
	assert.Equal(t, http.StatusOK, codes[2])
	assert.Equal(t, http.StatusTooManyRequests, codes[3])
}
