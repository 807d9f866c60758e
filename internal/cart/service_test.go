package cart

import (
	"context"
	"errors"
	"testing"

	"milkdirect-be/internal/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetCartItems(ctx context.Context, userID uint) ([]CartItem, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]CartItem), args.Error(1)
}

func (m *MockRepository) GetBySeller(ctx context.Context, userID uint, sellerID int) (*CartItem, error) {
	args := m.Called(ctx, userID, sellerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*CartItem), args.Error(1)
}

func (m *MockRepository) CreateCartItem(ctx context.Context, params CreateCartItemParams) (*CartItem, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*CartItem), args.Error(1)
}

func (m *MockRepository) UpdateQuantity(ctx context.Context, userID uint, itemID string, quantity int) error {
	args := m.Called(ctx, userID, itemID, quantity)
	return args.Error(0)
}

func (m *MockRepository) DeleteItem(ctx context.Context, userID uint, itemID string) error {
	args := m.Called(ctx, userID, itemID)
	return args.Error(0)
}

func (m *MockRepository) ClearCart(ctx context.Context, userID uint) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

var testSession = auth.Session{UserID: 1, Email: "buyer@example.com", Role: auth.RoleUser}

func TestService_AddItem(t *testing.T) {
	ctx := context.Background()

	params := AddItemParams{
		SellerID:   1,
		SellerName: "Green Valley Farm",
		MilkType:   "Organic Whole Milk",
		Price:      65,
	}

	t.Run("NewLine", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo)

		repo.On("GetBySeller", ctx, uint(1), 1).Return(nil, nil)
		repo.On("CreateCartItem", ctx, CreateCartItemParams{
			UserID:     1,
			SellerID:   1,
			SellerName: "Green Valley Farm",
			MilkType:   "Organic Whole Milk",
			Price:      65,
			Quantity:   1,
		}).Return(&CartItem{ID: "line-1", UserID: 1, SellerID: 1, Quantity: 1, Price: 65}, nil)

		item, err := svc.AddItem(ctx, testSession, params)
		assert.NoError(t, err)
		assert.Equal(t, 1, item.Quantity)
		repo.AssertExpectations(t)
	})

	t.Run("MergeOnSameSeller", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo)

		repo.On("GetBySeller", ctx, uint(1), 1).
			Return(&CartItem{ID: "line-1", UserID: 1, SellerID: 1, Quantity: 1, Price: 65}, nil)
		repo.On("UpdateQuantity", ctx, uint(1), "line-1", 2).Return(nil)

		item, err := svc.AddItem(ctx, testSession, params)
		assert.NoError(t, err)
		assert.Equal(t, 2, item.Quantity)
		repo.AssertNotCalled(t, "CreateCartItem")
	})

	t.Run("MergeIgnoresMilkType", func(t *testing.T) {
		// Identity is keyed on the seller, not seller+milk type: adding a
		// different milk type from the same seller still merges.
		repo := new(MockRepository)
		svc := NewService(repo)

		repo.On("GetBySeller", ctx, uint(1), 1).
			Return(&CartItem{ID: "line-1", UserID: 1, SellerID: 1, MilkType: "Organic Whole Milk", Quantity: 2}, nil)
		repo.On("UpdateQuantity", ctx, uint(1), "line-1", 3).Return(nil)

		other := params
		other.MilkType = "Buffalo Milk"
		item, err := svc.AddItem(ctx, testSession, other)
		assert.NoError(t, err)
		assert.Equal(t, 3, item.Quantity)
		assert.Equal(t, "Organic Whole Milk", item.MilkType)
	})

	t.Run("Unauthenticated", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo)

		_, err := svc.AddItem(ctx, auth.Session{}, params)
		assert.ErrorIs(t, err, auth.ErrUnauthenticated)
		repo.AssertNotCalled(t, "GetBySeller")
		repo.AssertNotCalled(t, "CreateCartItem")
	})

	t.Run("RepoError", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo)

		repo.On("GetBySeller", ctx, uint(1), 1).Return(nil, errors.New("db error"))

		_, err := svc.AddItem(ctx, testSession, params)
		assert.Error(t, err)
	})
}

func TestService_AddItem_DistinctSellers(t *testing.T) {
	// A sequence of adds with distinct seller ids yields one line per call,
	// each with quantity 1.
	ctx := context.Background()
	repo := new(MockRepository)
	svc := NewService(repo)

	sellers := []AddItemParams{
		{SellerID: 1, SellerName: "Green Valley Farm", MilkType: "Organic Whole Milk", Price: 65},
		{SellerID: 2, SellerName: "Krishna Dairy", MilkType: "Buffalo Milk", Price: 70},
		{SellerID: 3, SellerName: "Sundar A2 Farms", MilkType: "A2 Desi Cow Milk", Price: 85},
	}

	lines := make([]CartItem, 0, len(sellers))
	for i, p := range sellers {
		repo.On("GetBySeller", ctx, uint(1), p.SellerID).Return(nil, nil)
		created := &CartItem{
			ID:       string(rune('a' + i)),
			UserID:   1,
			SellerID: p.SellerID,
			Price:    p.Price,
			Quantity: 1,
		}
		repo.On("CreateCartItem", ctx, mock.MatchedBy(func(c CreateCartItemParams) bool {
			return c.SellerID == p.SellerID
		})).Return(created, nil)

		item, err := svc.AddItem(ctx, testSession, p)
		assert.NoError(t, err)
		assert.Equal(t, 1, item.Quantity)
		lines = append(lines, *item)
	}

	totals := ComputeTotals(lines)
	assert.Equal(t, len(sellers), totals.Items)
	assert.InDelta(t, 65+70+85, totals.Price, 0.001)
}

func TestService_UpdateQuantity(t *testing.T) {
	ctx := context.Background()

	t.Run("Persist", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo)

		repo.On("UpdateQuantity", ctx, uint(1), "line-1", 5).Return(nil)

		err := svc.UpdateQuantity(ctx, testSession, "line-1", 5)
		assert.NoError(t, err)
	})

	t.Run("ZeroRemoves", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo)

		repo.On("DeleteItem", ctx, uint(1), "line-1").Return(nil)

		err := svc.UpdateQuantity(ctx, testSession, "line-1", 0)
		assert.NoError(t, err)
		repo.AssertNotCalled(t, "UpdateQuantity")
	})

	t.Run("NegativeRemoves", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo)

		repo.On("DeleteItem", ctx, uint(1), "line-1").Return(nil)

		err := svc.UpdateQuantity(ctx, testSession, "line-1", -3)
		assert.NoError(t, err)
	})

	t.Run("Unauthenticated", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo)

		err := svc.UpdateQuantity(ctx, auth.Session{}, "line-1", 2)
		assert.ErrorIs(t, err, auth.ErrUnauthenticated)
	})
}

func TestService_RemoveItem(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo)

		repo.On("DeleteItem", ctx, uint(1), "line-1").Return(nil)

		err := svc.RemoveItem(ctx, testSession, "line-1")
		assert.NoError(t, err)
	})

	t.Run("AbsentLineIsNoError", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo)

		// Repository delete is idempotent, so a second remove succeeds too.
		repo.On("DeleteItem", ctx, uint(1), "gone").Return(nil)

		assert.NoError(t, svc.RemoveItem(ctx, testSession, "gone"))
		assert.NoError(t, svc.RemoveItem(ctx, testSession, "gone"))
	})
}

func TestService_Clear(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo)

		repo.On("ClearCart", ctx, uint(1)).Return(nil)
		repo.On("GetCartItems", ctx, uint(1)).Return([]CartItem{}, nil)

		err := svc.Clear(ctx, testSession)
		assert.NoError(t, err)

		items, err := svc.GetCart(ctx, testSession)
		assert.NoError(t, err)
		assert.Empty(t, items)

		totals := ComputeTotals(items)
		assert.Zero(t, totals.Items)
		assert.Zero(t, totals.Price)
	})

	t.Run("Unauthenticated", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo)

		err := svc.Clear(ctx, auth.Session{})
		assert.ErrorIs(t, err, auth.ErrUnauthenticated)
	})
}

func TestComputeTotals(t *testing.T) {
	items := []CartItem{
		{Price: 55, Quantity: 2},
		{Price: 85, Quantity: 1},
	}

	totals := ComputeTotals(items)
	assert.Equal(t, 3, totals.Items)
	assert.InDelta(t, 195, totals.Price, 0.001)

	// Removing a line excludes it from both aggregates.
	totals = ComputeTotals(items[1:])
	assert.Equal(t, 1, totals.Items)
	assert.InDelta(t, 85, totals.Price, 0.001)
}
