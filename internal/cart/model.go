package cart

import "time"

// CartItem is one seller/milk-type selection with a quantity, owned by a user.
// A quantity of zero never persists; dropping below 1 deletes the row.
type CartItem struct {
	ID         string  `json:"id"`
	UserID     uint    `json:"user_id"`
	SellerID   int     `json:"seller_id"`
	SellerName string  `json:"seller_name"`
	MilkType   string  `json:"milk_type"`
	Price      float64 `json:"price"`
	Quantity   int     `json:"quantity"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type AddItemParams struct {
	SellerID   int
	SellerName string
	MilkType   string
	Price      float64
}

type CreateCartItemParams struct {
	UserID     uint
	SellerID   int
	SellerName string
	MilkType   string
	Price      float64
	Quantity   int
}

// Totals holds the derived cart aggregates.
type Totals struct {
	Items int     `json:"total_items"`
	Price float64 `json:"total_price"`
}

// ComputeTotals derives totalItems and totalPrice from the current lines.
func ComputeTotals(items []CartItem) Totals {
	var t Totals
	for _, item := range items {
		t.Items += item.Quantity
		t.Price += item.Price * float64(item.Quantity)
	}
	return t
}
