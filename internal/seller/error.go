package seller

import "errors"

var (
	ErrSellerNotFound    = errors.New("seller not found")
	ErrFailedListSellers = errors.New("failed to list sellers")
)
