package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	"milkdirect-be/internal/assistant"
	"milkdirect-be/internal/auth"
	"milkdirect-be/internal/cart"
	"milkdirect-be/internal/order"
	"milkdirect-be/internal/predictor"
	"milkdirect-be/internal/seller"
	"milkdirect-be/internal/user"
)

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeJSONError(w http.ResponseWriter, message string, code int) {
	writeJSON(w, code, map[string]string{"error": message})
}

// writeServiceError maps domain sentinels onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	writeJSONError(w, err.Error(), statusFor(err))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, auth.ErrUnauthenticated),
		errors.Is(err, user.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, order.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, user.ErrEmailExists):
		return http.StatusConflict
	case errors.Is(err, order.ErrCartEmpty):
		return http.StatusUnprocessableEntity
	case errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, order.ErrInvalidStatus),
		errors.Is(err, predictor.ErrInvalidQuantity):
		return http.StatusBadRequest
	case errors.Is(err, cart.ErrCartItemNotFound),
		errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, user.ErrProfileNotFound),
		errors.Is(err, seller.ErrSellerNotFound):
		return http.StatusNotFound
	case errors.Is(err, assistant.ErrGatewayUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
