package transport

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"milkdirect-be/internal/assistant"
	"milkdirect-be/internal/auth"
	"milkdirect-be/internal/cart"
	"milkdirect-be/internal/logger"
	"milkdirect-be/internal/order"
	"milkdirect-be/internal/predictor"
	"milkdirect-be/internal/seller"
	"milkdirect-be/internal/user"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const accessTokenCookie = "access_token"

// Handler bundles the domain services behind the HTTP surface.
type Handler struct {
	users     user.Service
	sellers   seller.Service
	carts     cart.Service
	orders    order.Service
	predictor *predictor.Model
	chat      *assistant.Client
}

func NewHandler(users user.Service, sellers seller.Service, carts cart.Service, orders order.Service, model *predictor.Model, chat *assistant.Client) *Handler {
	return &Handler{
		users:     users,
		sellers:   sellers,
		carts:     carts,
		orders:    orders,
		predictor: model,
		chat:      chat,
	}
}

// requireSession fetches the session from context or writes a 401.
func requireSession(w http.ResponseWriter, r *http.Request) (auth.Session, bool) {
	session, ok := auth.SessionFrom(r.Context())
	if !ok || !session.Valid() {
		writeServiceError(w, auth.ErrUnauthenticated)
		return auth.Session{}, false
	}
	return session, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- auth ---

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string   `json:"token"`
	User  userView `json:"user"`
}

type userView struct {
	ID    int    `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func setAccessCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     accessTokenCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   24 * 60 * 60,
	})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	token, u, err := h.users.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	setAccessCookie(w, token)
	writeJSON(w, http.StatusCreated, authResponse{Token: token, User: userView{ID: u.ID, Email: u.Email, Role: u.Role}})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	token, u, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	setAccessCookie(w, token)
	writeJSON(w, http.StatusOK, authResponse{Token: token, User: userView{ID: u.ID, Email: u.Email, Role: u.Role}})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     accessTokenCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user_id": session.UserID,
		"email":   session.Email,
		"role":    session.Role,
	})
}

// --- profile ---

type profileView struct {
	UserID  uint    `json:"user_id"`
	Name    *string `json:"name"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}

func toProfileView(p *user.Profile) profileView {
	return profileView{UserID: p.UserID, Name: p.Name, Phone: p.Phone, Address: p.Address}
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	profile, err := h.users.GetProfile(r.Context(), session)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileView(profile))
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	var req struct {
		Name    *string `json:"name"`
		Phone   *string `json:"phone"`
		Address *string `json:"address"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	profile, err := h.users.UpdateProfile(r.Context(), session, user.UpdateProfileParams{
		Name:    req.Name,
		Phone:   req.Phone,
		Address: req.Address,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileView(profile))
}

// --- sellers ---

func (h *Handler) ListSellers(w http.ResponseWriter, r *http.Request) {
	sellers, err := h.sellers.ListSellers(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sellers": sellers})
}

func (h *Handler) GetSeller(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeJSONError(w, "invalid seller id", http.StatusBadRequest)
		return
	}

	s, err := h.sellers.GetSeller(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *Handler) UpdateSellerTelemetry(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	if !session.IsAdmin() {
		writeServiceError(w, order.ErrForbidden)
		return
	}

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeJSONError(w, "invalid seller id", http.StatusBadRequest)
		return
	}

	var t seller.Telemetry
	if !decodeBody(w, r, &t) {
		return
	}

	if err := h.sellers.UpdateTelemetry(r.Context(), id, t); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// --- cart ---

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	items, err := h.carts.GetCart(r.Context(), session)
	if err != nil {
		// A failed read renders an empty cart rather than an error page.
		logger.FromCtx(r.Context()).Warn("cart read failed, serving empty cart", zap.Error(err))
		items = nil
	}
	if items == nil {
		items = []cart.CartItem{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items":  items,
		"totals": cart.ComputeTotals(items),
	})
}

func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	var req struct {
		SellerID   int     `json:"seller_id"`
		SellerName string  `json:"seller_name"`
		MilkType   string  `json:"milk_type"`
		Price      float64 `json:"price"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	item, err := h.carts.AddItem(r.Context(), session, cart.AddItemParams{
		SellerID:   req.SellerID,
		SellerName: req.SellerName,
		MilkType:   req.MilkType,
		Price:      req.Price,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.carts.UpdateQuantity(r.Context(), session, chi.URLParam(r, "id"), req.Quantity); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	if err := h.carts.RemoveItem(r.Context(), session, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	if err := h.carts.Clear(r.Context(), session); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (h *Handler) CartSummary(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	summary, err := h.orders.CartSummary(r.Context(), session)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// --- orders ---

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	orders, err := h.orders.Checkout(r.Context(), session)
	if err != nil {
		if errors.Is(err, order.ErrFailedClearCart) {
			// Orders were placed; surface the stale cart instead of failing.
			logger.FromCtx(r.Context()).Error("cart not cleared after checkout", zap.Error(err))
			writeJSON(w, http.StatusCreated, map[string]any{
				"orders":  orders,
				"warning": err.Error(),
			})
			return
		}
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"orders": orders})
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	orders, err := h.orders.ListOrders(r.Context(), session)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if orders == nil {
		orders = []order.Order{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	err := h.orders.UpdateOrderStatus(r.Context(), session, chi.URLParam(r, "id"), order.OrderStatus(req.Status))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": req.Status})
}

// --- predictor ---

func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	var req predictor.Request
	if !decodeBody(w, r, &req) {
		return
	}

	prediction, err := h.predictor.Predict(req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, prediction)
}
