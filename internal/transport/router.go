package transport

import (
	"net/http"

	"milkdirect-be/internal/logger"
	"milkdirect-be/internal/metrics"
	"milkdirect-be/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.CORS)
	r.Use(logger.RequestIDMiddleware)
	r.Use(logger.LoggingMiddleware)
	r.Use(metrics.Middleware("milkdirect-be"))
	// Auth runs before the rate limiter so buckets key on the session user.
	r.Use(middleware.AuthMiddleware)
	r.Use(middleware.RateLimitMiddleware)

	r.Get("/health", h.Health)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", h.Register)
		r.Post("/auth/login", h.Login)
		r.Post("/auth/logout", h.Logout)
		r.Get("/me", h.Me)

		r.Get("/profile", h.GetProfile)
		r.Put("/profile", h.UpdateProfile)

		r.Get("/sellers", h.ListSellers)
		r.Get("/sellers/{id}", h.GetSeller)
		r.Put("/sellers/{id}/telemetry", h.UpdateSellerTelemetry)

		r.Get("/cart", h.GetCart)
		r.Delete("/cart", h.ClearCart)
		r.Get("/cart/summary", h.CartSummary)
		r.Post("/cart/items", h.AddCartItem)
		r.Put("/cart/items/{id}", h.UpdateCartItem)
		r.Delete("/cart/items/{id}", h.RemoveCartItem)
		r.Post("/cart/checkout", h.Checkout)

		r.Get("/orders", h.ListOrders)
		r.Patch("/orders/{id}/status", h.UpdateOrderStatus)

		r.Post("/predict", h.Predict)

		r.Post("/chat", h.Chat)
		r.Post("/chat/stream", h.ChatStream)
	})

	return r
}
