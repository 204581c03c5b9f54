package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"

	custommiddleware "github.com/mmeshcher/cardshop-system/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware магазина открыток.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	authLimiter := custommiddleware.NewRateLimiter(rate.Limit(1), 5)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authLimiter.Middleware)

			r.Post("/auth/register", h.Register)
			r.Post("/auth/login", h.Login)
			r.Post("/auth/login-otp", h.LoginOTP)
			r.Post("/auth/refresh", h.Refresh)
			r.Post("/auth/otp/send", h.SendOTP)
			r.Post("/auth/otp/check", h.CheckOTP)
		})

		r.Get("/cards", h.ListCards)
		r.Get("/cards/{cardID}", h.GetCard)
		r.Get("/cards/{cardID}/reviews", h.ListCardReviews)

		r.Group(func(r chi.Router) {
			r.Use(h.authMiddleware.Middleware)

			r.Post("/auth/logout", h.Logout)
			r.Get("/auth/me", h.Me)
			r.Patch("/auth/me", h.UpdateMe)

			r.Get("/cart", h.GetCart)
			r.Post("/cart/add", h.AddCartItem)
			r.Put("/cart/item/{cardID}", h.UpdateCartItem)
			r.Delete("/cart/item/{cardID}", h.RemoveCartItem)
			r.Delete("/cart", h.ClearCart)

			r.Post("/orders", h.PlaceOrder)
			r.Get("/orders", h.GetOrders)
			r.Get("/orders/{orderID}", h.GetOrder)
			r.Put("/orders/{orderID}/cancel", h.CancelOrder)

			r.Post("/cards/{cardID}/reviews", h.CreateReview)
			r.Put("/reviews/{reviewID}", h.UpdateReview)
			r.Delete("/reviews/{reviewID}", h.DeleteReview)

			r.Post("/wholesaler/apply", h.ApplyWholesaler)
			r.Get("/wholesaler/application", h.GetOwnApplication)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(h.authMiddleware.Middleware)
			r.Use(h.authMiddleware.RequireAdmin)

			r.Post("/cards", h.CreateCard)
			r.Put("/cards/{cardID}", h.UpdateCard)
			r.Put("/cards/{cardID}/rating", h.UpdateCardRating)
			r.Delete("/cards/{cardID}", h.DeleteCard)

			r.Get("/orders", h.ListOrders)
			r.Get("/orders/{orderID}", h.GetOrder)
			r.Put("/orders/{orderID}/status", h.UpdateOrderStatus)
			r.Put("/orders/{orderID}/payment", h.UpdatePaymentStatus)
			r.Put("/orders/{orderID}/tracking", h.AttachTracking)
			r.Delete("/orders/{orderID}", h.DeleteOrder)

			r.Get("/reviews", h.ListReviews)

			r.Get("/users", h.ListUsers)
			r.Put("/users/{userID}/ban", h.SetUserBanned)
			r.Delete("/users/{userID}", h.DeleteUser)

			r.Get("/wholesaler/applications", h.ListApplications)
			r.Put("/wholesaler/applications/{appID}/review", h.ReviewApplication)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
