package http

import (
	"github.com/AlphaIsYour/creanomic-sub002/internal/platform/metrics"
	"github.com/AlphaIsYour/creanomic-sub002/internal/port/http/handler"
	"github.com/AlphaIsYour/creanomic-sub002/internal/port/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires the public and authenticated route groups.
func NewRouter(
	authHandler *handler.AuthHandler,
	offerHandler *handler.OfferHandler,
	notificationHandler *handler.NotificationHandler,
	jwtSecret string,
	m *metrics.MetricsManager,
) *chi.Mux {
	mux := chi.NewMux()

	mux.Use(chimiddleware.RequestID)
	mux.Use(chimiddleware.RealIP)
	mux.Use(chimiddleware.Recoverer)
	mux.Use(middleware.RequestLatency(m))

	// Public routes: registration flow, login and offer discovery.
	mux.Post("/api/auth/request-code", authHandler.HandleRequestCode)
	mux.Post("/api/auth/verify-code", authHandler.HandleVerifyCode)
	mux.Post("/api/auth/register", authHandler.HandleCompleteRegistration)
	mux.Post("/api/auth/login", authHandler.HandleLogin)
	mux.Get("/api/offers/search", offerHandler.HandleSearchOffers)
	mux.Get("/api/offers/{id}", offerHandler.HandleGetOffer)

	// Routes requiring an authenticated caller.
	mux.Group(func(r chi.Router) {
		r.Use(middleware.JWTAuth(jwtSecret))

		r.Get("/api/users/me", authHandler.HandleGetProfile)

		r.Post("/api/offers", offerHandler.HandleCreateOffer)
		r.Get("/api/offers/mine/list", offerHandler.HandleListMyOffers)
		r.Get("/api/offers/stats/me", offerHandler.HandleGetOfferStats)
		r.Patch("/api/offers/{id}/status", offerHandler.HandleTransitionStatus)
		r.Post("/api/offers/{id}/photos", offerHandler.HandleUploadPhoto)

		r.Get("/api/notifications", notificationHandler.HandleListNotifications)
		r.Patch("/api/notifications/{id}/read", notificationHandler.HandleMarkRead)
	})

	return mux
}
