package handlers

import (
	"net/http"

	"cleanly/internal/config"
	"cleanly/internal/db"
	"cleanly/internal/middleware"
	"cleanly/internal/models"
	"cleanly/internal/websocket"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Handler struct {
	txRunner   db.TxRunner
	cfg        config.Config
	users      UserStore
	cleaners   CleanerStore
	wallets    WalletStore
	bookings   BookingLister
	fraudFlags FraudFlagStore
	audit      AuditStore
	bookingSvc BookingService
	walletSvc  WalletService
	recharges  RechargeService
	hub        *websocket.Hub
}

func New(txRunner db.TxRunner, cfg config.Config, users UserStore, cleaners CleanerStore, wallets WalletStore, bookings BookingLister, fraudFlags FraudFlagStore, audit AuditStore, bookingSvc BookingService, walletSvc WalletService, recharges RechargeService, hub *websocket.Hub) *Handler {
	return &Handler{
		txRunner:   txRunner,
		cfg:        cfg,
		users:      users,
		cleaners:   cleaners,
		wallets:    wallets,
		bookings:   bookings,
		fraudFlags: fraudFlags,
		audit:      audit,
		bookingSvc: bookingSvc,
		walletSvc:  walletSvc,
		recharges:  recharges,
		hub:        hub,
	}
}

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.Logger)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{h.cfg.AllowedOrigins},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	authn := middleware.Auth(h.cfg.JWTSecret)

	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.With(authn).Get("/me", h.Me)
	})

	router.Route("/bookings", func(r chi.Router) {
		r.Use(authn)
		r.Post("/", h.CreateBooking)
		r.Get("/", h.ListBookings)
		r.Post("/{id}/status", h.TransitionBooking)
		r.Get("/{id}/history", h.BookingHistory)
	})

	router.Route("/wallet", func(r chi.Router) {
		r.Use(authn)
		r.Get("/", h.GetWallet)
		r.Get("/transactions", h.ListWalletTransactions)
		r.Get("/commissions", h.CommissionSummary)
		r.Post("/recharges", h.InitiateRecharge)
		r.Post("/recharges/{orderID}/capture", h.CaptureRecharge)
	})

	router.Post("/webhooks/payments", h.PaymentWebhook)
	router.Get("/ws/bookings", h.WSBookings)

	router.Route("/admin", func(r chi.Router) {
		r.Use(authn)
		r.Use(middleware.RequireRole(models.RoleAdmin))
		r.Get("/wallets/{ownerID}", h.AdminGetWallet)
		r.Post("/wallets/{ownerID}/adjust", h.AdjustWallet)
		r.Post("/wallets/{ownerID}/debt-threshold", h.UpdateDebtThreshold)
		r.Get("/wallets/reconcile", h.ReconcileWallets)
		r.Get("/audit", h.ListAuditLogs)
		r.Get("/fraud-flags", h.ListFraudFlags)
	})

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return router
}
