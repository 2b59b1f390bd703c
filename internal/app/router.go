// internal/app/router.go
package app

import (
	"context"
	"net/http"

	authHandler "hellofixo-service/internal/handlers/auth"
	bookingHandler "hellofixo-service/internal/handlers/booking"
	catalogHandler "hellofixo-service/internal/handlers/catalog"
	locationHandler "hellofixo-service/internal/handlers/location"
	notifyHandler "hellofixo-service/internal/handlers/notification"
	partnerHandler "hellofixo-service/internal/handlers/partner"
	pricingHandler "hellofixo-service/internal/handlers/pricing"
	referralHandler "hellofixo-service/internal/handlers/referral"
	walletHandler "hellofixo-service/internal/handlers/wallet"
	wsHandler "hellofixo-service/internal/handlers/websocket"
	"hellofixo-service/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handlers struct {
	AuthHandler     *authHandler.AuthHandler
	CatalogHandler  *catalogHandler.CatalogHandler
	LocationHandler *locationHandler.LocationHandler
	EstimateHandler *pricingHandler.EstimateHandler
	ReferralHandler *referralHandler.ReferralHandler
	DraftHandler    *bookingHandler.DraftHandler
	OrderHandler    *bookingHandler.OrderHandler
	WalletHandler   *walletHandler.WalletHandler
	PartnerHandler  *partnerHandler.PartnerHandler
	NotifHandler    *notifyHandler.NotificationHandler
	WSHandler       *wsHandler.WebSocketHandler
	AuthMiddleware  *middleware.AuthMiddleware
	Health          func(ctx context.Context) map[string]string
}

func SetupRouter(r *gin.Engine, h *Handlers) {
	// ==================== Health & Metrics ====================
	r.GET("/health", func(c *gin.Context) {
		status := gin.H{"status": "ok"}
		code := http.StatusOK
		if h.Health != nil {
			for name, state := range h.Health(c.Request.Context()) {
				status[name] = state
				if state != "ok" {
					status["status"] = "degraded"
					code = http.StatusServiceUnavailable
				}
			}
		}
		c.JSON(code, status)
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ==================== WebSocket ====================
	r.GET("/ws", h.WSHandler.HandleConnection)

	api := r.Group("/api/v1")
	auth := h.AuthMiddleware

	// ==================== Auth & Profile ====================
	authPublic := api.Group("/auth")
	{
		authPublic.POST("/register", h.AuthHandler.Register)
		authPublic.POST("/login", h.AuthHandler.Login)
		authPublic.POST("/refresh", h.AuthHandler.Refresh)
	}
	api.POST("/auth/logout", auth.Auth(), h.AuthHandler.Logout)

	profile := api.Group("/profile", auth.Auth())
	{
		profile.GET("", h.AuthHandler.GetProfile)
		profile.PUT("", h.AuthHandler.UpdateProfile)
	}

	// ==================== Catalog, Locations, Pricing ====================
	api.GET("/categories", h.CatalogHandler.ListCategories)
	api.GET("/categories/:slug", h.CatalogHandler.GetCategory)

	api.GET("/locations/reverse", h.LocationHandler.Reverse)
	api.GET("/locations/:pincode", h.LocationHandler.Resolve)

	api.POST("/estimate", h.EstimateHandler.Estimate)
	api.POST("/referrals/verify", auth.OptionalAuth(), h.ReferralHandler.Verify)

	// ==================== Booking Drafts ====================
	drafts := api.Group("/bookings/drafts", auth.Auth())
	{
		drafts.POST("", h.DraftHandler.Start)
		drafts.GET("/:id", h.DraftHandler.Get)
		drafts.POST("/:id/problems", h.DraftHandler.ToggleProblem)
		drafts.PUT("/:id/contact", h.DraftHandler.UpdateContact)
		drafts.PUT("/:id/address", h.DraftHandler.UpdateAddress)
		drafts.POST("/:id/address/locate", h.DraftHandler.LocateAddress)
		drafts.POST("/:id/photo", h.DraftHandler.AttachPhoto)
		drafts.PUT("/:id/schedule", h.DraftHandler.UpdateSchedule)
		drafts.PUT("/:id/payment", h.DraftHandler.SetPayment)
		drafts.POST("/:id/referral", h.DraftHandler.ApplyReferral)
		drafts.DELETE("/:id/referral", h.DraftHandler.RemoveReferral)
		drafts.POST("/:id/next", h.DraftHandler.Next)
		drafts.POST("/:id/back", h.DraftHandler.Back)
		drafts.POST("/:id/submit", h.DraftHandler.Submit)
	}

	// ==================== Orders ====================
	orders := api.Group("/bookings", auth.Auth())
	{
		orders.GET("", h.OrderHandler.History)
		orders.GET("/:id", h.OrderHandler.Get)
		orders.POST("/:id/cancel", h.OrderHandler.Cancel)
		orders.POST("/:id/quote", h.OrderHandler.DecideQuote)
	}

	// ==================== Wallet ====================
	wallet := api.Group("/wallet", auth.Auth())
	{
		wallet.GET("", h.WalletHandler.Overview)
		wallet.GET("/transactions", h.WalletHandler.Transactions)
	}

	// ==================== Notifications ====================
	notifications := api.Group("/notifications", auth.Auth())
	{
		notifications.GET("", h.NotifHandler.GetNotifications)
		notifications.GET("/count/unread", h.NotifHandler.GetUnreadCount)
		notifications.PUT("/:id/read", h.NotifHandler.MarkAsRead)
		notifications.PUT("/read-all", h.NotifHandler.MarkAllAsRead)
		notifications.DELETE("/:id", h.NotifHandler.DeleteNotification)
	}

	// ==================== Partner Onboarding ====================
	partner := api.Group("/partner/application", auth.Auth())
	{
		partner.GET("", h.PartnerHandler.Current)
		partner.PUT("/personal", h.PartnerHandler.UpdatePersonal)
		partner.PUT("/skills", h.PartnerHandler.UpdateSkills)
		partner.POST("/document", h.PartnerHandler.UploadDocument)
		partner.POST("/next", h.PartnerHandler.Next)
		partner.POST("/back", h.PartnerHandler.Back)
		partner.POST("/submit", h.PartnerHandler.Submit)
	}

	// ==================== Admin ====================
	admin := api.Group("/admin", auth.AdminOnly()...)
	{
		admin.GET("/bookings", h.OrderHandler.AdminList)
		admin.GET("/bookings/:id", h.OrderHandler.AdminGet)
		admin.PATCH("/bookings/:id/status", h.OrderHandler.UpdateStatus)
		admin.POST("/bookings/:id/quote", h.OrderHandler.ShareQuote)

		admin.POST("/wallet/credit", h.WalletHandler.Credit)

		admin.GET("/partners", h.PartnerHandler.AdminList)
		admin.GET("/partners/:id", h.PartnerHandler.AdminGet)
		admin.POST("/partners/:id/review", h.PartnerHandler.Review)

		admin.GET("/cities", h.LocationHandler.ListCities)
		admin.PUT("/cities", h.LocationHandler.UpsertCity)
		admin.DELETE("/cities/:id", h.LocationHandler.DeleteCity)

		admin.POST("/catalog/cache/invalidate", h.CatalogHandler.InvalidateCache)
		admin.GET("/ws/stats", h.WSHandler.GetStats)
	}
}
