package routes

import (
	"mesa_back_end/internal/handlers/alert"
	"mesa_back_end/internal/handlers/order"
	"mesa_back_end/internal/handlers/webhook"
	"mesa_back_end/internal/middleware"

	"github.com/gin-gonic/gin"
)

// Handlers regroupe les handlers construits dans main avec leurs dépendances
type Handlers struct {
	Orders  *order.Handler
	Webhook *webhook.Handler
	Alerts  *alert.Handler
}

func RegisterRoutes(r *gin.Engine, h Handlers) {
	api := r.Group("/api")

	// Webhook gateway de paiement : body brut, pas d'auth, pas de limite IP
	// (déjà authentifié par signature, le gateway rejoue en rafale)
	api.POST("/webhooks/payment", h.Webhook.HandleStripe)

	api.Use(middleware.APIRateLimit())

	// Commandes
	api.POST("/orders", middleware.CheckoutRateLimit(), middleware.OptionalAuth(), h.Orders.Checkout)
	api.GET("/orders", middleware.AuthRequired(), h.Orders.GetMyOrders)
	api.GET("/orders/public/:id", h.Orders.GetPublicOrder)
	api.GET("/orders/:id", middleware.AuthRequired(), h.Orders.GetOrderByID)

	// Back-office commandes (employés et admins)
	admin := api.Group("/orders/admin", middleware.AuthRequired(), middleware.RequireRole("employee"))
	admin.GET("", h.Orders.AdminList)
	admin.GET("/:id", h.Orders.AdminGet)
	admin.PATCH("/:id", h.Orders.AdminUpdateStatus)

	// Alertes temps réel (employés et admins)
	alertsGroup := api.Group("/alerts", middleware.AuthRequired(), middleware.RequireRole("employee"))
	alertsGroup.GET("/recent", h.Alerts.Recent)
	alertsGroup.GET("/stream", h.Alerts.Stream)
	alertsGroup.GET("/ws", h.Alerts.StreamWS)
}
