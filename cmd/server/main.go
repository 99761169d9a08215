package main

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"mesa_back_end/internal/alerts"
	"mesa_back_end/internal/config"
	"mesa_back_end/internal/database"
	alerthandler "mesa_back_end/internal/handlers/alert"
	orderhandler "mesa_back_end/internal/handlers/order"
	webhookhandler "mesa_back_end/internal/handlers/webhook"
	"mesa_back_end/internal/payments"
	"mesa_back_end/internal/routes"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	config.Load()

	database.ConnectDatabases()

	gateway := payments.NewFromEnv()

	orderStore := database.NewOrderStore(database.MongoOrdersDB)
	productStore := database.NewProductStore(database.MongoProductsDB)

	// ✅ Backfill des numéros de commande des documents historiques
	backfillOrderNumbers(orderStore)

	// ✅ Bus d'alertes construit une fois et injecté — un par processus
	bus := alerts.New()

	h := routes.Handlers{
		Orders:  orderhandler.NewHandler(orderStore, productStore, gateway, bus),
		Webhook: webhookhandler.NewHandler(webhookhandler.SecretsFromEnv(), orderStore),
		Alerts:  alerthandler.NewHandler(bus),
	}

	r := gin.Default()
	r.Use(cors.New(corsConfig()))
	routes.RegisterRoutes(r, h)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Println("🚀 Serveur Mesa lancé sur le port", port)
	r.Run(":" + port)
}

func corsConfig() cors.Config {
	cfg := cors.DefaultConfig()

	origins := os.Getenv("CORS_ORIGINS")
	if origins == "" {
		origins = "http://localhost:5173"
	}
	cfg.AllowOrigins = strings.Split(origins, ",")
	cfg.AllowCredentials = true
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization")

	return cfg
}

// backfillOrderNumbers régénère les numéros manquants au démarrage, avec la
// même dérivation que le checkout
func backfillOrderNumbers(store *database.OrderStore) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	count, err := store.BackfillOrderNumbers(ctx, orderhandler.DeriveOrderNumber)
	if err != nil {
		log.Printf("⚠️ Backfill numéros de commande incomplet: %v", err)
	}
	if count > 0 {
		log.Printf("✅ %d numéro(s) de commande backfillé(s)", count)
	}
}
