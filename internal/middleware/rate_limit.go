package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"mesa_back_end/internal/database"

	"github.com/gin-gonic/gin"
)

const (
	// Limites par endpoint
	CheckoutMaxAttempts = 10
	APIMaxRequests      = 100 // Par minute pour les endpoints généraux

	// Durées de cooldown
	CheckoutCooldown = 10 * time.Minute
	APICooldown      = 1 * time.Minute
)

// CheckoutRateLimit limite les créations de commande par adresse IP
func CheckoutRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.Background()
		ip := c.ClientIP()
		key := "checkout_attempts:" + ip

		// Vérifier si l'IP est en cooldown
		cooldownKey := "checkout_cooldown:" + ip
		if database.Redis.Exists(ctx, cooldownKey).Val() > 0 {
			ttl := database.Redis.TTL(ctx, cooldownKey).Val()
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       fmt.Sprintf("Trop de commandes. Réessayez dans %d minutes", int(ttl.Minutes())+1),
				"retry_after": int(ttl.Seconds()),
			})
			c.Abort()
			return
		}

		attempts, _ := database.Redis.Get(ctx, key).Int()
		if attempts >= CheckoutMaxAttempts {
			database.Redis.Set(ctx, cooldownKey, "1", CheckoutCooldown)
			database.Redis.Del(ctx, key)

			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       fmt.Sprintf("Trop de commandes. Bloqué pendant %d minutes", int(CheckoutCooldown.Minutes())),
				"retry_after": int(CheckoutCooldown.Seconds()),
			})
			c.Abort()
			return
		}

		database.Redis.Incr(ctx, key)
		database.Redis.Expire(ctx, key, APICooldown)

		c.Next()
	}
}

// APIRateLimit limite le débit général par adresse IP
func APIRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.Background()
		key := "api_requests:" + c.ClientIP()

		requests, _ := database.Redis.Get(ctx, key).Int()
		if requests >= APIMaxRequests {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Trop de requêtes, ralentissez",
				"retry_after": int(APICooldown.Seconds()),
			})
			c.Abort()
			return
		}

		database.Redis.Incr(ctx, key)
		database.Redis.Expire(ctx, key, APICooldown)

		c.Next()
	}
}
