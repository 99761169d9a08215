package middleware

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func jwtSecret() []byte {
	return []byte(os.Getenv("JWT_SECRET"))
}

// parseToken valide un JWT Bearer et retourne ses claims
func parseToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("méthode de signature inattendue: %v", token.Header["alg"])
		}
		return jwtSecret(), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("claims invalides")
	}

	if exp, ok := claims["exp"].(float64); ok {
		if time.Now().Unix() > int64(exp) {
			return nil, fmt.Errorf("token expiré")
		}
	}

	return claims, nil
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

func setIdentity(c *gin.Context, claims jwt.MapClaims) bool {
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return false
	}
	c.Set("user_id", userID)
	if email, ok := claims["email"].(string); ok {
		c.Set("email", email)
	}
	if role, ok := claims["role"].(string); ok {
		c.Set("role", role)
	}
	return true
}

// AuthRequired exige un JWT valide et pose user_id / email / role dans le contexte
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token manquant"})
			c.Abort()
			return
		}

		claims, err := parseToken(tokenString)
		if err != nil {
			log.Printf("❌ Erreur parsing JWT: %v", err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token invalide"})
			c.Abort()
			return
		}

		if !setIdentity(c, claims) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user_id manquant"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// OptionalAuth attache l'identité quand un token valide est présent, mais
// laisse passer les invités : le checkout fonctionne dans les deux cas.
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			c.Next()
			return
		}

		claims, err := parseToken(tokenString)
		if err != nil {
			// Token invalide sur une route publique : on continue en invité
			c.Next()
			return
		}

		setIdentity(c, claims)
		c.Next()
	}
}

// Hiérarchie des rôles : un admin passe tous les contrôles employé
var roleRank = map[string]int{
	"customer": 0,
	"employee": 1,
	"admin":    2,
}

// RequireRole vérifie que l'utilisateur a au moins le rôle demandé
func RequireRole(minimum string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("role")
		if !exists {
			c.JSON(http.StatusForbidden, gin.H{"error": "Accès réservé au personnel"})
			c.Abort()
			return
		}

		roleStr, _ := role.(string)
		if roleRank[roleStr] < roleRank[minimum] {
			log.Printf("🚫 Rôle insuffisant: %s (requis: %s)", roleStr, minimum)
			c.JSON(http.StatusForbidden, gin.H{"error": "Accès réservé au personnel"})
			c.Abort()
			return
		}

		c.Next()
	}
}
