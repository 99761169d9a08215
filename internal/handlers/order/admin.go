package order

import (
	"context"
	"errors"
	"log"
	"math"
	"net/http"
	"strconv"
	"time"

	"mesa_back_end/internal/database"
	"mesa_back_end/internal/models"
	"mesa_back_end/internal/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// AdminList retourne une page de commandes pour le back-office, avec filtre
// statut et recherche libre (numéro, email, nom, téléphone souple).
func (h *Handler) AdminList(c *gin.Context) {
	page, err := strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)
	if err != nil || limit < 1 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	items, total, err := h.Orders.ListAdmin(ctx, database.AdminListOptions{
		Status: c.Query("status"),
		Search: c.Query("q"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		log.Println("❌ Erreur liste commandes admin:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur récupération commandes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":      items,
		"page":       page,
		"limit":      limit,
		"total":      total,
		"totalPages": int64(math.Ceil(float64(total) / float64(limit))),
	})
}

// AdminGet retourne le détail d'une commande pour le back-office
func (h *Handler) AdminGet(c *gin.Context) {
	orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	order, err := h.Orders.FindByID(ctx, orderID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return
	}

	c.JSON(http.StatusOK, order)
}

// AdminUpdateStatus fait transiter une commande vers un nouveau statut.
// Le passage à paid pose payment.paid_at. Retourne le document à jour.
func (h *Handler) AdminUpdateStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	if !models.ValidStatuses[req.Status] {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Statut invalide",
			"valid_statuses": []string{
				models.StatusPending, models.StatusPaid, models.StatusFailed,
				models.StatusCancelled, models.StatusShipped, models.StatusCompleted,
			},
		})
		return
	}

	orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID commande invalide"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	updated, err := h.Orders.UpdateStatus(ctx, orderID, req.Status)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
			return
		}
		log.Printf("❌ Erreur mise à jour statut: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour commande"})
		return
	}

	log.Printf("✅ Commande %s mise à jour: %s", updated.OrderNumber, req.Status)

	// Notifier le client par email (async, best effort)
	go func(order models.Order, status string) {
		if err := utils.SendOrderStatusEmail(order, status); err != nil {
			log.Printf("⚠️ Erreur envoi email statut: %v", err)
		}
	}(*updated, req.Status)

	c.JSON(http.StatusOK, updated)
}
