package order

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"time"

	"mesa_back_end/internal/alerts"
	"mesa_back_end/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type checkoutItemInput struct {
	ProductID string `json:"productId" binding:"required"`
	Qty       int    `json:"qty" binding:"required,min=1"`
}

type checkoutAddressInput struct {
	Name    string `json:"name" binding:"required,min=2,max=120"`
	Street  string `json:"street" binding:"required,min=3,max=200"`
	City    string `json:"city" binding:"required,min=2,max=120"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
	Phone   string `json:"phone"`
}

type checkoutInput struct {
	Items           []checkoutItemInput  `json:"items" binding:"required,min=1,dive"`
	Email           string               `json:"email" binding:"required,email"`
	ShippingAddress checkoutAddressInput `json:"shippingAddress" binding:"required"`
	PaymentMethod   string               `json:"paymentMethod"`
}

// Checkout crée une commande (invité ou connecté) : validation, snapshot des
// prix catalogue, totaux, branche paiement, écriture unique puis alerte.
// La persistance est la dernière étape faillible — aucune commande partielle.
func (h *Handler) Checkout(c *gin.Context) {
	var req checkoutInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	if req.PaymentMethod == "" {
		req.PaymentMethod = models.PaymentMock
	}
	if !models.ValidPaymentMethods[req.PaymentMethod] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Méthode de paiement invalide", "method": req.PaymentMethod})
		return
	}

	log.Printf("🛒 Checkout: %d article(s), méthode %s", len(req.Items), req.PaymentMethod)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// ✅ 1. Snapshot des lignes depuis le catalogue (prix figés à l'achat)
	items := make([]snapshotItem, len(req.Items))
	for i, it := range req.Items {
		items[i] = snapshotItem{ProductID: it.ProductID, Qty: it.Qty}
	}

	orderItems, subtotal, err := buildOrderItems(ctx, h.Products, items)
	if err != nil {
		var invalidID *InvalidProductIDError
		switch {
		case errors.As(err, &invalidID):
			log.Printf("⚠️ ID produit invalide au checkout: %s", invalidID.ID)
			c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide", "invalidId": invalidID.ID})
		case errors.Is(err, ErrProductsUnavailable):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Un ou plusieurs produits sont invalides ou indisponibles"})
		default:
			log.Printf("❌ Erreur snapshot produits: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur interne pendant le checkout"})
		}
		return
	}

	// ✅ 2. Totaux — taxe et livraison à zéro pour l'instant, champs séparés
	tax := 0.0
	shipping := 0.0
	total := subtotal + tax + shipping

	// ✅ 3. Identifiant pré-alloué → numéro dérivé connu avant l'écriture
	orderID := primitive.NewObjectID()
	orderNumber := DeriveOrderNumber(orderID)
	publicToken := uuid.NewString()
	now := time.Now()

	// ✅ 4. Branche par méthode de paiement
	payment := models.Payment{Method: req.PaymentMethod}
	status := models.StatusPending
	if req.PaymentMethod == models.PaymentMock {
		status = models.StatusPaid
		payment.PaidAt = &now
		ref := "mock_" + publicToken
		payment.Reference = &ref
	}

	var userID *primitive.ObjectID
	if uid := c.GetString("user_id"); uid != "" {
		if oid, err := primitive.ObjectIDFromHex(uid); err == nil {
			userID = &oid
		}
	}

	order := &models.Order{
		ID:          orderID,
		OrderNumber: orderNumber,
		UserID:      userID,
		Email:       req.Email,
		Items:       orderItems,
		Subtotal:    subtotal,
		Tax:         tax,
		Shipping:    shipping,
		Total:       total,
		Payment:     payment,
		ShippingAddress: models.ShippingAddress{
			Name:    req.ShippingAddress.Name,
			Street:  req.ShippingAddress.Street,
			City:    req.ShippingAddress.City,
			State:   req.ShippingAddress.State,
			Zip:     req.ShippingAddress.Zip,
			Country: req.ShippingAddress.Country,
			Phone:   req.ShippingAddress.Phone,
		},
		Status:      status,
		PublicToken: publicToken,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	// ✅ 5. Écriture unique, numéro compris — pas d'étape "générer le numéro"
	if err := h.Orders.Insert(ctx, order); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Collision sur le suffixe dérivé : l'index unique a fait son travail.
			// Pas de boucle de retry sur ce chemin.
			log.Printf("❌ Collision numéro de commande %s: %v", orderNumber, err)
		} else {
			log.Printf("❌ Erreur insertion commande: %v", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur interne pendant le checkout"})
		return
	}

	log.Printf("✅ Commande créée: %s (%.2f$) pour %s", orderNumber, total, req.Email)

	// ✅ 6. PaymentIntent pour les paiements carte — la commande survit à un
	// gateway absent ou injoignable, la réponse omet simplement clientSecret
	var clientSecret string
	if req.PaymentMethod == models.PaymentCard {
		if !h.Gateway.Enabled() {
			log.Println("⚠️ Stripe non configuré — commande créée sans client secret")
		} else {
			intent, err := h.Gateway.CreateIntent(
				int64(math.Round(total*100)),
				"usd",
				map[string]string{
					"orderId":     orderID.Hex(),
					"orderNumber": orderNumber,
					"email":       req.Email,
				},
			)
			if err != nil {
				log.Printf("❌ Erreur création PaymentIntent: %v", err)
			} else {
				clientSecret = intent.ClientSecret
				if err := h.Orders.SetPaymentReference(ctx, orderID, intent.ID); err != nil {
					log.Printf("⚠️ Erreur enregistrement référence paiement: %v", err)
				}
				log.Printf("💳 PaymentIntent créé: %s pour %s", intent.ID, orderNumber)
			}
		}
	}

	// ✅ 7. Alerte temps réel pour les employés — best effort, jamais bloquant
	h.Bus.Publish(alerts.Alert{
		ID:           orderID.Hex(),
		Type:         "order",
		Title:        fmt.Sprintf("Nouvelle commande %s", orderNumber),
		Detail:       fmt.Sprintf("%d article(s) • $%.2f", len(orderItems), total),
		At:           time.Now(),
		OrderID:      orderID.Hex(),
		OrderNumber:  orderNumber,
		Amount:       total,
		CustomerName: order.ShippingAddress.Name,
	})

	resp := gin.H{
		"id":          orderID.Hex(),
		"orderNumber": orderNumber,
		"publicToken": publicToken,
		"total":       total,
	}
	if clientSecret != "" {
		resp["clientSecret"] = clientSecret
	}
	c.JSON(http.StatusCreated, resp)
}
