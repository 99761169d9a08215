package webhook

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"mesa_back_end/internal/models"
	"mesa_back_end/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/webhook"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderMarker est l'accès commandes dont la réconciliation a besoin
type OrderMarker interface {
	MarkPaid(ctx context.Context, id primitive.ObjectID, reference string) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
}

// Handler traite les callbacks signés du gateway de paiement.
// Secrets est une liste ordonnée de secrets candidats, essayés dans l'ordre :
// c'est le mécanisme de rotation sans coupure.
type Handler struct {
	Secrets []string
	Orders  OrderMarker
}

func NewHandler(secrets []string, orders OrderMarker) *Handler {
	return &Handler{Secrets: secrets, Orders: orders}
}

// SecretsFromEnv lit STRIPE_WEBHOOK_SECRET, potentiellement plusieurs
// secrets séparés par des virgules pendant une rotation.
func SecretsFromEnv() []string {
	var secrets []string
	for _, s := range strings.Split(os.Getenv("STRIPE_WEBHOOK_SECRET"), ",") {
		if s = strings.TrimSpace(s); s != "" {
			secrets = append(secrets, s)
		}
	}
	return secrets
}

// HandleStripe vérifie la signature du payload brut contre chaque secret
// candidat puis applique l'événement. Le gateway relit sa propre politique
// de retry sur les 400 ; on ne retourne jamais de 500 ici pour éviter les
// tempêtes de redelivery.
func (h *Handler) HandleStripe(c *gin.Context) {
	const MaxBodyBytes = int64(65536)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes)

	payload, err := c.GetRawData()
	if err != nil {
		log.Println("❌ Lecture payload échouée:", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid"})
		return
	}

	sig := c.GetHeader("Stripe-Signature")
	if sig == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid"})
		return
	}

	if len(h.Secrets) == 0 {
		log.Println("❌ Aucun secret webhook configuré")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "webhook secret manquant"})
		return
	}

	// Essayer chaque secret candidat — le premier qui vérifie gagne
	var event stripe.Event
	verified := false
	for _, secret := range h.Secrets {
		event, err = webhook.ConstructEvent(payload, sig, secret)
		if err == nil {
			verified = true
			break
		}
	}
	if !verified {
		log.Println("❌ Signature Stripe invalide:", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid"})
		return
	}

	log.Printf("📥 Événement Stripe reçu : %s", event.Type)

	switch event.Type {
	case "payment_intent.succeeded":
		if err := h.handlePaymentSucceeded(event); err != nil {
			log.Println("❌ Erreur traitement paiement:", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid"})
			return
		}
	default:
		// Extension: payment_intent.payment_failed, checkout.session.completed…
		log.Printf("ℹ️ Événement ignoré : %s", event.Type)
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

// handlePaymentSucceeded applique le $set idempotent sur la commande liée.
// Rejouer le même événement réapplique les mêmes valeurs : aucune table de
// déduplication nécessaire sous livraison at-least-once.
func (h *Handler) handlePaymentSucceeded(event stripe.Event) error {
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return err
	}

	orderIDHex := pi.Metadata["orderId"]
	if orderIDHex == "" {
		// Événement étranger ou métadonnées absentes : no-op, mais on
		// acquitte pour couper les retries du gateway
		log.Println("⚠️ PaymentIntent sans orderId — ignoré")
		return nil
	}

	orderID, err := primitive.ObjectIDFromHex(orderIDHex)
	if err != nil {
		log.Printf("⚠️ orderId malformé dans les métadonnées: %s", orderIDHex)
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := h.Orders.MarkPaid(ctx, orderID, pi.ID); err != nil {
		return err
	}

	log.Printf("✅ Commande %s marquée payée (intent %s)", orderIDHex, pi.ID)

	// Confirmation client par email (async, best effort)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		order, err := h.Orders.FindByID(ctx, orderID)
		if err != nil {
			log.Printf("⚠️ Commande %s introuvable pour l'email de confirmation", orderIDHex)
			return
		}
		if err := utils.SendOrderConfirmationEmail(*order); err != nil {
			log.Println("⚠️ Erreur envoi e-mail confirmation:", err)
		} else {
			log.Println("📧 E-mail de confirmation envoyé à", order.Email)
		}
	}()

	return nil
}
