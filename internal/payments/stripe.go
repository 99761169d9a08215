package payments

import (
	"errors"
	"log"
	"os"

	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/paymentintent"
)

// ErrNotConfigured signale l'absence de clé Stripe : le checkout carte crée
// quand même la commande, simplement sans client secret.
var ErrNotConfigured = errors.New("stripe non configuré")

// Intent est la réponse minimale du gateway dont le checkout a besoin
type Intent struct {
	ID           string
	ClientSecret string
}

// Client enveloppe Stripe avec une absence gracieuse : sans clé configurée
// le client existe mais refuse de créer des intents.
type Client struct {
	enabled bool
}

func NewFromEnv() *Client {
	key := os.Getenv("STRIPE_SECRET_KEY")
	if key == "" {
		log.Println("⚠️ STRIPE_SECRET_KEY manquant — paiements carte désactivés")
		return &Client{}
	}
	stripe.Key = key
	log.Println("✅ Stripe initialisé")
	return &Client{enabled: true}
}

func (c *Client) Enabled() bool {
	return c.enabled
}

// CreateIntent crée un PaymentIntent pour le montant donné (en centimes),
// avec les métadonnées qui referment la boucle webhook → commande.
func (c *Client) CreateIntent(amountCents int64, currency string, metadata map[string]string) (*Intent, error) {
	if !c.enabled {
		return nil, ErrNotConfigured
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Metadata: metadata,
	}

	intent, err := paymentintent.New(params)
	if err != nil {
		return nil, err
	}
	return &Intent{ID: intent.ID, ClientSecret: intent.ClientSecret}, nil
}
