package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Statuts possibles d'une commande
const (
	StatusPending   = "pending"
	StatusPaid      = "paid"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
	StatusShipped   = "shipped"
	StatusCompleted = "completed"
)

// Méthodes de paiement supportées
const (
	PaymentMock = "mock"
	PaymentCard = "card"
	PaymentCOD  = "cod"
)

// ValidStatuses liste les statuts acceptés pour une commande
var ValidStatuses = map[string]bool{
	StatusPending:   true,
	StatusPaid:      true,
	StatusFailed:    true,
	StatusCancelled: true,
	StatusShipped:   true,
	StatusCompleted: true,
}

// ValidPaymentMethods liste les méthodes de paiement acceptées au checkout
var ValidPaymentMethods = map[string]bool{
	PaymentMock: true,
	PaymentCard: true,
	PaymentCOD:  true,
}

// OrderItem est une copie figée du produit au moment de l'achat.
// Le prix n'est jamais relu depuis le catalogue après création.
type OrderItem struct {
	ProductID primitive.ObjectID `bson:"product_id" json:"productId"`
	SKU       string             `bson:"sku" json:"sku"`
	Name      string             `bson:"name" json:"name"`
	Price     float64            `bson:"price" json:"price"`
	Qty       int                `bson:"qty" json:"qty"`
	ImageURL  string             `bson:"image_url,omitempty" json:"imageUrl,omitempty"`
}

// ShippingAddress est l'adresse postale de livraison avec le nom du destinataire
type ShippingAddress struct {
	Name    string `bson:"name" json:"name"`
	Street  string `bson:"street" json:"street"`
	City    string `bson:"city" json:"city"`
	State   string `bson:"state,omitempty" json:"state,omitempty"`
	Zip     string `bson:"zip,omitempty" json:"zip,omitempty"`
	Country string `bson:"country,omitempty" json:"country,omitempty"`
	Phone   string `bson:"phone,omitempty" json:"phone,omitempty"`
}

// Payment regroupe les informations de paiement d'une commande
type Payment struct {
	Method    string     `bson:"method" json:"method"`
	PaidAt    *time.Time `bson:"paid_at,omitempty" json:"paidAt,omitempty"`
	Reference *string    `bson:"reference,omitempty" json:"reference,omitempty"`
}

// Order est une commande complète, créée une seule fois au checkout.
// Seuls le statut et les champs de paiement sont modifiés ensuite.
type Order struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	OrderNumber     string              `bson:"order_number,omitempty" json:"orderNumber,omitempty"`
	UserID          *primitive.ObjectID `bson:"user_id,omitempty" json:"userId,omitempty"`
	Email           string              `bson:"email" json:"email"`
	Items           []OrderItem         `bson:"items" json:"items"`
	Subtotal        float64             `bson:"subtotal" json:"subtotal"`
	Tax             float64             `bson:"tax" json:"tax"`
	Shipping        float64             `bson:"shipping" json:"shipping"`
	Total           float64             `bson:"total" json:"total"`
	Payment         Payment             `bson:"payment" json:"payment"`
	ShippingAddress ShippingAddress     `bson:"shipping_address" json:"shippingAddress"`
	Status          string              `bson:"status" json:"status"`
	PublicToken     string              `bson:"public_token" json:"publicToken"`
	CreatedAt       time.Time           `bson:"created_at" json:"createdAt"`
	UpdatedAt       time.Time           `bson:"updated_at" json:"updatedAt"`
}
