package order

import (
	"context"

	"mesa_back_end/internal/alerts"
	"mesa_back_end/internal/database"
	"mesa_back_end/internal/models"
	"mesa_back_end/internal/payments"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProductFinder est la capacité de consultation du catalogue consommée par le checkout
type ProductFinder interface {
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error)
}

// OrderStore est l'accès au dépôt de commandes
type OrderStore interface {
	Insert(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	FindByIDForUser(ctx context.Context, id, userID primitive.ObjectID) (*models.Order, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error)
	SetPaymentReference(ctx context.Context, id primitive.ObjectID, reference string) error
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status string) (*models.Order, error)
	ListAdmin(ctx context.Context, opts database.AdminListOptions) ([]models.Order, int64, error)
}

// PaymentGateway est le client de paiement externe, avec absence gracieuse
type PaymentGateway interface {
	Enabled() bool
	CreateIntent(amountCents int64, currency string, metadata map[string]string) (*payments.Intent, error)
}

// Handler regroupe les dépendances des routes commandes. Le bus d'alertes est
// injecté à la construction, jamais un singleton de package.
type Handler struct {
	Orders   OrderStore
	Products ProductFinder
	Gateway  PaymentGateway
	Bus      *alerts.Bus
}

func NewHandler(orders OrderStore, products ProductFinder, gateway PaymentGateway, bus *alerts.Bus) *Handler {
	return &Handler{
		Orders:   orders,
		Products: products,
		Gateway:  gateway,
		Bus:      bus,
	}
}
