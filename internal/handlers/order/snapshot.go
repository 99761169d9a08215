package order

import (
	"context"
	"errors"
	"fmt"

	"mesa_back_end/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrProductsUnavailable : au moins un produit du panier a disparu du
// catalogue entre sa construction et le checkout. Aucune commande partielle.
var ErrProductsUnavailable = errors.New("un ou plusieurs produits sont invalides ou indisponibles")

// InvalidProductIDError : un id de produit n'est pas un ObjectID bien formé.
// Distinct de "introuvable" — on échoue avant même d'interroger le catalogue.
type InvalidProductIDError struct {
	ID string
}

func (e *InvalidProductIDError) Error() string {
	return fmt.Sprintf("id produit invalide: %s", e.ID)
}

// snapshotItem est une ligne de panier en entrée du checkout
type snapshotItem struct {
	ProductID string
	Qty       int
}

// buildOrderItems transforme le panier en lignes de commande figées :
// sku, nom affichable, prix unitaire et première image copiés depuis le
// catalogue au moment de l'achat. Un seul chargement batch ; si le nombre
// de produits retournés diffère du nombre d'ids distincts demandés, tout
// le checkout échoue.
func buildOrderItems(ctx context.Context, finder ProductFinder, items []snapshotItem) ([]models.OrderItem, float64, error) {
	// Valider la forme de tous les ids avant la moindre requête
	seen := make(map[primitive.ObjectID]struct{}, len(items))
	ids := make([]primitive.ObjectID, 0, len(items))
	for _, item := range items {
		oid, err := primitive.ObjectIDFromHex(item.ProductID)
		if err != nil {
			return nil, 0, &InvalidProductIDError{ID: item.ProductID}
		}
		if _, dup := seen[oid]; !dup {
			seen[oid] = struct{}{}
			ids = append(ids, oid)
		}
	}

	products, err := finder.FindByIDs(ctx, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("chargement produits: %w", err)
	}
	if len(products) != len(ids) {
		return nil, 0, ErrProductsUnavailable
	}

	productMap := make(map[primitive.ObjectID]models.Product, len(products))
	for _, p := range products {
		productMap[p.ID] = p
	}

	orderItems := make([]models.OrderItem, 0, len(items))
	var subtotal float64
	for _, item := range items {
		oid, _ := primitive.ObjectIDFromHex(item.ProductID)
		p, ok := productMap[oid]
		if !ok {
			return nil, 0, ErrProductsUnavailable
		}
		orderItems = append(orderItems, models.OrderItem{
			ProductID: p.ID,
			SKU:       p.SKU,
			Name:      p.DisplayName(),
			Price:     p.Price,
			Qty:       item.Qty,
			ImageURL:  p.FirstImageURL(),
		})
		subtotal += p.Price * float64(item.Qty)
	}

	return orderItems, subtotal, nil
}
