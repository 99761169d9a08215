package database

import (
	"context"
	"regexp"
	"strings"
	"time"

	"mesa_back_end/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// OrderStore encapsule l'accès Mongo à la collection orders
type OrderStore struct {
	col *mongo.Collection
}

func NewOrderStore(db *mongo.Database) *OrderStore {
	return &OrderStore{col: db.Collection("orders")}
}

// Insert écrit la commande en un seul aller : l'identifiant et le numéro
// dérivé sont déjà posés par l'appelant. Une collision sur l'index unique
// partiel de order_number fait échouer l'écriture.
func (s *OrderStore) Insert(ctx context.Context, order *models.Order) error {
	_, err := s.col.InsertOne(ctx, order)
	return err
}

func (s *OrderStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var order models.Order
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByIDForUser ne retourne la commande que si elle appartient à l'utilisateur
func (s *OrderStore) FindByIDForUser(ctx context.Context, id, userID primitive.ObjectID) (*models.Order, error) {
	var order models.Order
	err := s.col.FindOne(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&order)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListByUser retourne les commandes d'un utilisateur, les plus récentes en premier
func (s *OrderStore) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.col.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// MarkPaid applique le $set inconditionnel de la réconciliation paiement.
// Rejouer le même événement réapplique les mêmes valeurs : l'update est
// naturellement idempotent sous livraison at-least-once.
func (s *OrderStore) MarkPaid(ctx context.Context, id primitive.ObjectID, reference string) error {
	now := time.Now()
	_, err := s.col.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{
			"status":            models.StatusPaid,
			"payment.paid_at":   now,
			"payment.reference": reference,
			"updated_at":        now,
		},
	})
	return err
}

// SetPaymentReference enregistre l'id du payment intent après sa création
func (s *OrderStore) SetPaymentReference(ctx context.Context, id primitive.ObjectID, reference string) error {
	_, err := s.col.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{
			"payment.reference": reference,
			"updated_at":        time.Now(),
		},
	})
	return err
}

// UpdateStatus change le statut d'une commande et retourne le document à jour.
// Le passage à paid pose payment.paid_at.
func (s *OrderStore) UpdateStatus(ctx context.Context, id primitive.ObjectID, status string) (*models.Order, error) {
	now := time.Now()
	set := bson.M{"status": status, "updated_at": now}
	if status == models.StatusPaid {
		set["payment.paid_at"] = now
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var order models.Order
	err := s.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&order)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// AdminListOptions regroupe les filtres de la liste back-office
type AdminListOptions struct {
	Status string
	Search string
	Page   int64
	Limit  int64
}

// ListAdmin retourne une page de commandes filtrées avec le total
func (s *OrderStore) ListAdmin(ctx context.Context, listOpts AdminListOptions) ([]models.Order, int64, error) {
	filter := BuildAdminFilter(listOpts.Status, listOpts.Search)

	findOpts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip((listOpts.Page - 1) * listOpts.Limit).
		SetLimit(listOpts.Limit)

	cursor, err := s.col.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	items := []models.Order{}
	if err := cursor.All(ctx, &items); err != nil {
		return nil, 0, err
	}

	total, err := s.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// BuildAdminFilter construit le filtre Mongo de la recherche back-office :
// statut exact, puis recherche insensible à la casse sur le numéro de
// commande, l'email et le nom du destinataire. Le téléphone accepte des
// séparateurs arbitraires entre les chiffres saisis.
func BuildAdminFilter(status, search string) bson.M {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}

	s := strings.TrimSpace(search)
	if s == "" {
		return filter
	}

	esc := regexp.QuoteMeta(s)
	ors := []bson.M{
		{"order_number": bson.M{"$regex": esc, "$options": "i"}},
		{"email": bson.M{"$regex": esc, "$options": "i"}},
		{"shipping_address.name": bson.M{"$regex": esc, "$options": "i"}},
	}

	if pattern := PhoneSearchPattern(s); pattern != "" {
		ors = append(ors, bson.M{"shipping_address.phone": bson.M{"$regex": pattern, "$options": "i"}})
	} else {
		ors = append(ors, bson.M{"shipping_address.phone": bson.M{"$regex": esc, "$options": "i"}})
	}

	filter["$or"] = ors
	return filter
}

var nonDigits = regexp.MustCompile(`\D+`)

// PhoneSearchPattern transforme une saisie en motif souple : les chiffres
// dans l'ordre, avec n'importe quels caractères non numériques entre eux.
// Retourne "" si la saisie contient moins de 3 chiffres.
func PhoneSearchPattern(search string) string {
	digits := nonDigits.ReplaceAllString(search, "")
	if len(digits) < 3 {
		return ""
	}
	return strings.Join(strings.Split(digits, ""), `\D*`)
}

// BackfillOrderNumbers régénère le numéro humain des commandes historiques
// qui n'en ont pas, avec la même dérivation que le checkout (même identifiant
// → même numéro). Exécuté au démarrage.
func (s *OrderStore) BackfillOrderNumbers(ctx context.Context, derive func(primitive.ObjectID) string) (int, error) {
	cursor, err := s.col.Find(ctx, bson.M{
		"order_number": bson.M{"$not": bson.M{"$type": "string"}},
	})
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	count := 0
	for cursor.Next(ctx) {
		var order models.Order
		if err := cursor.Decode(&order); err != nil {
			return count, err
		}
		_, err := s.col.UpdateByID(ctx, order.ID, bson.M{
			"$set": bson.M{"order_number": derive(order.ID)},
		})
		if err != nil {
			return count, err
		}
		count++
	}
	return count, cursor.Err()
}
