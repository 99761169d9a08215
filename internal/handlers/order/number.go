package order

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NumberPrefix est le code boutique préfixant chaque numéro de commande
const NumberPrefix = "MES-"

// DeriveOrderNumber dérive le numéro humain d'une commande des 6 derniers
// caractères hex de son identifiant pré-alloué. Même identifiant → même
// numéro : le backfill des commandes historiques produit exactement le
// numéro que le checkout aurait généré. L'unicité réelle est garantie par
// l'index unique partiel sur order_number, pas par la dérivation.
func DeriveOrderNumber(id primitive.ObjectID) string {
	hex := id.Hex()
	return NumberPrefix + strings.ToUpper(hex[len(hex)-6:])
}
