package database

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// --- Variables Globales ---
var (
	Mongo           *mongo.Client
	MongoOrdersDB   *mongo.Database
	MongoProductsDB *mongo.Database
	Redis           *redis.Client
	RedisClient     *redis.Client // Alias pour compatibilité
)

// --- Initialisation ---
func ConnectDatabases() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// 1. Initialiser MongoDB
	connectMongo(ctx)

	// 2. Initialiser Redis
	connectRedis(ctx)

	log.Println("✅ Toutes les bases de données sont connectées")
}

// =============================================
// MONGODB (commandes + catalogue)
// =============================================
func connectMongo(ctx context.Context) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		log.Fatal("❌ Erreur connexion MongoDB:", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		log.Fatal("❌ MongoDB injoignable:", err)
	}

	ordersDB := os.Getenv("MONGO_ORDERS_DB")
	if ordersDB == "" {
		ordersDB = "mesa_orders"
	}
	productsDB := os.Getenv("MONGO_PRODUCTS_DB")
	if productsDB == "" {
		productsDB = "mesa_products"
	}

	Mongo = client
	MongoOrdersDB = client.Database(ordersDB)
	MongoProductsDB = client.Database(productsDB)

	if err := ensureOrderIndexes(ctx); err != nil {
		log.Fatal("❌ Erreur création index commandes:", err)
	}

	log.Println("✅ Connecté à MongoDB :", uri)
}

// ensureOrderIndexes crée les index de la collection orders.
// L'unicité de order_number est partielle : elle ne s'applique qu'aux
// documents où le champ est une chaîne, pour tolérer les commandes
// historiques qui n'en ont pas encore (backfill au démarrage).
func ensureOrderIndexes(ctx context.Context) error {
	col := MongoOrdersDB.Collection("orders")

	_, err := col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "order_number", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"order_number": bson.M{"$type": "string"}}),
		},
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "email", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	})
	return err
}

// =============================================
// REDIS (rate limiting)
// =============================================
func connectRedis(ctx context.Context) {
	Redis = redis.NewClient(&redis.Options{
		Addr:     os.Getenv("REDIS_HOST"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})
	RedisClient = Redis // Alias pour compatibilité

	if err := Redis.Ping(ctx).Err(); err != nil {
		log.Fatal("❌ Erreur connexion Redis:", err)
	}
	log.Println("✅ Connecté à Redis")
}
