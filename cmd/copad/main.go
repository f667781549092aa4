package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/MKJM2/cs2620-final-prototype/internal/server"
	"github.com/MKJM2/cs2620-final-prototype/internal/store"
)

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using environment")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var (
		st    store.Store
		users *mongo.Collection
	)
	switch getenv("STORE", "memory") {
	case "mongo":
		uri := getenv("MONGO_URI", "mongodb://localhost:27017")
		cli, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
		if err != nil {
			log.Fatal(err)
		}
		if err := cli.Ping(ctx, nil); err != nil {
			log.Fatal(err)
		}
		db := cli.Database(getenv("MONGO_DB", "copad"))
		st = store.NewMongo(db)
		users = db.Collection("users")
	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: getenv("REDIS_ADDR", "localhost:6379")})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal(err)
		}
		st = store.NewRedis(rdb)
	case "memory":
		st = store.NewMemory()
	default:
		log.Fatalf("unknown STORE %q", os.Getenv("STORE"))
	}

	s := server.New(st, users, []byte(getenv("JWT_SECRET", "copad-dev-secret")))

	if doc := os.Getenv("SEED_DOC"); doc != "" {
		if err := s.Seed(ctx, doc, os.Getenv("SEED_TEXT")); err != nil {
			log.Fatal(err)
		}
	}

	log.Fatal(server.Run(getenv("ADDR", "127.0.0.1:8080"), s))
}
