// Command coursehub-seed loads the demo users, courses and enrollments into
// an empty coursehub database.
//
// It reads COURSEHUB_MONGO_URI and COURSEHUB_MONGO_DATABASE, from the
// environment or a .env file in the working directory.
package main

import (
	"context"
	"os"
	"time"

	"github.com/dalemusser/coursehub/internal/app/seed"
	"github.com/dalemusser/coursehub/internal/app/system/indexes"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn("could not read .env", zap.Error(err))
	}

	uri := envOr("COURSEHUB_MONGO_URI", "mongodb://localhost:27017")
	dbName := envOr("COURSEHUB_MONGO_DATABASE", "coursehub")

	if err := run(uri, dbName, logger); err != nil {
		logger.Fatal("seed failed", zap.Error(err))
	}
}

func run(uri, dbName string, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return err
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return err
	}

	db := client.Database(dbName)
	if err := indexes.EnsureAll(ctx, db); err != nil {
		return err
	}
	_, err = seed.Demo(ctx, db, logger)
	return err
}
