package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/tercih-asistani/internal/catalog"
)

// Seeds the MongoDB catalog from a JSON fixture. The fixture is validated
// through the memory repository first so a broken file never half-replaces
// the collections.
func main() {
	var (
		file     = flag.String("file", "data/catalog.json", "catalog fixture to load")
		mongoURL = flag.String("mongo", envOr("MONGO_URL", "mongodb://localhost:27017"), "MongoDB connection URL")
		dbName   = flag.String("db", envOr("MONGO_DB", "tercih_asistani"), "database name")
	)
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal("cannot initialize logger:", err)
	}
	defer logger.Sync()

	data, err := os.ReadFile(*file)
	if err != nil {
		logger.Fatal("cannot read fixture", zap.Error(err), zap.String("file", *file))
	}
	var cf catalog.CatalogFile
	if err := json.Unmarshal(data, &cf); err != nil {
		logger.Fatal("cannot parse fixture", zap.Error(err), zap.String("file", *file))
	}
	if _, err := catalog.NewMemoryRepository(cf.Institutions, cf.Programs, cf.ScoreRecords, cf.Coefficients); err != nil {
		logger.Fatal("fixture validation failed", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(*mongoURL))
	if err != nil {
		logger.Fatal("cannot connect to MongoDB", zap.Error(err))
	}
	defer client.Disconnect(context.Background())

	if err := client.Ping(ctx, nil); err != nil {
		logger.Fatal("cannot ping MongoDB", zap.Error(err))
	}

	repo := catalog.NewMongoRepository(client.Database(*dbName), logger)
	if err := repo.Seed(ctx, cf); err != nil {
		logger.Fatal("seed failed", zap.Error(err))
	}

	version, err := repo.Version(ctx)
	if err != nil {
		logger.Fatal("cannot fingerprint catalog", zap.Error(err))
	}
	logger.Info("catalog seeded",
		zap.String("version", version),
		zap.Int("institutions", len(cf.Institutions)),
		zap.Int("programs", len(cf.Programs)),
		zap.Int("score_records", len(cf.ScoreRecords)),
		zap.Int("coefficients", len(cf.Coefficients)))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
