package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/tercih-asistani/app/config"
	"github.com/tercih-asistani/app/controllers"
	"github.com/tercih-asistani/app/services"
	"github.com/tercih-asistani/internal/calculator"
	"github.com/tercih-asistani/internal/catalog"
	"github.com/tercih-asistani/internal/composer"
	"github.com/tercih-asistani/internal/extract"
	"github.com/tercih-asistani/internal/intent"
	"github.com/tercih-asistani/internal/normalizer"
	"github.com/tercih-asistani/internal/resolver"
	"github.com/tercih-asistani/routes"
)

func main() {
	// 1. Load configuration
	loadConfig()

	// 2. Init logger
	logger := initLogger()
	defer logger.Sync()

	logger.Info("Starting Tercih Asistani Service")

	if err := config.Load(viper.GetString("app.config_file")); err != nil {
		logger.Warn("Cannot read app config file, using defaults", zap.Error(err))
	}

	// 3. Catalog repository: MongoDB in production, a JSON fixture when
	// CATALOG_FILE is set (local development, tests).
	var repo catalog.Repository
	var mongoDB *mongo.Database
	if path := os.Getenv("CATALOG_FILE"); path != "" {
		memRepo, err := catalog.LoadFile(path)
		if err != nil {
			logger.Fatal("Failed to load catalog file", zap.Error(err), zap.String("path", path))
		}
		repo = memRepo
		logger.Info("Using file catalog", zap.String("path", path))
	} else {
		mongoDB = initMongoDB(logger)
		repo = catalog.NewMongoRepository(mongoDB, logger)
	}
	if mongoDB != nil {
		defer func() {
			if err := mongoDB.Client().Disconnect(context.Background()); err != nil {
				logger.Error("Error disconnecting MongoDB", zap.Error(err))
			}
		}()
	}

	// 4. Pipeline components
	textNormalizer := normalizer.NewTextNormalizer()
	classifier := intent.NewClassifier(config.C.Intent.MinScore)
	extractor := extract.NewEntityExtractor()

	rs, err := resolver.NewResolver(config.C.Resolver, logger)
	if err != nil {
		logger.Fatal("Failed to initialize resolver", zap.Error(err))
	}

	// 5. Build the initial catalog snapshot
	catalogService := services.NewCatalogService(repo, rs, textNormalizer, logger)
	if _, err := catalogService.Reload(context.Background()); err != nil {
		logger.Fatal("Failed to build catalog index", zap.Error(err))
	}

	// 6. Session store: Redis when configured, in-memory otherwise
	var sessions services.SessionStore
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		sessions, err = services.NewRedisSessionStore(redisURL, config.SessionTTL(), logger)
		if err != nil {
			logger.Fatal("Failed to initialize Redis session store", zap.Error(err))
		}
	} else {
		sessions = services.NewMemorySessionStore(config.SessionTTL(), logger)
	}
	defer sessions.Close()

	// 7. Services
	calc := calculator.NewCalculator(repo, config.C.Calculator, logger)
	cp := composer.NewComposer(logger)
	chatService := services.NewChatService(
		textNormalizer, classifier, extractor, rs, repo, calc, cp,
		sessions, config.C.Calculator.DefaultMargin, logger)

	// 8. Controllers
	chatController := controllers.NewChatController(chatService, calc, rs, logger)
	adminController := controllers.NewAdminController(catalogService, logger)

	// 9. Router
	router := gin.New()
	routes.SetupAllRoutes(router, chatController, adminController)

	// 10. Start server
	port := getEnv("APP_PORT", "8080")
	logger.Info("Tercih Asistani Service starting", zap.String("port", port))

	if err := router.Run(":" + port); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}

// loadConfig loads configuration from file and env vars.
func loadConfig() {
	viper.SetConfigName("app")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	viper.SetDefault("app.port", "8080")
	viper.SetDefault("app.env", "development")
	viper.SetDefault("app.config_file", "config/tercih.yaml")
	viper.SetDefault("mongo.url", "mongodb://localhost:27017/tercih_asistani")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Cannot read config file: %v", err)
	}
}

// initLogger creates the structured logger.
func initLogger() *zap.Logger {
	env := getEnv("APP_ENV", "development")

	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	logger, err := cfg.Build()
	if err != nil {
		log.Fatal("Cannot initialize logger:", err)
	}

	return logger
}

// initMongoDB connects and pings MongoDB.
func initMongoDB(logger *zap.Logger) *mongo.Database {
	mongoURL := getEnv("MONGO_URL", viper.GetString("mongo.url"))

	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(mongoURL))
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.Ping(ctx, nil); err != nil {
		logger.Fatal("Failed to ping MongoDB", zap.Error(err))
	}

	dbName := getEnv("MONGO_DB", "tercih_asistani")
	db := client.Database(dbName)
	logger.Info("Connected to MongoDB", zap.String("database", dbName))

	return db
}

// getEnv reads an environment variable with a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
