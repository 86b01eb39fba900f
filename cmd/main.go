package main

import (
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/romchek6/Maxmoll/internal/config"
	"github.com/romchek6/Maxmoll/internal/db"
	"github.com/romchek6/Maxmoll/internal/handlers"
	"github.com/romchek6/Maxmoll/internal/messaging"
	"github.com/romchek6/Maxmoll/internal/repository"
	"github.com/romchek6/Maxmoll/internal/service"
	"github.com/romchek6/Maxmoll/pkg/logger"
)

func main() {
	cfg := config.Load()
	log := logger.NewLogger(cfg.ServiceName, cfg.LogLevel)
	defer log.Sync()

	log.Info("warehouse orders service starting")

	database, err := initDatabase(cfg)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	defer database.Close()

	if err := db.RunMigrations(database); err != nil {
		log.Fatal("migrations failed", zap.Error(err))
	}

	// The order event publisher is optional: without a reachable broker the
	// service still serves requests and skips events.
	var publisher *messaging.Publisher
	rabbitClient := messaging.NewRabbitMQClient(messaging.NewRabbitMQConfig(), log)
	if err := rabbitClient.Connect(); err != nil {
		log.Warn("rabbitmq unavailable, order events disabled", zap.Error(err))
	} else {
		defer rabbitClient.Close()
		publisher = messaging.NewPublisher(rabbitClient, log)
	}

	store := repository.NewStore(database)
	orderService := service.NewOrderService(store, publisher, log)
	catalogService := service.NewCatalogService(store)

	orderHandler := handlers.NewOrderHandler(orderService, log)
	catalogHandler := handlers.NewCatalogHandler(catalogService, log)

	app := setupFiberApp(log)
	setupRoutes(app, orderHandler, catalogHandler)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info("warehouse orders service shutting down")
		if err := app.Shutdown(); err != nil {
			log.Error("shutdown error", zap.Error(err))
		}
	}()

	log.Info("warehouse orders service listening", zap.String("port", cfg.Port))
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal("server start failed", zap.Error(err))
	}
}

func initDatabase(cfg *config.Config) (*sql.DB, error) {
	connectionString := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName,
	)

	database, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("database open error: %w", err)
	}

	if err := database.Ping(); err != nil {
		return nil, fmt.Errorf("database ping error: %w", err)
	}

	return database, nil
}

func setupFiberApp(log *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "Warehouse Orders v1.0",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			log.Error("request failed", zap.Error(err))
			return c.Status(code).JSON(fiber.Map{"errors": err.Error()})
		},
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${method} ${path} - ${latency}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,PATCH,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,X-Request-ID",
	}))

	return app
}

func setupRoutes(app *fiber.App, orderHandler *handlers.OrderHandler, catalogHandler *handlers.CatalogHandler) {
	api := app.Group("/api")

	api.Get("/health", orderHandler.HealthCheck)

	api.Get("/warehouses", catalogHandler.Warehouses)
	api.Get("/products", catalogHandler.Products)

	orders := api.Group("/orders")
	orders.Get("/", orderHandler.Index)
	orders.Post("/", orderHandler.Store)
	orders.Put("/:id", orderHandler.Update)
	orders.Patch("/:id", orderHandler.Update)

	app.Use("*", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"errors": "Route not found",
		})
	})
}
