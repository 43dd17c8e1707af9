package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/wichananm65/storefront-backend/internal/apperror"
	"github.com/wichananm65/storefront-backend/internal/auth"
	"github.com/wichananm65/storefront-backend/internal/cart"
	"github.com/wichananm65/storefront-backend/internal/category"
	"github.com/wichananm65/storefront-backend/internal/config"
	"github.com/wichananm65/storefront-backend/internal/kafka"
	"github.com/wichananm65/storefront-backend/internal/order"
	"github.com/wichananm65/storefront-backend/internal/postgres"
	"github.com/wichananm65/storefront-backend/internal/product"
	"github.com/wichananm65/storefront-backend/internal/redisx"
	"github.com/wichananm65/storefront-backend/internal/user"
)

const eventBuffer = 1024

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalw("invalid configuration", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db := mustOpenDB(ctx, cfg)
	defer db.Close()

	var cartCache cart.Cache = cart.NopCache{}
	if rdb := openRedis(ctx, cfg); rdb != nil {
		defer rdb.Close()
		cartCache = cart.NewRedisCache(rdb, cfg.CartCacheTTL)
	}

	var events order.Publisher = order.NopPublisher{}
	var producer *kafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = kafka.NewProducer(cfg.KafkaBrokers, cfg.OrderEventsTopic, eventBuffer)
		producer.Start(context.Background())
		events = kafka.NewOrderPublisher(producer, cfg.ServiceName)
		log.Infow("order events enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.OrderEventsTopic)
	}

	userService := user.NewService(user.NewPostgresRepository(db))
	productRepo := product.NewPostgresRepository(db)
	productService := product.NewService(productRepo)
	categoryService := category.NewService(category.NewPostgresRepository(db))
	cartService := cart.NewService(cart.NewPostgresRepository(db), productRepo, cartCache)
	orderService := order.NewService(order.NewPostgresRepository(db), cartService, events)

	userHandler := user.NewHandler(userService)
	productHandler := product.NewHandler(productService)
	categoryHandler := category.NewHandler(categoryService)
	cartHandler := cart.NewHandler(cartService)
	orderHandler := order.NewHandler(orderService)

	app := fiber.New(fiber.Config{
		AppName:      cfg.ServiceName,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(fiber.Map{"success": false, "message": fe.Message})
			}
			return apperror.Respond(c, err)
		},
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
	}))
	setupCORS(app)

	app.Get("/healthz", func(c *fiber.Ctx) error {
		if err := db.PingContext(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// public routes go first so the token middleware below never sees them
	api := app.Group("/api/v1")
	productHandler.RegisterPublicRoutes(api)
	categoryHandler.RegisterPublicRoutes(api)

	protected := app.Group("/api/v1", auth.New(cfg.JWTSecret), user.RequireUser(userService))
	userHandler.RegisterProtectedRoutes(protected)
	cartHandler.RegisterProtectedRoutes(protected)
	orderHandler.RegisterProtectedRoutes(protected)

	admin := protected.Group("/admin", auth.RequireAdmin(auth.NewPolicy(cfg.AdminRoles, cfg.AdminEmails)))
	productHandler.RegisterAdminRoutes(admin)

	go func() {
		<-ctx.Done()
		log.Infow("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Errorw("shutdown failed", "error", err)
		}
	}()

	log.Infow("starting server", "addr", cfg.Addr)
	if err := app.Listen(cfg.Addr); err != nil {
		log.Errorw("server stopped", "error", err)
	}

	if producer != nil {
		producer.Close()
		producer.WaitClosed()
	}
}

func setupCORS(app *fiber.App) {
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
}

func mustOpenDB(ctx context.Context, cfg config.Config) *sql.DB {
	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalw("database unavailable", "error", err)
	}
	if cfg.RunMigrations {
		if err := postgres.Migrate(db); err != nil {
			log.Fatalw("migration failed", "error", err)
		}
	}
	return db
}

// openRedis returns nil when the cart cache is disabled or unreachable.
func openRedis(ctx context.Context, cfg config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	rdb := redisx.New(cfg.RedisAddr)
	if err := redisx.Ping(ctx, rdb); err != nil {
		log.Warnw("redis unavailable, cart cache disabled", "addr", cfg.RedisAddr, "error", err)
		_ = rdb.Close()
		return nil
	}
	return rdb
}
