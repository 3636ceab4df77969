package main // Entry point package

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/mesaqr/table-ordering/internal/checkout"
	"github.com/mesaqr/table-ordering/internal/config"
	"github.com/mesaqr/table-ordering/internal/database"
	"github.com/mesaqr/table-ordering/internal/handler"
	"github.com/mesaqr/table-ordering/internal/middleware"
	"github.com/mesaqr/table-ordering/internal/notify"
	"github.com/mesaqr/table-ordering/internal/queue"
	"github.com/mesaqr/table-ordering/internal/repository"
	"github.com/mesaqr/table-ordering/internal/rewards"
	"github.com/mesaqr/table-ordering/internal/router"
	"github.com/mesaqr/table-ordering/internal/storage"
	"github.com/mesaqr/table-ordering/internal/tablecode"
)

func main() {
	// Load .env when present; real deployments set the variables directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis backs the checkout flow snapshots as well as the optional
	// response cache and rate limiter.  Flows require it; the middleware
	// degrades gracefully without it.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Fatal("redis: connection failed; checkout flows need redis")
	}

	receipts, err := storage.NewReceiptStore(context.Background(), storage.Config{
		Endpoint:  cfg.MinioEndpoint,
		AccessKey: cfg.MinioAccessKey,
		SecretKey: cfg.MinioSecretKey,
		Bucket:    cfg.MinioBucket,
		UseSSL:    cfg.MinioUseSSL,
	})
	if err != nil {
		log.Fatalf("object storage: %v", err)
	}

	// Repositories.
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	categories := repository.NewCategoryRepo(db)
	products := repository.NewProductRepo(db)
	orders := repository.NewOrderRepo(db)
	rewardRepo := repository.NewRewardRepo(db)
	staff := repository.NewStaffRepo(db)

	// Domain services.
	ledger := rewards.NewLedger(rewardRepo)
	codes := tablecode.NewEncoder(cfg.TableCodeSecret)
	flows := checkout.NewStore(rdb, cfg.CheckoutTTL)
	hub := notify.NewHub()

	// Background consumer: logs status changes and feeds waiting flows.
	go func() {
		if err := queue.StartStatusConsumer(hub); err != nil {
			log.Printf("status consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true

	// Handlers.
	auth := handler.NewAuthHandler(cfg, users, tokens)
	public := &handler.PublicHandler{Categories: categories, Products: products, Codes: codes}
	checkoutH := &handler.CheckoutHandler{
		Flows:    flows,
		Products: products,
		Orders:   orders,
		Ledger:   ledger,
		Receipts: receipts,
		Staff:    staff,
		Codes:    codes,
		Hub:      hub,
	}
	ordersH := &handler.OrdersHandler{Orders: orders}
	rewardsH := &handler.RewardsHandler{Rewards: rewardRepo, Ledger: ledger}
	admin := handler.NewAdminHandler(cfg, orders, products, categories, rewardRepo, staff, receipts, codes, hub)

	// Public menu endpoints get the Redis-backed rate limiter and
	// response cache; everything else stays uncached.
	menuMW := []echo.MiddlewareFunc{
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
	}

	router.RegisterRoutes(e)
	router.RegisterAuth(e, auth, cfg.JWTSecret)
	router.RegisterPublic(e, public, menuMW...)
	router.RegisterCheckout(e, checkoutH, cfg.JWTSecret)
	router.RegisterCustomer(e, ordersH, rewardsH, cfg.JWTSecret)
	router.RegisterAdmin(e, admin, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
