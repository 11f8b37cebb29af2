package main

import (
	"context"
	"log"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"aether-backend/internal/audit"
	"aether-backend/internal/auth"
	"aether-backend/internal/chain"
	"aether-backend/internal/config"
	"aether-backend/internal/dashboard"
	"aether-backend/internal/database"
	"aether-backend/internal/events"
	"aether-backend/internal/goldenvisa"
	"aether-backend/internal/investment"
	"aether-backend/internal/market"
	"aether-backend/internal/message"
	"aether-backend/internal/mirror"
	"aether-backend/internal/models"
	"aether-backend/internal/property"
	"aether-backend/internal/transactions"
	"aether-backend/internal/upload"
	"aether-backend/internal/user"
	"aether-backend/internal/web"
	"aether-backend/internal/yield"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := config.Load()
	database.Init(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := chain.Dial(cfg)
	if err != nil {
		log.Fatalf("Chain node connection failed: %v", err)
	}
	defer client.Close()

	var pub events.Publisher = events.Nop{}
	if cfg.AMQPURL != "" {
		broker, err := events.Dial(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Printf("[WARN] Event broker unavailable, events are dropped: %v", err)
		} else {
			pub = broker
		}
	}
	defer pub.Close()

	mir := mirror.New(client, pub, cfg.SyncInterval)
	payouts := yield.NewService(client, pub)
	if _, err := payouts.Schedule(ctx, cfg.YieldSchedule); err != nil {
		log.Fatalf("Yield schedule: %v", err)
	}

	app := web.NewApp()
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(helmet.New(helmet.Config{CrossOriginResourcePolicy: "cross-origin"}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.Origins(), ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-User-Address",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "OK", "timestamp": time.Now().UTC()})
	})
	if cfg.MetricsEnabled {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	}
	app.Static("/uploads", cfg.UploadDir)

	jwt := auth.JWTMiddleware(cfg)
	admin := auth.RequireRole(models.RoleAdmin)

	api := app.Group("/api")

	api.Post("/auth/login", auth.LoginHandler(cfg))
	api.Post("/auth/verify", auth.VerifyHandler(cfg))
	api.Get("/auth/me", jwt, auth.MeHandler())

	// Admin guards are attached per route; a guarded group would also cover the public routes below it.
	props := api.Group("/properties")
	props.Get("/", property.ListPropertiesHandler())
	props.Get("/admin/stats", jwt, admin, property.StatsHandler())
	props.Get("/admin/chart", jwt, admin, dashboard.VolumeChartHandler())
	props.Post("/seed", jwt, admin, property.SeedHandler())
	props.Post("/yield-distribute", jwt, admin, yield.DistributeHandler(payouts))
	props.Post("/yield-distribute-all", jwt, admin, yield.DistributeAllHandler(payouts))
	props.Post("/", jwt, admin, property.CreatePropertyHandler())
	props.Get("/:id", property.GetPropertyHandler())
	props.Put("/:id", jwt, admin, property.UpdatePropertyHandler())
	props.Delete("/:id", jwt, admin, property.DeletePropertyHandler())

	inv := api.Group("/investments")
	inv.Get("/user/:address", investment.ListUserInvestmentsHandler())
	inv.Get("/payouts/user/:address", investment.ListUserPayoutsHandler())
	inv.Post("/record", investment.RecordInvestmentHandler())

	api.Get("/transactions", transactions.ListTransactionsHandler())

	users := api.Group("/users")
	users.Get("/", jwt, admin, user.ListUsersHandler())
	users.Post("/register", user.RegisterHandler())
	users.Patch("/:address/kyc", jwt, admin, user.UpdateKYCHandler())

	gv := api.Group("/golden-visa")
	gv.Get("/list/:address", goldenvisa.ListHandler())
	gv.Post("/new", goldenvisa.NewApplicationHandler())
	gv.Post("/deposit", goldenvisa.DepositHandler())
	gv.Patch("/id/:id", goldenvisa.UpdateByIDHandler())
	gv.Get("/:address", goldenvisa.GetLatestHandler())
	gv.Patch("/:address", goldenvisa.UpdateLatestHandler())

	mkt := api.Group("/market")
	mkt.Get("/orders", market.ListOrdersHandler())
	mkt.Post("/orders", market.CreateOrderHandler())
	mkt.Post("/execute", market.ExecuteHandler())
	mkt.Get("/activity", market.ActivityHandler())

	msgs := api.Group("/messages")
	msgs.Get("/", message.ListConversationsHandler())
	msgs.Get("/unread-count", message.UnreadCountHandler())
	msgs.Get("/:partner", message.HistoryHandler())
	msgs.Post("/", message.SendHandler(cfg.AdminWalletAddress))

	up := api.Group("/upload")
	up.Post("/", upload.UploadHandler(cfg.UploadDir, upload.NewPinata(cfg.PinataURL, cfg.PinataJWT)))
	up.Get("/user/:address", upload.ListDocumentsHandler())

	api.Get("/chain/height", chain.HeightHandler(client))
	api.Get("/balances/:address", mirror.ListBalancesHandler())
	api.Post("/balances/:address/refresh", mirror.RefreshBalancesHandler(mir))

	api.Get("/audit-logs", jwt, admin, audit.ListAuditLogsHandler())
	api.Post("/audit-logs/:id/undo", jwt, admin, audit.UndoAuditLogHandler())

	go mir.Run(ctx)

	go func() {
		<-ctx.Done()
		log.Println("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Printf("Shutdown: %v", err)
		}
	}()

	log.Printf("Aether backend listening on :%s", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
	payouts.Wait()
}
