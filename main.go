package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"

	"proctorx_backend/internals/configs"
	database "proctorx_backend/internals/databases"
	"proctorx_backend/internals/helpers/reporting"
	middlewares "proctorx_backend/internals/middlewares"
	routes "proctorx_backend/internals/route"
	"proctorx_backend/internals/seeds"
)

func main() {
	configs.LoadEnv()
	if err := configs.CheckJWTSecret(); err != nil {
		log.Fatalf("[ERROR] %v", err)
	}
	reporting.Init(reporting.Config{
		Token:       configs.GetEnv("ROLLBAR_TOKEN"),
		Environment: configs.AppEnv,
		CodeVersion: configs.GetEnv("CODE_VERSION", "dev"),
	})
	defer reporting.Close()

	app := fiber.New(fiber.Config{
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
		DisableStartupMessage: true,
		ProxyHeader:           fiber.HeaderXForwardedFor,
		BodyLimit:             10 * 1024 * 1024, // base64 snapshots
		ErrorHandler:          middlewares.ErrorHandler,
	})

	middlewares.SetupMiddlewares(app)

	// DB connect + pool + warm-up, unless running on the memory driver
	if !routes.MemoryDriver() {
		database.ConnectDB()
		database.TunePool()
		database.AutoMigrate(routes.Tables()...)
		database.WarmUpQueries()
	}

	ctx, stopBridge := context.WithCancel(context.Background())
	defer stopBridge()

	deps, err := routes.BuildDeps(ctx, database.DB)
	if err != nil {
		log.Fatalf("[ERROR] wiring: %v", err)
	}
	if configs.GetEnvBool("SEED_DEMO", false) {
		if err := seeds.RunDemo(ctx, deps.Auth, deps.Profiles, deps.Exams); err != nil {
			log.Printf("[WARN] demo seed: %v", err)
		}
	}
	deps.StartSchedulers()

	routes.SetupRoutes(app, deps, routes.DefaultLimits())

	app.Server().ReadTimeout = 15 * time.Second
	app.Server().WriteTimeout = 30 * time.Second
	app.Server().IdleTimeout = 90 * time.Second

	port := configs.GetEnv("PORT", "5000")
	go func() {
		log.Printf("[INFO] listening on :%s", port)
		if err := app.Listen("0.0.0.0:" + port); err != nil {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown: stop accepting, then drain schedulers and notifications
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = app.ShutdownWithContext(shutdownCtx)

	deps.Close()
	database.Close()
}
