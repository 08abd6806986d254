package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"videoadguard/app/api/controller"
	"videoadguard/app/api/middleware"
	"videoadguard/app/api/routes"
	"videoadguard/app/client/bilibili"
	"videoadguard/app/client/llm"
	"videoadguard/app/client/transcribe"
	"videoadguard/app/config"
	"videoadguard/app/database"
	"videoadguard/app/database/migration"
	"videoadguard/app/service/bridge"
	"videoadguard/app/service/cache"
	"videoadguard/app/service/captions"
	"videoadguard/app/service/classify"
	"videoadguard/app/service/detect"
	"videoadguard/app/service/player"
	"videoadguard/app/service/pubsub"
	"videoadguard/app/service/settings"
	"videoadguard/app/service/whitelist"
	"videoadguard/app/util/mylog"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"github.com/samber/do"
	"github.com/spf13/cobra"
)

var configPath string

var Server = &cobra.Command{
	Use:   "server",
	Short: "Run server",
	Run:   runServer,
}

func init() {
	Server.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to config yaml file (required)")
}

//nolint:funlen
func runServer(_ *cobra.Command, _ []string) {
	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	di := do.New()
	do.ProvideValue(di, appCtx)

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("Failed to load config",
			slog.Any("error", err),
		)
		os.Exit(1) //nolint:gocritic
		return
	}
	do.ProvideValue(di, cfg)

	if err = mylog.InitSentry(cfg); err != nil {
		slog.Error("Failed to init sentry",
			slog.Any("error", err),
		)
		os.Exit(1)
		return
	}
	defer sentry.Flush(3 * time.Second)

	if err = mylog.Init(cfg); err != nil {
		slog.Error("Failed to init logging",
			slog.Any("error", err),
		)
		os.Exit(1)
		return
	}
	slog.InfoContext(appCtx, "Starting service...",
		slog.Bool("telegram", true),
	)

	dbConn, err := database.Open(cfg.DB.Path)
	if err != nil {
		slog.Error("Failed to open database",
			slog.Any("error", err),
		)
		os.Exit(1)
		return
	}
	defer dbConn.Close()

	queries := database.New(dbConn)
	do.ProvideValue(di, database.TxQueries(queries))

	transactor := database.NewTransactor(dbConn, queries)
	do.ProvideValue(di, database.TxTransactor(transactor))

	if err = migration.Migrate(appCtx, di); err != nil {
		slog.Error("Migrations failed",
			slog.Any("error", err),
		)
		os.Exit(1)
		return
	}

	do.Provide(di, bilibili.NewClient)
	do.Provide(di, llm.NewClient)
	do.Provide(di, transcribe.NewClient)

	do.Provide(di, pubsub.New)
	do.Provide(di, settings.New)
	do.Provide(di, whitelist.New)
	do.Provide(di, cache.New)
	do.Provide(di, captions.New)
	do.Provide(di, classify.New)
	do.Provide(di, player.New)
	do.Provide(di, detect.New)
	do.Provide(di, bridge.New)

	go do.MustInvoke[*cache.Service](di).RunEvictionLoop(appCtx)

	server := controller.NewServer(di)
	wsController := controller.NewWS(di)

	app := fiber.New(fiber.Config{ //nolint:exhaustruct
		AppName:               "VideoAdGuard API",
		DisableStartupMessage: true,
		ErrorHandler:          middleware.ErrorHandler,
		ProxyHeader:           "X-Forwarded-For",
		ReadTimeout:           time.Second * 60,
		WriteTimeout:          time.Second * 60,
		DisableKeepalive:      false,
	})

	middleware.FiberMiddleware(app, di)

	routes.ApiRoutes(app, server)
	routes.WSRoutes(app, wsController)
	routes.NotFoundRoute(app)

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt)
		<-sigint

		slog.Info("Shutting down server...")

		_ = app.Shutdown()
		cancel()
	}()

	slog.Info(fmt.Sprintf("Server started on port %d", cfg.Server.HttpPort))
	if err := app.Listen(fmt.Sprintf(":%d", cfg.Server.HttpPort)); err != nil {
		slog.Warn("Server stopped",
			slog.Any("error", err),
		)
	}

	slog.Info("Waiting for services to finish...")
	_ = di.Shutdown()
}
