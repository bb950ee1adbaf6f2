package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/AIRF0X788/Op-V2/internal/bot"
	"github.com/AIRF0X788/Op-V2/internal/config"
	"github.com/AIRF0X788/Op-V2/internal/game"
	"github.com/AIRF0X788/Op-V2/internal/monitoring"
	"github.com/AIRF0X788/Op-V2/internal/server"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	port := flag.Int("port", -1, "HTTP/websocket port (-1 to use config default)")
	grpcPort := flag.Int("grpc-port", -1, "Admin gRPC port (-1 to use config default)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error) (empty to use config default)")
	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize config")
	}
	if err := config.LoadEnvironmentConfig(os.Getenv("APP_ENV")); err != nil {
		log.Fatal().Err(err).Msg("Failed to load environment config")
	}
	cfg := config.Get()

	if *port == -1 {
		*port = cfg.Server.HTTP.Port
	}
	if *grpcPort == -1 {
		*grpcPort = cfg.Server.GRPC.Port
	}
	if *logLevel == "" {
		*logLevel = cfg.Server.LogLevel
	}
	if cfg.Development.VerboseLogging {
		*logLevel = "debug"
	}
	setupLogging(*logLevel)
	if os.Getenv("APP_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := server.NewMatchRegistry(ctx, server.RegistryConfig{
		Rules:            game.RulesFromConfig(cfg),
		MaxRooms:         cfg.Server.Rooms.MaxRooms,
		FinishedTTL:      cfg.Server.Rooms.FinishedTTL,
		AbandonedTimeout: cfg.Server.Rooms.AbandonedTimeout,
		CleanupInterval:  cfg.Server.Rooms.CleanupInterval,
		BotFactory:       bot.NewFactory(log.Logger),
		LogEvents:        cfg.Development.LogEvents,
		Logger:           log.Logger,
	})
	hub := server.NewHub(registry, server.HubConfig{
		AllowedOrigins: cfg.Server.HTTP.AllowedOrigins,
		SendBuffer:     cfg.Server.Rooms.SendBuffer,
	}, log.Logger)

	monitor := monitoring.NewGoroutineMonitor(monitoring.Options{}, log.Logger)
	monitor.Register("rooms", registry.Count)
	monitor.Register("sessions", hub.SessionCount)

	router := server.NewRouter(hub, registry, log.Logger)
	router.GET("/debug/goroutines", func(c *gin.Context) {
		c.JSON(http.StatusOK, monitor.Metrics())
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.HTTP.Host, *port),
		Handler:      router,
		ReadTimeout:  cfg.Server.HTTP.ReadTimeout,
		WriteTimeout: cfg.Server.HTTP.WriteTimeout,
	}

	grpcLis, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.Server.GRPC.Host, *grpcPort))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to listen for admin gRPC")
	}
	admin := newAdminServer(registry, cfg.Server.GRPC.EnableReflection)

	config.WatchConfig(func(next *config.Config, err error) {
		if err != nil {
			log.Warn().Err(err).Msg("Ignoring invalid config change")
			return
		}
		setupLogging(next.Server.LogLevel)
		registry.SetRules(game.RulesFromConfig(next))
		log.Info().Str("file", config.ConfigFilePath()).Msg("Config reloaded; new rooms use the updated rules")
	})

	log.Info().
		Str("http", httpServer.Addr).
		Str("grpc", grpcLis.Addr().String()).
		Int("max_rooms", cfg.Server.Rooms.MaxRooms).
		Msg("Starting game server")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := admin.Serve(grpcLis); err != nil {
			return fmt.Errorf("admin gRPC server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		registry.Run(gctx)
		return nil
	})
	g.Go(func() error { return monitor.Run(gctx) })
	g.Go(func() error { return admin.reportCapacity(gctx, 5*time.Second) })
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")

		admin.drain()
		time.Sleep(time.Duration(cfg.Server.GRPC.GracefulShutdownDelay) * time.Second)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		hub.CloseAll()
		err := httpServer.Shutdown(shutdownCtx)
		registry.Shutdown()
		admin.GracefulStop()
		return err
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server stopped with error")
		os.Exit(1)
	}
	log.Info().Msg("Server shutdown complete")
}

func setupLogging(level string) {
	logLevel, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		logLevel = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(logLevel)

	if os.Getenv("APP_ENV") == "production" {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}
}
