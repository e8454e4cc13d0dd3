package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gridmatch/gridmatch-backend/internal/config"
	"github.com/gridmatch/gridmatch-backend/internal/matchmaker"
	"github.com/gridmatch/gridmatch-backend/internal/queue"
	"github.com/gridmatch/gridmatch-backend/internal/repository"
	"github.com/gridmatch/gridmatch-backend/internal/repository/storage"
	"github.com/gridmatch/gridmatch-backend/internal/service"
	"github.com/gridmatch/gridmatch-backend/internal/session"
	"github.com/gridmatch/gridmatch-backend/transport/rest"
	"github.com/gridmatch/gridmatch-backend/transport/websocket"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		return ErrAddrNotFound
	}

	redisStorage, err := storage.NewRedis(ctx, redisAddrString)
	if err != nil {
		return fmt.Errorf("could not connect to redis storage: %w", err)
	}

	defer func() {
		if err = redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}()

	sqliteStorage, err := storage.NewSQLite(conf.SQLiteStoragePath)
	if err != nil {
		return fmt.Errorf("could not open sqlite storage: %w", err)
	}

	defer func() {
		if err = sqliteStorage.Close(); err != nil {
			log.Error("could not close sqlite storage", "error", err)
		}
	}()

	playerRepo := repository.NewPlayerRepository(redisStorage.Connection)
	journalRepo := repository.NewJournalRepository(sqliteStorage.Connection)

	if err = journalRepo.Init(ctx); err != nil {
		return fmt.Errorf("could not init journal schema: %w", err)
	}

	profileService := service.NewProfileService(playerRepo)
	journalService := service.NewJournalService(logger, journalRepo)

	hub := websocket.NewHub(logger)
	waiting := queue.New()
	sessions := session.NewManager()

	scheduler := matchmaker.New(logger, waiting, sessions, hub, journalService,
		conf.Matchmaking.Interval, conf.Matchmaking.StartDelay)
	go scheduler.Run(ctx)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		restHandlers := rest.NewHandlers(logger, profileService)
		if httpErr := rest.Start(ctx, conf.HTTPPort, restHandlers); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run Websocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		wsServer := websocket.New(logger, hub, waiting, sessions, profileService)
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err = <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}
