package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tmcampion/go-content-auth/auth"
	"github.com/tmcampion/go-content-auth/content"
	"github.com/tmcampion/go-content-auth/internal/config"
	"github.com/tmcampion/go-content-auth/revocation"
	"github.com/tmcampion/go-content-auth/server"
	"github.com/tmcampion/go-content-auth/store/redisstore"
	"github.com/tmcampion/go-content-auth/token"
	"github.com/tmcampion/go-content-auth/users"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	displayAppname(c.GetAppName())

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger().Level(zerolog.InfoLevel)
	if c.GetEnv() == "DEV" {
		logger = logger.Level(zerolog.DebugLevel)
	}

	if c.GetSecretKey() == "" {
		return errors.New("SECRET_KEY must be set")
	}

	kv := redisstore.New(redisstore.Config{
		Addr:      c.GetRedisAddr(),
		DB:        c.GetRedisDB(),
		Password:  c.GetRedisPassword(),
		OpTimeout: c.GetStoreTimeout(),
	})
	defer kv.Close()

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := kv.Ping(pingCtx); err != nil {
		return fmt.Errorf("store unreachable: %w", err)
	}

	directory := users.NewDirectory(kv, users.BcryptHasher{})
	codec := token.New(c.GetSecretKey(), c.GetTokenIssuer(), c.GetSessionTTL())
	registry := revocation.New(kv)

	authService, err := auth.NewService(auth.Deps{
		Directory: directory,
		Codec:     codec,
		Registry:  registry,
	})
	if err != nil {
		return fmt.Errorf("auth.NewService: %w", err)
	}

	contents := content.NewService(kv)

	httpServer := &http.Server{
		Addr:    c.GetPort(),
		Handler: server.New(c, authService, directory, contents, logger),
	}
	go listenAndServe(httpServer, logger)
	waitForStopSignal()
	return shutdown(httpServer)
}

func listenAndServe(httpServer *http.Server, logger zerolog.Logger) {
	logger.Info().Str("addr", httpServer.Addr).Msg("server listening")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("server.ListenAndServe")
	}
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(httpServer *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
