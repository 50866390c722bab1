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

	"github.com/tessera-id/tessera/internal/config"
	"github.com/tessera-id/tessera/payments"
	"github.com/tessera-id/tessera/server"
	"github.com/tessera-id/tessera/storage/sqlite"
)

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	if err := run(logger); err != nil {
		logger.Fatal().Err(err).Msg("server exited with error")
	}
	logger.Info().Msg("server stopped")
}

func run(logger zerolog.Logger) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	displayAppname(cfg.AppName)

	store, err := sqlite.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	paymentsConfig, err := payments.ParseConfig(cfg.PaymentsProjectsJSON)
	if err != nil {
		return err
	}
	paymentsService := payments.NewService(
		paymentsConfig,
		func(secretAPIKey string) payments.Provider { return payments.NewRESTClient(secretAPIKey) },
		logger,
		payments.WithReturnURLs(cfg.PaymentsSuccessURL, cfg.PaymentsCancelURL),
	)

	srv, err := server.New(cfg, server.Repos{
		Tenancies: store.Tenancies(),
		Users:     store.Users(),
		Sessions:  store.Sessions(),
		APIKeys:   store.APIKeys(),
		Templates: store.Templates(),
	}, paymentsService, logger)
	if err != nil {
		return err
	}

	httpServer := &http.Server{Addr: ":" + cfg.Port, Handler: srv}
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
