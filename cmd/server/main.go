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
	"github.com/jrsteele09/taxfolio-client/internal/app"
	"github.com/jrsteele09/taxfolio-client/internal/config"
	"github.com/jrsteele09/taxfolio-client/internal/logger"
	"github.com/jrsteele09/taxfolio-client/server"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Error running server")
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	logger.Init(logger.Options{Level: c.GetLogLevel(), Format: c.GetLogFormat(), File: c.GetLogFile()})
	displayAppname(c.GetAppName())

	core, err := app.New(c, app.Options{})
	if err != nil {
		return err
	}
	defer core.Close()

	handler, err := server.New(c, server.Deps{
		Session:  core.Session,
		API:      core.API,
		Realtime: core.Realtime,
		Guard:    core.Guard,
		Users:    core.Users,
		Store:    core.Store,
	})
	if err != nil {
		return err
	}

	// Bootstrapping is retried lazily; a failure here is only reported.
	if err := core.Session.Initialize(context.Background()); err != nil {
		log.Warn().Err(err).Msg("identity client not initialised yet")
	}

	srv := &http.Server{Addr: c.GetPort(), Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	serveErr := make(chan error, 1)
	go func() { serveErr <- listenAndServe(srv) }()

	select {
	case err := <-serveErr:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(srv)
}

func listenAndServe(server *http.Server) error {
	log.Info().Msgf("Server listening on %s", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
