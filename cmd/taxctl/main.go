package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jrsteele09/taxfolio-client/identity/oidcprovider"
	"github.com/jrsteele09/taxfolio-client/internal/app"
	"github.com/jrsteele09/taxfolio-client/internal/cli"
	"github.com/jrsteele09/taxfolio-client/internal/config"
	"github.com/jrsteele09/taxfolio-client/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx, newDeps); err != nil {
		stop()
		os.Exit(1)
	}
}

func newDeps() (*cli.Deps, error) {
	c := config.New()
	logger.Init(logger.Options{Level: c.GetLogLevel(), Format: c.GetLogFormat(), File: c.GetLogFile(), Output: os.Stderr})

	core, err := app.New(c, app.Options{Interactor: oidcprovider.NewLoopbackInteractor(cli.OpenBrowser)})
	if err != nil {
		return nil, err
	}
	return &cli.Deps{
		Session:            core.Session,
		Provisioner:        core.API.Identity,
		Realtime:           core.Realtime,
		OpenURL:            cli.OpenBrowser,
		InteractiveTimeout: c.GetInteractiveTimeout(),
		Close:              core.Close,
	}, nil
}
