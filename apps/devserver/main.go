package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"

	dig_container "github.com/trezcool/preceptor/apps/devserver/di/dig"
	echoapi "github.com/trezcool/preceptor/apps/devserver/echo"
	"github.com/trezcool/preceptor/core"
	"github.com/trezcool/preceptor/core/user"
)

const shutdownTimeout = 5 * time.Second

func main() {
	graph := flag.Bool("graph", false, "print the dependency graph and exit")
	flag.Parse()

	c := dig_container.New()
	if *graph {
		must(dig_container.Visualize(c))
		return
	}

	must(c.Invoke(func(
		conf *core.Config,
		logger core.Logger,
		storeLoggerParam dig_container.StoreLoggerParam,
		usrSvc *user.Service,
		server echoapi.Server,
	) {
		// =========================================================================
		// Initialize App

		logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
		defer logger.Info("Application stopped")

		seeded := seedUsers(conf.DevUsers, usrSvc, storeLoggerParam.Logger)
		storeLoggerParam.Logger.Info(fmt.Sprintf("%d seed users created", seeded))

		// =========================================================================
		// Start API Service

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info(fmt.Sprintf("listening on %s", conf.Server.Address))
			serverErrors <- server.Start()
		}()

		// =========================================================================
		// Shutdown

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			if !errors.Is(err, http.ErrServerClosed) {
				logger.Fatal(fmt.Sprintf("server error: %v", err), err)
			}

		case sig := <-shutdown:
			logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

			// give outstanding requests a deadline for completion
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := server.Stop(ctx); err != nil {
				logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
			}
		}
	}))
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
