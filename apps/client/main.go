package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	dig_container "github.com/trezcool/preceptor/apps/client/di/dig"
	"github.com/trezcool/preceptor/apps/client/views"
	"github.com/trezcool/preceptor/core"
)

func main() {
	graph := flag.Bool("graph", false, "print the dependency graph and exit")
	flag.Parse()

	c := dig_container.New()
	if *graph {
		must(dig_container.Visualize(c))
		return
	}

	must(c.Invoke(func(conf *core.Config, logger core.Logger, deps views.Deps) {
		logger.Info(fmt.Sprintf("%s client %q talking to %s", conf.AppName, conf.Build, conf.Backend.Endpoint))

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cli := newCommandLine(deps, os.Stdout)
		cli.printUsage()
		if err := cli.loop(ctx, os.Stdin); err != nil {
			logger.Error(fmt.Sprintf("reading commands: %v", err), err)
		}
	}))
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
