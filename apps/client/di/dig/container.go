package dig_container

import (
	"log"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/dig"

	"github.com/trezcool/preceptor/apps/client/views"
	"github.com/trezcool/preceptor/core"
	"github.com/trezcool/preceptor/core/directory"
	"github.com/trezcool/preceptor/core/function"
	"github.com/trezcool/preceptor/core/pairing"
	"github.com/trezcool/preceptor/core/realtime"
	"github.com/trezcool/preceptor/core/session"
	backendsvc "github.com/trezcool/preceptor/services/backend"
	logsvc "github.com/trezcool/preceptor/services/logger"
)

// DepsParam collects what every view needs.
type DepsParam struct {
	dig.In
	Conf       *core.Config
	Logger     core.Logger
	Router     *views.Router
	Sessions   *session.Service
	Directory  *directory.Service
	Pairing    *pairing.Service
	Subscriber realtime.Subscriber
}

func newLogger(conf *core.Config) core.Logger {
	return logsvc.NewLogger("CLIENT", conf)
}

func newIdentity(client *backendsvc.Client) session.Identity {
	return backendsvc.NewAccount(client)
}

func newExecutor(client *backendsvc.Client) function.Executor {
	return backendsvc.NewFunctions(client)
}

func newCaller(exec function.Executor, conf *core.Config, logger core.Logger) function.Caller {
	return function.NewClient(exec, conf, logger)
}

func newSubscriber(client *backendsvc.Client, conf *core.Config, logger core.Logger) realtime.Subscriber {
	return backendsvc.NewRealtime(client, conf, logger)
}

func newRouter() *views.Router {
	return views.NewRouter(views.RouteLogin)
}

func newDeps(p DepsParam) views.Deps {
	return views.Deps{
		Conf:       p.Conf,
		Logger:     p.Logger,
		Router:     p.Router,
		Sessions:   p.Sessions,
		Directory:  p.Directory,
		Pairing:    p.Pairing,
		Subscriber: p.Subscriber,
	}
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(backendsvc.NewClient))
	must(c.Provide(newIdentity))
	must(c.Provide(newExecutor))
	must(c.Provide(newCaller))
	must(c.Provide(newSubscriber))
	must(c.Provide(session.NewService))
	must(c.Provide(directory.NewService))
	must(c.Provide(pairing.NewService))
	must(c.Provide(newRouter))
	must(c.Provide(newDeps))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}

// Visualize writes the dependency graph in DOT format.
func Visualize(c *dig.Container) error {
	return dig.Visualize(c, os.Stdout)
}
