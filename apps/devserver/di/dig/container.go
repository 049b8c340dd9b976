package dig_container

import (
	"log"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/preceptor/apps/devserver/echo"
	"github.com/trezcool/preceptor/core"
	"github.com/trezcool/preceptor/core/placement"
	"github.com/trezcool/preceptor/core/user"
	emailsvc "github.com/trezcool/preceptor/services/email"
	logsvc "github.com/trezcool/preceptor/services/logger"
	inmemdb "github.com/trezcool/preceptor/storage/inmem"
)

type StoreLoggerParam struct {
	dig.In
	Logger core.Logger `name:"storeLogger"`
}

func newLogger(conf *core.Config) core.Logger {
	return logsvc.NewLogger("DEVSERVER", conf)
}

func newStoreLogger(conf *core.Config) core.Logger {
	return logsvc.NewLogger("STORE", conf)
}

func newHub(logger core.Logger) (*echoapi.Hub, placement.Publisher) {
	hub := echoapi.NewHub(logger)
	return hub, hub
}

func newServer(
	conf *core.Config,
	logger core.Logger,
	usrSvc *user.Service,
	placementSvc *placement.Service,
	hub *echoapi.Hub,
) echoapi.Server {
	return echoapi.NewServer(&echoapi.Options{
		Address:        conf.Server.Address,
		DisableReqLogs: conf.TestMode,
		Conf:           conf,
		Logger:         logger,
		UserSvc:        usrSvc,
		PlacementSvc:   placementSvc,
		Hub:            hub,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newStoreLogger, dig.Name("storeLogger")))
	must(c.Provide(inmemdb.Open))
	must(c.Provide(inmemdb.NewUserRepository))
	must(c.Provide(inmemdb.NewRequestRepository))
	must(c.Provide(emailsvc.NewService))
	must(c.Provide(user.NewService))
	must(c.Provide(newHub))
	must(c.Provide(placement.NewService))
	must(c.Provide(newServer))

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
