package echoapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/preceptor/core"
	"github.com/trezcool/preceptor/core/placement"
	"github.com/trezcool/preceptor/core/user"
)

// BasePath prefixes every backend route, like the hosted service does.
const BasePath = "/v1"

type (
	Options struct {
		Address        string
		DisableReqLogs bool
		Conf           *core.Config
		Logger         core.Logger
		UserSvc        *user.Service
		PlacementSvc   *placement.Service
		Hub            *Hub
	}

	Server interface {
		http.Handler
		Start() error
		Stop(context.Context) error
	}

	server struct {
		opts    *Options
		app     *echo.Echo
		metrics *metrics
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts:    opts,
		app:     echo.New(),
		metrics: newMetrics(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.opts.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger)
	s.app.Debug = false // errors keep the {message, code, type} shape in every mode

	s.app.GET("/", home)
	s.app.GET("/metrics", echo.WrapHandler(s.metrics.handler()))

	v1 := s.app.Group(BasePath, projectMiddleware(conf.Backend.ProjectID))
	auth := newAuthenticator(conf, s.opts.UserSvc)

	registerAccountAPI(v1, auth, s.opts.UserSvc)
	registerFunctionsAPI(v1, auth, conf.Backend.FunctionID, s.opts.UserSvc, s.opts.PlacementSvc, s.metrics)
	registerRealtimeAPI(v1, auth, s.opts.Hub, s.metrics, s.opts.Logger)
}

// Start blocks until the server stops. It returns http.ErrServerClosed after Stop.
func (s *server) Start() error {
	return s.app.Start(s.opts.Address)
}

func (s *server) Stop(ctx context.Context) error {
	s.opts.Hub.Close()
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Preceptor development backend")
}
