package testutil

import (
	"net/http/httptest"
	"testing"

	echoapi "github.com/trezcool/preceptor/apps/devserver/echo"
	"github.com/trezcool/preceptor/core"
	"github.com/trezcool/preceptor/core/placement"
	"github.com/trezcool/preceptor/core/session"
	"github.com/trezcool/preceptor/core/user"
	emailsvc "github.com/trezcool/preceptor/services/email"
	inmemdb "github.com/trezcool/preceptor/storage/inmem"
)

// MailOutbox is the console mail service used by tests; it keeps what it sent.
type MailOutbox interface {
	core.EmailService
	Sent() []core.EmailMessage
}

// Backend is a development backend running on a local httptest server.
type Backend struct {
	Conf         *core.Config
	Server       *httptest.Server
	Handler      echoapi.Server
	Hub          *echoapi.Hub
	UserSvc      *user.Service
	PlacementSvc *placement.Service
	Mail         MailOutbox
}

// NewBackend starts a backend with an empty store. Conf.Backend.Endpoint points at it.
func NewBackend(t *testing.T) *Backend {
	conf := core.NewTestConfig()
	conf.DevUsers = nil

	db := inmemdb.Open()
	mail := emailsvc.NewConsoleServiceMock(conf)
	hub := echoapi.NewHub(core.NopLogger{})
	usrSvc := user.NewService(inmemdb.NewUserRepository(db), conf)
	placementSvc := placement.NewService(inmemdb.NewRequestRepository(db), usrSvc, hub, mail)

	handler := echoapi.NewServer(&echoapi.Options{
		DisableReqLogs: true,
		Conf:           conf,
		Logger:         core.NopLogger{},
		UserSvc:        usrSvc,
		PlacementSvc:   placementSvc,
		Hub:            hub,
	})
	srv := httptest.NewServer(handler)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	conf.Backend.Endpoint = srv.URL + echoapi.BasePath

	return &Backend{
		Conf:         conf,
		Server:       srv,
		Handler:      handler,
		Hub:          hub,
		UserSvc:      usrSvc,
		PlacementSvc: placementSvc,
		Mail:         mail,
	}
}

// CreateUser creates a user with the given role label ("" for none).
func CreateUser(t *testing.T, svc *user.Service, name, email, pwd, label string, prefs ...session.Prefs) user.User {
	nu := user.NewUser{Name: name, Email: email, Password: pwd}
	if label != "" {
		nu.Labels = []string{label}
	}
	if len(prefs) > 0 {
		nu.Prefs = prefs[0]
	}
	usr, err := svc.Create(nu)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}
