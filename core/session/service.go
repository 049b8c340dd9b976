package session

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/preceptor/core"
	"github.com/trezcool/preceptor/core/function"
)

// Fallback messages for failures that carry no usable message.
const (
	MsgLoginFailed    = "Failed to login. Please check your credentials and try again."
	MsgRegisterFailed = "Registration failed. Please try again."
)

var (
	// ErrNoSession is returned by an Identity when there is no current session.
	ErrNoSession = errors.New("no active session")

	sleepFunc = sleep // mockable
)

type (
	// Identity is the external identity provider.
	Identity interface {
		CreateEmailPasswordSession(ctx context.Context, email, password string) (Session, error)
		DeleteSession(ctx context.Context, sessionID string) error
		GetSession(ctx context.Context, sessionID string) (Session, error)
		Get(ctx context.Context) (User, error)
		Create(ctx context.Context, userID, email, password, name string) (User, error)
	}

	Service struct {
		identity Identity
		fn       function.Caller
		conf     *core.Config
		logger   core.Logger
	}
)

func NewService(identity Identity, fn function.Caller, conf *core.Config, logger core.Logger) *Service {
	return &Service{
		identity: identity,
		fn:       fn,
		conf:     conf,
		logger:   logger,
	}
}

// Login replaces any current session with a new one for the given credentials.
func (svc *Service) Login(ctx context.Context, form LoginForm) (Session, error) {
	if err := form.Validate(); err != nil {
		return Session{}, err
	}

	// absence of a session is not an error
	if err := svc.identity.DeleteSession(ctx, CurrentSession); err != nil {
		svc.logger.Debug("login: no previous session deleted", err)
	}

	if _, err := svc.identity.CreateEmailPasswordSession(ctx, form.Email, form.Password); err != nil {
		return Session{}, errors.Wrap(err, "creating session")
	}

	sess, err := svc.identity.GetSession(ctx, CurrentSession)
	if err != nil && !errors.Is(err, ErrNoSession) {
		return Session{}, errors.Wrap(err, "verifying session")
	}
	if sess.IsZero() {
		return Session{}, core.NewSessionError("Failed to create session")
	}

	if svc.conf.IsIOS() {
		if err := sleepFunc(ctx, svc.conf.Session.PropagationDelay); err != nil {
			return Session{}, err
		}
	}
	return sess, nil
}

// Logout deletes the current session. Having none is fine.
func (svc *Service) Logout(ctx context.Context) error {
	if err := svc.identity.DeleteSession(ctx, CurrentSession); err != nil && !errors.Is(err, ErrNoSession) {
		return errors.Wrap(err, "deleting session")
	}
	return nil
}

// CurrentUser fetches the authenticated identity.
func (svc *Service) CurrentUser(ctx context.Context) (User, error) {
	usr, err := svc.identity.Get(ctx)
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			return User{}, core.NewSessionError("Not logged in")
		}
		return User{}, errors.Wrap(err, "fetching current user")
	}
	return usr, nil
}

// AwaitSession re-reads the current session a few times; a fresh session may not be visible yet.
func (svc *Service) AwaitSession(ctx context.Context) (Session, error) {
	retries := svc.conf.Session.Retries
	if retries <= 0 {
		retries = 1
	}
	for attempt := 1; attempt <= retries; attempt++ {
		sess, err := svc.identity.GetSession(ctx, CurrentSession)
		if err == nil && !sess.IsZero() {
			return sess, nil
		}
		svc.logger.Debug("session attempt failed", map[string]interface{}{"attempt": attempt}, err)
		if err := sleepFunc(ctx, svc.conf.Session.RetryDelay); err != nil {
			return Session{}, err
		}
	}
	return Session{}, core.NewSessionError("No active session after retries")
}

type labelParams struct {
	UserID string `json:"userId"`
	Label  string `json:"label"`
}

// Register creates the identity, logs it in and assigns the chosen role label.
func (svc *Service) Register(ctx context.Context, form SignupForm) (User, error) {
	if err := form.Validate(); err != nil {
		return User{}, err
	}

	if _, err := svc.identity.Create(ctx, uuid.New().String(), form.Email, form.Password, form.Username); err != nil {
		return User{}, errors.Wrap(err, "creating account")
	}
	if _, err := svc.Login(ctx, LoginForm{Email: form.Email, Password: form.Password}); err != nil {
		return User{}, err
	}

	usr, err := svc.CurrentUser(ctx)
	if err != nil {
		return User{}, err
	}

	// the account exists at this point: a missing label is reported, not undone
	if _, err := svc.fn.Call(ctx, function.ActionCreateLabel, labelParams{UserID: usr.ID, Label: form.Role}); err != nil {
		svc.logger.Error("assigning role label", errors.Wrap(err, form.Role), usr)
		return usr, nil
	}
	usr.Labels = append([]string{form.Role}, usr.Labels...)
	return usr, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
