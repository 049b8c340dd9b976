package session

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/preceptor/core"
	"github.com/trezcool/preceptor/core/function"
)

type fakeIdentity struct {
	calls []string

	deleteErr  error
	createErr  error
	session    Session
	sessionErr error
	user       User
	userErr    error
}

func (f *fakeIdentity) CreateEmailPasswordSession(_ context.Context, email, _ string) (Session, error) {
	f.calls = append(f.calls, "createSession:"+email)
	return f.session, f.createErr
}

func (f *fakeIdentity) DeleteSession(_ context.Context, sessionID string) error {
	f.calls = append(f.calls, "deleteSession:"+sessionID)
	return f.deleteErr
}

func (f *fakeIdentity) GetSession(_ context.Context, sessionID string) (Session, error) {
	f.calls = append(f.calls, "getSession:"+sessionID)
	return f.session, f.sessionErr
}

func (f *fakeIdentity) Get(context.Context) (User, error) {
	f.calls = append(f.calls, "get")
	return f.user, f.userErr
}

func (f *fakeIdentity) Create(_ context.Context, _, email, _, name string) (User, error) {
	f.calls = append(f.calls, "create:"+name+":"+email)
	return f.user, f.createErr
}

type fakeCaller struct {
	actions []string
	params  []interface{}
	err     error
}

func (f *fakeCaller) Call(_ context.Context, action string, params interface{}) (function.Response, error) {
	f.actions = append(f.actions, action)
	f.params = append(f.params, params)
	if f.err != nil {
		return function.Response{}, f.err
	}
	return function.Response{Success: true}, nil
}

func setup(t *testing.T, identity *fakeIdentity, fn *fakeCaller) (*Service, *core.Config, *[]time.Duration) {
	conf := core.NewTestConfig()
	slept := new([]time.Duration)
	sleepFunc = func(_ context.Context, d time.Duration) error {
		*slept = append(*slept, d)
		return nil
	}
	t.Cleanup(func() { sleepFunc = sleep })
	return NewService(identity, fn, conf, core.NopLogger{}), conf, slept
}

func TestService_Login(t *testing.T) {
	validSession := Session{ID: "sess1", UserID: "u1"}
	creds := LoginForm{Email: "jane@uwa.edu.au", Password: "password1"}

	tests := []struct {
		name      string
		form      LoginForm
		identity  fakeIdentity
		wantCalls []string
		wantMsg   string
	}{
		{
			name:    "empty fields",
			form:    LoginForm{Email: "jane@uwa.edu.au"},
			wantMsg: "All fields are required",
		},
		{
			name:    "bad email",
			form:    LoginForm{Email: "jane@uwa", Password: "password1"},
			wantMsg: "Please enter a valid email address",
		},
		{
			name:    "short password",
			form:    LoginForm{Email: "jane@uwa.edu.au", Password: "short"},
			wantMsg: "Password must be at least 8 characters long",
		},
		{
			name:      "success",
			form:      creds,
			identity:  fakeIdentity{session: validSession},
			wantCalls: []string{"deleteSession:current", "createSession:jane@uwa.edu.au", "getSession:current"},
		},
		{
			name:      "no previous session",
			form:      creds,
			identity:  fakeIdentity{session: validSession, deleteErr: ErrNoSession},
			wantCalls: []string{"deleteSession:current", "createSession:jane@uwa.edu.au", "getSession:current"},
		},
		{
			name:      "delete fails for another reason",
			form:      creds,
			identity:  fakeIdentity{session: validSession, deleteErr: core.NewNetworkError(errors.New("reset"))},
			wantCalls: []string{"deleteSession:current", "createSession:jane@uwa.edu.au", "getSession:current"},
		},
		{
			name:      "invalid credentials",
			form:      creds,
			identity:  fakeIdentity{createErr: core.NewRemoteError("Invalid credentials. Please check the email and password.")},
			wantCalls: []string{"deleteSession:current", "createSession:jane@uwa.edu.au"},
			wantMsg:   "Invalid credentials. Please check the email and password.",
		},
		{
			name:      "session not visible",
			form:      creds,
			identity:  fakeIdentity{sessionErr: ErrNoSession},
			wantCalls: []string{"deleteSession:current", "createSession:jane@uwa.edu.au", "getSession:current"},
			wantMsg:   "Failed to create session",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity := tt.identity
			svc, _, _ := setup(t, &identity, &fakeCaller{})

			sess, err := svc.Login(context.Background(), tt.form)
			assert.Equal(t, tt.wantCalls, identity.calls)
			if tt.wantMsg != "" {
				assert.Error(t, err)
				assert.Equal(t, tt.wantMsg, core.FriendlyMessage(err, MsgLoginFailed))
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, validSession, sess)
		})
	}
}

func TestService_Login_iosDelay(t *testing.T) {
	identity := &fakeIdentity{session: Session{ID: "sess1"}}
	svc, conf, slept := setup(t, identity, &fakeCaller{})

	_, err := svc.Login(context.Background(), LoginForm{Email: "jane@uwa.edu.au", Password: "password1"})
	assert.NoError(t, err)
	assert.Empty(t, *slept)

	conf.Session.Platform = core.PlatformIOS
	_, err = svc.Login(context.Background(), LoginForm{Email: "jane@uwa.edu.au", Password: "password1"})
	assert.NoError(t, err)
	assert.Equal(t, []time.Duration{conf.Session.PropagationDelay}, *slept)
}

func TestService_Logout(t *testing.T) {
	tests := []struct {
		name      string
		deleteErr error
		wantErr   bool
	}{
		{name: "deleted"},
		{name: "no session", deleteErr: errors.Wrap(ErrNoSession, "delete")},
		{name: "network", deleteErr: core.NewNetworkError(errors.New("reset")), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := setup(t, &fakeIdentity{deleteErr: tt.deleteErr}, &fakeCaller{})
			if err := svc.Logout(context.Background()); (err != nil) != tt.wantErr {
				t.Errorf("Logout() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestService_AwaitSession(t *testing.T) {
	identity := &fakeIdentity{sessionErr: ErrNoSession}
	svc, conf, slept := setup(t, identity, &fakeCaller{})

	_, err := svc.AwaitSession(context.Background())
	assert.True(t, core.IsSession(err))
	assert.Len(t, identity.calls, conf.Session.Retries)
	assert.Len(t, *slept, conf.Session.Retries)

	identity.calls, identity.sessionErr = nil, nil
	identity.session = Session{ID: "sess1"}
	sess, err := svc.AwaitSession(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "sess1", sess.ID)
	assert.Len(t, identity.calls, 1)
}

func TestService_CurrentUser(t *testing.T) {
	svc, _, _ := setup(t, &fakeIdentity{userErr: ErrNoSession}, &fakeCaller{})
	_, err := svc.CurrentUser(context.Background())
	assert.True(t, core.IsSession(err))
	assert.Equal(t, "Not logged in", core.FriendlyMessage(err, ""))
}

func TestService_Register(t *testing.T) {
	form := SignupForm{
		Username:        "jane_doe",
		Email:           "jane@uwa.edu.au",
		Password:        "Password1!",
		ConfirmPassword: "Password1!",
		Role:            core.RoleStudent,
	}
	usr := User{ID: "u1", Email: form.Email, Name: form.Username}

	t.Run("invalid form makes no call", func(t *testing.T) {
		identity := &fakeIdentity{}
		fn := &fakeCaller{}
		svc, _, _ := setup(t, identity, fn)

		bad := form
		bad.ConfirmPassword = "Password2!"
		_, err := svc.Register(context.Background(), bad)
		assert.True(t, core.IsValidation(err))
		assert.Equal(t, "Passwords do not match", core.FriendlyMessage(err, MsgRegisterFailed))
		assert.Empty(t, identity.calls)
		assert.Empty(t, fn.actions)
	})

	t.Run("create, login, fetch then label", func(t *testing.T) {
		identity := &fakeIdentity{user: usr, session: Session{ID: "sess1"}}
		fn := &fakeCaller{}
		svc, _, _ := setup(t, identity, fn)

		got, err := svc.Register(context.Background(), form)
		assert.NoError(t, err)
		assert.Equal(t, []string{
			"create:jane_doe:jane@uwa.edu.au",
			"deleteSession:current",
			"createSession:jane@uwa.edu.au",
			"getSession:current",
			"get",
		}, identity.calls)
		assert.Equal(t, []string{function.ActionCreateLabel}, fn.actions)
		assert.Equal(t, labelParams{UserID: "u1", Label: core.RoleStudent}, fn.params[0])
		assert.Equal(t, core.RoleStudent, got.Role())
	})

	t.Run("label failure keeps the account", func(t *testing.T) {
		identity := &fakeIdentity{user: usr, session: Session{ID: "sess1"}}
		fn := &fakeCaller{err: core.NewRemoteError("label failed")}
		svc, _, _ := setup(t, identity, fn)

		got, err := svc.Register(context.Background(), form)
		assert.NoError(t, err)
		assert.Equal(t, "u1", got.ID)
		assert.Empty(t, got.Labels)
	})

	t.Run("account already exists", func(t *testing.T) {
		identity := &fakeIdentity{createErr: core.NewRemoteError("A user with the same id, email, or phone already exists in this project.")}
		fn := &fakeCaller{}
		svc, _, _ := setup(t, identity, fn)

		_, err := svc.Register(context.Background(), form)
		assert.True(t, core.IsRemote(err))
		assert.Equal(t, []string{"create:jane_doe:jane@uwa.edu.au"}, identity.calls)
		assert.Empty(t, fn.actions)
	})
}
