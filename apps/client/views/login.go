package views

import (
	"context"

	"github.com/trezcool/preceptor/core"
	"github.com/trezcool/preceptor/core/session"
)

type LoginView struct {
	viewState
	sessions *session.Service
	router   *Router
	logger   core.Logger

	email    string
	password string
	loading  bool
}

func NewLoginView(d Deps) *LoginView {
	return &LoginView{sessions: d.Sessions, router: d.Router, logger: d.Logger}
}

func (v *LoginView) SetEmail(email string) {
	v.update(func() { v.email = email })
}

func (v *LoginView) SetPassword(pwd string) {
	v.update(func() { v.password = pwd })
}

func (v *LoginView) Email() (email string) {
	v.read(func() { email = v.email })
	return
}

func (v *LoginView) Loading() (loading bool) {
	v.read(func() { loading = v.loading })
	return
}

// Submit logs in with the typed credentials. On success the form is cleared and the profile
// opens; any failure raises an alert.
func (v *LoginView) Submit(ctx context.Context) error {
	var (
		form session.LoginForm
		busy bool
	)
	open := v.update(func() {
		if v.loading {
			busy = true
			return
		}
		v.loading = true
		form = session.LoginForm{Email: v.email, Password: v.password}
	})
	switch {
	case !open:
		return ErrClosed
	case busy:
		return ErrBusy
	}

	_, err := v.sessions.Login(ctx, form)
	if err != nil {
		v.logger.Info("login failed", err)
	}
	v.update(func() {
		v.loading = false
		if err != nil {
			v.router.Alert("Error", core.FriendlyMessage(err, session.MsgLoginFailed))
			return
		}
		v.email, v.password = "", ""
		v.router.Replace(RouteProfile)
	})
	return err
}

// Close drops any response still in flight.
func (v *LoginView) Close() { v.close() }
