package backendsvc

import (
	"context"
	"net/http"

	"github.com/pkg/errors"

	"github.com/trezcool/preceptor/core/session"
)

// Account implements session.Identity over the account endpoints.
type Account struct {
	client *Client
}

var _ session.Identity = (*Account)(nil)

func NewAccount(client *Client) *Account {
	return &Account{client: client}
}

func (a *Account) CreateEmailPasswordSession(ctx context.Context, email, password string) (session.Session, error) {
	var sess session.Session
	err := a.client.do(ctx, http.MethodPost, "/account/sessions/email", map[string]string{
		"email":    email,
		"password": password,
	}, &sess)
	return sess, err
}

func (a *Account) DeleteSession(ctx context.Context, sessionID string) error {
	return noSession(a.client.do(ctx, http.MethodDelete, "/account/sessions/"+sessionID, nil, nil))
}

func (a *Account) GetSession(ctx context.Context, sessionID string) (session.Session, error) {
	var sess session.Session
	if err := a.client.do(ctx, http.MethodGet, "/account/sessions/"+sessionID, nil, &sess); err != nil {
		return session.Session{}, noSession(err)
	}
	return sess, nil
}

func (a *Account) Get(ctx context.Context) (session.User, error) {
	var usr session.User
	if err := a.client.do(ctx, http.MethodGet, "/account", nil, &usr); err != nil {
		return session.User{}, noSession(err)
	}
	return usr, nil
}

func (a *Account) Create(ctx context.Context, userID, email, password, name string) (session.User, error) {
	var usr session.User
	err := a.client.do(ctx, http.MethodPost, "/account", map[string]string{
		"userId":   userID,
		"email":    email,
		"password": password,
		"name":     name,
	}, &usr)
	return usr, err
}

// noSession maps "unauthorized" and "session not found" to session.ErrNoSession.
func noSession(err error) error {
	if err == nil {
		return nil
	}
	switch statusOf(err) {
	case http.StatusUnauthorized, http.StatusNotFound:
		return errors.Wrap(session.ErrNoSession, err.Error())
	}
	return err
}
