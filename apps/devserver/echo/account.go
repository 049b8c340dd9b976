package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/preceptor/core"
	"github.com/trezcool/preceptor/core/session"
	"github.com/trezcool/preceptor/core/user"
)

type accountApi struct {
	auth *authenticator
	svc  *user.Service
}

func registerAccountAPI(g *echo.Group, auth *authenticator, svc *user.Service) {
	api := accountApi{auth: auth, svc: svc}

	ag := g.Group("/account")

	// un-authed endpoints
	ag.POST("", api.create)
	ag.POST("/sessions/email", api.login)

	// authed endpoints
	authed := ag.Group("", auth.middleware())
	authed.GET("", api.retrieve)
	authed.GET("/sessions/:id", api.retrieveSession)
	authed.DELETE("/sessions/:id", api.destroySession)
}

// Handlers

func (api *accountApi) create(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errInvalidBody
	}
	usr, err := api.svc.Create(data)
	if err != nil {
		return errors.Wrap(err, "creating user")
	}
	return ctx.JSON(http.StatusCreated, usr.Account())
}

func (api *accountApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errInvalidBody
	}
	if err := data.Validate(); err != nil {
		return err
	}

	usr, sess, err := api.svc.Login(data.Email, data.Password)
	if err != nil {
		return errors.Wrap(err, "authenticating")
	}
	token, err := api.auth.GenerateToken(usr, sess)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	api.auth.setCookie(ctx, token, sess.Expire)

	return ctx.JSON(http.StatusCreated, sess.Public())
}

func (api *accountApi) retrieve(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, usr.Account())
}

func (api *accountApi) retrieveSession(ctx echo.Context) error {
	sess, err := api.pathSession(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sess.Public())
}

func (api *accountApi) destroySession(ctx echo.Context) error {
	sess, err := api.pathSession(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Logout(sess.ID); err != nil {
		if errors.Is(err, user.ErrSessionNotFound) {
			return errSessionNotFound
		}
		return errors.Wrap(err, "deleting session")
	}
	api.auth.clearCookie(ctx)
	return ctx.NoContent(http.StatusNoContent)
}

// pathSession resolves the :id path param; only the caller's own session is visible.
func (api *accountApi) pathSession(ctx echo.Context) (user.Session, error) {
	sess, err := getContextSession(ctx)
	if err != nil {
		return user.Session{}, err
	}
	if id := ctx.Param("id"); id != session.CurrentSession && id != sess.ID {
		return user.Session{}, errSessionNotFound
	}
	return sess, nil
}

type LoginRequest struct {
	Email    string `json:"email" label:"Email" validate:"required,emailfmt"`
	Password string `json:"password" label:"Password" validate:"required"`
}

func (lr *LoginRequest) Validate() error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return core.ValidateStruct(lr)
}
