package echoapi

import (
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/preceptor/core"
	"github.com/trezcool/preceptor/core/user"
	backendsvc "github.com/trezcool/preceptor/services/backend"
)

const (
	contextTokenKey   = "sessionToken"
	contextUserKey    = "user"
	contextSessionKey = "session"
)

// Claims represents the session claims carried by the session cookie.
type Claims struct {
	jwt.StandardClaims
	Email string `json:"email,omitempty"`
}

type authenticator struct {
	jwtConfig middleware.JWTConfig
	cookie    string
	appName   string
	svc       *user.Service
}

func newAuthenticator(conf *core.Config, svc *user.Service) *authenticator {
	cookie := backendsvc.SessionCookiePrefix + conf.Backend.ProjectID
	return &authenticator{
		jwtConfig: middleware.JWTConfig{
			SigningKey:    []byte(conf.Server.SecretKey),
			SigningMethod: middleware.AlgorithmHS256,
			ContextKey:    contextTokenKey,
			Claims:        new(Claims),
			TokenLookup:   "cookie:" + cookie,
		},
		cookie:  cookie,
		appName: conf.AppName,
		svc:     svc,
	}
}

// middleware requires a valid session cookie whose session is still open.
func (a *authenticator) middleware() echo.MiddlewareFunc {
	jwtMW := middleware.JWTWithConfig(a.jwtConfig)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return jwtMW(func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}
			sess, err := a.svc.Session(claims.Id)
			if err != nil {
				if errors.Is(err, user.ErrSessionNotFound) {
					return errUnauthorized
				}
				return errors.Wrap(err, "finding session")
			}
			usr, err := a.svc.GetByID(sess.UserID)
			if err != nil {
				if errors.Is(err, user.ErrNotFound) {
					return errUnauthorized
				}
				return errors.Wrap(err, "finding session user")
			}
			ctx.Set(contextSessionKey, sess)
			ctx.Set(contextUserKey, usr)
			return next(ctx)
		})
	}
}

// GenerateToken generates a signed JWT token string for the session.
func (a *authenticator) GenerateToken(usr user.User, sess user.Session) (string, error) {
	claims := &Claims{
		StandardClaims: jwt.StandardClaims{
			Id:        sess.ID,
			Issuer:    a.appName,
			Subject:   usr.ID,
			ExpiresAt: sess.Expire.Unix(),
			IssuedAt:  sess.CreatedAt.Unix(),
		},
		Email: usr.Email,
	}
	method := jwt.GetSigningMethod(a.jwtConfig.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(a.jwtConfig.SigningKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func (a *authenticator) setCookie(ctx echo.Context, token string, expire time.Time) {
	ctx.SetCookie(&http.Cookie{
		Name:     a.cookie,
		Value:    token,
		Path:     "/",
		Expires:  expire,
		HttpOnly: true,
	})
}

func (a *authenticator) clearCookie(ctx echo.Context) {
	ctx.SetCookie(&http.Cookie{
		Name:     a.cookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getContextUser(ctx echo.Context) (user.User, error) {
	if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
		return usr, nil
	}
	return user.User{}, errUnauthorized
}

func getContextSession(ctx echo.Context) (user.Session, error) {
	if sess, ok := ctx.Get(contextSessionKey).(user.Session); ok {
		return sess, nil
	}
	return user.Session{}, errUnauthorized
}

// projectMiddleware rejects requests addressed to another project.
func projectMiddleware(projectID string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			project := ctx.Request().Header.Get(backendsvc.HeaderProject)
			if project == "" {
				project = ctx.QueryParam("project")
			}
			if project != projectID {
				return errProjectNotFound
			}
			return next(ctx)
		}
	}
}
