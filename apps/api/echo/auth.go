package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-lms/core"
	"github.com/trezcool/masomo-lms/core/user"
)

const (
	contextTokenKey = "userToken"
	contextUserKey  = "user"

	// HeaderXUser carries the JSON identity {id, type, email} of the caller.
	HeaderXUser = "x-user"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Email string `json:"email,omitempty"`
	Type  string `json:"type,omitempty"`
}

// authenticator identifies the caller from a bearer JWT or, when trusted, from the `x-user` header.
type authenticator struct {
	jwtConfig       middleware.JWTConfig
	appName         string
	expiration      time.Duration
	trustUserHeader bool
	svc             *user.Service
}

func newAuthenticator(conf *core.Config, svc *user.Service) authenticator {
	a := authenticator{
		appName:         conf.AppName,
		expiration:      conf.Server.JWTExpirationDelta,
		trustUserHeader: conf.Server.TrustUserHeader,
		svc:             svc,
	}
	a.jwtConfig = middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
		Skipper: func(ctx echo.Context) bool {
			// without a token, the `x-user` header is used instead
			return a.trustUserHeader && ctx.Request().Header.Get(echo.HeaderAuthorization) == ""
		},
	}
	return a
}

func (a authenticator) middlewares() []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{middleware.JWTWithConfig(a.jwtConfig), a.userMiddleware}
}

// userMiddleware loads the calling User into the context.
func (a authenticator) userMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		reqCtx := ctx.Request().Context()

		var (
			usr user.User
			err error
		)
		if claims, cErr := getContextClaims(ctx); cErr == nil {
			usr, err = a.svc.GetByID(reqCtx, claims.Subject)
			if err == nil && !usr.IsActive {
				err = user.ErrAccountDeactivated
			}
		} else if hdr := ctx.Request().Header.Get(HeaderXUser); a.trustUserHeader && hdr != "" {
			id, pErr := user.ParseIdentity(hdr)
			if pErr != nil {
				return errUnauthorized
			}
			usr, err = a.svc.Resolve(reqCtx, id)
		} else {
			return errUnauthorized
		}

		if err != nil {
			switch errors.Cause(err) {
			case user.ErrNotFound:
				return errUnauthorized
			case user.ErrAccountDeactivated:
				return errAccountDeactivated
			}
			return errors.Wrap(err, "finding context user")
		}
		ctx.Set(contextUserKey, usr)
		return next(ctx)
	}
}

func (a authenticator) userClaims(usr user.User) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    a.appName,
			Subject:   usr.ID,
			Audience:  "Masomo",
			ExpiresAt: now.Add(a.expiration).Unix(),
			IssuedAt:  now.Unix(),
		},
		Email: usr.Email,
		Type:  usr.Type,
	}
}

// generateToken generates a signed JWT token string representing the user Claims.
func (a authenticator) generateToken(usr user.User) (string, error) {
	method := jwt.GetSigningMethod(a.jwtConfig.SigningMethod)
	token := jwt.NewWithClaims(method, a.userClaims(usr))

	ss, err := token.SignedString(a.jwtConfig.SigningKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
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
