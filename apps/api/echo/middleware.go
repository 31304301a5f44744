package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// typeMiddleware lets through users of the given types only.
func typeMiddleware(types ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}
			for _, t := range types {
				if usr.Type == t {
					return next(ctx)
				}
			}
			return errHttpForbidden
		}
	}
}
