package echoapi

import (
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/masomo-lms/core"
)

const orderingParam = "ordering"

// bindOrdering reads the `ordering` query param, e.g. `?ordering=name,-created_at`.
func bindOrdering(ctx echo.Context, allowed ...string) []core.DBOrdering {
	return core.ParseOrdering(ctx.QueryParam(orderingParam), allowed...)
}

// queryList reads a query param given either repeated (`?type=a&type=b`) or comma-separated (`?type=a,b`).
func queryList(ctx echo.Context, name string) []string {
	var list []string
	for _, val := range ctx.QueryParams()[name] {
		for _, item := range strings.Split(val, ",") {
			if item = strings.TrimSpace(item); item != "" {
				list = append(list, item)
			}
		}
	}
	return list
}

func queryBool(ctx echo.Context, name string) (*bool, error) {
	raw := ctx.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, core.NewValidationError(err, core.FieldError{Field: name, Error: "must be a boolean"})
	}
	return &b, nil
}

func queryTime(ctx echo.Context, name string) (time.Time, error) {
	raw := ctx.QueryParam(name)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, core.NewValidationError(err, core.FieldError{Field: name, Error: "must be an RFC 3339 time"})
	}
	return t.UTC(), nil
}

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		User  interface{} `json:"user"`
		Token string      `json:"token"`
	}

	MarkedResponse struct {
		Marked int `json:"marked"`
	}
)
