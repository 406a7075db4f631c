package handler

import (
	"context"
	"strconv"

	"github.com/cloudwego/hertz/pkg/app"

	"WakeOrPay/internal/middleware"
	"WakeOrPay/internal/model"
	"WakeOrPay/internal/service"
	"WakeOrPay/pkg/errors"
	"WakeOrPay/pkg/response"
)

// currentUser resolves the authenticated user from the JWT identity. Returns
// false after writing the error response.
func currentUser(ctx context.Context, c *app.RequestContext) (*model.User, bool) {
	uid, ok := middleware.GetUserID(ctx, c)
	if !ok {
		response.Error(ctx, c, errors.Unauthorized)
		return nil, false
	}

	user, err := service.User().ResolveUser(ctx, uid)
	if err != nil {
		response.Error(ctx, c, err)
		return nil, false
	}

	return user, true
}

// pathID parses a numeric public id path parameter.
func pathID(c *app.RequestContext, name string) (int64, error) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.Definition{Code: "INVALID_REQUEST", Message: "Invalid path parameter " + name}
	}
	return id, nil
}

// queryLimit reads an optional ?limit= parameter with a default.
func queryLimit(c *app.RequestContext, def int) int {
	raw := c.Query("limit")
	if raw == "" {
		return def
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return def
	}
	return limit
}
