package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"WakeOrPay/internal/model/dto"
	"WakeOrPay/internal/service"
	"WakeOrPay/pkg/response"
)

// IssueToken exchanges a user identity for a token pair.
// POST /v1/auth/token
func IssueToken(ctx context.Context, c *app.RequestContext) {
	var req dto.TokenRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	result, err := service.User().IssueTokens(ctx, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, result)
}

// RefreshToken trades a refresh token for a new pair.
// POST /v1/auth/token/refresh
func RefreshToken(ctx context.Context, c *app.RequestContext) {
	var req dto.RefreshRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	result, err := service.User().Refresh(ctx, req.RefreshToken)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, result)
}
