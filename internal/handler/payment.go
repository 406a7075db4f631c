package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"WakeOrPay/internal/service"
	"WakeOrPay/pkg/response"
)

// CreateSetupIntent starts payment method collection for the user.
// POST /v1/payments/setup-intent
func CreateSetupIntent(ctx context.Context, c *app.RequestContext) {
	user, ok := currentUser(ctx, c)
	if !ok {
		return
	}

	result, err := service.Payments().CreateSetupIntent(ctx, user.ID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, result)
}

// ListTransactions returns the user's penalty transactions, newest first.
// GET /v1/payments/transactions
func ListTransactions(ctx context.Context, c *app.RequestContext) {
	user, ok := currentUser(ctx, c)
	if !ok {
		return
	}

	limit := queryLimit(c, 50)

	result, err := service.Payments().ListTransactions(ctx, user.ID, limit)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, result)
}
