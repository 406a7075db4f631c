package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"WakeOrPay/internal/model/dto"
	"WakeOrPay/internal/service"
	"WakeOrPay/pkg/response"
)

// VerifyWakeUp submits a wake-up proof for today's alarm.
// POST /v1/wakeups/verify
func VerifyWakeUp(ctx context.Context, c *app.RequestContext) {
	user, ok := currentUser(ctx, c)
	if !ok {
		return
	}

	var req dto.VerifyWakeUpRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	result, err := service.Verification().VerifyWakeUp(ctx, user.ID, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, result)
}

// GetTodayStatus reports today's occurrence: deadline, verification state and
// whether a penalty already fired. Loaded by the app on every open.
// GET /v1/wakeups/today
func GetTodayStatus(ctx context.Context, c *app.RequestContext) {
	user, ok := currentUser(ctx, c)
	if !ok {
		return
	}

	result, err := service.Verification().TodayStatus(ctx, user.ID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, result)
}

// GetWakeHistory returns recent wake-up outcomes, newest first.
// GET /v1/wakeups/history
func GetWakeHistory(ctx context.Context, c *app.RequestContext) {
	user, ok := currentUser(ctx, c)
	if !ok {
		return
	}

	limit := queryLimit(c, 30)

	result, err := service.Verification().History(ctx, user.ID, limit)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, result)
}
