package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"WakeOrPay/internal/model/dto"
	"WakeOrPay/internal/service"
	"WakeOrPay/pkg/response"
)

// CreateAlarm sets the user's alarm, replacing any currently active one.
// POST /v1/alarms
func CreateAlarm(ctx context.Context, c *app.RequestContext) {
	user, ok := currentUser(ctx, c)
	if !ok {
		return
	}

	var req dto.CreateAlarmRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	result, err := service.Alarm().Create(ctx, user.ID, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, result)
}

// ListAlarms returns the user's alarms, active first.
// GET /v1/alarms
func ListAlarms(ctx context.Context, c *app.RequestContext) {
	user, ok := currentUser(ctx, c)
	if !ok {
		return
	}

	result, err := service.Alarm().List(ctx, user.ID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, result)
}

// GetAlarm returns one alarm by its public id.
// GET /v1/alarms/:alarm_id
func GetAlarm(ctx context.Context, c *app.RequestContext) {
	user, ok := currentUser(ctx, c)
	if !ok {
		return
	}

	alarmID, err := pathID(c, "alarm_id")
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	result, err := service.Alarm().Get(ctx, user.ID, alarmID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, result)
}

// UpdateAlarm patches alarm fields.
// PATCH /v1/alarms/:alarm_id
func UpdateAlarm(ctx context.Context, c *app.RequestContext) {
	user, ok := currentUser(ctx, c)
	if !ok {
		return
	}

	alarmID, err := pathID(c, "alarm_id")
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	var req dto.UpdateAlarmRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	result, err := service.Alarm().Update(ctx, user.ID, alarmID, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, result)
}

// DeactivateAlarm turns an alarm off.
// DELETE /v1/alarms/:alarm_id
func DeactivateAlarm(ctx context.Context, c *app.RequestContext) {
	user, ok := currentUser(ctx, c)
	if !ok {
		return
	}

	alarmID, err := pathID(c, "alarm_id")
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	if err := service.Alarm().Deactivate(ctx, user.ID, alarmID); err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.NoContent(ctx, c)
}
