package handler

import (
	"context"
	"errors"
	"time"

	"github.com/cloudwego/hertz/pkg/app"

	"WakeOrPay/config"
	"WakeOrPay/internal/model/dto"
	"WakeOrPay/internal/service"
	pkgerrors "WakeOrPay/pkg/errors"
	"WakeOrPay/pkg/response"
)

// TriggerSweep runs one settlement sweep synchronously and returns its
// summary. Called by the scheduler; a second trigger while one is running
// gets a conflict instead of a second sweep.
// POST /v1/scheduler/sweep
func TriggerSweep(ctx context.Context, c *app.RequestContext) {
	result, err := service.Settlement().Sweep(ctx)
	if err != nil {
		if errors.Is(err, service.ErrSweepInProgress) {
			response.Error(ctx, c, pkgerrors.SweepInProgress)
			return
		}
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, result)
}

// GetSweepStatus reports the last sweep outcome and the sweep cadence.
// GET /v1/scheduler/sweep
func GetSweepStatus(ctx context.Context, c *app.RequestContext) {
	settlement := service.Settlement()

	status := dto.SweepStatusData{
		Running:      settlement.Running(),
		LastResult:   settlement.LastResult(),
		IntervalSecs: config.Cfg.SweepIntervalSec,
		GraceMinutes: config.Cfg.GraceMinutes,
	}
	status.NextSweepAt = nextSweepAt(status.LastResult, config.Cfg.SweepIntervalSec)

	response.Success(ctx, c, status)
}

// nextSweepAt projects the next run from the last finished sweep. Nil until
// the first sweep completes.
func nextSweepAt(last *dto.SweepResult, intervalSec int) *time.Time {
	if last == nil {
		return nil
	}
	next := last.FinishedAt.Add(time.Duration(intervalSec) * time.Second)
	return &next
}
