package middleware

import (
	"context"
	"crypto/subtle"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"

	"WakeOrPay/config"
	"WakeOrPay/pkg/errors"
	"WakeOrPay/pkg/response"
)

// SchedulerAuthMiddleware protects the sweep endpoints. They are called by the
// internal scheduler with a shared bearer secret, never by end users.
func SchedulerAuthMiddleware() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		header := string(c.GetHeader("Authorization"))
		secret, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || secret == "" {
			c.Abort()
			response.Error(ctx, c, errors.SchedulerAuthFailed)
			return
		}

		if subtle.ConstantTimeCompare([]byte(secret), []byte(config.Cfg.SchedulerSecret)) != 1 {
			c.Abort()
			response.Error(ctx, c, errors.SchedulerAuthFailed)
			return
		}

		c.Next(ctx)
	}
}
