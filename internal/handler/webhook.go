package handler

import (
	"context"
	"net/http"

	"github.com/cloudwego/hertz/pkg/app"

	"WakeOrPay/internal/service"
	"WakeOrPay/pkg/response"
)

// StripeWebhook receives payment events from the processor. The raw body is
// passed through untouched; signature verification needs the exact bytes.
// POST /v1/payments/webhook
func StripeWebhook(ctx context.Context, c *app.RequestContext) {
	payload := c.Request.Body()
	signature := string(c.GetHeader("Stripe-Signature"))

	if err := service.Payments().ApplyWebhook(ctx, payload, signature); err != nil {
		response.Error(ctx, c, err)
		return
	}

	c.Status(http.StatusOK)
}
