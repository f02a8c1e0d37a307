package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/litex-portal/litex/internal/platform/httpx"
)

// AddressResolver turns a user ID into a deliverable address.
type AddressResolver interface {
	EmailForUser(ctx context.Context, userID int64) (string, error)
}

// HandleSendEmail returns the mail:send handler. Delivery is logged; the
// SMTP hookup lives behind this seam so the queue contract stays stable.
func HandleSendEmail(resolver AddressResolver, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload SendEmailPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		to, err := resolver.EmailForUser(ctx, payload.UserID)
		if errors.Is(err, httpx.ErrNotFound) {
			logger.Info("mail dropped, recipient gone", slog.Int64("user_id", payload.UserID))
			return nil
		}
		if err != nil {
			return err
		}
		logger.Info("mail sent",
			slog.String("to", to),
			slog.String("subject", payload.Subject))
		return nil
	}
}
