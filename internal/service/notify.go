package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/gouthamseattle/dance-registration-portal/internal/mailer"
)

const mailTimeout = 5 * time.Second

// sendMail delivers a notification after the triggering state transition
// has already committed. Failures are logged and reported as a soft flag;
// they never propagate as a failure of the primary operation.
func sendMail(ctx context.Context, m mailer.Mailer, msg mailer.Message) (sent bool, sendErr string) {
	if m == nil {
		return false, ""
	}

	mctx, cancel := context.WithTimeout(ctx, mailTimeout)
	defer cancel()

	if err := m.Send(mctx, msg); err != nil {
		zap.L().Warn("notification send failed",
			zap.String("to", msg.ToEmail),
			zap.String("subject", msg.Subject),
			zap.Error(err))

		return false, err.Error()
	}

	return true, ""
}
