package api

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/authengine/pkg/logger"
)

// LinkSender delivers a magic link token to its owner.
type LinkSender interface {
	SendMagicLink(ctx context.Context, email, token string) error
}

// LinkSenderFunc adapts a function to LinkSender.
type LinkSenderFunc func(ctx context.Context, email, token string) error

func (f LinkSenderFunc) SendMagicLink(ctx context.Context, email, token string) error {
	return f(ctx, email, token)
}

// NewLogLinkSender returns a sender that writes the token to the debug log.
// It is meant for development where no mail transport is configured.
func NewLogLinkSender(log *slog.Logger) LinkSender {
	return LinkSenderFunc(func(ctx context.Context, email, token string) error {
		log.DebugContext(ctx, "magic link issued",
			logger.Component("magic_link"),
			slog.String("email", email),
			slog.String("token", token),
		)
		return nil
	})
}
