// Package logger builds the engine's *slog.Logger and holds the attribute
// helpers every package logs with.
//
// New starts from JSON at info level on stdout. WithEnvironment (or
// NewFromConfig) switches to the preset for development, staging or
// production and tags records with service and env. ContextExtractors copy
// values such as the request id from the context onto each record.
//
// Attributes whose key is one of DefaultRedactedKeys (password, secret,
// access_token, refresh_token, totp_code, authorization, api_key) are logged
// as "[REDACTED]". WithRedactedKeys extends the list.
//
//	log := logger.NewFromConfig(cfg.Log,
//		logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	log.InfoContext(ctx, "role assigned",
//		logger.ActorID(actor.ID),
//		logger.UserID(target),
//		logger.Role(role.Name),
//		logger.TenantID(tenantID),
//	)
//
// Error and Errors return an empty attribute for nil errors, so they can be
// passed unconditionally.
package logger
