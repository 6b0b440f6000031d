// Package requestid attaches a correlation id to every HTTP request.
//
// Middleware reuses a client supplied X-Request-ID when it is short and made
// of [a-zA-Z0-9_-]; otherwise it generates a ULID. The id is stored in the
// request context and echoed in the response header.
//
//	r := chi.NewRouter()
//	r.Use(requestid.Middleware)
//
//	log := logger.New(logger.WithContextExtractors(requestid.LoggerExtractor()))
//
// Every record logged with a request context then carries request_id.
package requestid
