// Package introspect answers "is this access token still good, and what may
// its bearer do right now" for relying services that do not hold the signing key.
//
// Token claims are a snapshot taken at login. Introspect re-derives everything
// that matters from live state: the revocation blacklist, the session store and
// the user record with its current role assignments. Suspending an account or
// revoking a role therefore takes effect on the next introspection even though
// the token itself stays cryptographically valid until it expires.
//
// Introspect never returns an error. Every failure collapses to an inactive
// Result, is logged at debug level with its reason and is counted in the
// authengine_introspect_requests_total metric by outcome.
//
//	svc := introspect.NewService(tokens, sessions, store, introspect.WithLogger(log))
//	res := svc.Introspect(ctx, bearer, tenantID)
//	if !res.Active {
//	    // reject
//	}
package introspect
