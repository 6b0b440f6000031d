// Package clientip resolves the client IP address of an HTTP request.
//
// Only headers set by a trusted proxy should be listed; a client can forge
// any of them when the service is reachable directly. With no trusted headers
// the resolver uses RemoteAddr.
//
//	res := clientip.NewFromConfig(cfg)
//	r.Use(res.Middleware)
//	ip := clientip.FromContext(req.Context())
package clientip
