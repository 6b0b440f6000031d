// Package scopes handles permission names such as "tenant.users.view".
//
// Names are dot separated lowercase segments. Patterns may end in ".*" to
// cover a whole subtree, and a bare "*" covers everything:
//
//	scopes.Has([]string{"tenant.*"}, "tenant.users.view") // true
//	scopes.Has([]string{"tenant.*"}, "tenant")            // false
//
// Normalize produces the sorted, deduplicated lists returned by introspection,
// and Validate checks role definitions against the permission catalog.
package scopes
