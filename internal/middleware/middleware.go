// Package middleware holds the global echo middleware and the pipeline
// stages (authenticate, authorize, rate limit, method limit) that routes
// are built from.
package middleware
