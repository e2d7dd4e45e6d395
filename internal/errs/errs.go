// Package errs defines the error shapes returned to API clients.
//
// Every failure that reaches the global error handler is an *HTTPError, so
// clients always see the same JSON body: code, message, status, and optional
// field errors or action hints.
package errs
