// Package pipeline runs each route as an ordered list of stages in front of
// its handler.
//
// A stage either continues or halts with an error. The first halt ends the
// request: later stages and the handler never run, and the error is
// returned unchanged to echo's error handler. Routes are declared through a
// Registry and mounted once; the table is immutable afterwards.
package pipeline

import (
	"strings"

	"github.com/deppfellow/storefront-api/internal/errs"
	"github.com/labstack/echo/v4"
)

// Result is the outcome of a stage. The zero value continues.
type Result struct {
	err    error
	halted bool
}

// Continue passes control to the next stage.
func Continue() Result {
	return Result{}
}

// Halt stops the pipeline with err. A nil err becomes a 500 so a halted
// result always carries an error.
func Halt(err error) Result {
	if err == nil {
		err = errs.NewInternalServerError()
	}
	return Result{err: err, halted: true}
}

func (r Result) Halted() bool { return r.halted }
func (r Result) Err() error   { return r.err }

// Stage is one named step of a route pipeline.
type Stage struct {
	Name string
	Run  func(c echo.Context) Result
}

// AuthenticateStage attaches an identity to the request. Only a route
// built with one can take an AuthorizeStage.
type AuthenticateStage Stage

// AuthorizeStage checks the identity attached by an AuthenticateStage.
type AuthorizeStage Stage

// Route is a single (method, path) registration.
type Route struct {
	Method  string
	Path    string
	Stages  []Stage
	Handler echo.HandlerFunc
}

// StageNames lists the stages in execution order.
func (r Route) StageNames() []string {
	names := make([]string, len(r.Stages))
	for i, s := range r.Stages {
		names[i] = s.Name
	}
	return names
}

// MethodNotAllowed sets Allow to the given methods, in order, and returns
// the 405 error.
func MethodNotAllowed(c echo.Context, allowed []string) error {
	c.Response().Header().Set(echo.HeaderAllow, strings.Join(allowed, ", "))
	return errs.NewMethodNotAllowedError()
}
