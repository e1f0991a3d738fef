// Package validation provides the parameter checks shared by qpsflow
// constructors and configuration loaders.
//
// Every helper returns a *errors.ValidationError so callers can test for
// errors.ErrInvalidConfiguration regardless of which parameter was rejected.
package validation
