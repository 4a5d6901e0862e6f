// Package repository wraps MongoDB access behind typed methods. The sentinel
// errors defined here let handlers map failure cases onto HTTP statuses
// without inspecting driver errors.
package repository

import "errors"

// ErrNotFound is returned when a document does not exist or is not owned by
// the requesting user. Handlers should translate this into an HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when registering with an email that already has
// an account. Handlers should translate this into an HTTP 409.
var ErrEmailExists = errors.New("email already exists")
