// Package repository implements MySQL persistence for the service.  The
// sentinel errors below let handlers translate failure modes into HTTP
// statuses without string matching: ErrNotFound maps to 404,
// ErrDuplicateLoginID / ErrDuplicateNickname to 409, and
// ErrSessionNotFound to a generic 401 on the refresh endpoint.
package repository

import "errors"

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrDuplicateLoginID is returned when a signup collides with an existing
// login id.
var ErrDuplicateLoginID = errors.New("login id already exists")

// ErrDuplicateNickname is returned when a signup or profile update collides
// with an existing nickname.
var ErrDuplicateNickname = errors.New("nickname already exists")

// ErrSessionNotFound is returned for any refresh-ledger miss.  Revoked,
// expired and never-existed rows all surface as this one error so the
// refresh endpoint cannot be used to probe session state.
var ErrSessionNotFound = errors.New("refresh session not found")
