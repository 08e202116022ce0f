package repository

import "errors"

// This file defines custom errors specific to the repository layer.
// This allows the repository to communicate outcomes in a storage-agnostic way.

// ErrNotFound is a repository-specific sentinel error. It is returned when a
// key or a conversation does not exist.
//
// The service layer checks for this specific error and translates it into a
// domain-level error (like `app_errors.ErrNotFound`), which keeps driver
// errors such as `sql.ErrNoRows` or `redis.Nil` out of the business logic.
var ErrNotFound = errors.New("repository: not found")
