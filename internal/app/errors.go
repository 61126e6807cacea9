package service

import "errors"

// Sentinel errors returned by the service.
var (
	ErrNotFound      = errors.New("expert not found")
	ErrNotConfigured = errors.New("service dependency not configured")
)
