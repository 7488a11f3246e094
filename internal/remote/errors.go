package remote

import "errors"

var (
	ErrUnavailable  = errors.New("remote service unavailable")
	ErrUnauthorized = errors.New("unauthorized")
)
