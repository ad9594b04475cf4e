package domain

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrRateLimited  = errors.New("rate limited")
	ErrUnauthorized = errors.New("unauthorized")
	ErrBadUpstream  = errors.New("malformed upstream payload")
	ErrWSDisconnect = errors.New("websocket disconnected")
)
