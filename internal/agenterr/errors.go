package agenterr

import "errors"

var (
	ErrToolNotAllowed  = errors.New("tool not allowed")
	ErrToolInvalidArgs = errors.New("tool invalid args")
	ErrAgentNotFound   = errors.New("agent not found")
	ErrUnauthorized    = errors.New("unauthorized")
)
