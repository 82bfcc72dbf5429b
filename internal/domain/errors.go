package domain

import "errors"

var (
	ErrInvalidToken        = errors.New("invalid token")
	ErrInvalidSessionState = errors.New("invalid session state")
	ErrInvalidRatingValue  = errors.New("invalid rating value")
	ErrUnknownRatee        = errors.New("unknown ratee")
	ErrUnknownCircle       = errors.New("unknown circle")
	ErrCircleNotFound      = errors.New("circle not found")
	ErrContactNotFound     = errors.New("contact not found")
)
