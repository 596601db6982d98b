package eventservice

import "errors"

var (
	ErrInvalidTitle     = errors.New("event title is required")
	ErrInvalidDate      = errors.New("event date could not be parsed")
	ErrInvalidDateRange = errors.New("event end date is before its start date")
	ErrInvalidCategory  = errors.New("event category is required")
	ErrInvalidTable     = errors.New("event table is malformed")
	ErrEventNotFound    = errors.New("event not found")
)
