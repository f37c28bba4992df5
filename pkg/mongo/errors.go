package mongo

import "errors"

var (
	ErrFailedToConnect    = errors.New("failed to connect to the invoice archive")
	ErrEmptyConnectionURL = errors.New("invoice archive connection URL is empty")
	ErrHealthcheckFailed  = errors.New("invoice archive healthcheck failed")
)
