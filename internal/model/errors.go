package model

import "errors"

var (
	ErrNoIntegration      = errors.New("no integration")
	ErrProbeFailed        = errors.New("failed to check")
	ErrInvalidQuery       = errors.New("invalid availability query")
	ErrCatalogUnavailable = errors.New("catalog unavailable")
)
