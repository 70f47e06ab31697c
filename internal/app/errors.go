package service

import "errors"

// Sentinel kinds for upload errors.
var (
	ErrInvalidRequest = errors.New("invalid upload request")
	ErrNoRecords      = errors.New("input produced no identity records")
)
