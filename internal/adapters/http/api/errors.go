package api

import "errors"

// Sentinel kinds for request decoding errors.
var (
	ErrBadRequest    = errors.New("bad request")
	ErrNotEnoughData = errors.New("not enough data")
)
