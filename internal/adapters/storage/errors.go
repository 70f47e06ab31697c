package storage

import "errors"

// Sentinel kinds for input adapter errors.
var (
	ErrNotFound = errors.New("object not found")
	ErrFetch    = errors.New("fetch object failed")
	ErrParse    = errors.New("parse csv failed")
	ErrScratch  = errors.New("scratch file failed")
)
