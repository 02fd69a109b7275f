package repository

import "errors"

// Sentinel kinds for dataset errors.
var (
	ErrNotLoaded        = errors.New("dataset not loaded")
	ErrLoad             = errors.New("load dataset failed")
	ErrMalformedDataset = errors.New("malformed dataset")
	ErrInvalidSource    = errors.New("invalid dataset source")
)
