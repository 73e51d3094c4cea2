package models

import "errors"

var (
	ErrExtractionFailed = errors.New("extraction failed")
	ErrArtifactMissing  = errors.New("artifact missing after download")
	ErrCapacityExceeded = errors.New("bulk list is full")
)
