package domain

import "errors"

var (
	ErrRowResults  = errors.New("resulting rows contain error")
	ErrUUIDGen     = errors.New("could not generate uuid")
	ErrScanResult  = errors.New("failed to scan result")
	ErrMatchQuery  = errors.New("failed to query match")
	ErrMatchIngest = errors.New("failed to ingest combat log")
)
