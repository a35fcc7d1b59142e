package config

import "errors"

var (
	ErrNoServerAddress = errors.New("server address is not configured")
	ErrNoDatabaseDSN   = errors.New("database DSN is not configured")
	ErrNoTokenSignKey  = errors.New("token sign key is not configured")
	ErrNoServerBaseURL = errors.New("server base URL is not configured")
	ErrNoLocalDBPath   = errors.New("local database path is not configured")
)
