package config

import (
	"strconv"
	"time"
)

type StoreConfig interface {
	GetRedisAddr() string
	GetRedisDB() int
	GetRedisPassword() string
	GetStoreTimeout() time.Duration
}

type Store struct{}

var _ StoreConfig = Store{}

func (Store) GetRedisAddr() string {
	return GetEnv("REDIS_ADDR", "localhost:6379")
}

func (Store) GetRedisDB() int {
	db, err := strconv.Atoi(GetEnv("REDIS_DB", "0"))
	if err != nil {
		return 0
	}
	return db
}

func (Store) GetRedisPassword() string {
	return GetEnv("REDIS_PASSWORD", "")
}

// GetStoreTimeout bounds every store round trip. Authentication checks
// that hit this deadline fail closed.
func (Store) GetStoreTimeout() time.Duration {
	millis, err := strconv.Atoi(GetEnv("STORE_TIMEOUT_MS", "500"))
	if err != nil || millis <= 0 {
		millis = 500
	}
	return time.Duration(millis) * time.Millisecond
}
